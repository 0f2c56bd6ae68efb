// Package ignore decides which paths of a scanned tree are skipped. Rules
// come from the [scan] ignore list of the config file and from
// .serialidignore, and use a gitignore subset: "#" comments, "!" negation,
// a leading "/" anchors to the scan root, a trailing "/" matches directories
// only, "*" and "?" stay within one path segment and "**" crosses segments.
package ignore

import (
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultRules skip VCS and IDE metadata, the snapshot directory and the
// output directories of Gradle, Maven and IntelliJ, where generated or copied
// sources would otherwise be hashed next to the real ones. A user rule such
// as "!build/" brings a directory back.
var DefaultRules = []string{
	".git/",
	".serialid/",
	".gradle/",
	".idea/",
	"node_modules/",
	"vendor/",
	"build/",
	"target/",
	"out/",
}

type rule struct {
	pattern  string
	re       *regexp.Regexp
	negated  bool
	dirOnly  bool
	anchored bool
}

// Matcher evaluates rules in order; the last matching rule decides.
type Matcher struct {
	rules []rule
}

// NewMatcher builds a matcher from DefaultRules followed by userRules, so
// user negations can override the defaults. Blank and comment lines are
// dropped.
func NewMatcher(userRules []string) *Matcher {
	m := &Matcher{rules: make([]rule, 0, len(DefaultRules)+len(userRules))}
	for _, lines := range [][]string{DefaultRules, userRules} {
		for _, line := range lines {
			if parsed, ok := parseRule(line); ok {
				m.rules = append(m.rules, parsed)
			}
		}
	}
	return m
}

// ShouldIgnore reports whether relPath, relative to the scan root, is
// excluded. isDir lets directory-only rules match the directory itself.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = normalizePath(relPath)
	ignored := false
	for _, r := range m.rules {
		if r.matches(relPath, isDir) {
			ignored = !r.negated
		}
	}
	return ignored
}

func parseRule(line string) (rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false
	}

	var parsed rule
	if rest, ok := strings.CutPrefix(line, "!"); ok {
		parsed.negated, line = true, rest
	}
	if rest, ok := strings.CutPrefix(line, "/"); ok {
		parsed.anchored, line = true, rest
	}
	if rest, ok := strings.CutSuffix(line, "/"); ok {
		parsed.dirOnly, line = true, rest
	}

	line = normalizePath(line)
	if line == "" {
		return rule{}, false
	}
	re, err := regexp.Compile("^" + globToRegex(line) + "$")
	if err != nil {
		return rule{}, false
	}
	parsed.pattern, parsed.re = line, re
	return parsed, true
}

func (r rule) matches(relPath string, isDir bool) bool {
	switch {
	case r.dirOnly:
		return r.inDirectory(relPath) || (isDir && r.re.MatchString(filepath.Base(relPath)))
	case r.anchored:
		return r.re.MatchString(relPath)
	case strings.Contains(r.pattern, "/"):
		// An unanchored path pattern may start at any segment.
		parts := strings.Split(relPath, "/")
		for i := range parts {
			if r.re.MatchString(strings.Join(parts[i:], "/")) {
				return true
			}
		}
		return false
	}

	for _, segment := range strings.Split(relPath, "/") {
		if r.re.MatchString(segment) {
			return true
		}
	}
	return false
}

// inDirectory reports whether relPath lies in a directory the rule names.
// Unanchored rules match the directory at any depth.
func (r rule) inDirectory(relPath string) bool {
	under := func(path string) bool {
		return path == r.pattern || strings.HasPrefix(path, r.pattern+"/")
	}
	if under(relPath) {
		return true
	}
	if r.anchored {
		return false
	}
	parts := strings.Split(relPath, "/")
	for i := 1; i < len(parts); i++ {
		if under(strings.Join(parts[i:], "/")) {
			return true
		}
	}
	return false
}

func globToRegex(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		switch ch := pattern[i]; {
		case ch == '*' && i+1 < len(pattern) && pattern[i+1] == '*':
			b.WriteString(".*")
			i++
		case ch == '*':
			b.WriteString("[^/]*")
		case ch == '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	return b.String()
}

func normalizePath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")
	return strings.TrimPrefix(path, "/")
}
