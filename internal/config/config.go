// Package config loads per-project settings from .serialid.toml and
// .serialidignore at the root of a scanned tree.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/morozRed/serialid/internal/fileutil"
)

const (
	FileName   = ".serialid.toml"
	IgnoreFile = ".serialidignore"
)

// Config holds project settings. The zero value is not useful; start from
// Default.
type Config struct {
	// Languages restricts scanning to these front ends. Empty means all.
	Languages []string `toml:"languages"`
	// Ignore holds gitignore-style patterns, merged with .serialidignore.
	Ignore []string `toml:"ignore"`
	// Markers are extra fully-qualified interfaces that make a class
	// serializable.
	Markers []string     `toml:"markers"`
	Kotlin  KotlinConfig `toml:"kotlin"`

	// Path is the file the settings were read from, empty for defaults.
	Path string `toml:"-"`
}

type KotlinConfig struct {
	PadShortIDs bool `toml:"pad_short_ids"`
}

var languageAliases = map[string]string{
	"java":   "java",
	"kotlin": "kotlin",
	"kt":     "kotlin",
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{Kotlin: KotlinConfig{PadShortIDs: true}}
}

// Load reads the settings of the tree rooted at rootPath. Missing files are
// not an error.
func Load(rootPath string) (Config, error) {
	cfg := Default()

	path := filepath.Join(rootPath, FileName)
	if _, err := os.Stat(path); err == nil {
		decoded, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = decoded
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to stat %q: %w", path, err)
	}

	rules, err := LoadIgnoreRules(rootPath)
	if err != nil {
		return Config{}, err
	}
	cfg.Ignore = fileutil.DedupeStrings(append(cfg.Ignore, rules...))
	return cfg, nil
}

// LoadFile decodes one TOML file on top of the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	languages, err := CanonicalLanguages(cfg.Languages)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Languages = languages
	for i, marker := range cfg.Markers {
		cfg.Markers[i] = strings.TrimSpace(marker)
	}
	cfg.Path = path
	return cfg, nil
}

// CanonicalLanguages maps language names and aliases to front-end names,
// de-duplicated and sorted.
func CanonicalLanguages(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		canonical, ok := languageAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unsupported language %q (supported: java, kotlin)", name)
		}
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, canonical)
	}
	sort.Strings(out)
	return out, nil
}

// LoadIgnoreRules reads .serialidignore, skipping blank lines and comments.
func LoadIgnoreRules(rootPath string) ([]string, error) {
	ignorePath := filepath.Join(rootPath, IgnoreFile)
	f, err := os.Open(ignorePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFile, err)
	}
	defer f.Close()

	rules := make([]string, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", IgnoreFile, err)
	}

	return rules, nil
}

// WantsLanguage reports whether files of lang should be scanned.
func (c Config) WantsLanguage(lang string) bool {
	if len(c.Languages) == 0 {
		return true
	}
	for _, l := range c.Languages {
		if l == lang {
			return true
		}
	}
	return false
}
