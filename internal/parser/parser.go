package parser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/morozRed/serialid/internal/fileutil"
	"github.com/morozRed/serialid/internal/ignore"
	"golang.org/x/sync/errgroup"
)

// LanguageParser defines the interface each language must implement.
// Implementations must be safe for concurrent use.
type LanguageParser interface {
	// Language returns the language name (e.g., "java", "kotlin")
	Language() string

	// Extensions returns file extensions this parser handles
	Extensions() []string

	// Parse extracts class declarations from source code
	Parse(filename string, content []byte) (*FileDecls, error)
}

// Registry holds all registered language parsers
type Registry struct {
	parsers   map[string]LanguageParser // language name -> parser
	extToLang map[string]string         // extension -> language name
}

// NewRegistry creates a new parser registry
func NewRegistry() *Registry {
	return &Registry{
		parsers:   make(map[string]LanguageParser),
		extToLang: make(map[string]string),
	}
}

// Register adds a language parser to the registry
func (r *Registry) Register(p LanguageParser) {
	lang := p.Language()
	r.parsers[lang] = p
	for _, ext := range p.Extensions() {
		r.extToLang[ext] = lang
	}
}

// GetParserForFile returns the appropriate parser for a file
func (r *Registry) GetParserForFile(filename string) (LanguageParser, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	lang, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	parser, ok := r.parsers[lang]
	return parser, ok
}

// Languages returns the registered language names, sorted.
func (r *Registry) Languages() []string {
	langs := make([]string, 0, len(r.parsers))
	for lang := range r.parsers {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// ParseFile parses a single file and returns its declarations
func (r *Registry) ParseFile(path string) (*FileDecls, error) {
	parser, ok := r.GetParserForFile(path)
	if !ok {
		return nil, nil // unsupported file type, skip silently
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	decls, err := parser.Parse(path, content)
	if err != nil {
		return nil, err
	}
	decls.Hash = fileutil.HashBytes(content)

	return decls, nil
}

// ParseDirectory recursively parses all supported files under root. Files
// are parsed concurrently; the result is sorted by path so callers see the
// same order on every run.
func (r *Registry) ParseDirectory(ctx context.Context, root string, ignorePaths []string) (*ParseResult, error) {
	ignoreMatcher := ignore.NewMatcher(ignorePaths)

	result := &ParseResult{
		RootPath: root,
		Files:    make([]FileDecls, 0),
		Issues:   make([]ParseIssue, 0),
	}

	var paths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			relPath := path
			if rel, relErr := filepath.Rel(root, path); relErr == nil {
				relPath = rel
			}
			result.Issues = append(result.Issues, ParseIssue{
				File:     relPath,
				Severity: "warning",
				Message:  fmt.Sprintf("walk error: %v", err),
			})
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		if ignoreMatcher.ShouldIgnore(relPath, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if _, ok := r.GetParserForFile(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	files := make([]*FileDecls, len(paths))
	issues := make([]*ParseIssue, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			relPath, _ := filepath.Rel(root, path)
			decls, err := r.ParseFile(path)
			if err != nil {
				lang := ""
				if langParser, ok := r.GetParserForFile(path); ok {
					lang = langParser.Language()
				}
				issues[i] = &ParseIssue{
					File:     relPath,
					Language: lang,
					Severity: "error",
					Message:  err.Error(),
				}
				return nil
			}
			decls.Path = filepath.ToSlash(relPath)
			files[i] = decls
			slog.Debug("parsed file", "path", decls.Path, "language", decls.Language, "classes", len(decls.Classes))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	for i := range paths {
		if files[i] != nil {
			result.Files = append(result.Files, *files[i])
		}
		if issues[i] != nil {
			result.Issues = append(result.Issues, *issues[i])
		}
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Path < result.Files[j].Path
	})
	sort.Slice(result.Issues, func(i, j int) bool {
		if result.Issues[i].File == result.Issues[j].File {
			return result.Issues[i].Message < result.Issues[j].Message
		}
		return result.Issues[i].File < result.Issues[j].File
	})

	return result, nil
}
