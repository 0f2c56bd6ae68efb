// Package scan parses a source tree and computes the structural id of every
// class that should carry a serialVersionUID field.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"github.com/morozRed/serialid/internal/config"
	"github.com/morozRed/serialid/internal/languages"
	"github.com/morozRed/serialid/internal/parser"
	"github.com/morozRed/serialid/internal/suid"
	"golang.org/x/sync/errgroup"
)

// Result describes one class that needs an id field.
type Result struct {
	File     string          `json:"file"`
	Language string          `json:"language"`
	Class    string          `json:"class"`
	Line     int             `json:"line"`
	ID       int64           `json:"id"`
	State    suid.FieldState `json:"state"`
	// Current is the literal of the existing field, if any.
	Current string `json:"current,omitempty"`

	Decl *parser.ClassDecl `json:"-"`
}

// Report is the outcome of one scan.
type Report struct {
	RootPath string              `json:"root_path"`
	Files    int                 `json:"files"`
	Results  []Result            `json:"results"`
	Issues   []parser.ParseIssue `json:"issues,omitempty"`

	FileHashes map[string]string `json:"-"`
}

// Counts tallies results by field state.
func (r *Report) Counts() map[suid.FieldState]int {
	counts := make(map[suid.FieldState]int)
	for _, res := range r.Results {
		counts[res.State]++
	}
	return counts
}

// Stale returns the results whose field is missing or out of date.
func (r *Report) Stale() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.State != suid.PresentConsistent {
			out = append(out, res)
		}
	}
	return out
}

// Run scans rootPath with cfg.
func Run(ctx context.Context, rootPath string, cfg config.Config) (*Report, error) {
	registry := languages.NewDefaultRegistry()
	parsed, err := registry.ParseDirectory(ctx, rootPath, cfg.Ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source files: %w", err)
	}

	files := make([]parser.FileDecls, 0, len(parsed.Files))
	for _, file := range parsed.Files {
		if cfg.WantsLanguage(file.Language) {
			files = append(files, file)
		}
	}
	return Hash(ctx, rootPath, files, parsed.Issues, cfg)
}

// Hash computes results for already parsed files.
func Hash(ctx context.Context, rootPath string, files []parser.FileDecls, issues []parser.ParseIssue, cfg config.Config) (*Report, error) {
	hasher := suid.NewHasher(
		suid.WithMarkers(cfg.Markers...),
		suid.WithIndex(suid.NewIndex(files)),
	)

	perFile := make([][]Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results, err := hashFile(hasher, &files[i], cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", files[i].Path, err)
			}
			perFile[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		RootPath:   rootPath,
		Files:      len(files),
		Results:    make([]Result, 0),
		Issues:     issues,
		FileHashes: make(map[string]string, len(files)),
	}
	for i, results := range perFile {
		report.Results = append(report.Results, results...)
		report.FileHashes[files[i].Path] = files[i].Hash
	}
	sort.SliceStable(report.Results, func(i, j int) bool {
		if report.Results[i].File != report.Results[j].File {
			return report.Results[i].File < report.Results[j].File
		}
		return report.Results[i].Line < report.Results[j].Line
	})
	return report, nil
}

func hashFile(hasher *suid.Hasher, file *parser.FileDecls, cfg config.Config) ([]Result, error) {
	var results []Result
	for _, class := range file.AllClasses() {
		if !hasher.NeedsGeneratedField(class) {
			continue
		}
		id, err := hasher.ComputeStructuralID(class)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", class.QualifiedName, err)
		}
		if class.Language == "kotlin" && cfg.Kotlin.PadShortIDs {
			id = suid.PadSmallID(id)
		}

		res := Result{
			File:     file.Path,
			Language: class.Language,
			Class:    class.QualifiedName,
			Line:     class.Line,
			ID:       id,
			State:    hasher.CurrentFieldState(class, id),
			Decl:     class,
		}
		if class.IDField != nil {
			res.Current = class.IDField.Literal
		}
		slog.Debug("computed id", "class", res.Class, "id", res.ID, "state", res.State)
		results = append(results, res)
	}
	return results, nil
}
