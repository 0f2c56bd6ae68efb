package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/morozRed/serialid/internal/config"
	"github.com/morozRed/serialid/internal/parser"
	"github.com/morozRed/serialid/internal/scan"
	"github.com/morozRed/serialid/internal/state"
	"github.com/spf13/cobra"
)

// loadReport resolves the tree named by args, applies .serialid.toml and
// --lang, and scans it.
func loadReport(cmd *cobra.Command, args []string) (*scan.Report, error) {
	rootPath, err := resolveRootPath(args)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(rootPath)
	if err != nil {
		return nil, err
	}
	langs, err := ParseLanguageFilter(cmd)
	if err != nil {
		return nil, err
	}
	if len(langs) > 0 {
		cfg.Languages = langs
	}
	if cfg.Path != "" {
		slog.Debug("loaded config", "path", cfg.Path)
	}

	report, err := scan.Run(commandContext(cmd), rootPath, cfg)
	if err != nil {
		return nil, err
	}
	ReportParseIssues(report.Issues)
	slog.Debug("scan complete", "root", rootPath, "files", report.Files, "classes", len(report.Results))
	return report, nil
}

func ReportParseIssues(issues []parser.ParseIssue) {
	for _, issue := range issues {
		if issue.Language != "" {
			fmt.Fprintf(os.Stderr, "warning: [%s] %s (%s): %s\n", issue.Severity, issue.File, issue.Language, issue.Message)
			continue
		}
		fmt.Fprintf(os.Stderr, "warning: [%s] %s: %s\n", issue.Severity, issue.File, issue.Message)
	}
}

func IsCorruptStateError(err error) bool {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &typeErr)
}

// loadSnapshot reads the snapshot of rootPath. A corrupt file is reported
// and treated as empty.
func loadSnapshot(rootPath string) (*state.State, bool, error) {
	st, exists, err := state.Load(rootPath)
	if err != nil {
		if IsCorruptStateError(err) {
			fmt.Fprintf(os.Stderr, "warning: corrupt snapshot detected (%v); treating all classes as added\n", err)
			return state.NewState(), false, nil
		}
		return nil, false, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return st, exists, nil
}

// currentClasses keys the report's results by their file-scoped class id,
// so classes sharing a name across source sets stay distinct.
func currentClasses(report *scan.Report) map[string]state.ClassState {
	classes := make(map[string]state.ClassState, len(report.Results))
	for _, res := range report.Results {
		key := res.File + "|" + res.Class
		if res.Decl != nil {
			key = parser.StableClassID(res.File, res.Decl)
		}
		classes[key] = state.ClassState{Class: res.Class, File: res.File, Language: res.Language, ID: res.ID}
	}
	return classes
}
