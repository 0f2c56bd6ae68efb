package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/morozRed/serialid/internal/fileutil"
	"github.com/morozRed/serialid/internal/rewrite"
	"github.com/morozRed/serialid/internal/scan"
	"github.com/morozRed/serialid/internal/suid"
	"github.com/spf13/cobra"
)

type FixSummary struct {
	Mode         string   `json:"mode"`
	RootPath     string   `json:"root_path"`
	DryRun       bool     `json:"dry_run"`
	Classes      int      `json:"classes"`
	Files        int      `json:"files"`
	Skipped      int      `json:"skipped"`
	ChangedFiles []string `json:"changed_files,omitempty"`
}

func RunFix(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json")
	if err != nil {
		return err
	}
	dryRun, err := OptionalBoolFlag(cmd, "dry-run")
	if err != nil {
		return err
	}
	keepExisting, err := OptionalBoolFlag(cmd, "keep-existing")
	if err != nil {
		return err
	}

	report, err := loadReport(cmd, args)
	if err != nil {
		return err
	}

	summary := FixSummary{Mode: "fix", RootPath: report.RootPath, DryRun: dryRun}
	byFile := make(map[string][]scan.Result)
	order := make([]string, 0)
	for _, res := range report.Stale() {
		if keepExisting && res.State == suid.PresentInconsistent {
			summary.Skipped++
			continue
		}
		if _, ok := byFile[res.File]; !ok {
			order = append(order, res.File)
		}
		byFile[res.File] = append(byFile[res.File], res)
	}

	changed := make(map[string]bool)
	for _, file := range order {
		path := filepath.Join(report.RootPath, filepath.FromSlash(file))
		before, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		edits := make([]rewrite.Edit, 0, len(byFile[file]))
		for _, res := range byFile[file] {
			edit, err := rewrite.Plan(before, res.Decl, res.ID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: skipping %s in %s: %v\n", res.Class, file, err)
				summary.Skipped++
				continue
			}
			edits = append(edits, edit)
			summary.Classes++
		}
		if len(edits) == 0 {
			continue
		}
		after, err := rewrite.Apply(before, edits)
		if err != nil {
			return fmt.Errorf("failed to rewrite %s: %w", file, err)
		}

		if dryRun {
			if !asJSON {
				fmt.Print(rewrite.Preview(file, before, after))
			}
			changed[file] = true
			continue
		}
		wrote, err := fileutil.WriteIfChangedTracked(path, after)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", file, err)
		}
		if wrote {
			slog.Debug("rewrote file", "file", file, "classes", len(edits))
			changed[file] = true
		}
	}

	summary.ChangedFiles = fileutil.MapKeysSorted(changed)
	summary.Files = len(summary.ChangedFiles)
	return PrintFixSummary(summary, asJSON)
}

func PrintFixSummary(summary FixSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	mode := summary.Mode
	if summary.DryRun {
		mode += " (dry-run)"
	}
	fmt.Printf("%s: classes=%d files=%d skipped=%d\n", mode, summary.Classes, summary.Files, summary.Skipped)
	if len(summary.ChangedFiles) > 0 && !summary.DryRun {
		fmt.Printf("changed files (%d): %s\n", len(summary.ChangedFiles), fileutil.SummarizePaths(summary.ChangedFiles, 8))
	}
	return nil
}
