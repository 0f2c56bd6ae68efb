package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/morozRed/serialid/internal/fileutil"
	"github.com/morozRed/serialid/internal/state"
	"github.com/spf13/cobra"
)

// ErrChanged is returned by diff --exit-code when ids changed.
var ErrChanged = errors.New("structural ids changed since snapshot")

type DiffSummary struct {
	Mode         string         `json:"mode"`
	RootPath     string         `json:"root_path"`
	Changes      []state.Change `json:"changes"`
	ChangedFiles []string       `json:"changed_files,omitempty"`
	DeletedFiles []string       `json:"deleted_files,omitempty"`
}

func RunDiff(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json")
	if err != nil {
		return err
	}
	exitCode, err := OptionalBoolFlag(cmd, "exit-code")
	if err != nil {
		return err
	}

	report, err := loadReport(cmd, args)
	if err != nil {
		return err
	}
	st, exists, err := loadSnapshot(report.RootPath)
	if err != nil {
		return err
	}
	if !exists {
		fmt.Fprintf(os.Stderr, "warning: no snapshot at %s; run serialid snapshot first\n", snapshotPath())
	}

	summary := DiffSummary{
		Mode:         "diff",
		RootPath:     report.RootPath,
		Changes:      st.Diff(currentClasses(report)),
		ChangedFiles: st.ChangedFiles(report.FileHashes),
		DeletedFiles: st.DeletedFiles(report.FileHashes),
	}

	if asJSON {
		if err := fileutil.PrintJSON(summary); err != nil {
			return err
		}
	} else {
		printDiffSummary(summary)
	}

	if exitCode && len(summary.Changes) > 0 {
		return ErrChanged
	}
	return nil
}

func printDiffSummary(summary DiffSummary) {
	for _, change := range summary.Changes {
		switch change.Kind {
		case "changed":
			fmt.Printf("changed %s (%s): %dL -> %dL\n", change.Class, change.File, change.Old, change.New)
		case "added":
			fmt.Printf("added %s (%s): %dL\n", change.Class, change.File, change.New)
		case "removed":
			fmt.Printf("removed %s (%s): %dL\n", change.Class, change.File, change.Old)
		}
	}
	fmt.Printf("diff: changes=%d changed_files=%d deleted_files=%d\n",
		len(summary.Changes), len(summary.ChangedFiles), len(summary.DeletedFiles))
	if len(summary.ChangedFiles) > 0 {
		fmt.Printf("changed files (%d): %s\n", len(summary.ChangedFiles), fileutil.SummarizePaths(summary.ChangedFiles, 8))
	}
	if len(summary.DeletedFiles) > 0 {
		fmt.Printf("deleted files (%d): %s\n", len(summary.DeletedFiles), fileutil.SummarizePaths(summary.DeletedFiles, 8))
	}
}
