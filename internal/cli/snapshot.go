package cli

import (
	"fmt"

	"github.com/morozRed/serialid/internal/fileutil"
	"github.com/morozRed/serialid/internal/state"
	"github.com/spf13/cobra"
)

type SnapshotSummary struct {
	Mode     string `json:"mode"`
	RootPath string `json:"root_path"`
	Output   string `json:"output"`
	Files    int    `json:"files"`
	Classes  int    `json:"classes"`
}

func RunSnapshot(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json")
	if err != nil {
		return err
	}

	report, err := loadReport(cmd, args)
	if err != nil {
		return err
	}

	st := state.NewState()
	for name, class := range currentClasses(report) {
		st.SetClass(name, class)
	}
	for file, hash := range report.FileHashes {
		st.SetFileHash(file, hash)
	}
	if err := st.Save(report.RootPath); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	summary := SnapshotSummary{
		Mode:     "snapshot",
		RootPath: report.RootPath,
		Output:   snapshotPath(),
		Files:    len(st.Files),
		Classes:  len(st.Classes),
	}
	if asJSON {
		return fileutil.PrintJSON(summary)
	}
	fmt.Printf("snapshot: files=%d classes=%d\n", summary.Files, summary.Classes)
	fmt.Printf("output: %s\n", summary.Output)
	return nil
}
