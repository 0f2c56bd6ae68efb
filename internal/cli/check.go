package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/morozRed/serialid/internal/fileutil"
	"github.com/morozRed/serialid/internal/scan"
	"github.com/morozRed/serialid/internal/suid"
	"github.com/spf13/cobra"
)

// ErrStale is returned by check when a class fails it.
var ErrStale = errors.New("serialVersionUID check failed")

type CheckSummary struct {
	Mode         string        `json:"mode"`
	RootPath     string        `json:"root_path"`
	Strict       bool          `json:"strict"`
	Passed       bool          `json:"passed"`
	Classes      int           `json:"classes"`
	Consistent   int           `json:"consistent"`
	Inconsistent int           `json:"inconsistent"`
	Missing      int           `json:"missing"`
	Findings     []scan.Result `json:"findings,omitempty"`
}

var (
	okLabel      = color.New(color.FgGreen)
	staleLabel   = color.New(color.FgRed, color.Bold)
	missingLabel = color.New(color.FgYellow)
)

func RunCheck(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json")
	if err != nil {
		return err
	}
	strict, err := OptionalBoolFlag(cmd, "strict")
	if err != nil {
		return err
	}

	report, err := loadReport(cmd, args)
	if err != nil {
		return err
	}

	counts := report.Counts()
	summary := CheckSummary{
		Mode:         "check",
		RootPath:     report.RootPath,
		Strict:       strict,
		Classes:      len(report.Results),
		Consistent:   counts[suid.PresentConsistent],
		Inconsistent: counts[suid.PresentInconsistent],
		Missing:      counts[suid.Absent] + counts[suid.PresentNoID],
		Findings:     report.Stale(),
	}
	summary.Passed = summary.Inconsistent == 0 && (!strict || summary.Missing == 0)

	if asJSON {
		if err := fileutil.PrintJSON(summary); err != nil {
			return err
		}
	} else {
		for _, res := range summary.Findings {
			fmt.Printf("%s %s:%d %s %s\n", stateLabel(res.State), res.File, res.Line, res.Class, findingDetail(res))
		}
		fmt.Printf("check: classes=%d consistent=%d inconsistent=%d missing=%d\n",
			summary.Classes, summary.Consistent, summary.Inconsistent, summary.Missing)
	}

	if !summary.Passed {
		return ErrStale
	}
	return nil
}

func stateLabel(state suid.FieldState) string {
	switch state {
	case suid.PresentConsistent:
		return okLabel.Sprintf("%-12s", "ok")
	case suid.PresentInconsistent:
		return staleLabel.Sprintf("%-12s", "inconsistent")
	case suid.PresentNoID:
		return missingLabel.Sprintf("%-12s", "no-id")
	default:
		return missingLabel.Sprintf("%-12s", "missing")
	}
}

func findingDetail(res scan.Result) string {
	switch res.State {
	case suid.PresentInconsistent:
		return fmt.Sprintf("declared %s, expected %dL", res.Current, res.ID)
	case suid.PresentNoID:
		return fmt.Sprintf("declared without a value, expected %dL", res.ID)
	default:
		return fmt.Sprintf("expected %dL", res.ID)
	}
}
