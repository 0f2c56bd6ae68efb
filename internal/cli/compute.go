package cli

import (
	"fmt"
	"os"

	"github.com/morozRed/serialid/internal/fileutil"
	"github.com/spf13/cobra"
)

func RunCompute(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json")
	if err != nil {
		return err
	}
	asJSONL, err := OptionalBoolFlag(cmd, "jsonl")
	if err != nil {
		return err
	}
	if asJSON && asJSONL {
		return fmt.Errorf("--json and --jsonl are mutually exclusive")
	}

	report, err := loadReport(cmd, args)
	if err != nil {
		return err
	}

	switch {
	case asJSON:
		return fileutil.PrintJSON(report)
	case asJSONL:
		data, err := fileutil.EncodeJSONL(report.Results)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	for _, res := range report.Results {
		fmt.Printf("%s:%d %s %dL %s\n", res.File, res.Line, res.Class, res.ID, res.State)
	}
	fmt.Printf("compute: files=%d classes=%d\n", report.Files, len(report.Results))
	return nil
}
