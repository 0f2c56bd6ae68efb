package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "serialid",
		Short: "Compute and maintain serialVersionUID fields for Java and Kotlin",
		Long: `serialid computes the stream-compatible serialVersionUID of every
serializable class in a Java or Kotlin source tree, reports classes whose
declared id is missing or stale, and can write the declarations for you.

Ids are derived from declarations alone, so no compiled classes are needed.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			configureLogging(verbose)
		},
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging on stderr")

	computeCmd := &cobra.Command{
		Use:   "compute [path]",
		Short: "Print the computed id of every class that should declare one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunCompute,
	}
	addScanFlags(computeCmd)
	computeCmd.Flags().Bool("json", false, "Print machine-readable report")
	computeCmd.Flags().Bool("jsonl", false, "Print one JSON record per class")

	checkCmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Fail when a declared id disagrees with the computed one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunCheck,
	}
	addScanFlags(checkCmd)
	checkCmd.Flags().Bool("strict", false, "Also fail on classes without an id")
	checkCmd.Flags().Bool("json", false, "Print machine-readable check output")

	fixCmd := &cobra.Command{
		Use:   "fix [path]",
		Short: "Insert or update id declarations in source files",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunFix,
	}
	addScanFlags(fixCmd)
	fixCmd.Flags().Bool("dry-run", false, "Print a diff instead of writing files")
	fixCmd.Flags().Bool("keep-existing", false, "Only add missing ids, never change declared values")
	fixCmd.Flags().Bool("json", false, "Print machine-readable run summary")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [path]",
		Short: "Record computed ids in " + snapshotPath(),
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunSnapshot,
	}
	addScanFlags(snapshotCmd)
	snapshotCmd.Flags().Bool("json", false, "Print machine-readable run summary")

	diffCmd := &cobra.Command{
		Use:   "diff [path]",
		Short: "Show classes whose structure changed since the last snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunDiff,
	}
	addScanFlags(diffCmd)
	diffCmd.Flags().Bool("json", false, "Print machine-readable diff output")
	diffCmd.Flags().Bool("exit-code", false, "Exit non-zero when any id changed")

	installHookCmd := &cobra.Command{
		Use:   "install-hook",
		Short: "Install git pre-commit hook that runs serialid check",
		RunE:  RunInstallHook,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("serialid %s\n", version)
		},
	}

	rootCmd.AddCommand(
		computeCmd,
		checkCmd,
		fixCmd,
		snapshotCmd,
		diffCmd,
		installHookCmd,
		versionCmd,
	)

	return rootCmd
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("lang", "l", []string{}, "Languages to include: java, kotlin (default: from config, else all)")
}

func configureLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
