package main

import (
	"errors"
	"os"

	"github.com/morozRed/serialid/internal/cli"
)

var version = "0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and maps failures to exit codes: 1 when check or
// diff --exit-code found problems, 2 for any other error.
func run(args []string) int {
	root := cli.NewRootCommand(version)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		if errors.Is(err, cli.ErrStale) || errors.Is(err, cli.ErrChanged) {
			return 1
		}
		return 2
	}
	return 0
}
