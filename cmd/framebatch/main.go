// Command framebatch runs and inspects the frame-budgeted batch scheduler.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rshade/framebatch/internal/cli"
	"github.com/rshade/framebatch/pkg/version"
)

func main() {
	os.Exit(run())
}

// run executes the root command and returns the process exit code.
func run() int {
	root := cli.NewRootCmd(version.GetVersion())
	err := root.Execute()
	if err == nil {
		return 0
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return extractOverrunExitCode(err)
}

// extractOverrunExitCode maps err to an exit code: 0 for nil, the carried code
// for an OverrunExitError anywhere in the chain, and 1 otherwise.
func extractOverrunExitCode(err error) int {
	if err == nil {
		return 0
	}
	var overrun *cli.OverrunExitError
	if errors.As(err, &overrun) {
		return overrun.ExitCode
	}
	return 1
}
