// Command dothttp executes ".http" request scripts against layered
// variable scopes, per-request JS handlers, and an HTTP dispatcher,
// reporting outcomes in either a human-readable or CI-friendly format.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/bmcszk/dothttp"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "dothttp [OPTS] FILES...",
		Short:         "Run .http request scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	execute := newExecuteCommand()
	root.RunE = execute.RunE
	root.Flags().AddFlagSet(execute.Flags())

	root.AddCommand(execute)
	root.AddCommand(newExportEnvironmentCommand())
	root.AddCommand(newExportCollectionCommand())
	return root
}

// exitCodeFor maps an error onto spec §6's exit codes: 2 for invalid
// arguments or parse errors (*ConfigError, *dothttp.ParseError), 1 for
// anything else this CLI surfaces as a terminal error. In ci format, a run
// with failed tests/errored requests sets exit code 1 directly in
// runExecute, bypassing this path entirely; in standard format it exits 0.
func exitCodeFor(err error) int {
	var cfgErr *dothttp.ConfigError
	var parseErr *dothttp.ParseError
	if errors.As(err, &cfgErr) || errors.As(err, &parseErr) {
		return 2
	}
	return 1
}
