package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/bmcszk/dothttp"
	"github.com/spf13/cobra"
)

type executeFlags struct {
	environmentFile    string
	environment        string
	snapshot           string
	acceptInvalidCerts bool
	format             string
	requestFormat      string
	responseFormat     string
}

func newExecuteCommand() *cobra.Command {
	flags := &executeFlags{}

	cmd := &cobra.Command{
		Use:   "execute [OPTS] FILES...",
		Short: "Parse and run one or more .http files (default subcommand)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.environmentFile, "environment-file", "n", "", "JSON {env:{var:value}} environment file")
	cmd.Flags().StringVarP(&flags.environment, "environment", "e", "", "environment key to load")
	cmd.Flags().StringVarP(&flags.snapshot, "snapshot", "p", "", "path for global-scope snapshot load/persist")
	cmd.Flags().BoolVar(&flags.acceptInvalidCerts, "accept-invalid-certs", false, "disable TLS certificate verification")
	cmd.Flags().StringVar(&flags.format, "format", "standard", "reporter output: standard|ci")
	cmd.Flags().StringVar(&flags.requestFormat, "request-format", "", "request format string (tokens %N %R %B %H)")
	cmd.Flags().StringVar(&flags.responseFormat, "response-format", "", "response format string (tokens %R %H %B %T)")

	return cmd
}

// fileSelector is one FILES… argument, optionally suffixed with ":<N>" to
// select only the N-th (1-based) request of that file (spec §6).
type fileSelector struct {
	path  string
	index int // 0 means "all requests"
}

func parseFileSelector(arg string) fileSelector {
	if idx := strings.LastIndex(arg, ":"); idx != -1 {
		if n, err := strconv.Atoi(arg[idx+1:]); err == nil && n > 0 {
			return fileSelector{path: arg[:idx], index: n}
		}
	}
	return fileSelector{path: arg}
}

func runExecute(cmd *cobra.Command, args []string, flags *executeFlags) error {
	format := dothttp.ReportFormat(flags.format)
	if format != dothttp.FormatStandard && format != dothttp.FormatCI {
		return &dothttp.ConfigError{Cause: fmt.Errorf("unknown --format %q", flags.format)}
	}

	scopes := dothttp.NewScopes()
	if err := dothttp.LoadEnvironment(flags.environmentFile, flags.environment, scopes); err != nil {
		return &dothttp.ConfigError{Cause: err}
	}
	if flags.snapshot != "" {
		if err := dothttp.LoadSnapshot(flags.snapshot, scopes); err != nil {
			return &dothttp.ConfigError{Cause: err}
		}
	}

	dispatcher := dothttp.NewDispatcher(flags.acceptInvalidCerts, 0)
	reporter := dothttp.NewReporter(cmd.OutOrStdout(), format, flags.requestFormat, flags.responseFormat)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var firstParseErr error

	for _, arg := range args {
		selector := parseFileSelector(arg)

		if err := dothttp.LoadDotEnv(selector.path, scopes); err != nil {
			return &dothttp.ConfigError{Cause: err}
		}

		file, err := dothttp.ParseFile(selector.path)
		if err != nil {
			if firstParseErr == nil {
				// main.go prints the returned error; giving it the leading
				// file path here avoids printing this same failure twice.
				firstParseErr = fmt.Errorf("%s: %w", selector.path, err)
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", selector.path, err)
			}
			continue
		}
		if selector.index > 0 {
			file = selectSingleScript(file, selector.index)
			if file == nil {
				return &dothttp.ConfigError{Cause: fmt.Errorf("%s: request index %d out of range", selector.path, selector.index)}
			}
		}

		executor := dothttp.NewExecutor(scopes, dispatcher)
		executor.OnOutcome = reporter.Report
		if flags.snapshot != "" {
			executor.OnSnapshot = func() {
				if err := dothttp.WriteSnapshot(flags.snapshot, scopes); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", (&dothttp.SnapshotIOError{Path: flags.snapshot, Cause: err}).Error())
				}
			}
		}

		if err := executor.Run(ctx, file); err != nil {
			// Per-request failures were already reported; Run's combined
			// error only affects the ci-mode exit code via reporter.Failed.
			_ = err
		}
		if ctx.Err() != nil {
			break
		}
	}

	if firstParseErr != nil {
		return firstParseErr
	}
	if format == dothttp.FormatCI && reporter.Failed() {
		os.Exit(1)
	}
	return nil
}

func selectSingleScript(file *dothttp.File, index int) *dothttp.File {
	if index < 1 || index > len(file.Scripts) {
		return nil
	}
	return &dothttp.File{Path: file.Path, Scripts: []dothttp.RequestScript{file.Scripts[index-1]}}
}
