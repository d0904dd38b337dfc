package main

import (
	"encoding/json"
	"fmt"

	"github.com/bmcszk/dothttp"
	"github.com/spf13/cobra"
)

func newExportEnvironmentCommand() *cobra.Command {
	var environmentFile, environment, name string

	cmd := &cobra.Command{
		Use:   "export-environment [-n FILE] [-e KEY] [--name NAME]",
		Short: "Print an environment file's keys, or one key's variables as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if environmentFile == "" {
				return &dothttp.ConfigError{Cause: fmt.Errorf("--environment-file is required")}
			}

			if environment == "" {
				keys, err := dothttp.ExportEnvironmentKeys(environmentFile)
				if err != nil {
					return &dothttp.ConfigError{Cause: err}
				}
				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			}

			scopes := dothttp.NewScopes()
			if err := dothttp.LoadEnvironment(environmentFile, environment, scopes); err != nil {
				return &dothttp.ConfigError{Cause: err}
			}
			envJSON, err := scopes.SnapshotEnv()
			if err != nil {
				return &dothttp.ConfigError{Cause: err}
			}
			var vars map[string]any
			if err := json.Unmarshal(envJSON, &vars); err != nil {
				return &dothttp.ConfigError{Cause: err}
			}
			exported := map[string]any{"environment": environment, "variables": vars}
			if name != "" {
				exported["name"] = name
			}
			data, err := json.MarshalIndent(exported, "", "  ")
			if err != nil {
				return &dothttp.ConfigError{Cause: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&environmentFile, "environment-file", "n", "", "JSON {env:{var:value}} environment file")
	cmd.Flags().StringVarP(&environment, "environment", "e", "", "environment key to export")
	cmd.Flags().StringVar(&name, "name", "", "label to attach to the exported environment")
	return cmd
}
