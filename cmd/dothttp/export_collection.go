package main

import (
	"encoding/json"
	"fmt"

	"github.com/bmcszk/dothttp"
	"github.com/spf13/cobra"
)

// collectionRequest is one exported entry in an export-collection document:
// enough to identify and replay a parsed RequestScript without re-parsing
// its source file.
type collectionRequest struct {
	File        string `json:"file"`
	Name        string `json:"name"`
	Method      string `json:"method"`
	URL         string `json:"url"`
	HTTPVersion string `json:"httpVersion,omitempty"`
}

type collectionDocument struct {
	Name     string              `json:"name,omitempty"`
	Requests []collectionRequest `json:"requests"`
}

func newExportCollectionCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "export-collection [--name NAME] FILES...",
		Short: "Print a JSON collection summarizing every request across the given files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := collectionDocument{Name: name}
			for _, path := range args {
				file, err := dothttp.ParseFile(path)
				if err != nil {
					return &dothttp.ConfigError{Cause: err}
				}
				for _, script := range file.Scripts {
					if script.IsEmpty() {
						continue
					}
					doc.Requests = append(doc.Requests, collectionRequest{
						File:        path,
						Name:        script.Name,
						Method:      script.Request.Method,
						URL:         script.Request.Target.Raw,
						HTTPVersion: script.Request.HTTPVersion,
					})
				}
			}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return &dothttp.ConfigError{Cause: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "label for the exported collection")
	return cmd
}
