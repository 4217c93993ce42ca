// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/mapgrab/mapgrab/cmd/mapgrab/cli"
	"github.com/mapgrab/mapgrab/lib/mapstore"
)

// ListCommand returns the "mapgrab list" command.
func ListCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "list",
		Summary: "List collected runs",
		Usage:   "mapgrab list [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to mapgrab.yaml")
			return flags
		},
		Run: func(args []string) error {
			logger := cli.NewCommandLogger(false).With("command", "list")
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(context.Background())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "RUN\tPAGE\tSTARTED\tSCRIPTS\tFAILURES")
			for _, run := range runs {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n",
					run.ID, run.PageURL,
					run.StartedAt.Format(time.RFC3339),
					run.ScriptCount, run.ErrorCount)
			}
			return tw.Flush()
		},
	}
}

// ShowCommand returns the "mapgrab show" command.
func ShowCommand() *cli.Command {
	var (
		configPath string
		printJSON  bool
	)

	return &cli.Command{
		Name:    "show",
		Summary: "Show one run's artifacts",
		Description: `Show one run's artifacts.

The default output is a table of the run's scripts in event-arrival
order. With --json the full artifact list is printed, map payloads
included, in the same shape "collect --json" produces.`,
		Usage: "mapgrab show <run-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("show", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to mapgrab.yaml")
			flags.BoolVar(&printJSON, "json", false, "print artifacts as JSON, map payloads included")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("show takes exactly one run-id argument")
			}
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}

			logger := cli.NewCommandLogger(false).With("command", "show")
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()
			artifacts, err := store.RunArtifacts(ctx, runID)
			if err != nil {
				return err
			}

			if printJSON {
				return printArtifactsJSON(artifacts)
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "POS\tSCRIPT\tMAP\tSTATUS")
			for _, artifact := range artifacts {
				status := "ok"
				if artifact.ErrorMessage != "" {
					status = artifact.ErrorMessage
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
					artifact.Position, artifact.ScriptURL, artifact.SourceMapURL, status)
			}
			return tw.Flush()
		},
	}
}

// printArtifactsJSON reassembles stored artifacts into the external
// artifact shape and prints them.
func printArtifactsJSON(artifacts []mapstore.StoredArtifact) error {
	type jsonArtifact struct {
		ScriptURL    string          `json:"scriptUrl"`
		SourceMapURL string          `json:"sourceMapUrl,omitempty"`
		Map          json.RawMessage `json:"map,omitempty"`
		ErrorMessage string          `json:"errorMessage,omitempty"`
	}

	out := make([]jsonArtifact, 0, len(artifacts))
	for _, artifact := range artifacts {
		out = append(out, jsonArtifact{
			ScriptURL:    artifact.ScriptURL,
			SourceMapURL: artifact.SourceMapURL,
			Map:          json.RawMessage(artifact.MapJSON),
			ErrorMessage: artifact.ErrorMessage,
		})
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
