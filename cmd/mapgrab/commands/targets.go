// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/mapgrab/mapgrab/cdp"
	"github.com/mapgrab/mapgrab/cmd/mapgrab/cli"
)

// TargetsCommand returns the "mapgrab targets" command.
func TargetsCommand() *cli.Command {
	var (
		configPath string
		allTypes   bool
	)

	return &cli.Command{
		Name:    "targets",
		Summary: "List the browser's debuggable targets",
		Usage:   "mapgrab targets [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("targets", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to mapgrab.yaml")
			flags.BoolVar(&allTypes, "all", false, "include non-page targets (workers, extensions)")
			return flags
		},
		Run: func(args []string) error {
			logger := cli.NewCommandLogger(false).With("command", "targets")
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			client, err := cdp.NewClient(cdp.ClientConfig{
				Endpoint: cfg.Browser.Endpoint,
				Logger:   logger,
			})
			if err != nil {
				return err
			}

			ctx := context.Background()
			version, err := client.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%s (%s)\n", version.Browser, version.ProtocolVersion)

			var targets []cdp.Target
			if allTypes {
				targets, err = client.Targets(ctx)
			} else {
				targets, err = client.Pages(ctx)
			}
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tURL")
			for _, target := range targets {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", target.ID, target.Type, target.URL)
			}
			return tw.Flush()
		},
	}
}
