// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the mapgrab CLI command tree.
package commands

import (
	"fmt"

	"github.com/mapgrab/mapgrab/cmd/mapgrab/cli"
	"github.com/mapgrab/mapgrab/lib/version"
)

// Root builds and returns the complete mapgrab CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "mapgrab",
		Description: `Mapgrab: source map collection for browser pages.

Attach to a running browser over the DevTools protocol, collect the
source maps of every script a page loads, and archive them as
replayable runs.`,
		Subcommands: []*cli.Command{
			CollectCommand(),
			ListCommand(),
			ShowCommand(),
			ExportCommand(),
			ImportCommand(),
			TargetsCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("mapgrab %s\n", version.Full())
					return nil
				},
			},
		},
	}
}
