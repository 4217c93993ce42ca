// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"filippo.io/age"
	"github.com/spf13/pflag"

	"github.com/mapgrab/mapgrab/cmd/mapgrab/cli"
)

// ExportCommand returns the "mapgrab export" command.
func ExportCommand() *cli.Command {
	var (
		configPath string
		outputPath string
		recipients []string
	)

	return &cli.Command{
		Name:    "export",
		Summary: "Export a run as a bundle file",
		Description: `Export a run as a bundle file.

A bundle is a compressed, self-contained copy of one run that
"mapgrab import" can load into another store. Without --recipient the
bundle is plaintext and byte-reproducible; with one or more
recipients it is encrypted to their age public keys.`,
		Usage: "mapgrab export <run-id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Export run 3 to a file",
				Command:     "mapgrab export 3 -o run3.mapbundle",
			},
			{
				Description: "Export encrypted to a teammate's age key",
				Command:     "mapgrab export 3 -o run3.mapbundle --recipient age1...",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("export", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to mapgrab.yaml")
			flags.StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
			flags.StringArrayVar(&recipients, "recipient", nil, "age recipient to encrypt to (repeatable)")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("export takes exactly one run-id argument")
			}
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}

			parsedRecipients, err := parseRecipients(recipients)
			if err != nil {
				return err
			}

			logger := cli.NewCommandLogger(false).With("command", "export")
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			output := io.Writer(os.Stdout)
			if outputPath != "" {
				file, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("creating %s: %w", outputPath, err)
				}
				defer file.Close()
				output = file
			}

			return store.Export(context.Background(), output, runID, parsedRecipients)
		},
	}
}

// ImportCommand returns the "mapgrab import" command.
func ImportCommand() *cli.Command {
	var (
		configPath   string
		identityFile string
	)

	return &cli.Command{
		Name:    "import",
		Summary: "Import a bundle file into the store",
		Usage:   "mapgrab import <bundle-file> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("import", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to mapgrab.yaml")
			flags.StringVarP(&identityFile, "identity", "i", "", "age identity file for encrypted bundles")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("import takes exactly one bundle-file argument")
			}

			identities, err := parseIdentityFile(identityFile)
			if err != nil {
				return err
			}

			logger := cli.NewCommandLogger(false).With("command", "import")
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			input := io.Reader(os.Stdin)
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer file.Close()
				input = file
			}

			runID, err := store.Import(context.Background(), input, identities)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "imported run %d\n", runID)
			return nil
		},
	}
}

func parseRecipients(encoded []string) ([]age.Recipient, error) {
	recipients := make([]age.Recipient, 0, len(encoded))
	for _, key := range encoded {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}
	return recipients, nil
}

func parseIdentityFile(path string) ([]age.Identity, error) {
	if path == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	identities, err := age.ParseIdentities(file)
	if err != nil {
		return nil, fmt.Errorf("parsing identities from %s: %w", path, err)
	}
	return identities, nil
}
