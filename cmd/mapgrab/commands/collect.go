// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/mapgrab/mapgrab/cdp"
	"github.com/mapgrab/mapgrab/cmd/mapgrab/cli"
	"github.com/mapgrab/mapgrab/collector"
	"github.com/mapgrab/mapgrab/lib/filter"
)

// CollectCommand returns the "mapgrab collect" command.
func CollectCommand() *cli.Command {
	var (
		configPath  string
		window      time.Duration
		profilePath string
		printJSON   bool
		noSave      bool
		strict      bool
		verbose     bool
	)

	return &cli.Command{
		Name:    "collect",
		Summary: "Collect source maps from a browser page",
		Description: `Collect source maps from a browser page.

Attaches to the first page target whose URL starts with <page-url>
(or the first page at all when no argument is given), opens a
collection window, and records one artifact per script that declares
a source map. The window stays open for --window (Ctrl-C seals it
early), then drains in-flight downloads and saves the run.`,
		Usage: "mapgrab collect [page-url] [flags]",
		Examples: []cli.Example{
			{
				Description: "Collect from the active tab for ten seconds",
				Command:     "mapgrab collect",
			},
			{
				Description: "Collect a specific page for a minute, printing artifacts as JSON",
				Command:     "mapgrab collect https://app.example.com --window 1m --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("collect", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to mapgrab.yaml")
			flags.DurationVar(&window, "window", 0, "collection window length (default from config)")
			flags.StringVar(&profilePath, "profile", "", "JSONC collection profile (default from config)")
			flags.BoolVar(&printJSON, "json", false, "print the artifact list as JSON on stdout")
			flags.BoolVar(&noSave, "no-save", false, "do not save the run to the store")
			flags.BoolVar(&strict, "strict", false, "exit 2 when any artifact records a failure")
			flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
			return flags
		},
		Run: func(args []string) error {
			pagePrefix := ""
			if len(args) > 1 {
				return fmt.Errorf("collect takes at most one page-url argument")
			}
			if len(args) == 1 {
				pagePrefix = args[0]
			}
			return runCollect(collectOptions{
				configPath:  configPath,
				window:      window,
				profilePath: profilePath,
				pagePrefix:  pagePrefix,
				printJSON:   printJSON,
				noSave:      noSave,
				strict:      strict,
				verbose:     verbose,
			})
		},
	}
}

type collectOptions struct {
	configPath  string
	window      time.Duration
	profilePath string
	pagePrefix  string
	printJSON   bool
	noSave      bool
	strict      bool
	verbose     bool
}

func runCollect(options collectOptions) error {
	logger := cli.NewCommandLogger(options.verbose).With("command", "collect")
	ctx := context.Background()

	cfg, err := loadConfig(options.configPath)
	if err != nil {
		return err
	}
	window := options.window
	if window <= 0 {
		window = cfg.CollectWindow()
	}
	profilePath := options.profilePath
	if profilePath == "" {
		profilePath = cfg.Collect.Profile
	}

	var accept func(string) bool
	if profilePath != "" {
		profile, err := filter.LoadFile(profilePath)
		if err != nil {
			return err
		}
		accept = profile.Accept
	}

	client, err := cdp.NewClient(cdp.ClientConfig{
		Endpoint: cfg.Browser.Endpoint,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	page, err := findPage(ctx, client, options.pagePrefix)
	if err != nil {
		return err
	}

	windowCollector, err := collector.New(collector.Config{
		Fetcher: collector.NewHTTPResourceFetcher(nil, cfg.FetchTimeout()),
		Accept:  accept,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	session, err := client.Attach(ctx, page)
	if err != nil {
		return err
	}
	defer session.Close()

	startedAt := time.Now().UTC()
	if err := windowCollector.Start(ctx); err != nil {
		return err
	}
	session.HandleScriptParsed(func(url, sourceMapURL string) {
		windowCollector.OnScriptParsed(collector.ScriptParsedEvent{
			URL:          url,
			SourceMapURL: sourceMapURL,
		})
	})
	// Enabling the debugger replays scriptParsed for scripts the page
	// has already compiled, so attaching mid-load still sees them.
	if err := session.EnableDebugger(ctx); err != nil {
		return err
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	select {
	case <-time.After(window):
	case <-interrupt:
		logger.Info("interrupt received, sealing collection window")
	case <-session.Done():
		if err := session.Err(); err != nil {
			logger.Warn("devtools session ended", "error", err.Error())
		} else {
			logger.Info("devtools session closed by browser")
		}
	}

	// Best effort: the session may already be gone.
	if disableErr := session.DisableDebugger(ctx); disableErr != nil {
		logger.Debug("debugger disable failed", "error", disableErr.Error())
	}

	if err := windowCollector.Stop(); err != nil {
		return err
	}
	artifacts, err := windowCollector.Artifacts()
	if err != nil {
		return err
	}
	completedAt := time.Now().UTC()

	errorCount := 0
	for _, artifact := range artifacts {
		if artifact.ErrorMessage != "" {
			errorCount++
		}
	}

	if !options.noSave {
		store, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		runID, err := store.SaveRun(ctx, page.URL, startedAt, completedAt, artifacts)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved run %d: %d scripts, %d failures\n",
			runID, len(artifacts), errorCount)
	}

	if options.printJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(artifacts); err != nil {
			return fmt.Errorf("encoding artifacts: %w", err)
		}
	}

	if options.strict && errorCount > 0 {
		return &cli.ExitError{Code: 2}
	}
	return nil
}

// findPage picks the page target to attach to: the first page whose
// URL starts with prefix, or the first page at all for an empty
// prefix.
func findPage(ctx context.Context, client *cdp.Client, prefix string) (cdp.Target, error) {
	pages, err := client.Pages(ctx)
	if err != nil {
		return cdp.Target{}, err
	}
	if len(pages) == 0 {
		return cdp.Target{}, fmt.Errorf("browser exposes no page targets")
	}
	if prefix == "" {
		return pages[0], nil
	}
	for _, page := range pages {
		if strings.HasPrefix(page.URL, prefix) {
			return page, nil
		}
	}
	return cdp.Target{}, fmt.Errorf("no page target matches %q (run 'mapgrab targets' to list them)", prefix)
}
