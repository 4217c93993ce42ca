// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestExecuteDispatchesSubcommand(t *testing.T) {
	var got []string
	root := &Command{
		Name: "mapgrab",
		Subcommands: []*Command{
			{
				Name: "collect",
				Run: func(args []string) error {
					got = args
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"collect", "https://example.com"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(got) != 1 || got[0] != "https://example.com" {
		t.Errorf("args = %v", got)
	}
}

func TestExecuteUnknownCommandSuggests(t *testing.T) {
	root := &Command{
		Name: "mapgrab",
		Subcommands: []*Command{
			{Name: "collect", Run: func([]string) error { return nil }},
			{Name: "targets", Run: func([]string) error { return nil }},
		},
	}

	err := root.Execute([]string{"colect"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), `did you mean "collect"`) {
		t.Errorf("error = %q, want collect suggestion", err.Error())
	}
}

func TestExecuteParsesFlags(t *testing.T) {
	var window string
	command := &Command{
		Name: "collect",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("collect", pflag.ContinueOnError)
			flags.StringVar(&window, "window", "10s", "window length")
			return flags
		},
		Run: func(args []string) error { return nil },
	}

	if err := command.Execute([]string{"--window", "1m"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if window != "1m" {
		t.Errorf("window = %q, want %q", window, "1m")
	}
}

func TestExecuteUnknownFlagSuggests(t *testing.T) {
	command := &Command{
		Name: "collect",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("collect", pflag.ContinueOnError)
			flags.String("window", "10s", "window length")
			return flags
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--windw", "1m"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if !strings.Contains(err.Error(), "--window") {
		t.Errorf("error = %q, want --window suggestion", err.Error())
	}
}

func TestExecuteSubcommandRequired(t *testing.T) {
	root := &Command{
		Name:        "mapgrab",
		Subcommands: []*Command{{Name: "collect"}},
	}
	if err := root.Execute(nil); err == nil {
		t.Error("expected error when no subcommand given")
	}
}

func TestPrintHelpListsSubcommandsAndExamples(t *testing.T) {
	root := &Command{
		Name:    "mapgrab",
		Summary: "source map collection",
		Examples: []Example{
			{Description: "collect the active tab", Command: "mapgrab collect"},
		},
		Subcommands: []*Command{
			{Name: "collect", Summary: "Collect source maps"},
		},
	}

	var out strings.Builder
	root.PrintHelp(&out)
	help := out.String()
	for _, want := range []string{"collect", "Collect source maps", "mapgrab collect", "Commands:"} {
		if !strings.Contains(help, want) {
			t.Errorf("help output missing %q:\n%s", want, help)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"collect", "collect", 0},
		{"colect", "collect", 1},
		{"tragets", "targets", 2},
		{"export", "import", 3},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}
