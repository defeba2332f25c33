// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestExecuteDispatchesToSubcommand(t *testing.T) {
	var called string
	var received []string
	root := &Command{
		Name: "cellctl",
		Subcommands: []*Command{
			{Name: "inspect", Run: func(args []string) error { called = "inspect"; received = args; return nil }},
			{Name: "dump", Run: func(args []string) error { called = "dump"; return nil }},
		},
	}
	if err := root.Execute([]string{"inspect", "tree.boc"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if called != "inspect" {
		t.Errorf("dispatched to %q, want inspect", called)
	}
	if len(received) != 1 || received[0] != "tree.boc" {
		t.Errorf("args = %v, want [tree.boc]", received)
	}
}

func TestExecuteParsesFlags(t *testing.T) {
	var params struct {
		Budget int64 `flag:"budget" desc:"validation budget" default:"10"`
		Hex    bool  `flag:"hex,x" desc:"hex input"`
	}
	var remaining []string
	command := &Command{
		Name:  "validate",
		Flags: func() *pflag.FlagSet { return FlagsFromParams("validate", &params) },
		Run:   func(args []string) error { remaining = args; return nil },
	}
	if err := command.Execute([]string{"-x", "--budget", "500", "file"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if params.Budget != 500 || !params.Hex {
		t.Errorf("params = %+v", params)
	}
	if len(remaining) != 1 || remaining[0] != "file" {
		t.Errorf("remaining = %v", remaining)
	}
}

func TestExecuteSuggestsCommand(t *testing.T) {
	root := &Command{
		Name:       "cellctl",
		HelpOutput: &bytes.Buffer{},
		Subcommands: []*Command{
			{Name: "inspect", Run: func([]string) error { return nil }},
			{Name: "validate", Run: func([]string) error { return nil }},
		},
	}
	err := root.Execute([]string{"inspct"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), `did you mean "inspect"`) {
		t.Errorf("error = %v", err)
	}
	var usage *UsageError
	if !errors.As(err, &usage) || usage.Command != "cellctl" {
		t.Errorf("error %v is not a UsageError for cellctl", err)
	}
}

func TestExecuteSuggestsFlag(t *testing.T) {
	var params struct {
		Budget int64 `flag:"budget" desc:"validation budget"`
	}
	command := &Command{
		Name:  "validate",
		Flags: func() *pflag.FlagSet { return FlagsFromParams("validate", &params) },
		Run:   func([]string) error { return nil },
	}
	err := command.Execute([]string{"--budgt", "3"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if !strings.Contains(err.Error(), "did you mean --budget") {
		t.Errorf("error = %v", err)
	}
}

func TestHelpGoesToInheritedOutput(t *testing.T) {
	var help bytes.Buffer
	root := &Command{
		Name:       "cellctl",
		HelpOutput: &help,
		Subcommands: []*Command{
			{
				Name:        "label",
				Summary:     "choose a label encoding",
				Description: "Print the cheapest label encoding for a key fragment.",
				Run:         func([]string) error { return nil },
				Examples:    []Example{{Description: "Label for 0101", Command: "cellctl label --bits 0101 --max 8"}},
			},
		},
	}
	if err := root.Execute([]string{"label", "--help"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	output := help.String()
	for _, want := range []string{"cellctl label [flags]", "cheapest label", "# Label for 0101"} {
		if !strings.Contains(output, want) {
			t.Errorf("help missing %q:\n%s", want, output)
		}
	}

	help.Reset()
	if err := root.Execute(nil); err == nil {
		t.Error("expected error when no subcommand is given")
	}
	if !strings.Contains(help.String(), "choose a label encoding") {
		t.Errorf("root help missing summary:\n%s", help.String())
	}
}

func TestExitError(t *testing.T) {
	var err error = &ExitError{Code: 2}
	var coded interface{ ExitCode() int }
	if !errors.As(err, &coded) || coded.ExitCode() != 2 {
		t.Errorf("ExitCode not reachable through errors.As")
	}
}

func TestEmitJSON(t *testing.T) {
	var output JSONOutput
	var buffer bytes.Buffer
	done, err := output.EmitJSON(&buffer, []string(nil))
	if done || err != nil || buffer.Len() != 0 {
		t.Fatalf("EmitJSON without --json: done=%v err=%v", done, err)
	}
	output.OutputJSON = true
	done, err = output.EmitJSON(&buffer, []string(nil))
	if !done || err != nil {
		t.Fatalf("EmitJSON: done=%v err=%v", done, err)
	}
	if strings.TrimSpace(buffer.String()) != "[]" {
		t.Errorf("nil slice encoded as %q, want []", buffer.String())
	}
}

func TestBindFlagsRejects(t *testing.T) {
	if err := BindFlags(struct{}{}, pflag.NewFlagSet("x", pflag.ContinueOnError)); err == nil {
		t.Error("non-pointer params accepted")
	}
	var params struct {
		Ratio float32 `flag:"ratio"`
	}
	if err := BindFlags(&params, pflag.NewFlagSet("x", pflag.ContinueOnError)); err == nil {
		t.Error("unsupported field type accepted")
	}
}
