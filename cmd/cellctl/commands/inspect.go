// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cellcodec/cmd/cellctl/cli"
	"github.com/bureau-foundation/cellcodec/lib/boc"
)

type inspectParams struct {
	globalParams
	inputParams
	cli.JSONOutput
}

type inspectResult struct {
	Format      string `json:"format"`
	Compression string `json:"compression,omitempty"`
	Bytes       int    `json:"bytes"`
	boc.Summary
}

func inspectCommand(env *cli.Env) *cli.Command {
	var params inspectParams
	return &cli.Command{
		Name:    "inspect",
		Summary: "Summarize a bag of cells or envelope",
		Description: `Print the root hashes, cell count, highest level and depth of a
bag of cells. Envelopes are recognized by their magic and the
compression and raw size from their header are shown as well.`,
		Usage: "cellctl inspect [flags] [file]",
		Examples: []cli.Example{
			{Description: "Summarize a file", Command: "cellctl inspect tree.boc"},
			{Description: "Summarize hex from stdin", Command: "echo b5ee9c72010101010002000000 | cellctl inspect --hex"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("inspect", &params) },
		Run: func(args []string) error {
			s, err := params.open(env, "inspect")
			if err != nil {
				return err
			}
			data, args, err := readInput(env, args, params.Hex)
			if err != nil {
				return err
			}
			if err := noExtraArgs(args); err != nil {
				return err
			}

			result := inspectResult{Format: "boc", Bytes: len(data)}
			if boc.IsEnvelope(data) {
				header, _, err := boc.ReadHeader(data)
				if err != nil {
					return err
				}
				result.Format = "envelope"
				result.Compression = header.Compression.String()
			}
			roots, err := s.decode(data)
			if err != nil {
				return err
			}
			_, result.Summary = boc.Describe(roots)

			if done, err := params.EmitJSON(env.Stdout, result); done {
				return err
			}
			return printInspect(env, result)
		},
	}
}

func printInspect(env *cli.Env, result inspectResult) error {
	tw := tabwriter.NewWriter(env.Stdout, 0, 0, 2, ' ', 0)
	format := result.Format
	if result.Compression != "" {
		format += " (" + result.Compression + ")"
	}
	fmt.Fprintf(tw, "format:\t%s\n", format)
	fmt.Fprintf(tw, "bytes:\t%d\n", result.Bytes)
	fmt.Fprintf(tw, "roots:\t%d\n", len(result.Roots))
	for i, root := range result.Roots {
		fmt.Fprintf(tw, "  %d\t%s\n", i, root)
	}
	fmt.Fprintf(tw, "cells:\t%d\n", result.Cells)
	fmt.Fprintf(tw, "max level:\t%d\n", result.MaxLevel)
	fmt.Fprintf(tw, "max depth:\t%d\n", result.MaxDepth)
	for _, kind := range slices.Sorted(maps.Keys(result.Kinds)) {
		fmt.Fprintf(tw, "%s:\t%d\n", kind, result.Kinds[kind])
	}
	return tw.Flush()
}
