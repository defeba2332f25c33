// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/bureau-foundation/cellcodec/cmd/cellctl/cli"
)

// Root returns the cellctl command tree bound to env.
func Root(env *cli.Env) *cli.Command {
	return &cli.Command{
		Name:       "cellctl",
		Summary:    "Inspect, build and verify cell trees",
		HelpOutput: env.Stderr,
		Description: `cellctl reads and writes trees of cells in the bag-of-cells format
and in the compressed envelope around it.

Commands that read cells take the input file as their last argument
or read stdin when it is absent. Pass --hex for hex text input.`,
		Subcommands: []*cli.Command{
			inspectCommand(env),
			dumpCommand(env),
			buildCommand(env),
			validateCommand(env),
			proveCommand(env),
			packCommand(env),
			unpackCommand(env),
			labelCommand(env),
			versionCommand(env),
		},
	}
}
