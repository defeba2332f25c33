// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cellcodec/cmd/cellctl/cli"
	"github.com/bureau-foundation/cellcodec/lib/version"
)

type versionParams struct {
	cli.JSONOutput
}

func versionCommand(env *cli.Env) *cli.Command {
	var params versionParams
	return &cli.Command{
		Name:    "version",
		Summary: "Print build information",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("version", &params) },
		Run: func(args []string) error {
			build := version.Current()
			if done, err := params.EmitJSON(env.Stdout, build); done {
				return err
			}
			fmt.Fprintf(env.Stdout, "cellctl %s\n  Go: %s\n  Platform: %s\n", build, build.Go, build.Platform)
			return nil
		},
	}
}
