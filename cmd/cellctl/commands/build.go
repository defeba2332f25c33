// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cellcodec/cmd/cellctl/cli"
	"github.com/bureau-foundation/cellcodec/lib/boc"
	"github.com/bureau-foundation/cellcodec/lib/cell"
)

type buildParams struct {
	globalParams
	outputParams
	Envelope bool `flag:"envelope" desc:"wrap the bag of cells in a compressed envelope"`
}

func buildCommand(env *cli.Env) *cli.Command {
	var params buildParams
	return &cli.Command{
		Name:    "build",
		Summary: "Build a bag of cells from a JSONC description",
		Description: `Build the cells described by a JSONC file and serialize them. Each
root is an object with "bits" or "hex" data and "refs", or one of
"prune", "library", "proof", "update" and "dict" for special cells
and dictionaries. Comments and trailing commas are allowed.

Index and CRC32-C inclusion and envelope compression come from the
configuration.`,
		Usage: "cellctl build [flags] [tree.jsonc]",
		Examples: []cli.Example{
			{Description: "Build a bag of cells", Command: "cellctl build tree.jsonc -o tree.boc"},
			{Description: "Build an envelope", Command: "cellctl build --envelope tree.jsonc -o tree.celz"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("build", &params) },
		Run: func(args []string) error {
			s, err := params.open(env, "build")
			if err != nil {
				return err
			}
			data, args, err := readInput(env, args, false)
			if err != nil {
				return err
			}
			if err := noExtraArgs(args); err != nil {
				return err
			}
			file, err := parseTree(data)
			if err != nil {
				return err
			}
			roots, err := buildTree(file)
			if err != nil {
				return err
			}
			s.logger.Debug("tree built", "roots", len(roots))

			encoded, err := s.encode(roots, params.Envelope)
			if err != nil {
				return err
			}
			return params.write(env, encoded)
		},
	}
}

// encode serializes roots as a plain bag of cells or, with envelope,
// packs them with the configured compression.
func (s *session) encode(roots []*cell.Cell, envelope bool) ([]byte, error) {
	if !envelope {
		return boc.Serialize(roots, s.bocOptions())
	}
	compression, err := boc.ParseCompression(s.config.Output.Compression)
	if err != nil {
		return nil, err
	}
	return boc.Pack(roots, boc.PackOptions{
		BOC:         s.bocOptions(),
		Compression: compression,
		Logger:      s.logger,
	})
}
