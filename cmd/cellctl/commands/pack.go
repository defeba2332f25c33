// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cellcodec/cmd/cellctl/cli"
)

type packParams struct {
	globalParams
	inputParams
	outputParams
	Compression string `flag:"compression" desc:"auto, none, lz4 or zstd (default from configuration)"`
}

func packCommand(env *cli.Env) *cli.Command {
	var params packParams
	return &cli.Command{
		Name:    "pack",
		Summary: "Wrap a bag of cells in a compressed envelope",
		Description: `Re-serialize a bag of cells into an envelope: a CBOR header with the
root hashes and a keyed BLAKE3 checksum, then the compressed bag.
With auto compression a sample of the bag decides between zstd, lz4
and no compression.`,
		Usage: "cellctl pack [flags] [file]",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("pack", &params) },
		Run: func(args []string) error {
			s, err := params.open(env, "pack")
			if err != nil {
				return err
			}
			if params.Compression != "" {
				s.config.Output.Compression = params.Compression
			}
			data, args, err := readInput(env, args, params.Hex)
			if err != nil {
				return err
			}
			if err := noExtraArgs(args); err != nil {
				return err
			}
			roots, err := s.decode(data)
			if err != nil {
				return err
			}
			encoded, err := s.encode(roots, true)
			if err != nil {
				return err
			}
			s.logger.Info("packed", "input_bytes", len(data), "output_bytes", len(encoded))
			return params.write(env, encoded)
		},
	}
}

type unpackParams struct {
	globalParams
	inputParams
	outputParams
}

func unpackCommand(env *cli.Env) *cli.Command {
	var params unpackParams
	return &cli.Command{
		Name:    "unpack",
		Summary: "Extract the bag of cells from an envelope",
		Description: `Verify an envelope's checksum and root hashes and write the plain
bag of cells it carries. Index and CRC32-C inclusion come from the
configuration. A plain bag of cells is accepted too and rewritten.`,
		Usage: "cellctl unpack [flags] [file]",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("unpack", &params) },
		Run: func(args []string) error {
			s, err := params.open(env, "unpack")
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
			roots, err := s.decode(data)
			if err != nil {
				return err
			}
			encoded, err := s.encode(roots, false)
			if err != nil {
				return err
			}
			return params.write(env, encoded)
		},
	}
}
