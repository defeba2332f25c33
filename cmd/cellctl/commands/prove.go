// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cellcodec/cmd/cellctl/cli"
	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/dict"
	"github.com/bureau-foundation/cellcodec/lib/merkle"
)

type proveParams struct {
	globalParams
	inputParams
	outputParams
	KeyBits  int    `flag:"key-bits" desc:"dictionary key width in bits (required)"`
	Key      string `flag:"key" desc:"key to prove, in hex (required)"`
	Root     int    `flag:"root" desc:"index of the root holding the dictionary"`
	Envelope bool   `flag:"envelope" desc:"wrap the proof in a compressed envelope"`
}

func proveCommand(env *cli.Env) *cli.Command {
	var params proveParams
	return &cli.Command{
		Name:    "prove",
		Summary: "Prove a dictionary lookup with a Merkle proof",
		Description: `Build a Merkle proof of looking up one key in the HashmapE held by a
root. The proof discloses the cells the lookup reads and prunes
everything else, so it proves absence as well as presence. The
lookup result goes to stderr and the proof to the output.`,
		Usage: "cellctl prove --key-bits N --key HEX [flags] [file]",
		Examples: []cli.Example{
			{Description: "Prove key 0x2A of a 16-bit dictionary", Command: "cellctl prove --key-bits 16 --key 002A dict.boc -o proof.boc"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("prove", &params) },
		Run: func(args []string) error {
			if params.KeyBits <= 0 || params.Key == "" {
				return fmt.Errorf("--key-bits and --key are required")
			}
			key, err := parseKey(params.Key, params.KeyBits)
			if err != nil {
				return err
			}
			s, err := params.open(env, "prove")
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
			if params.Root < 0 || params.Root >= len(roots) {
				return fmt.Errorf("--root %d out of range (%d roots)", params.Root, len(roots))
			}

			proof, found, err := proveLookup(roots[params.Root], params.KeyBits, key)
			if err != nil {
				return err
			}
			if found {
				fmt.Fprintf(env.Stderr, "key %s present\n", key.Hex())
			} else {
				fmt.Fprintf(env.Stderr, "key %s absent\n", key.Hex())
			}
			s.logger.Debug("proof built", "proof_hash", proof.Hash(0).String(), "found", found)

			encoded, err := s.encode([]*cell.Cell{proof}, params.Envelope)
			if err != nil {
				return err
			}
			return params.write(env, encoded)
		},
	}
}

// proveLookup proves the lookup of key in the HashmapE at the start
// of root and reports whether the key is present. The proof is
// checked before it is returned.
func proveLookup(root *cell.Cell, keyBits int, key cell.BitString) (*cell.Cell, bool, error) {
	s := root.BeginParse()
	dictionary, err := dict.LoadHashmapE(&s, keyBits)
	if err != nil {
		return nil, false, fmt.Errorf("reading dictionary: %w", err)
	}
	_, found, err := dictionary.Lookup(key)
	if err != nil {
		return nil, false, err
	}
	path, err := dictionary.Trace(key)
	if err != nil {
		return nil, false, err
	}
	proof, err := merkle.ProveCells(root, append([]*cell.Cell{root}, path...))
	if err != nil {
		return nil, false, err
	}
	if _, err := merkle.Verify(proof, root.Hash(0)); err != nil {
		return nil, false, err
	}
	return proof, found, nil
}
