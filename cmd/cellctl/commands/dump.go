// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cellcodec/cmd/cellctl/cli"
	"github.com/bureau-foundation/cellcodec/lib/boc"
	"github.com/bureau-foundation/cellcodec/lib/codec"
)

type dumpParams struct {
	globalParams
	inputParams
	cli.JSONOutput
	CBOR bool `flag:"cbor" desc:"write the cell list as CBOR"`
	Diag bool `flag:"diag" desc:"with --cbor, print CBOR diagnostic notation instead of bytes"`
}

// dumpDocument is the structured form written by --json and --cbor.
type dumpDocument struct {
	Roots []int      `json:"roots" cbor:"roots"`
	Cells []boc.Node `json:"cells" cbor:"cells"`
}

func dumpCommand(env *cli.Env) *cli.Command {
	var params dumpParams
	return &cli.Command{
		Name:    "dump",
		Summary: "Print every cell of a tree",
		Description: `Print the cells under each root. The default output is an indented
tree of hex bit strings with special cells starred. --json and --cbor
write the deduplicated cell list in serialization order, with
references as indices into the list.`,
		Usage: "cellctl dump [flags] [file]",
		Examples: []cli.Example{
			{Description: "Cell list as JSON", Command: "cellctl dump --json tree.boc"},
			{Description: "Cell list in CBOR diagnostic notation", Command: "cellctl dump --cbor --diag tree.boc"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("dump", &params) },
		Run: func(args []string) error {
			if params.OutputJSON && params.CBOR {
				return fmt.Errorf("--json and --cbor are mutually exclusive")
			}
			s, err := params.open(env, "dump")
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

			nodes, _ := boc.Describe(roots)
			document := dumpDocument{Cells: nodes}
			// Roots are found by representation hash since one may
			// also appear under another root.
			for _, root := range roots {
				hash := root.RepresentationHash().String()
				for _, node := range nodes {
					if node.Hash == hash {
						document.Roots = append(document.Roots, node.Index)
						break
					}
				}
			}

			if done, err := params.EmitJSON(env.Stdout, document); done {
				return err
			}
			if params.CBOR && !params.Diag {
				return codec.NewEncoder(env.Stdout).Encode(document)
			}
			if params.CBOR {
				encoded, err := codec.Marshal(document)
				if err != nil {
					return err
				}
				notation, err := codec.Diagnose(encoded)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(env.Stdout, notation)
				return err
			}

			for i, root := range roots {
				fmt.Fprintf(env.Stdout, "root %d %s\n", i, root.Hash(0))
				fmt.Fprint(env.Stdout, root.String())
			}
			return nil
		},
	}
}
