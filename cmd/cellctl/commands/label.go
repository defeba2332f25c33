// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cellcodec/cmd/cellctl/cli"
	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/dict"
)

type labelParams struct {
	cli.JSONOutput
	Bits string `flag:"bits" desc:"label as 0 and 1 characters"`
	Max  int    `flag:"max" desc:"key bits remaining at the node (default: the label length)"`
}

type labelForm struct {
	Form   string `json:"form"`
	Cost   int    `json:"cost"`
	Usable bool   `json:"usable"`
}

type labelResult struct {
	Bits     string      `json:"bits"`
	Max      int         `json:"max"`
	Chosen   string      `json:"chosen"`
	Encoding string      `json:"encoding"`
	Forms    []labelForm `json:"forms"`
}

func labelCommand(env *cli.Env) *cli.Command {
	var params labelParams
	return &cli.Command{
		Name:    "label",
		Summary: "Show the encodings of a dictionary edge label",
		Description: `Print the cost of each dictionary edge label form for a label and
the number of key bits remaining, and the encoding the codec
chooses. The same form only encodes runs of one repeated bit.`,
		Usage: "cellctl label --bits BITS [--max N]",
		Examples: []cli.Example{
			{Description: "A run of zeros", Command: "cellctl label --bits 0000 --max 8"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("label", &params) },
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			result, err := describeLabel(params.Bits, params.Max)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(env.Stdout, result); done {
				return err
			}
			tw := tabwriter.NewWriter(env.Stdout, 0, 0, 2, ' ', 0)
			for _, form := range result.Forms {
				marker := " "
				if form.Form == result.Chosen {
					marker = "*"
				}
				cost := fmt.Sprint(form.Cost)
				if !form.Usable {
					cost = "-"
				}
				fmt.Fprintf(tw, "%s %s\t%s\n", marker, form.Form, cost)
			}
			fmt.Fprintf(tw, "encoding\t%s\n", result.Encoding)
			return tw.Flush()
		},
	}
}

func describeLabel(bits string, m int) (labelResult, error) {
	label, err := cell.ParseBitString(bits)
	if err != nil {
		return labelResult{}, err
	}
	n := label.Len()
	if m == 0 {
		m = n
	}
	if n > m {
		return labelResult{}, fmt.Errorf("label of %d bits exceeds --max %d", n, m)
	}

	b := cell.NewBuilder()
	if err := dict.StoreLabel(b, label, m); err != nil {
		return labelResult{}, err
	}
	result := labelResult{
		Bits:     label.String(),
		Max:      m,
		Chosen:   dict.ChooseLabel(label, m).String(),
		Encoding: b.Bits().String(),
	}
	for _, form := range []dict.LabelForm{dict.LabelShort, dict.LabelLong, dict.LabelSame} {
		usable := form != dict.LabelSame || (n > 0 && label.AllSame())
		result.Forms = append(result.Forms, labelForm{
			Form:   form.String(),
			Cost:   dict.LabelCost(form, n, m),
			Usable: usable,
		})
	}
	return result, nil
}
