// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cellcodec/cmd/cellctl/cli"
	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/dict"
	"github.com/bureau-foundation/cellcodec/lib/merkle"
	"github.com/bureau-foundation/cellcodec/lib/tlb"
)

type validateParams struct {
	globalParams
	inputParams
	cli.JSONOutput
	Budget      int64 `flag:"budget" default:"-1" desc:"operations allowed per root; -1 uses the configured budget, 0 is unlimited"`
	DictKeyBits int   `flag:"dict-key-bits" desc:"also validate each ordinary root as a HashmapE with keys of this width"`
	Weak        bool  `flag:"weak" desc:"skip aggregate checks and accept special cells inside ordinary trees"`
}

type validateResult struct {
	Valid  bool     `json:"valid"`
	Roots  int      `json:"roots"`
	Errors []string `json:"errors"`
}

func validateCommand(env *cli.Env) *cli.Command {
	var params validateParams
	return &cli.Command{
		Name:    "validate",
		Summary: "Check a bag of cells and its special cells",
		Description: `Decode a bag of cells, verify every Merkle proof and Merkle update
root, and validate the remaining roots against a budget of operations
each. With --dict-key-bits the ordinary roots must each hold a
well-formed HashmapE.

Exits 1 after printing the failures when anything is invalid.`,
		Usage: "cellctl validate [flags] [file]",
		Examples: []cli.Example{
			{Description: "Validate a dictionary of 32-bit keys", Command: "cellctl validate --dict-key-bits 32 accounts.boc"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("validate", &params) },
		Run: func(args []string) error {
			s, err := params.open(env, "validate")
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

			result := validateResult{Errors: []string{}}
			roots, err := s.decode(data)
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
			} else {
				result.Roots = len(roots)
				budget := params.Budget
				if budget < 0 {
					budget = s.config.Validation.Budget
				}
				validationType := tlb.Anything
				if params.DictKeyBits > 0 {
					validationType = dict.HashmapEType(params.DictKeyBits, tlb.Anything)
				}
				for _, failure := range validateRoots(context.Background(), roots, validationType, tlb.ValidateOptions{
					Workers:    s.config.Validation.Workers,
					OpsPerRoot: budget,
					Weak:       params.Weak,
					Logger:     s.logger,
				}) {
					result.Errors = append(result.Errors, failure.Error())
				}
			}
			result.Valid = len(result.Errors) == 0

			if done, err := params.EmitJSON(env.Stdout, result); done {
				if err == nil && !result.Valid {
					err = &cli.ExitError{Code: 1}
				}
				return err
			}
			if result.Valid {
				fmt.Fprintf(env.Stdout, "valid: %d roots\n", result.Roots)
				return nil
			}
			for _, message := range result.Errors {
				fmt.Fprintf(env.Stdout, "invalid: %s\n", message)
			}
			return &cli.ExitError{Code: 1}
		},
	}
}

// validateRoots verifies Merkle roots individually and validates the
// ordinary ones as t in parallel. Library and pruned roots only need
// to have decoded.
func validateRoots(ctx context.Context, roots []*cell.Cell, t tlb.Type, options tlb.ValidateOptions) []error {
	var failures []error
	var ordinary []*cell.Cell
	var ordinaryIndex []int
	for i, root := range roots {
		switch root.Kind() {
		case cell.MerkleProof:
			if _, err := merkle.Verify(root, cell.Hash{}); err != nil {
				failures = append(failures, &tlb.RootError{Index: i, Err: err})
			}
		case cell.MerkleUpdate:
			if err := merkle.ValidateUpdate(root); err != nil {
				failures = append(failures, &tlb.RootError{Index: i, Err: err})
			}
		case cell.Ordinary:
			ordinary = append(ordinary, root)
			ordinaryIndex = append(ordinaryIndex, i)
		}
	}
	if len(ordinary) == 0 {
		return failures
	}
	err := tlb.ValidateAll(ctx, t, ordinary, options)
	if err == nil {
		return failures
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return append(failures, err)
	}
	for _, failure := range joined.Unwrap() {
		// Indices from ValidateAll count ordinary roots only.
		var rootErr *tlb.RootError
		if errors.As(failure, &rootErr) {
			failure = &tlb.RootError{Index: ordinaryIndex[rootErr.Index], Err: rootErr.Err}
		}
		failures = append(failures, failure)
	}
	return failures
}
