// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"math/rand/v2"
	"slices"

	"github.com/bureau-foundation/cellcodec/lib/cell"
)

// TB is the subset of testing.TB the helpers use.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// MustCell finalizes an ordinary cell from whatever build stores into
// a fresh builder.
//
//	leaf := testutil.MustCell(t, func(b *cell.Builder) error {
//	    return b.StoreUint(7, 8)
//	})
func MustCell(t TB, build func(b *cell.Builder) error) *cell.Cell {
	t.Helper()
	b := cell.NewBuilder()
	if err := build(b); err != nil {
		t.Fatalf("building cell: %v", err)
	}
	c, err := b.EndCell()
	if err != nil {
		t.Fatalf("finalizing cell: %v", err)
	}
	return c
}

// Bits parses a string of '0' and '1' characters.
func Bits(t TB, s string) cell.BitString {
	t.Helper()
	b, err := cell.ParseBitString(s)
	if err != nil {
		t.Fatalf("parsing bit string %q: %v", s, err)
	}
	return b
}

// Chain returns a linear tree of length cells, each holding its
// position as a 16-bit value and referencing the next.
func Chain(t TB, length int) *cell.Cell {
	t.Helper()
	var next *cell.Cell
	for i := length - 1; i >= 0; i-- {
		below := next
		next = MustCell(t, func(b *cell.Builder) error {
			if err := b.StoreUint(uint64(i), 16); err != nil {
				return err
			}
			if below != nil {
				return b.StoreRef(below)
			}
			return nil
		})
	}
	return next
}

// RandomKeys returns count distinct keys of width bits in ascending
// order, drawn from a PCG source seeded with seed. width must allow
// at least count distinct values.
func RandomKeys(t TB, seed uint64, count, width int) []cell.BitString {
	t.Helper()
	if width < 64 && uint64(count) > uint64(1)<<width {
		t.Fatalf("cannot draw %d distinct %d-bit keys", count, width)
	}
	source := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	seen := make(map[string]bool, count)
	keys := make([]cell.BitString, 0, count)
	for len(keys) < count {
		var key cell.BitString
		for key.Len() < width {
			take := min(64, width-key.Len())
			key = key.Append(cell.BitStringFromUint(source.Uint64()>>(64-take), take))
		}
		if seen[key.String()] {
			continue
		}
		seen[key.String()] = true
		keys = append(keys, key)
	}
	slices.SortFunc(keys, cell.BitString.Compare)
	return keys
}
