// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tlb

import (
	"math/big"
	"testing"

	"github.com/bureau-foundation/cellcodec/lib/cell"
)

// packToCell encodes v as the whole content of an ordinary cell.
func packToCell(t *testing.T, typ Type, v any) *cell.Cell {
	t.Helper()
	b := cell.NewBuilder()
	if err := typ.Pack(b, v); err != nil {
		t.Fatalf("Pack(%v): %v", v, err)
	}
	c, err := b.EndCell()
	if err != nil {
		t.Fatalf("EndCell: %v", err)
	}
	return c
}

// valuesEqual compares decoded values, treating big integers and bit
// strings by value.
func valuesEqual(a, b any) bool {
	switch x := a.(type) {
	case *big.Int:
		y, ok := b.(*big.Int)
		return ok && x.Cmp(y) == 0
	case cell.BitString:
		y, ok := b.(cell.BitString)
		return ok && x.Equal(y)
	case *cell.Cell:
		y, ok := b.(*cell.Cell)
		return ok && x.Equal(y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !valuesEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	case Record:
		y, ok := b.(Record)
		if !ok || x.Constructor != y.Constructor || len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			if x.Fields[i].Name != y.Fields[i].Name || !valuesEqual(x.Fields[i].Value, y.Fields[i].Value) {
				return false
			}
		}
		return true
	case EitherValue:
		y, ok := b.(EitherValue)
		return ok && x.Right == y.Right && valuesEqual(x.Value, y.Value)
	case *BinTreeNode:
		y, ok := b.(*BinTreeNode)
		if !ok || x.IsLeaf() != y.IsLeaf() {
			return false
		}
		if x.IsLeaf() {
			return valuesEqual(x.Leaf, y.Leaf)
		}
		return valuesEqual(x.Left, y.Left) && valuesEqual(x.Right, y.Right)
	}
	return a == b
}
