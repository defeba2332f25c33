// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cell

import (
	"crypto/sha256"
	"errors"
	"testing"
)

func mustEndCell(t *testing.T, b *Builder) *Cell {
	t.Helper()
	c, err := b.EndCell()
	if err != nil {
		t.Fatalf("EndCell: %v", err)
	}
	return c
}

func TestEmptyCellHash(t *testing.T) {
	c := mustEndCell(t, NewBuilder())
	want := "96a296d224f285c67bee93c30f8a309157f0daa35dc5b87e410b78630a09cfc7"
	if got := c.Hash(0).String(); got != want {
		t.Errorf("empty cell hash = %s, want %s", got, want)
	}
	if c.Depth(0) != 0 {
		t.Errorf("empty cell depth = %d, want 0", c.Depth(0))
	}
	if c.Level() != 0 {
		t.Errorf("empty cell level = %d, want 0", c.Level())
	}
}

func TestHashCoversDescriptorsDataAndChildren(t *testing.T) {
	empty := mustEndCell(t, NewBuilder())

	b := NewBuilder()
	if err := b.StoreBits(MustParseBitString("1010")); err != nil {
		t.Fatalf("StoreBits: %v", err)
	}
	if err := b.StoreRef(empty); err != nil {
		t.Fatalf("StoreRef: %v", err)
	}
	parent := mustEndCell(t, b)

	emptyHash := empty.Hash(0)
	preimage := []byte{0x01, 0x01, 0xA8, 0x00, 0x00}
	preimage = append(preimage, emptyHash[:]...)
	want := Hash(sha256.Sum256(preimage))

	if parent.Hash(0) != want {
		t.Errorf("parent hash = %s, want %s", parent.Hash(0), want)
	}
	if parent.Depth(0) != 1 {
		t.Errorf("parent depth = %d, want 1", parent.Depth(0))
	}
	if parent.RepresentationHash() != parent.Hash(0) {
		t.Error("level-0 cell representation hash differs from hash(0)")
	}
}

func TestHashChangesWithAnyLeafBit(t *testing.T) {
	leaf := func(v uint64) *Cell {
		b := NewBuilder()
		b.StoreUint(v, 32)
		return mustEndCell(t, b)
	}
	root := func(l *Cell) *Cell {
		b := NewBuilder()
		b.StoreUint(7, 3)
		b.StoreRef(l)
		return mustEndCell(t, b)
	}

	original := root(leaf(0xDEADBEEF))
	for bit := 0; bit < 32; bit++ {
		tampered := root(leaf(0xDEADBEEF ^ (1 << bit)))
		if tampered.Hash(0) == original.Hash(0) {
			t.Errorf("flipping leaf bit %d did not change the root hash", bit)
		}
	}
}

func TestCellString(t *testing.T) {
	b := NewBuilder()
	b.StoreUint(0xA, 4)
	b.StoreRef(mustEndCell(t, NewBuilder()))
	c := mustEndCell(t, b)

	want := "4[A] ->\n  0[]\n"
	if got := c.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFinalizeRejectsTooDeepTrees(t *testing.T) {
	c := mustEndCell(t, NewBuilder())
	for i := 0; i < MaxDepth; i++ {
		b := NewBuilder()
		b.StoreRef(c)
		c = mustEndCell(t, b)
	}
	if c.Depth(0) != MaxDepth {
		t.Fatalf("chain depth = %d, want %d", c.Depth(0), MaxDepth)
	}

	b := NewBuilder()
	b.StoreRef(c)
	if _, err := b.EndCell(); !errors.Is(err, ErrConstraintViolation) {
		t.Errorf("EndCell beyond max depth: got %v, want ErrConstraintViolation", err)
	}
}

func prunedWithDepth(t *testing.T, depth uint64) (*Cell, error) {
	t.Helper()
	var b Builder
	b.StoreUint(uint64(PrunedBranch), 8)
	b.StoreUint(uint64(OneLevel(1)), 8)
	b.StoreZeroes(256)
	b.StoreUint(depth, 16)
	return b.Finalize(PrunedBranch)
}

func TestPrunedBranchStoredDepthLimit(t *testing.T) {
	if _, err := prunedWithDepth(t, 0xFFFF); !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("pruned branch with depth 0xFFFF: got %v, want ErrConstraintViolation", err)
	}

	pruned, err := prunedWithDepth(t, MaxDepth)
	if err != nil {
		t.Fatalf("pruned branch at max depth: %v", err)
	}
	if pruned.Depth(0) != MaxDepth {
		t.Fatalf("stored depth = %d, want %d", pruned.Depth(0), MaxDepth)
	}

	b := NewBuilder()
	b.StoreRef(pruned)
	if _, err := b.EndCell(); !errors.Is(err, ErrConstraintViolation) {
		t.Errorf("parent of a max-depth pruned branch: got %v, want ErrConstraintViolation", err)
	}
}

func TestDescriptors(t *testing.T) {
	b := NewBuilder()
	b.StoreUint(0, 9)
	b.StoreRef(mustEndCell(t, NewBuilder()))
	b.StoreRef(mustEndCell(t, NewBuilder()))
	c := mustEndCell(t, b)

	d1, d2 := c.Descriptors()
	if d1 != 2 {
		t.Errorf("d1 = %d, want 2", d1)
	}
	if d2 != 3 {
		t.Errorf("d2 = %d, want 3 (floor(9/8) + ceil(9/8))", d2)
	}
	if got := c.PaddedData(); len(got) != 2 || got[0] != 0 || got[1] != 0x40 {
		t.Errorf("PaddedData = %x, want 0040", got)
	}
}
