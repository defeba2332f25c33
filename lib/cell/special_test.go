// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cell

import (
	"errors"
	"testing"
)

// sampleTree builds a root with two children, one of which has a
// child of its own.
func sampleTree(t *testing.T) *Cell {
	t.Helper()
	leaf := NewBuilder()
	leaf.StoreUint(0xCAFE, 16)
	leafCell := mustEndCell(t, leaf)

	mid := NewBuilder()
	mid.StoreUint(1, 1)
	mid.StoreRef(leafCell)
	midCell := mustEndCell(t, mid)

	other := NewBuilder()
	other.StoreUint(0xBEEF, 16)
	otherCell := mustEndCell(t, other)

	root := NewBuilder()
	root.StoreUint(0x7, 3)
	root.StoreRef(midCell)
	root.StoreRef(otherCell)
	return mustEndCell(t, root)
}

func TestPrunedBranchPreservesLowerHash(t *testing.T) {
	root := sampleTree(t)
	mid := root.Ref(0)

	pruned, err := NewPrunedBranch(mid, 1)
	if err != nil {
		t.Fatalf("NewPrunedBranch: %v", err)
	}
	if pruned.Kind() != PrunedBranch {
		t.Fatalf("kind = %s, want pruned", pruned.Kind())
	}
	if pruned.Level() != 1 {
		t.Errorf("level = %d, want 1", pruned.Level())
	}
	if pruned.Hash(0) != mid.Hash(0) {
		t.Errorf("pruned hash(0) = %s, want %s", pruned.Hash(0), mid.Hash(0))
	}
	if pruned.Depth(0) != mid.Depth(0) {
		t.Errorf("pruned depth(0) = %d, want %d", pruned.Depth(0), mid.Depth(0))
	}
	if pruned.Hash(1) == mid.Hash(0) {
		t.Error("pruned hash(1) should be the pruned cell's own hash")
	}

	// A parent built over the pruned branch keeps the original hash at
	// level 0 and gains level 1.
	rebuilt, err := root.Rebuild([]*Cell{pruned, root.Ref(1)})
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if rebuilt.Hash(0) != root.Hash(0) {
		t.Errorf("rebuilt hash(0) = %s, want %s", rebuilt.Hash(0), root.Hash(0))
	}
	if rebuilt.Level() != 1 {
		t.Errorf("rebuilt level = %d, want 1", rebuilt.Level())
	}
}

func TestPrunedBranchRejectsLevelNotAboveCell(t *testing.T) {
	root := sampleTree(t)
	pruned, err := NewPrunedBranch(root, 1)
	if err != nil {
		t.Fatalf("NewPrunedBranch: %v", err)
	}
	if _, err := NewPrunedBranch(pruned, 1); !errors.Is(err, ErrConstraintViolation) {
		t.Errorf("pruning level-1 cell at level 1: got %v, want ErrConstraintViolation", err)
	}
	double, err := NewPrunedBranch(pruned, 2)
	if err != nil {
		t.Fatalf("pruning level-1 cell at level 2: %v", err)
	}
	if double.LevelMask() != 0b11 {
		t.Errorf("double pruned mask = %03b, want 011", double.LevelMask())
	}
	if double.Hash(0) != root.Hash(0) || double.Hash(1) != pruned.Hash(1) {
		t.Error("double pruned branch lost a lower hash")
	}
}

func TestMerkleProofLevelAndHash(t *testing.T) {
	root := sampleTree(t)
	pruned, _ := NewPrunedBranch(root.Ref(0), 1)
	disclosed, err := root.Rebuild([]*Cell{pruned, root.Ref(1)})
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	proof, err := NewMerkleProof(disclosed)
	if err != nil {
		t.Fatalf("NewMerkleProof: %v", err)
	}
	if proof.Level() != 0 {
		t.Errorf("proof level = %d, want 0", proof.Level())
	}
	stored, err := proof.StoredHashes()
	if err != nil {
		t.Fatalf("StoredHashes: %v", err)
	}
	if stored[0] != root.Hash(0) {
		t.Errorf("stored hash = %s, want %s", stored[0], root.Hash(0))
	}
}

func TestMerkleProofFinalizeRejectsWrongHash(t *testing.T) {
	root := sampleTree(t)
	h := root.Hash(0)
	h[5] ^= 1

	b := NewBuilder()
	b.StoreUint(uint64(MerkleProof), 8)
	b.StoreBytes(h[:])
	b.StoreUint(uint64(root.Depth(0)), 16)
	b.StoreRef(root)
	if _, err := b.Finalize(MerkleProof); !errors.Is(err, ErrProofInvalid) {
		t.Errorf("Finalize with wrong hash: got %v, want ErrProofInvalid", err)
	}

	b = NewBuilder()
	b.StoreUint(uint64(MerkleProof), 8)
	h = root.Hash(0)
	b.StoreBytes(h[:])
	b.StoreUint(uint64(root.Depth(0))+1, 16)
	b.StoreRef(root)
	if _, err := b.Finalize(MerkleProof); !errors.Is(err, ErrProofInvalid) {
		t.Errorf("Finalize with wrong depth: got %v, want ErrProofInvalid", err)
	}
}

func TestMerkleUpdateHashes(t *testing.T) {
	from := sampleTree(t)
	b := NewBuilder()
	b.StoreUint(1, 64)
	to := mustEndCell(t, b)

	update, err := NewMerkleUpdate(from, to)
	if err != nil {
		t.Fatalf("NewMerkleUpdate: %v", err)
	}
	stored, err := update.StoredHashes()
	if err != nil {
		t.Fatalf("StoredHashes: %v", err)
	}
	if stored[0] != from.Hash(0) || stored[1] != to.Hash(0) {
		t.Error("merkle update stored hashes do not match references")
	}
	if update.Depth(0) != from.Depth(0)+1 {
		t.Errorf("update depth = %d, want %d", update.Depth(0), from.Depth(0)+1)
	}
}

func TestSpecialLayoutValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *Builder)
		kind  Kind
	}{
		{"kind byte mismatch", func(b *Builder) { b.StoreUint(uint64(Library), 8); b.StoreZeroes(256) }, MerkleProof},
		{"library short", func(b *Builder) { b.StoreUint(uint64(Library), 8); b.StoreZeroes(255) }, Library},
		{"pruned level zero", func(b *Builder) { b.StoreUint(uint64(PrunedBranch), 8); b.StoreUint(0, 8) }, PrunedBranch},
		{"pruned wrong size", func(b *Builder) {
			b.StoreUint(uint64(PrunedBranch), 8)
			b.StoreUint(1, 8)
			b.StoreZeroes(256)
		}, PrunedBranch},
		{"special too short", func(b *Builder) { b.StoreUint(3, 4) }, MerkleProof},
		{"unknown kind", func(b *Builder) { b.StoreUint(9, 8) }, Kind(9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			tt.build(b)
			if _, err := b.Finalize(tt.kind); !errors.Is(err, ErrConstraintViolation) {
				t.Errorf("Finalize: got %v, want ErrConstraintViolation", err)
			}
		})
	}
}

func TestLibraryRef(t *testing.T) {
	root := sampleTree(t)
	lib, err := NewLibraryRef(root.Hash(0))
	if err != nil {
		t.Fatalf("NewLibraryRef: %v", err)
	}
	got, err := lib.LibraryHash()
	if err != nil {
		t.Fatalf("LibraryHash: %v", err)
	}
	if got != root.Hash(0) {
		t.Errorf("LibraryHash = %s, want %s", got, root.Hash(0))
	}
	if lib.Level() != 0 {
		t.Errorf("library level = %d, want 0", lib.Level())
	}
}
