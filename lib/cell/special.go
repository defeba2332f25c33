// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cell

import "fmt"

// NewPrunedBranch returns a pruned branch that stands in for c at
// level newLevel. It stores c's hash and depth for every significant
// level of c, so it hashes exactly like c at every level below
// newLevel. newLevel must be above c's own level.
func NewPrunedBranch(c *Cell, newLevel int) (*Cell, error) {
	level := c.Level()
	if newLevel <= level || newLevel > MaxLevel {
		return nil, fmt.Errorf("pruning level %d cell at level %d: %w", level, newLevel, ErrConstraintViolation)
	}
	var b Builder
	b.StoreUint(uint64(PrunedBranch), 8)
	b.StoreUint(uint64(c.mask|OneLevel(newLevel)), 8)
	for i := 0; i <= level; i++ {
		if c.mask.IsSignificant(i) {
			h := c.Hash(i)
			b.StoreBytes(h[:])
		}
	}
	for i := 0; i <= level; i++ {
		if c.mask.IsSignificant(i) {
			b.StoreUint(uint64(c.Depth(i)), 16)
		}
	}
	return b.Finalize(PrunedBranch)
}

// NewLibraryRef returns a library cell referring to the cell with
// the given hash.
func NewLibraryRef(hash Hash) (*Cell, error) {
	var b Builder
	b.StoreUint(uint64(Library), 8)
	b.StoreBytes(hash[:])
	return b.Finalize(Library)
}

// NewMerkleProof wraps c in a Merkle proof cell carrying c's level-0
// hash and depth.
func NewMerkleProof(c *Cell) (*Cell, error) {
	var b Builder
	b.StoreUint(uint64(MerkleProof), 8)
	h := c.Hash(0)
	b.StoreBytes(h[:])
	b.StoreUint(uint64(c.Depth(0)), 16)
	if err := b.StoreRef(c); err != nil {
		return nil, err
	}
	return b.Finalize(MerkleProof)
}

// NewMerkleUpdate wraps the old and new versions of a tree in a
// Merkle update cell.
func NewMerkleUpdate(from, to *Cell) (*Cell, error) {
	var b Builder
	b.StoreUint(uint64(MerkleUpdate), 8)
	fromHash, toHash := from.Hash(0), to.Hash(0)
	b.StoreBytes(fromHash[:])
	b.StoreBytes(toHash[:])
	b.StoreUint(uint64(from.Depth(0)), 16)
	b.StoreUint(uint64(to.Depth(0)), 16)
	if err := b.StoreRef(from); err != nil {
		return nil, err
	}
	if err := b.StoreRef(to); err != nil {
		return nil, err
	}
	return b.Finalize(MerkleUpdate)
}

// LibraryHash returns the hash a library cell refers to.
func (c *Cell) LibraryHash() (Hash, error) {
	var h Hash
	if c.kind != Library {
		return h, fmt.Errorf("%s cell is not a library reference: %w", c.kind, ErrConstraintViolation)
	}
	copy(h[:], c.data[1:33])
	return h, nil
}

// StoredHashes returns the hashes a Merkle proof or update cell
// claims for its references, in reference order.
func (c *Cell) StoredHashes() ([]Hash, error) {
	var count int
	switch c.kind {
	case MerkleProof:
		count = 1
	case MerkleUpdate:
		count = 2
	default:
		return nil, fmt.Errorf("%s cell stores no reference hashes: %w", c.kind, ErrConstraintViolation)
	}
	out := make([]Hash, count)
	for i := range out {
		copy(out[i][:], c.data[1+i*32:])
	}
	return out, nil
}

// Rebuild returns a cell with the same kind and data as c and the
// given references. It is how tree transformations such as pruning
// produce new parents for modified children.
func (c *Cell) Rebuild(refs []*Cell) (*Cell, error) {
	if len(refs) != len(c.refs) {
		return nil, fmt.Errorf("rebuilding cell with %d references as %d: %w", len(c.refs), len(refs), ErrConstraintViolation)
	}
	data := make([]byte, len(c.data))
	copy(data, c.data)
	copied := make([]*Cell, len(refs))
	copy(copied, refs)
	return newCell(c.kind, data, c.bits, copied)
}

// Rewrite returns a cell with the same kind and references as c and
// different data bits. It exists for tooling and tests that need to
// tamper with a tree.
func (c *Cell) Rewrite(data BitString) (*Cell, error) {
	return newCell(c.kind, data.Bytes(), data.Len(), append([]*Cell(nil), c.refs...))
}
