// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package merkle

import (
	"fmt"

	"github.com/bureau-foundation/cellcodec/lib/cell"
)

// Hashes returns the old and new hashes an update claims.
func Hashes(update *cell.Cell) (HashUpdate, error) {
	if update.Kind() != cell.MerkleUpdate {
		return HashUpdate{}, fmt.Errorf("%s cell is not a merkle update: %w", update.Kind(), cell.ErrProofInvalid)
	}
	stored, err := update.StoredHashes()
	if err != nil {
		return HashUpdate{}, err
	}
	return HashUpdate{Old: stored[0], New: stored[1]}, nil
}

// ApplyUpdate reconstructs the new tree of update from oldRoot, the
// full tree the update was generated against. oldRoot's hash must
// equal the update's old hash, every pruned branch of the new side
// must stand for a subtree found along the disclosed old side, and
// the rebuilt tree must hash to the update's new hash. Every failure
// wraps cell.ErrProofInvalid.
func ApplyUpdate(update, oldRoot *cell.Cell) (*cell.Cell, error) {
	hashes, err := Hashes(update)
	if err != nil {
		return nil, err
	}
	if got := oldRoot.Hash(0); got != hashes.Old {
		return nil, fmt.Errorf("old tree hashes to %s, update starts from %s: %w", got, hashes.Old, cell.ErrProofInvalid)
	}
	a := &applier{known: make(map[cell.Hash]*cell.Cell), rebuilt: make(map[prunedKey]*cell.Cell)}
	if err := a.collect(oldRoot, update.Ref(0), 0); err != nil {
		return nil, err
	}
	out, err := a.rebuild(update.Ref(1), 0)
	if err != nil {
		return nil, err
	}
	if got := out.Hash(0); got != hashes.New {
		return nil, fmt.Errorf("rebuilt tree hashes to %s, update claims %s: %w", got, hashes.New, cell.ErrProofInvalid)
	}
	return out, nil
}

type applier struct {
	// known maps a hash at the current merkle depth to the real old
	// cell.
	known   map[cell.Hash]*cell.Cell
	rebuilt map[prunedKey]*cell.Cell
}

// collect walks the real old tree alongside the update's old side,
// recording each real cell the old side reaches, pruned or not.
func (a *applier) collect(original, update *cell.Cell, merkleDepth int) error {
	if original.Hash(merkleDepth) != update.Hash(merkleDepth) {
		return fmt.Errorf("old side diverges from the old tree: %w", cell.ErrProofInvalid)
	}
	a.known[original.Hash(merkleDepth)] = original
	if update.Kind() == cell.PrunedBranch {
		return nil
	}
	if original.RefCount() != update.RefCount() {
		return fmt.Errorf("old side cell has %d references, old tree %d: %w", update.RefCount(), original.RefCount(), cell.ErrProofInvalid)
	}
	childDepth := merkleDepth
	if update.Kind().IsMerkle() {
		childDepth++
	}
	for i := 0; i < update.RefCount(); i++ {
		if err := a.collect(original.Ref(i), update.Ref(i), childDepth); err != nil {
			return err
		}
	}
	return nil
}

// rebuild copies the update's new side, replacing pruned branches at
// merkleDepth+1 with the old cells they stand for.
func (a *applier) rebuild(c *cell.Cell, merkleDepth int) (*cell.Cell, error) {
	key := prunedKey{hash: c.RepresentationHash(), merkleDepth: merkleDepth}
	if out, ok := a.rebuilt[key]; ok {
		return out, nil
	}
	out, err := a.substitute(c, merkleDepth)
	if err != nil {
		return nil, err
	}
	a.rebuilt[key] = out
	return out, nil
}

func (a *applier) substitute(c *cell.Cell, merkleDepth int) (*cell.Cell, error) {
	if c.Kind() == cell.PrunedBranch {
		if c.Level() != merkleDepth+1 {
			return c, nil
		}
		original, ok := a.known[c.Hash(merkleDepth)]
		if !ok {
			return nil, fmt.Errorf("new side prunes %s, which the old side does not reach: %w", c.Hash(merkleDepth), cell.ErrProofInvalid)
		}
		return original, nil
	}
	childDepth := merkleDepth
	if c.Kind().IsMerkle() {
		childDepth++
	}
	refs := make([]*cell.Cell, c.RefCount())
	changed := false
	for i := range refs {
		ref, err := a.rebuild(c.Ref(i), childDepth)
		if err != nil {
			return nil, err
		}
		refs[i] = ref
		changed = changed || ref != c.Ref(i)
	}
	if !changed {
		return c, nil
	}
	return c.Rebuild(refs)
}

// ValidateUpdate checks an update on its own: both sides must be
// consistent with the stored hashes, which finalizing the cell
// already guarantees, and every pruned branch of the new side must
// stand for a cell the old side reaches. Every failure wraps
// cell.ErrProofInvalid.
func ValidateUpdate(update *cell.Cell) error {
	if update.Kind() != cell.MerkleUpdate {
		return fmt.Errorf("%s cell is not a merkle update: %w", update.Kind(), cell.ErrProofInvalid)
	}
	known := make(map[cell.Hash]bool)
	seen := make(map[prunedKey]bool)
	var reach func(c *cell.Cell, merkleDepth int)
	reach = func(c *cell.Cell, merkleDepth int) {
		key := prunedKey{hash: c.RepresentationHash(), merkleDepth: merkleDepth}
		if seen[key] {
			return
		}
		seen[key] = true
		known[c.Hash(merkleDepth)] = true
		childDepth := merkleDepth
		if c.Kind().IsMerkle() {
			childDepth++
		}
		for i := 0; i < c.RefCount(); i++ {
			reach(c.Ref(i), childDepth)
		}
	}
	reach(update.Ref(0), 0)

	clear(seen)
	var check func(c *cell.Cell, merkleDepth int) error
	check = func(c *cell.Cell, merkleDepth int) error {
		key := prunedKey{hash: c.RepresentationHash(), merkleDepth: merkleDepth}
		if seen[key] {
			return nil
		}
		seen[key] = true
		if c.Kind() == cell.PrunedBranch {
			if c.Level() == merkleDepth+1 && !known[c.Hash(merkleDepth)] {
				return fmt.Errorf("new side prunes %s, which the old side does not reach: %w", c.Hash(merkleDepth), cell.ErrProofInvalid)
			}
			return nil
		}
		childDepth := merkleDepth
		if c.Kind().IsMerkle() {
			childDepth++
		}
		for i := 0; i < c.RefCount(); i++ {
			if err := check(c.Ref(i), childDepth); err != nil {
				return err
			}
		}
		return nil
	}
	return check(update.Ref(1), 0)
}

// GenerateUpdate builds a Merkle update taking from to to. The new
// side prunes every subtree of to that also occurs in from; the old
// side discloses exactly the paths leading to those subtrees.
func GenerateUpdate(from, to *cell.Cell) (*cell.Cell, error) {
	inFrom := make(map[cell.Hash]bool)
	var index func(c *cell.Cell)
	index = func(c *cell.Cell) {
		h := c.Hash(0)
		if inFrom[h] {
			return
		}
		inFrom[h] = true
		for i := 0; i < c.RefCount(); i++ {
			index(c.Ref(i))
		}
	}
	index(from)

	// Subtrees of to found in from are pruned on the new side.
	shared := make(map[cell.Hash]bool)
	newSide := &pruner{done: make(map[prunedKey]*cell.Cell)}
	newSide.keep = func(c *cell.Cell) bool {
		if inFrom[c.Hash(0)] {
			shared[c.Hash(0)] = true
			return false
		}
		return true
	}
	newTree, err := newSide.walk(to, 0, true)
	if err != nil {
		return nil, fmt.Errorf("pruning new tree: %w", err)
	}

	// The old side must reach each shared subtree, so it discloses
	// every cell with a shared subtree strictly below it.
	leadsToShared := make(map[cell.Hash]bool)
	var mark func(c *cell.Cell) bool
	mark = func(c *cell.Cell) bool {
		h := c.Hash(0)
		if v, ok := leadsToShared[h]; ok {
			return v
		}
		found := false
		for i := 0; i < c.RefCount(); i++ {
			child := c.Ref(i)
			if mark(child) || shared[child.Hash(0)] {
				found = true
			}
		}
		leadsToShared[h] = found
		return found
	}
	mark(from)
	oldSide := &pruner{done: make(map[prunedKey]*cell.Cell), keep: func(c *cell.Cell) bool {
		return leadsToShared[c.Hash(0)] && !shared[c.Hash(0)]
	}}
	oldTree, err := oldSide.walk(from, 0, true)
	if err != nil {
		return nil, fmt.Errorf("pruning old tree: %w", err)
	}
	return cell.NewMerkleUpdate(oldTree, newTree)
}
