// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package merkle

import (
	"fmt"

	"github.com/bureau-foundation/cellcodec/lib/cell"
)

// Verify checks a standalone Merkle proof and returns its disclosed
// tree. The proof must be a level-0 MerkleProof cell whose stored
// hash and depth match the disclosed tree. If expected is non-zero the
// stored hash must also equal it. Every failure wraps
// cell.ErrProofInvalid.
func Verify(proof *cell.Cell, expected cell.Hash) (*cell.Cell, error) {
	if proof.Kind() != cell.MerkleProof {
		return nil, fmt.Errorf("%s cell is not a merkle proof: %w", proof.Kind(), cell.ErrProofInvalid)
	}
	if level := proof.Level(); level != 0 {
		return nil, fmt.Errorf("merkle proof at level %d: %w", level, cell.ErrProofInvalid)
	}
	env, err := Open(proof)
	if err != nil {
		return nil, err
	}
	if !expected.IsZero() && env.Hash != expected {
		return nil, fmt.Errorf("proof is for %s, expected %s: %w", env.Hash, expected, cell.ErrProofInvalid)
	}
	return env.Verify()
}

// Envelope is the content of a Merkle proof cell taken apart: the
// claimed hash and depth of the full tree and the disclosed tree.
// Envelopes decoded from records are untrusted until verified.
type Envelope struct {
	Hash  cell.Hash
	Depth uint16
	Root  *cell.Cell
}

// Open reads the envelope of a MerkleProof cell.
func Open(proof *cell.Cell) (Envelope, error) {
	if proof.Kind() != cell.MerkleProof {
		return Envelope{}, fmt.Errorf("%s cell is not a merkle proof: %w", proof.Kind(), cell.ErrProofInvalid)
	}
	s := proof.BeginParse()
	if err := s.Advance(8); err != nil {
		return Envelope{}, err
	}
	hash, err := s.FetchBytes(32)
	if err != nil {
		return Envelope{}, err
	}
	depth, err := s.FetchUint(16)
	if err != nil {
		return Envelope{}, err
	}
	root, err := s.FetchRef()
	if err != nil {
		return Envelope{}, err
	}
	env := Envelope{Depth: uint16(depth), Root: root}
	copy(env.Hash[:], hash)
	return env, nil
}

// Verify recomputes the disclosed tree's hash and depth and compares
// them with the claimed ones. It returns the disclosed tree.
func (e Envelope) Verify() (*cell.Cell, error) {
	if e.Root == nil {
		return nil, fmt.Errorf("merkle proof without a tree: %w", cell.ErrProofInvalid)
	}
	if level := e.Root.Level(); level > 1 {
		return nil, fmt.Errorf("disclosed tree at level %d: %w", level, cell.ErrProofInvalid)
	}
	if got := e.Root.Hash(0); got != e.Hash {
		return nil, fmt.Errorf("disclosed tree hashes to %s, proof claims %s: %w", got, e.Hash, cell.ErrProofInvalid)
	}
	if got := e.Root.Depth(0); got != e.Depth {
		return nil, fmt.Errorf("disclosed tree has depth %d, proof claims %d: %w", got, e.Depth, cell.ErrProofInvalid)
	}
	return e.Root, nil
}

// Seal verifies the envelope and builds its MerkleProof cell.
func (e Envelope) Seal() (*cell.Cell, error) {
	root, err := e.Verify()
	if err != nil {
		return nil, err
	}
	return cell.NewMerkleProof(root)
}

// Prove builds a Merkle proof for root that discloses every cell for
// which keep returns true. The root itself is always disclosed, and
// cells without references are disclosed along with their parent
// because a pruned branch would be no smaller. keep is only asked
// about cells whose parent is disclosed.
func Prove(root *cell.Cell, keep func(*cell.Cell) bool) (*cell.Cell, error) {
	p := &pruner{keep: keep, done: make(map[prunedKey]*cell.Cell)}
	disclosed, err := p.walk(root, 0, true)
	if err != nil {
		return nil, err
	}
	return cell.NewMerkleProof(disclosed)
}

// ProveCells is Prove disclosing exactly the given cells, such as
// those a dictionary lookup reads.
func ProveCells(root *cell.Cell, cells []*cell.Cell) (*cell.Cell, error) {
	keep := make(map[cell.Hash]bool, len(cells))
	for _, c := range cells {
		keep[c.RepresentationHash()] = true
	}
	return Prove(root, func(c *cell.Cell) bool {
		return keep[c.RepresentationHash()]
	})
}

type prunedKey struct {
	hash        cell.Hash
	merkleDepth int
}

// pruner rewrites a tree, replacing the subtrees keep rejects with
// pruned branches. Shared subtrees are rewritten once per merkle
// depth.
type pruner struct {
	keep func(*cell.Cell) bool
	done map[prunedKey]*cell.Cell
}

func (p *pruner) walk(c *cell.Cell, merkleDepth int, root bool) (*cell.Cell, error) {
	key := prunedKey{hash: c.RepresentationHash(), merkleDepth: merkleDepth}
	if out, ok := p.done[key]; ok {
		return out, nil
	}
	out, err := p.rewrite(c, merkleDepth, root)
	if err != nil {
		return nil, err
	}
	p.done[key] = out
	return out, nil
}

func (p *pruner) rewrite(c *cell.Cell, merkleDepth int, root bool) (*cell.Cell, error) {
	if c.RefCount() == 0 {
		return c, nil
	}
	prunable := c.Level() < merkleDepth+1 && merkleDepth+1 <= cell.MaxLevel
	if !root && prunable && !p.keep(c) {
		return cell.NewPrunedBranch(c, merkleDepth+1)
	}
	childDepth := merkleDepth
	if c.Kind().IsMerkle() {
		childDepth++
	}
	refs := make([]*cell.Cell, c.RefCount())
	changed := false
	for i := range refs {
		ref, err := p.walk(c.Ref(i), childDepth, false)
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
