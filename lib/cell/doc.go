// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cell implements the bounded, content-addressed binary cell
// that every other codec package in this module is built on.
//
// A [Cell] holds up to 1023 data bits and up to four references to
// other cells. Cells are immutable: a [Builder] accumulates bits and
// references, and [Builder.Finalize] turns them into a Cell whose
// hashes are computed once from the cell's kind, its data, and the
// already-computed hashes of its references. Because every cell's hash
// covers its children's hashes, changing any leaf changes every
// ancestor, which is what makes Merkle proofs over cell trees possible.
//
// A [Slice] is a read cursor over one cell. Fetch methods consume
// bits or references and advance the cursor; Prefetch methods peek
// without advancing. Every read that runs past the end of the data
// or reference list fails with [ErrTruncated] and leaves the slice
// where it was.
//
// Besides ordinary cells there are four special kinds, identified by
// the first data byte:
//
//   - [PrunedBranch] stands in for a hidden subtree and carries only
//     its hashes and depths.
//   - [Library] references a cell by hash.
//   - [MerkleProof] wraps a subtree together with its claimed hash and
//     depth.
//   - [MerkleUpdate] wraps the old and new versions of a subtree.
//
// Special cells are validated when they are finalized. A Merkle cell
// whose stored hash or depth disagrees with its references fails
// with [ErrProofInvalid], so a finalized Merkle cell is always
// internally consistent.
//
// Each special kind participates in the level system: a pruned branch
// at level n hides a subtree from everything above the n-th enclosing
// Merkle cell, and a cell carries one hash per significant level of
// its [LevelMask]. Hash(0) is the hash a verifier sees with all
// pruning expanded; the highest hash is the representation hash used
// for deduplication and serialization.
//
// All failures are reported by wrapping one of the sentinel errors
// declared in errors.go, so callers test with errors.Is regardless of
// how much context was added on the way up.
package cell
