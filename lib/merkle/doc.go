// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package merkle generates, verifies and applies Merkle proofs and
// Merkle updates over cell trees.
//
// A proof discloses part of a tree: every cell the verifier needs is
// present, and every other subtree is replaced by a pruned branch
// that carries the subtree's hash and depth. Because a pruned branch
// hashes at level 0 exactly like the subtree it replaces, the
// partial tree has the same level-0 hash as the full one, and a
// verifier holding only that hash can check the proof without the
// rest of the tree.
//
// Nesting is tracked by merkle depth: cells directly under a proof or
// update are at merkle depth 1, so their pruned branches are created
// at level 1, and every Merkle cell crossed on the way down adds one.
//
// An update pairs a pruned "old" tree with a pruned "new" tree.
// Pruned branches in the new tree stand for subtrees that are
// unchanged and must be found in the old tree. [ApplyUpdate]
// reconstructs the new tree from the real old tree by substituting
// those subtrees, then checks the result against the update's stored
// new hash.
//
// Cells returned by [Verify] and [ApplyUpdate] come from untrusted
// input and should be decoded with weak validation, which accepts
// pruned branches wherever a value was not disclosed.
package merkle
