// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dict implements the binary trie ("Patricia") dictionaries
// stored in cells.
//
// A dictionary with n-bit keys is a tree of hm_edge nodes. Each node
// starts with a label holding the key bits shared by every entry
// below it, encoded in whichever of the three label forms (short,
// long, same) is cheapest for the label and the number of key bits
// still unconsumed. A node whose label consumes all remaining key
// bits is a leaf and holds the value in the rest of its cell. Any
// other node is a fork with two references, left for the next key bit
// 0 and right for 1, each a dictionary over the key bits that remain
// after the label and the branch bit.
//
// Because labels always take the maximal common prefix and the label
// encoding is a deterministic function of the label, a dictionary's
// cells, and so its hash, depend only on its set of entries. [Build]
// relies on this: it sorts its input and constructs the tree in one
// pass, so the order entries are supplied in never matters.
//
// [Dictionary] values are persistent. Set and Delete share every
// untouched subtree with the original, so updating one key rebuilds
// only the cells on its path.
//
// Variants:
//
//   - [Aug] adds a per-node extra summarizing the subtree, such as a
//     total balance. Validation without weak recomputes every extra and
//     compares encodings bit for bit.
//   - [Prefix] (PfxHashmap) stores keys of varying length that are
//     never prefixes of each other, and looks up the stored key that
//     prefixes a query.
//   - [Variable] (VarHashmap) stores keys of varying length where one
//     key may prefix another.
//
// The HashmapEType family adapts each variant to [tlb.Type] so schema
// records can hold dictionaries directly.
package dict
