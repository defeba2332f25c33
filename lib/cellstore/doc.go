// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cellstore provides an in-memory, concurrency-safe arena
// that interns cells by representation hash.
//
// Decoding a bag of cells or several proofs of the same tree yields
// many structurally equal subtrees. Interning them through one
// [Store] makes those subtrees pointer-equal, which lets later walks
// deduplicate with a pointer comparison and keeps memory
// proportional to the number of distinct cells:
//
//	store := cellstore.New(cellstore.Config{Logger: logger})
//	roots, err := boc.DeserializeInto(data, boc.DefaultLimits(), store)
//
// The store never evicts and never persists. It lives as long as the
// caller holds it.
package cellstore
