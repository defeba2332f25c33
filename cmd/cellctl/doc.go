// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Cellctl inspects, builds and verifies trees of cells.
//
// Usage:
//
//	cellctl <command> [flags]
//
// The commands are:
//
//	inspect   summarize a bag of cells or envelope
//	dump      print every cell of a tree
//	build     build a bag of cells from a JSONC description
//	validate  check a bag of cells and its special cells
//	prove     prove a dictionary lookup with a Merkle proof
//	pack      wrap a bag of cells in a compressed envelope
//	unpack    extract the bag of cells from an envelope
//	label     show the encodings of a dictionary edge label
//	version   print build information
//
// Configuration comes from the file named by --config or
// CELLCTL_CONFIG; see lib/config.
package main
