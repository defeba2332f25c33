// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package boc converts cell trees to and from bytes.
//
// [Serialize] and [Deserialize] implement the bag-of-cells format.
// A bag starts with [Magic] and a header:
//
//	magic:4  flags:1  off_bytes:1
//	cells:size  roots:size  absent:size  total_cells_size:off_bytes
//	root_list:roots*size
//	index:cells*off_bytes         (if has_idx)
//	cell_data:total_cells_size
//	crc32c:4                      (if has_crc32c, little-endian)
//
// The flags byte holds has_idx (0x80), has_crc32c (0x40),
// has_cache_bits (0x20) and, in its low three bits, size, the byte
// width of a cell index. Each cell is written as its two descriptor
// bytes, its data padded with a completion bit, and the indices of
// its references. Cells appear parents first, so a reader builds
// them back to front and every reference is already built when its
// parent needs it. Equal subtrees are written once.
//
// Deserialize treats its input as untrusted: every length is checked
// against the remaining input before anything proportional to it is
// allocated, [Limits] bound the cell and root counts, and each cell
// is rebuilt through the cell package so that its level mask, its
// special-cell layout and the Merkle hashes it embeds are verified.
// Truncated input fails with cell.ErrTruncated and structural
// problems with cell.ErrConstraintViolation.
//
// [Pack] and [Unpack] wrap a bag of cells in a small envelope for
// storage and transfer: the "CELZ" magic, a CBOR [EnvelopeHeader],
// and the body compressed with LZ4 or zstd when that helps. The
// header carries a keyed BLAKE3 checksum of the uncompressed body and
// the root hashes, both verified on unpack.
package boc
