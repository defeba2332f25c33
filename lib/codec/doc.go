// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the module's single CBOR configuration.
//
// Cells have their own bit-level wire format (see lib/boc). CBOR is
// used around it, for the self-describing parts:
//
//   - the header of a packed envelope (compression, sizes, checksum,
//     root hashes);
//   - machine-readable tree dumps from cellctl dump --cbor.
//
// Both need byte-identical output for equal input, so the encoder
// uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map keys,
// smallest integer encoding, no indefinite-length items. Byte arrays
// such as cell.Hash encode as CBOR byte strings.
//
//	data, err := codec.Marshal(header)
//	rest, err := codec.UnmarshalFirst(data, &header)
//
// # Struct Tag Rules
//
// A `cbor` tag marks a type that is only ever CBOR, such as the
// envelope header. A `json` tag marks a type that is written as both
// JSON and CBOR, such as the dump nodes; fxamacker/cbor reads `json`
// tags when `cbor` tags are absent. Never put both on one field.
package codec
