// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boc

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/cellstore"
	"github.com/bureau-foundation/cellcodec/lib/codec"
)

// EnvelopeMagic opens every packed envelope.
var EnvelopeMagic = []byte("CELZ")

// EnvelopeVersion is the header version Pack writes.
const EnvelopeVersion = 1

// ErrBadEnvelope means the input is not a well-formed envelope.
var ErrBadEnvelope = errors.New("malformed envelope")

// EnvelopeHeader is the CBOR header between the magic and the body.
type EnvelopeHeader struct {
	Version     int         `cbor:"version"`
	Compression Compression `cbor:"compression"`
	// Size is the length of the uncompressed bag of cells.
	Size     int         `cbor:"size"`
	Checksum Checksum    `cbor:"checksum"`
	Roots    []cell.Hash `cbor:"roots"`
}

// PackOptions configures Pack.
type PackOptions struct {
	// BOC selects the optional parts of the inner bag of cells.
	BOC Options

	// Compression of the body. The zero value stores it
	// uncompressed; CompressionAuto probes.
	Compression Compression

	// Logger receives one debug line per envelope. If nil, a no-op
	// logger is used.
	Logger *slog.Logger
}

// Pack serializes roots and wraps the bag of cells in an envelope:
// the magic, a CBOR [EnvelopeHeader], then the possibly compressed
// body. The header records the root hashes and a keyed BLAKE3
// checksum of the uncompressed body.
func Pack(roots []*cell.Cell, options PackOptions) ([]byte, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	raw, err := Serialize(roots, options.BOC)
	if err != nil {
		return nil, err
	}
	body, used, err := compressAuto(raw, options.Compression)
	if err != nil {
		return nil, err
	}
	header := EnvelopeHeader{
		Version:     EnvelopeVersion,
		Compression: used,
		Size:        len(raw),
		Checksum:    ChecksumOf(raw),
	}
	for _, root := range roots {
		header.Roots = append(header.Roots, root.Hash(0))
	}
	encoded, err := codec.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("encoding envelope header: %w", err)
	}

	out := make([]byte, 0, len(EnvelopeMagic)+len(encoded)+len(body))
	out = append(out, EnvelopeMagic...)
	out = append(out, encoded...)
	out = append(out, body...)

	logger.Debug("packed bag of cells",
		"roots", len(roots),
		"raw_bytes", len(raw),
		"packed_bytes", len(out),
		"compression", used.String(),
	)
	return out, nil
}

// IsEnvelope reports whether data starts with [EnvelopeMagic].
func IsEnvelope(data []byte) bool {
	return bytes.HasPrefix(data, EnvelopeMagic)
}

// ReadHeader decodes the header of an envelope and returns it with
// the body that follows. Neither is verified.
func ReadHeader(data []byte) (EnvelopeHeader, []byte, error) {
	var header EnvelopeHeader
	if !IsEnvelope(data) {
		return header, nil, fmt.Errorf("missing %q magic: %w", EnvelopeMagic, ErrBadEnvelope)
	}
	body, err := codec.UnmarshalFirst(data[len(EnvelopeMagic):], &header)
	if err != nil {
		return header, nil, fmt.Errorf("decoding header: %v: %w", err, ErrBadEnvelope)
	}
	if header.Version != EnvelopeVersion {
		return header, nil, fmt.Errorf("header version %d: %w", header.Version, ErrBadEnvelope)
	}
	if header.Size < 0 {
		return header, nil, fmt.Errorf("negative body size: %w", ErrBadEnvelope)
	}
	return header, body, nil
}

// UnpackOptions configures Unpack.
type UnpackOptions struct {
	// Limits bound the uncompressed body and the bag of cells in
	// it. MaxSize applies to the decompressed size, checked before
	// decompression.
	Limits Limits

	// Store, if set, interns every decoded cell.
	Store *cellstore.Store

	Logger *slog.Logger
}

// Unpack opens an envelope produced by Pack. The decompressed body
// must match the header's checksum, and the decoded roots must hash
// to the header's root hashes; either failure wraps ErrChecksum.
func Unpack(data []byte, options UnpackOptions) ([]*cell.Cell, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	header, body, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	if options.Limits.MaxSize > 0 && header.Size > options.Limits.MaxSize {
		return nil, fmt.Errorf("body of %d bytes, limit %d: %w", header.Size, options.Limits.MaxSize, ErrTooLarge)
	}
	raw, err := decompress(body, header.Compression, header.Size)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrBadEnvelope)
	}
	if sum := ChecksumOf(raw); sum != header.Checksum {
		return nil, fmt.Errorf("body checksum %x, header %x: %w", sum[:8], header.Checksum[:8], ErrChecksum)
	}

	roots, err := DeserializeInto(raw, options.Limits, options.Store)
	if err != nil {
		return nil, err
	}
	if len(roots) != len(header.Roots) {
		return nil, fmt.Errorf("body has %d roots, header %d: %w", len(roots), len(header.Roots), ErrChecksum)
	}
	for i, root := range roots {
		if root.Hash(0) != header.Roots[i] {
			return nil, fmt.Errorf("root %d hashes to %s, header says %s: %w", i, root.Hash(0), header.Roots[i], ErrChecksum)
		}
	}
	logger.Debug("unpacked bag of cells",
		"roots", len(roots),
		"raw_bytes", len(raw),
		"compression", header.Compression.String(),
	)
	return roots, nil
}

// Decode reads either a plain bag of cells or an envelope, telling
// them apart by magic.
func Decode(data []byte, options UnpackOptions) ([]*cell.Cell, error) {
	if IsEnvelope(data) {
		return Unpack(data, options)
	}
	return DeserializeInto(data, options.Limits, options.Store)
}
