// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boc

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/cellstore"
	"github.com/bureau-foundation/cellcodec/lib/codec"
	"github.com/bureau-foundation/cellcodec/lib/testutil"
)

// sparseChain is a chain of cells that are mostly zero bits, which
// every compressor shrinks well.
func sparseChain(t *testing.T, length int) *cell.Cell {
	t.Helper()
	var next *cell.Cell
	for i := 0; i < length; i++ {
		below := next
		next = testutil.MustCell(t, func(b *cell.Builder) error {
			if err := b.StoreZeroes(900); err != nil {
				return err
			}
			if err := b.StoreUint(uint64(i), 16); err != nil {
				return err
			}
			if below != nil {
				return b.StoreRef(below)
			}
			return nil
		})
	}
	return next
}

func TestPackUnpack(t *testing.T) {
	root := sparseChain(t, 64)
	tests := []struct {
		requested Compression
		want      Compression
	}{
		{CompressionNone, CompressionNone},
		{CompressionLZ4, CompressionLZ4},
		{CompressionZstd, CompressionZstd},
		{CompressionAuto, CompressionZstd},
	}
	for _, tt := range tests {
		t.Run(tt.requested.String(), func(t *testing.T) {
			packed, err := Pack([]*cell.Cell{root}, PackOptions{
				BOC:         Options{CRC32C: true},
				Compression: tt.requested,
			})
			if err != nil {
				t.Fatalf("Pack: %v", err)
			}
			header, _, err := ReadHeader(packed)
			if err != nil {
				t.Fatalf("ReadHeader: %v", err)
			}
			if header.Compression != tt.want {
				t.Errorf("compression = %s, want %s", header.Compression, tt.want)
			}
			if len(header.Roots) != 1 || header.Roots[0] != root.Hash(0) {
				t.Error("header does not record the root hash")
			}

			roots, err := Unpack(packed, UnpackOptions{Limits: DefaultLimits()})
			if err != nil {
				t.Fatalf("Unpack: %v", err)
			}
			if len(roots) != 1 || !roots[0].Equal(root) {
				t.Error("unpacked tree differs from the packed one")
			}
		})
	}
}

func TestPackFallsBackWhenIncompressible(t *testing.T) {
	// A single empty cell serializes to ten bytes, too short for
	// either compressor to shrink.
	packed, err := Pack([]*cell.Cell{emptyCell(t)}, PackOptions{Compression: CompressionLZ4})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	header, _, err := ReadHeader(packed)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if header.Compression != CompressionNone {
		t.Errorf("compression = %s, want none", header.Compression)
	}
}

func TestUnpackRejectsTampering(t *testing.T) {
	root := testutil.Chain(t, 8)
	packed, err := Pack([]*cell.Cell{root}, PackOptions{})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	t.Run("body", func(t *testing.T) {
		tampered := bytes.Clone(packed)
		tampered[len(tampered)-1] ^= 0x01
		if _, err := Unpack(tampered, UnpackOptions{}); !errors.Is(err, ErrChecksum) {
			t.Errorf("got %v, want ErrChecksum", err)
		}
	})

	t.Run("root hash", func(t *testing.T) {
		header, body, err := ReadHeader(packed)
		if err != nil {
			t.Fatalf("ReadHeader: %v", err)
		}
		header.Roots[0][0] ^= 0x01
		encoded, err := codec.Marshal(header)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		tampered := append(append(bytes.Clone(EnvelopeMagic), encoded...), body...)
		if _, err := Unpack(tampered, UnpackOptions{}); !errors.Is(err, ErrChecksum) {
			t.Errorf("got %v, want ErrChecksum", err)
		}
	})

	t.Run("magic", func(t *testing.T) {
		tampered := bytes.Clone(packed)
		tampered[0] = 'X'
		if _, err := Unpack(tampered, UnpackOptions{}); !errors.Is(err, ErrBadEnvelope) {
			t.Errorf("got %v, want ErrBadEnvelope", err)
		}
	})

	t.Run("size limit", func(t *testing.T) {
		if _, err := Unpack(packed, UnpackOptions{Limits: Limits{MaxSize: 8}}); !errors.Is(err, ErrTooLarge) {
			t.Errorf("got %v, want ErrTooLarge", err)
		}
	})
}

func TestDecodeEitherForm(t *testing.T) {
	root := testutil.Chain(t, 3)
	plain, err := Serialize([]*cell.Cell{root}, Options{})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	packed, err := Pack([]*cell.Cell{root}, PackOptions{Compression: CompressionAuto})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	store := cellstore.New(cellstore.Config{})
	var decoded []*cell.Cell
	for _, data := range [][]byte{plain, packed} {
		roots, err := Decode(data, UnpackOptions{Store: store})
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		decoded = append(decoded, roots[0])
	}
	if decoded[0] != decoded[1] {
		t.Error("decoding through one store did not share the root")
	}
	if store.Len() != 3 {
		t.Errorf("store holds %d cells, want 3", store.Len())
	}
}

func TestChecksumDomain(t *testing.T) {
	data := []byte("b5ee9c72")
	if ChecksumOf(data) != ChecksumOf(bytes.Clone(data)) {
		t.Error("checksum is not deterministic")
	}
	if ChecksumOf(data) == ChecksumOf(append(bytes.Clone(data), 0)) {
		t.Error("checksum ignores a trailing byte")
	}
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd, CompressionAuto} {
		parsed, err := ParseCompression(c.String())
		if err != nil {
			t.Fatalf("ParseCompression(%q): %v", c, err)
		}
		if parsed != c {
			t.Errorf("ParseCompression(%q) = %s", c, parsed)
		}
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Error("ParseCompression accepted gzip")
	}
}
