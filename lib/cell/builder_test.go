// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cell

import (
	"errors"
	"math/big"
	"testing"
)

func TestBuilderBitOverflow(t *testing.T) {
	b := NewBuilder()
	if err := b.StoreZeroes(1000); err != nil {
		t.Fatalf("StoreZeroes(1000): %v", err)
	}
	if err := b.StoreUint(0, 23); err != nil {
		t.Fatalf("StoreUint to exactly 1023 bits: %v", err)
	}
	if err := b.StoreBit(true); !errors.Is(err, ErrOverflow) {
		t.Errorf("StoreBit past 1023 bits: got %v, want ErrOverflow", err)
	}
	if b.BitLen() != MaxBits {
		t.Errorf("BitLen after failed store = %d, want %d", b.BitLen(), MaxBits)
	}
}

func TestBuilderRefOverflow(t *testing.T) {
	empty, err := NewBuilder().EndCell()
	if err != nil {
		t.Fatalf("EndCell: %v", err)
	}
	b := NewBuilder()
	for i := 0; i < MaxRefs; i++ {
		if err := b.StoreRef(empty); err != nil {
			t.Fatalf("StoreRef #%d: %v", i, err)
		}
	}
	if err := b.StoreRef(empty); !errors.Is(err, ErrOverflow) {
		t.Errorf("fifth StoreRef: got %v, want ErrOverflow", err)
	}
	if b.RefCount() != MaxRefs {
		t.Errorf("RefCount after failed store = %d, want %d", b.RefCount(), MaxRefs)
	}
}

func TestStoreUintRejectsValuesWiderThanWidth(t *testing.T) {
	b := NewBuilder()
	if err := b.StoreUint(256, 8); !errors.Is(err, ErrConstraintViolation) {
		t.Errorf("StoreUint(256, 8): got %v, want ErrConstraintViolation", err)
	}
	if err := b.StoreInt(128, 8); !errors.Is(err, ErrConstraintViolation) {
		t.Errorf("StoreInt(128, 8): got %v, want ErrConstraintViolation", err)
	}
	if err := b.StoreInt(-129, 8); !errors.Is(err, ErrConstraintViolation) {
		t.Errorf("StoreInt(-129, 8): got %v, want ErrConstraintViolation", err)
	}
	if b.BitLen() != 0 {
		t.Errorf("BitLen after rejected stores = %d, want 0", b.BitLen())
	}
}

func TestStoreSliceCopiesRemainder(t *testing.T) {
	inner := NewBuilder()
	inner.StoreUint(0b101, 3)
	innerCell, _ := inner.EndCell()

	src := NewBuilder()
	src.StoreUint(0xF0F, 12)
	src.StoreRef(innerCell)
	srcCell, err := src.EndCell()
	if err != nil {
		t.Fatalf("EndCell: %v", err)
	}

	s := srcCell.BeginParse()
	if err := s.Advance(4); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	dst := NewBuilder()
	if err := dst.StoreSlice(s); err != nil {
		t.Fatalf("StoreSlice: %v", err)
	}
	if got := dst.Bits().String(); got != "00001111" {
		t.Errorf("copied bits = %s, want 00001111", got)
	}
	if dst.RefCount() != 1 {
		t.Errorf("copied refs = %d, want 1", dst.RefCount())
	}
}

func TestStoreBigIntTwosComplement(t *testing.T) {
	b := NewBuilder()
	if err := b.StoreBigInt(big.NewInt(-2), 100); err != nil {
		t.Fatalf("StoreBigInt: %v", err)
	}
	c, err := b.EndCell()
	if err != nil {
		t.Fatalf("EndCell: %v", err)
	}
	s := c.BeginParse()
	v, err := s.FetchBigInt(100)
	if err != nil {
		t.Fatalf("FetchBigInt: %v", err)
	}
	if v.Int64() != -2 {
		t.Errorf("FetchBigInt = %s, want -2", v)
	}
}
