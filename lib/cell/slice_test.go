// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cell

import (
	"errors"
	"math/big"
	"testing"
)

func TestFetchRoundTrip(t *testing.T) {
	wide, _ := new(big.Int).SetString("123456789012345678901234567890", 10)

	b := NewBuilder()
	b.StoreUint(0x2A, 7)
	b.StoreInt(-5, 13)
	b.StoreInt(-1, 64)
	b.StoreUint(^uint64(0), 64)
	b.StoreBigUint(wide, 120)
	b.StoreBit(true)
	c, err := b.EndCell()
	if err != nil {
		t.Fatalf("EndCell: %v", err)
	}

	s := c.BeginParse()
	if v, err := s.FetchUint(7); err != nil || v != 0x2A {
		t.Errorf("FetchUint(7) = %d, %v; want 42", v, err)
	}
	if v, err := s.FetchInt(13); err != nil || v != -5 {
		t.Errorf("FetchInt(13) = %d, %v; want -5", v, err)
	}
	if v, err := s.FetchInt(64); err != nil || v != -1 {
		t.Errorf("FetchInt(64) = %d, %v; want -1", v, err)
	}
	if v, err := s.FetchUint(64); err != nil || v != ^uint64(0) {
		t.Errorf("FetchUint(64) = %d, %v; want max uint64", v, err)
	}
	if v, err := s.FetchBigUint(120); err != nil || v.Cmp(wide) != 0 {
		t.Errorf("FetchBigUint(120) = %v, %v; want %s", v, err, wide)
	}
	if v, err := s.FetchBool(); err != nil || !v {
		t.Errorf("FetchBool = %v, %v; want true", v, err)
	}
	if !s.IsEmpty() {
		t.Errorf("slice not empty after reading everything: %d bits left", s.BitsLeft())
	}
}

func TestPrefetchDoesNotAdvance(t *testing.T) {
	b := NewBuilder()
	b.StoreUint(0b1101, 4)
	c, _ := b.EndCell()

	s := c.BeginParse()
	if v, err := s.PrefetchUint(2); err != nil || v != 0b11 {
		t.Fatalf("PrefetchUint(2) = %d, %v; want 3", v, err)
	}
	if s.BitsLeft() != 4 {
		t.Errorf("BitsLeft after prefetch = %d, want 4", s.BitsLeft())
	}
}

func TestTruncatedReadsLeaveSliceUnchanged(t *testing.T) {
	b := NewBuilder()
	b.StoreUint(0xFF, 8)
	c, _ := b.EndCell()

	s := c.BeginParse()
	s.Advance(3)
	before := s

	if _, err := s.FetchUint(6); !errors.Is(err, ErrTruncated) {
		t.Errorf("FetchUint past end: got %v, want ErrTruncated", err)
	}
	if err := s.Advance(6); !errors.Is(err, ErrTruncated) {
		t.Errorf("Advance past end: got %v, want ErrTruncated", err)
	}
	if _, err := s.FetchRef(); !errors.Is(err, ErrTruncated) {
		t.Errorf("FetchRef with no refs: got %v, want ErrTruncated", err)
	}
	if err := s.AdvanceRefs(1); !errors.Is(err, ErrTruncated) {
		t.Errorf("AdvanceRefs with no refs: got %v, want ErrTruncated", err)
	}
	if s != before {
		t.Errorf("slice moved after failed reads: %+v, want %+v", s, before)
	}
}

func TestUntilCapturesConsumedPart(t *testing.T) {
	b := NewBuilder()
	b.StoreUint(0xABCD, 16)
	c, _ := b.EndCell()

	start := c.BeginParse()
	s := start
	s.Advance(8)
	consumed := start.Until(s)
	if got := consumed.Bits().Hex(); got != "AB" {
		t.Errorf("consumed bits = %s, want AB", got)
	}
	if got := s.Bits().Hex(); got != "CD" {
		t.Errorf("remaining bits = %s, want CD", got)
	}
}
