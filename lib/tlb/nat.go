// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tlb

import (
	"fmt"
	"math/bits"

	"github.com/bureau-foundation/cellcodec/lib/cell"
)

// scalar marks inline numeric types. Records decode scalar fields
// even when skipping, because later fields may depend on them.
type scalar interface {
	scalar()
}

// UInt is an unsigned integer of width bits (uint n). Values are
// uint64 for widths up to 64 and *big.Int above.
func UInt(width int) Type {
	return uintType{width: width}
}

// Nat is the fixed-width natural (## n).
func Nat(width int) Type {
	return uintType{width: width}
}

type uintType struct {
	single
	width int
}

func (uintType) scalar() {}

func (t uintType) Skip(s *cell.Slice) error {
	return s.Advance(t.width)
}

func (t uintType) ValidateSkip(_ *Budget, s *cell.Slice, _ bool) error {
	return s.Advance(t.width)
}

func (t uintType) Unpack(s *cell.Slice) (any, error) {
	if t.width > 64 {
		return s.FetchBigUint(t.width)
	}
	return s.FetchUint(t.width)
}

func (t uintType) Pack(b *cell.Builder, v any) error {
	if t.width > 64 {
		x, err := AsBigInt(v)
		if err != nil {
			return err
		}
		return b.StoreBigUint(x, t.width)
	}
	x, err := AsUint64(v)
	if err != nil {
		return err
	}
	return b.StoreUint(x, t.width)
}

// Int is a two's complement integer of width bits (int n). Values are
// int64 for widths up to 64 and *big.Int above.
func Int(width int) Type {
	return intType{width: width}
}

type intType struct {
	single
	width int
}

func (intType) scalar() {}

func (t intType) Skip(s *cell.Slice) error {
	return s.Advance(t.width)
}

func (t intType) ValidateSkip(_ *Budget, s *cell.Slice, _ bool) error {
	return s.Advance(t.width)
}

func (t intType) Unpack(s *cell.Slice) (any, error) {
	if t.width > 64 {
		return s.FetchBigInt(t.width)
	}
	return s.FetchInt(t.width)
}

func (t intType) Pack(b *cell.Builder, v any) error {
	if t.width > 64 {
		x, err := AsBigInt(v)
		if err != nil {
			return err
		}
		return b.StoreBigInt(x, t.width)
	}
	x, err := AsInt64(v)
	if err != nil {
		return err
	}
	return b.StoreInt(x, t.width)
}

// NatLess is (#< n): a natural below n, stored in the fewest bits
// that hold n-1. Values are uint64. NatLess(0) has no values; it
// occupies no bits and every unpack or pack fails.
func NatLess(n uint64) Type {
	if n == 0 {
		return boundedNat{strict: true}
	}
	return boundedNat{bound: n, width: bits.Len64(n - 1), strict: true}
}

// NatLeq is (#<= n): a natural at most n, stored in the fewest bits
// that hold n. Values are uint64.
func NatLeq(n uint64) Type {
	return boundedNat{bound: n, width: bits.Len64(n)}
}

type boundedNat struct {
	single
	bound  uint64
	width  int
	strict bool
}

func (boundedNat) scalar() {}

// Width is the number of bits the value occupies.
func (t boundedNat) Width() int { return t.width }

func (t boundedNat) check(v uint64) error {
	if t.strict && v >= t.bound {
		return fmt.Errorf("value %d not below %d: %w", v, t.bound, cell.ErrConstraintViolation)
	}
	if !t.strict && v > t.bound {
		return fmt.Errorf("value %d above %d: %w", v, t.bound, cell.ErrConstraintViolation)
	}
	return nil
}

func (t boundedNat) Skip(s *cell.Slice) error {
	return s.Advance(t.width)
}

func (t boundedNat) ValidateSkip(_ *Budget, s *cell.Slice, _ bool) error {
	_, err := t.Unpack(s)
	return err
}

func (t boundedNat) Unpack(s *cell.Slice) (any, error) {
	probe := *s
	v, err := probe.FetchUint(t.width)
	if err != nil {
		return nil, err
	}
	if err := t.check(v); err != nil {
		return nil, err
	}
	*s = probe
	return v, nil
}

func (t boundedNat) Pack(b *cell.Builder, v any) error {
	x, err := AsUint64(v)
	if err != nil {
		return err
	}
	if err := t.check(x); err != nil {
		return err
	}
	return b.StoreUint(x, t.width)
}

// Bits is a raw bit string of fixed length (bits n). Values are
// cell.BitString.
func Bits(n int) Type {
	return bitsType{n: n}
}

type bitsType struct {
	single
	n int
}

func (bitsType) scalar() {}

func (t bitsType) Skip(s *cell.Slice) error {
	return s.Advance(t.n)
}

func (t bitsType) ValidateSkip(_ *Budget, s *cell.Slice, _ bool) error {
	return s.Advance(t.n)
}

func (t bitsType) Unpack(s *cell.Slice) (any, error) {
	return s.FetchBits(t.n)
}

func (t bitsType) Pack(b *cell.Builder, v any) error {
	x, err := valueAs[cell.BitString](v, "bits")
	if err != nil {
		return err
	}
	if x.Len() != t.n {
		return fmt.Errorf("bit string of %d bits for bits%d: %w", x.Len(), t.n, cell.ErrConstraintViolation)
	}
	return b.StoreBits(x)
}

// Bool is one bit. Values are bool.
var Bool Type = boolType{}

type boolType struct{ single }

func (boolType) scalar() {}

func (boolType) Skip(s *cell.Slice) error { return s.Advance(1) }

func (boolType) ValidateSkip(_ *Budget, s *cell.Slice, _ bool) error { return s.Advance(1) }

func (boolType) Unpack(s *cell.Slice) (any, error) { return s.FetchBool() }

func (boolType) Pack(b *cell.Builder, v any) error {
	x, err := valueAs[bool](v, "Bool")
	if err != nil {
		return err
	}
	return b.StoreBit(x)
}

// Unit occupies no bits (unit$_ = Unit, true$_ = True). Its value is
// struct{}{}.
var Unit Type = unitType{}

type unitType struct{ single }

func (unitType) Skip(*cell.Slice) error { return nil }

func (unitType) ValidateSkip(*Budget, *cell.Slice, bool) error { return nil }

func (unitType) Unpack(*cell.Slice) (any, error) { return struct{}{}, nil }

func (unitType) Pack(*cell.Builder, any) error { return nil }

// Unary is the unary natural: unary_zero$0, unary_succ$1. The value
// n is stored as n one bits followed by a zero. Values are uint64.
var Unary Type = unaryType{}

type unaryType struct{ oneBitTag }

func (unaryType) scalar() {}

func (t unaryType) Skip(s *cell.Slice) error { return unpackSkip(t, s) }

func (t unaryType) ValidateSkip(_ *Budget, s *cell.Slice, _ bool) error { return unpackSkip(t, s) }

func (unaryType) Unpack(s *cell.Slice) (any, error) {
	probe := *s
	var n uint64
	for {
		bit, err := probe.FetchBool()
		if err != nil {
			return nil, fmt.Errorf("unary after %d ones: %w", n, err)
		}
		if !bit {
			break
		}
		n++
	}
	*s = probe
	return n, nil
}

func (unaryType) Pack(b *cell.Builder, v any) error {
	n, err := AsUint64(v)
	if err != nil {
		return err
	}
	if n+1 > uint64(b.AvailableBits()) {
		return fmt.Errorf("unary %d: %w", n, cell.ErrOverflow)
	}
	if err := b.StoreOnes(int(n)); err != nil {
		return err
	}
	return b.StoreBit(false)
}
