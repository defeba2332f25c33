// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cell

import (
	"fmt"
	"math/big"
)

const (
	// MaxBits is the maximum number of data bits in a cell.
	MaxBits = 1023

	// MaxRefs is the maximum number of references in a cell.
	MaxRefs = 4
)

// Builder accumulates data bits and references for one cell. Store
// methods that would exceed [MaxBits] or [MaxRefs] fail with
// [ErrOverflow] and leave the builder unchanged. Store methods given
// a value that does not fit the requested width fail with
// [ErrConstraintViolation].
//
// The zero value is an empty builder ready for use.
type Builder struct {
	data [(MaxBits + 7) / 8]byte
	bits int
	refs []*Cell
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// BitLen is the number of bits stored so far.
func (b *Builder) BitLen() int { return b.bits }

// RefCount is the number of references stored so far.
func (b *Builder) RefCount() int { return len(b.refs) }

// AvailableBits is how many more bits fit.
func (b *Builder) AvailableBits() int { return MaxBits - b.bits }

// AvailableRefs is how many more references fit.
func (b *Builder) AvailableRefs() int { return MaxRefs - len(b.refs) }

// Bits returns the stored bits.
func (b *Builder) Bits() BitString {
	return NewBitString(b.data[:], b.bits)
}

func (b *Builder) reserve(n int) error {
	if n < 0 {
		return fmt.Errorf("storing %d bits: %w", n, ErrConstraintViolation)
	}
	if b.bits+n > MaxBits {
		return fmt.Errorf("storing %d bits with %d already stored: %w", n, b.bits, ErrOverflow)
	}
	return nil
}

// StoreBit appends one bit.
func (b *Builder) StoreBit(bit bool) error {
	if err := b.reserve(1); err != nil {
		return err
	}
	if bit {
		setBit(b.data[:], b.bits)
	}
	b.bits++
	return nil
}

// StoreUint appends value as a width-bit big-endian unsigned integer.
// Width may be 0 through 64.
func (b *Builder) StoreUint(value uint64, width int) error {
	if width < 0 || width > 64 {
		return fmt.Errorf("storing uint of width %d: %w", width, ErrConstraintViolation)
	}
	if width < 64 && value>>width != 0 {
		return fmt.Errorf("value %d does not fit in %d bits: %w", value, width, ErrConstraintViolation)
	}
	if err := b.reserve(width); err != nil {
		return err
	}
	b.putUint(value, width)
	return nil
}

// StoreInt appends value as a width-bit two's complement integer.
// Width may be 0 through 64.
func (b *Builder) StoreInt(value int64, width int) error {
	if width < 0 || width > 64 {
		return fmt.Errorf("storing int of width %d: %w", width, ErrConstraintViolation)
	}
	if width < 64 {
		limit := int64(1) << max(width-1, 0)
		if width == 0 && value != 0 || width > 0 && (value < -limit || value >= limit) {
			return fmt.Errorf("value %d does not fit in %d signed bits: %w", value, width, ErrConstraintViolation)
		}
	}
	if err := b.reserve(width); err != nil {
		return err
	}
	b.putUint(uint64(value), width)
	return nil
}

func (b *Builder) putUint(value uint64, width int) {
	for i := 0; i < width; i++ {
		if (value>>(width-1-i))&1 != 0 {
			setBit(b.data[:], b.bits+i)
		}
	}
	b.bits += width
}

// StoreBigUint appends a non-negative value of any width up to the
// remaining capacity.
func (b *Builder) StoreBigUint(value *big.Int, width int) error {
	if value.Sign() < 0 || value.BitLen() > width {
		return fmt.Errorf("value %s does not fit in %d bits: %w", value, width, ErrConstraintViolation)
	}
	if err := b.reserve(width); err != nil {
		return err
	}
	b.putBig(value, width)
	return nil
}

// StoreBigInt appends value in width-bit two's complement.
func (b *Builder) StoreBigInt(value *big.Int, width int) error {
	if width == 0 {
		if value.Sign() != 0 {
			return fmt.Errorf("value %s does not fit in 0 bits: %w", value, ErrConstraintViolation)
		}
		return nil
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(width-1))
	lowest := new(big.Int).Neg(limit)
	if value.Cmp(lowest) < 0 || value.Cmp(limit) >= 0 {
		return fmt.Errorf("value %s does not fit in %d signed bits: %w", value, width, ErrConstraintViolation)
	}
	if err := b.reserve(width); err != nil {
		return err
	}
	encoded := value
	if value.Sign() < 0 {
		encoded = new(big.Int).Add(value, new(big.Int).Lsh(big.NewInt(1), uint(width)))
	}
	b.putBig(encoded, width)
	return nil
}

func (b *Builder) putBig(value *big.Int, width int) {
	for i := 0; i < width; i++ {
		if value.Bit(width-1-i) != 0 {
			setBit(b.data[:], b.bits+i)
		}
	}
	b.bits += width
}

// StoreBits appends a bit string.
func (b *Builder) StoreBits(bits BitString) error {
	if err := b.reserve(bits.n); err != nil {
		return err
	}
	copyBits(b.data[:], b.bits, bits.data, 0, bits.n)
	b.bits += bits.n
	return nil
}

// StoreBytes appends whole bytes.
func (b *Builder) StoreBytes(p []byte) error {
	if err := b.reserve(len(p) * 8); err != nil {
		return err
	}
	copyBits(b.data[:], b.bits, p, 0, len(p)*8)
	b.bits += len(p) * 8
	return nil
}

// StoreZeroes appends n zero bits.
func (b *Builder) StoreZeroes(n int) error {
	if err := b.reserve(n); err != nil {
		return err
	}
	b.bits += n
	return nil
}

// StoreOnes appends n one bits.
func (b *Builder) StoreOnes(n int) error {
	if err := b.reserve(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		setBit(b.data[:], b.bits+i)
	}
	b.bits += n
	return nil
}

// StoreRef appends a reference.
func (b *Builder) StoreRef(c *Cell) error {
	if c == nil {
		return fmt.Errorf("storing nil reference: %w", ErrConstraintViolation)
	}
	if len(b.refs) >= MaxRefs {
		return fmt.Errorf("storing reference with %d already stored: %w", len(b.refs), ErrOverflow)
	}
	b.refs = append(b.refs, c)
	return nil
}

// StoreSlice appends the remaining bits and references of s.
func (b *Builder) StoreSlice(s Slice) error {
	if s.cell == nil {
		return nil
	}
	if err := b.reserve(s.BitsLeft()); err != nil {
		return err
	}
	if len(b.refs)+s.RefsLeft() > MaxRefs {
		return fmt.Errorf("storing %d references with %d already stored: %w", s.RefsLeft(), len(b.refs), ErrOverflow)
	}
	copyBits(b.data[:], b.bits, s.cell.data, s.bitStart, s.BitsLeft())
	b.bits += s.BitsLeft()
	b.refs = append(b.refs, s.cell.refs[s.refStart:s.refEnd]...)
	return nil
}

// StoreBuilder appends everything stored in other.
func (b *Builder) StoreBuilder(other *Builder) error {
	if err := b.reserve(other.bits); err != nil {
		return err
	}
	if len(b.refs)+len(other.refs) > MaxRefs {
		return fmt.Errorf("storing %d references with %d already stored: %w", len(other.refs), len(b.refs), ErrOverflow)
	}
	copyBits(b.data[:], b.bits, other.data[:], 0, other.bits)
	b.bits += other.bits
	b.refs = append(b.refs, other.refs...)
	return nil
}

// EndCell finalizes an ordinary cell.
func (b *Builder) EndCell() (*Cell, error) {
	return b.Finalize(Ordinary)
}

// Finalize builds an immutable cell of the given kind from the
// builder's contents. For special kinds the first data byte must
// already hold the kind. The builder may be reused afterwards; the
// cell does not share its storage.
func (b *Builder) Finalize(kind Kind) (*Cell, error) {
	data := make([]byte, (b.bits+7)/8)
	copy(data, b.data[:])
	refs := make([]*Cell, len(b.refs))
	copy(refs, b.refs)
	return newCell(kind, data, b.bits, refs)
}
