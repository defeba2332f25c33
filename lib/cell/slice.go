// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cell

import (
	"fmt"
	"math/big"
)

// Slice is a read cursor over a window of one cell's bits and
// references. It is a small value: copying a Slice forks the cursor,
// which is how callers look ahead without consuming. A failed read
// leaves the slice unchanged.
type Slice struct {
	cell     *Cell
	bitStart int
	bitEnd   int
	refStart int
	refEnd   int
}

// Cell is the cell the slice reads from.
func (s Slice) Cell() *Cell { return s.cell }

// BitsLeft is the number of unread bits.
func (s Slice) BitsLeft() int { return s.bitEnd - s.bitStart }

// RefsLeft is the number of unread references.
func (s Slice) RefsLeft() int { return s.refEnd - s.refStart }

// BitOffset is the position of the next unread bit within the cell.
func (s Slice) BitOffset() int { return s.bitStart }

// RefOffset is the index of the next unread reference.
func (s Slice) RefOffset() int { return s.refStart }

// IsEmpty reports whether no bits and no references remain.
func (s Slice) IsEmpty() bool {
	return s.BitsLeft() == 0 && s.RefsLeft() == 0
}

// IsSpecial reports whether the underlying cell is special.
func (s Slice) IsSpecial() bool {
	return s.cell != nil && s.cell.IsSpecial()
}

func (s *Slice) need(n int) error {
	if n < 0 {
		return fmt.Errorf("reading %d bits: %w", n, ErrConstraintViolation)
	}
	if n > s.BitsLeft() {
		return fmt.Errorf("reading %d bits with %d left: %w", n, s.BitsLeft(), ErrTruncated)
	}
	return nil
}

func (s *Slice) needRefs(n int) error {
	if n < 0 {
		return fmt.Errorf("reading %d references: %w", n, ErrConstraintViolation)
	}
	if n > s.RefsLeft() {
		return fmt.Errorf("reading %d references with %d left: %w", n, s.RefsLeft(), ErrTruncated)
	}
	return nil
}

// Advance skips n bits.
func (s *Slice) Advance(n int) error {
	if err := s.need(n); err != nil {
		return err
	}
	s.bitStart += n
	return nil
}

// AdvanceRefs skips n references.
func (s *Slice) AdvanceRefs(n int) error {
	if err := s.needRefs(n); err != nil {
		return err
	}
	s.refStart += n
	return nil
}

// Skip advances past n bits and refs references at once. Neither
// cursor moves unless both fit.
func (s *Slice) Skip(n, refs int) error {
	if err := s.need(n); err != nil {
		return err
	}
	if err := s.needRefs(refs); err != nil {
		return err
	}
	s.bitStart += n
	s.refStart += refs
	return nil
}

// PrefetchUint returns the next width bits as an unsigned integer
// without consuming them. Width may be 0 through 64.
func (s Slice) PrefetchUint(width int) (uint64, error) {
	if width > 64 {
		return 0, fmt.Errorf("reading uint of width %d: %w", width, ErrConstraintViolation)
	}
	if err := s.need(width); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < width; i++ {
		v <<= 1
		if getBit(s.cell.data, s.bitStart+i) {
			v |= 1
		}
	}
	return v, nil
}

// FetchUint consumes width bits as an unsigned integer.
func (s *Slice) FetchUint(width int) (uint64, error) {
	v, err := s.PrefetchUint(width)
	if err != nil {
		return 0, err
	}
	s.bitStart += width
	return v, nil
}

// FetchInt consumes width bits as a two's complement integer. Width
// may be 0 through 64.
func (s *Slice) FetchInt(width int) (int64, error) {
	v, err := s.PrefetchUint(width)
	if err != nil {
		return 0, err
	}
	s.bitStart += width
	if width == 0 {
		return 0, nil
	}
	if width < 64 && v&(1<<(width-1)) != 0 {
		v |= ^uint64(0) << width
	}
	return int64(v), nil
}

// FetchBool consumes one bit.
func (s *Slice) FetchBool() (bool, error) {
	if err := s.need(1); err != nil {
		return false, err
	}
	bit := getBit(s.cell.data, s.bitStart)
	s.bitStart++
	return bit, nil
}

// PrefetchBigUint returns the next width bits as an unsigned integer
// of arbitrary size without consuming them.
func (s Slice) PrefetchBigUint(width int) (*big.Int, error) {
	if err := s.need(width); err != nil {
		return nil, err
	}
	bits := s.bits(width)
	v := new(big.Int).SetBytes(bits.data)
	if extra := len(bits.data)*8 - width; extra > 0 {
		v.Rsh(v, uint(extra))
	}
	return v, nil
}

// FetchBigUint consumes width bits as an unsigned integer of
// arbitrary size.
func (s *Slice) FetchBigUint(width int) (*big.Int, error) {
	v, err := s.PrefetchBigUint(width)
	if err != nil {
		return nil, err
	}
	s.bitStart += width
	return v, nil
}

// FetchBigInt consumes width bits as a two's complement integer of
// arbitrary size.
func (s *Slice) FetchBigInt(width int) (*big.Int, error) {
	v, err := s.FetchBigUint(width)
	if err != nil {
		return nil, err
	}
	if width > 0 && v.Bit(width-1) != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(width)))
	}
	return v, nil
}

// PrefetchBits returns the next n bits without consuming them.
func (s Slice) PrefetchBits(n int) (BitString, error) {
	if err := s.need(n); err != nil {
		return BitString{}, err
	}
	return s.bits(n), nil
}

// FetchBits consumes n bits.
func (s *Slice) FetchBits(n int) (BitString, error) {
	if err := s.need(n); err != nil {
		return BitString{}, err
	}
	b := s.bits(n)
	s.bitStart += n
	return b, nil
}

// FetchBytes consumes n whole bytes.
func (s *Slice) FetchBytes(n int) ([]byte, error) {
	b, err := s.FetchBits(n * 8)
	if err != nil {
		return nil, err
	}
	return b.data, nil
}

func (s Slice) bits(n int) BitString {
	if n == 0 {
		return BitString{}
	}
	out := make([]byte, (n+7)/8)
	copyBits(out, 0, s.cell.data, s.bitStart, n)
	return BitString{data: out, n: n}
}

// PrefetchRef returns reference i counted from the first unread
// reference, without consuming anything.
func (s Slice) PrefetchRef(i int) (*Cell, error) {
	if i < 0 || i >= s.RefsLeft() {
		return nil, fmt.Errorf("reading reference %d with %d left: %w", i, s.RefsLeft(), ErrTruncated)
	}
	return s.cell.refs[s.refStart+i], nil
}

// FetchRef consumes the next reference.
func (s *Slice) FetchRef() (*Cell, error) {
	ref, err := s.PrefetchRef(0)
	if err != nil {
		return nil, err
	}
	s.refStart++
	return ref, nil
}

// Bits returns the unread bits.
func (s Slice) Bits() BitString {
	return s.bits(s.BitsLeft())
}

// Until returns the part of s that has been consumed to reach rest,
// which must be a later position of the same cursor.
func (s Slice) Until(rest Slice) Slice {
	return Slice{
		cell:     s.cell,
		bitStart: s.bitStart,
		bitEnd:   rest.bitStart,
		refStart: s.refStart,
		refEnd:   rest.refStart,
	}
}

// Equal reports whether two slices hold the same unread bits and
// references with the same hashes.
func (s Slice) Equal(other Slice) bool {
	if s.BitsLeft() != other.BitsLeft() || s.RefsLeft() != other.RefsLeft() {
		return false
	}
	if !s.Bits().Equal(other.Bits()) {
		return false
	}
	for i := 0; i < s.RefsLeft(); i++ {
		if !s.cell.refs[s.refStart+i].Equal(other.cell.refs[other.refStart+i]) {
			return false
		}
	}
	return true
}

// ToCell builds an ordinary cell from the unread bits and references.
func (s Slice) ToCell() (*Cell, error) {
	var b Builder
	if err := b.StoreSlice(s); err != nil {
		return nil, err
	}
	return b.EndCell()
}

// String renders the unread bits in hex notation.
func (s Slice) String() string {
	if s.cell == nil {
		return "x{}"
	}
	out := "x{" + s.Bits().Hex() + "}"
	if s.RefsLeft() > 0 {
		out += fmt.Sprintf("+%dref", s.RefsLeft())
	}
	return out
}
