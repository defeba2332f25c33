// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dict

import (
	"bytes"
	"fmt"
	"math/bits"

	"github.com/bureau-foundation/cellcodec/lib/cell"
)

// LabelForm is one of the three edge label encodings.
type LabelForm int

const (
	// LabelShort is hml_short$0 len:(Unary ~n) s:(n * Bit).
	LabelShort LabelForm = iota
	// LabelLong is hml_long$10 n:(#<= m) s:(n * Bit).
	LabelLong
	// LabelSame is hml_same$11 v:Bit n:(#<= m), a run of one bit value.
	LabelSame
)

func (f LabelForm) String() string {
	switch f {
	case LabelShort:
		return "short"
	case LabelLong:
		return "long"
	case LabelSame:
		return "same"
	}
	return fmt.Sprintf("LabelForm(%d)", int(f))
}

// lengthWidth is the width of the (#<= m) length field.
func lengthWidth(m int) int {
	return bits.Len(uint(m))
}

// LabelCost is the number of bits form takes to encode a label of n
// bits when at most m key bits remain.
func LabelCost(form LabelForm, n, m int) int {
	switch form {
	case LabelShort:
		return 2*n + 2
	case LabelLong:
		return 2 + lengthWidth(m) + n
	default:
		return 3 + lengthWidth(m)
	}
}

// ChooseLabel picks the encoding for label. The result always has
// minimal cost among the forms able to encode it; on ties, same is
// preferred for runs longer than one bit, then long over short.
func ChooseLabel(label cell.BitString, m int) LabelForm {
	n := label.Len()
	k := lengthWidth(m)
	if n > 1 && label.AllSame() && k < 2*n-1 {
		return LabelSame
	}
	if k < n {
		return LabelLong
	}
	return LabelShort
}

// StoreLabel appends label in its cheapest encoding for a node with m
// key bits remaining.
func StoreLabel(b *cell.Builder, label cell.BitString, m int) error {
	n := label.Len()
	if n > m {
		return fmt.Errorf("label of %d bits exceeds %d remaining key bits: %w", n, m, cell.ErrConstraintViolation)
	}
	k := lengthWidth(m)
	switch ChooseLabel(label, m) {
	case LabelSame:
		if err := b.StoreUint(0b11, 2); err != nil {
			return err
		}
		if err := b.StoreBit(label.Bit(0)); err != nil {
			return err
		}
		return b.StoreUint(uint64(n), k)
	case LabelLong:
		if err := b.StoreUint(0b10, 2); err != nil {
			return err
		}
		if err := b.StoreUint(uint64(n), k); err != nil {
			return err
		}
		return b.StoreBits(label)
	default:
		if err := b.StoreBit(false); err != nil {
			return err
		}
		if err := b.StoreOnes(n); err != nil {
			return err
		}
		if err := b.StoreBit(false); err != nil {
			return err
		}
		return b.StoreBits(label)
	}
}

// LoadLabel reads an edge label for a node with m key bits remaining.
// A label longer than m is a constraint violation. On error s is
// left unchanged.
func LoadLabel(s *cell.Slice, m int) (cell.BitString, error) {
	probe := *s
	label, err := loadLabel(&probe, m)
	if err != nil {
		return cell.BitString{}, err
	}
	*s = probe
	return label, nil
}

func loadLabel(s *cell.Slice, m int) (cell.BitString, error) {
	long, err := s.FetchBool()
	if err != nil {
		return cell.BitString{}, err
	}
	if !long {
		n := 0
		for {
			one, err := s.FetchBool()
			if err != nil {
				return cell.BitString{}, err
			}
			if !one {
				break
			}
			n++
			if n > m {
				return cell.BitString{}, fmt.Errorf("short label longer than %d bits: %w", m, cell.ErrConstraintViolation)
			}
		}
		return s.FetchBits(n)
	}

	same, err := s.FetchBool()
	if err != nil {
		return cell.BitString{}, err
	}
	var bit bool
	if same {
		if bit, err = s.FetchBool(); err != nil {
			return cell.BitString{}, err
		}
	}
	length, err := s.FetchUint(lengthWidth(m))
	if err != nil {
		return cell.BitString{}, err
	}
	n := int(length)
	if n > m {
		return cell.BitString{}, fmt.Errorf("label length %d exceeds %d: %w", n, m, cell.ErrConstraintViolation)
	}
	if !same {
		return s.FetchBits(n)
	}
	fill := byte(0)
	if bit {
		fill = 0xFF
	}
	return cell.NewBitString(bytes.Repeat([]byte{fill}, (n+7)/8), n), nil
}
