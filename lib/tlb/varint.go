// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tlb

import (
	"fmt"
	"math/big"

	"github.com/bureau-foundation/cellcodec/lib/cell"
)

// VarUInteger is var_uint$_ {n:#} len:(#< n) value:(uint (len * 8)):
// an unsigned integer prefixed by its length in bytes. Pack uses the
// shortest length. Values are *big.Int.
func VarUInteger(n uint64) Type {
	return varIntType{n: n, length: NatLess(n).(boundedNat)}
}

// VarInteger is var_int$_ {n:#} len:(#< n) value:(int (len * 8)), the
// signed counterpart of [VarUInteger].
func VarInteger(n uint64) Type {
	return varIntType{n: n, length: NatLess(n).(boundedNat), signed: true}
}

// Grams is the currency amount type, VarUInteger 16.
var Grams = VarUInteger(16)

type varIntType struct {
	single
	n      uint64
	length boundedNat
	signed bool
}

func (varIntType) scalar() {}

func (t varIntType) Skip(s *cell.Slice) error {
	probe := *s
	n, err := probe.FetchUint(t.length.width)
	if err != nil {
		return err
	}
	if err := probe.Advance(int(n) * 8); err != nil {
		return err
	}
	*s = probe
	return nil
}

func (t varIntType) ValidateSkip(_ *Budget, s *cell.Slice, _ bool) error {
	probe := *s
	n, err := t.length.Unpack(&probe)
	if err != nil {
		return err
	}
	if err := probe.Advance(int(n.(uint64)) * 8); err != nil {
		return err
	}
	*s = probe
	return nil
}

func (t varIntType) Unpack(s *cell.Slice) (any, error) {
	probe := *s
	n, err := t.length.Unpack(&probe)
	if err != nil {
		return nil, err
	}
	width := int(n.(uint64)) * 8
	var v *big.Int
	if t.signed {
		v, err = probe.FetchBigInt(width)
	} else {
		v, err = probe.FetchBigUint(width)
	}
	if err != nil {
		return nil, err
	}
	*s = probe
	return v, nil
}

func (t varIntType) Pack(b *cell.Builder, v any) error {
	x, err := AsBigInt(v)
	if err != nil {
		return err
	}
	var bitsNeeded int
	switch {
	case !t.signed:
		if x.Sign() < 0 {
			return fmt.Errorf("negative value %s for VarUInteger: %w", x, cell.ErrConstraintViolation)
		}
		bitsNeeded = x.BitLen()
	case x.Sign() == 0:
		bitsNeeded = 0
	case x.Sign() > 0:
		bitsNeeded = x.BitLen() + 1
	default:
		magnitude := new(big.Int).Neg(x)
		bitsNeeded = magnitude.Sub(magnitude, big.NewInt(1)).BitLen() + 1
	}
	n := uint64((bitsNeeded + 7) / 8)
	if err := t.length.check(n); err != nil {
		return fmt.Errorf("value %s needs %d bytes: %w", x, n, err)
	}
	if err := b.StoreUint(n, t.length.width); err != nil {
		return err
	}
	if t.signed {
		return b.StoreBigInt(x, int(n)*8)
	}
	return b.StoreBigUint(x, int(n)*8)
}
