// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tlb

import (
	"fmt"

	"github.com/bureau-foundation/cellcodec/lib/cell"
)

// Maybe is nothing$0 | just$1 value:X. The absent value is nil.
func Maybe(x Type) Type {
	return maybeType{x: x}
}

type maybeType struct {
	oneBitTag
	x Type
}

func (t maybeType) Skip(s *cell.Slice) error {
	probe := *s
	present, err := probe.FetchBool()
	if err != nil {
		return err
	}
	if present {
		if err := t.x.Skip(&probe); err != nil {
			return err
		}
	}
	*s = probe
	return nil
}

func (t maybeType) ValidateSkip(budget *Budget, s *cell.Slice, weak bool) error {
	probe := *s
	present, err := probe.FetchBool()
	if err != nil {
		return err
	}
	if present {
		if err := t.x.ValidateSkip(budget, &probe, weak); err != nil {
			return err
		}
	}
	*s = probe
	return nil
}

func (t maybeType) Unpack(s *cell.Slice) (any, error) {
	probe := *s
	present, err := probe.FetchBool()
	if err != nil {
		return nil, err
	}
	var v any
	if present {
		if v, err = t.x.Unpack(&probe); err != nil {
			return nil, err
		}
	}
	*s = probe
	return v, nil
}

func (t maybeType) Pack(b *cell.Builder, v any) error {
	if v == nil {
		return b.StoreBit(false)
	}
	if err := b.StoreBit(true); err != nil {
		return err
	}
	return t.x.Pack(b, v)
}

// EitherValue is the value of an [Either] type.
type EitherValue struct {
	Right bool
	Value any
}

// Either is left$0 value:X | right$1 value:Y. Values are EitherValue.
func Either(x, y Type) Type {
	return eitherType{left: x, right: y}
}

type eitherType struct {
	oneBitTag
	left, right Type
}

func (t eitherType) branch(s *cell.Slice) (Type, bool, error) {
	right, err := s.FetchBool()
	if err != nil {
		return nil, false, err
	}
	if right {
		return t.right, true, nil
	}
	return t.left, false, nil
}

func (t eitherType) Skip(s *cell.Slice) error {
	probe := *s
	x, _, err := t.branch(&probe)
	if err != nil {
		return err
	}
	if err := x.Skip(&probe); err != nil {
		return err
	}
	*s = probe
	return nil
}

func (t eitherType) ValidateSkip(budget *Budget, s *cell.Slice, weak bool) error {
	probe := *s
	x, _, err := t.branch(&probe)
	if err != nil {
		return err
	}
	if err := x.ValidateSkip(budget, &probe, weak); err != nil {
		return err
	}
	*s = probe
	return nil
}

func (t eitherType) Unpack(s *cell.Slice) (any, error) {
	probe := *s
	x, right, err := t.branch(&probe)
	if err != nil {
		return nil, err
	}
	v, err := x.Unpack(&probe)
	if err != nil {
		return nil, err
	}
	*s = probe
	return EitherValue{Right: right, Value: v}, nil
}

func (t eitherType) Pack(b *cell.Builder, v any) error {
	e, err := valueAs[EitherValue](v, "Either")
	if err != nil {
		return err
	}
	if err := b.StoreBit(e.Right); err != nil {
		return err
	}
	if e.Right {
		return t.right.Pack(b, e.Value)
	}
	return t.left.Pack(b, e.Value)
}

// Ref is ^X: the value lives in its own referenced cell, which must
// hold exactly one encoding of X.
func Ref(x Type) Type {
	return refType{x: x}
}

type refType struct {
	single
	x Type
}

func (t refType) Skip(s *cell.Slice) error {
	return s.AdvanceRefs(1)
}

func (t refType) ValidateSkip(budget *Budget, s *cell.Slice, weak bool) error {
	probe := *s
	ref, err := probe.FetchRef()
	if err != nil {
		return err
	}
	if err := ValidateRef(t.x, budget, ref, weak); err != nil {
		return err
	}
	*s = probe
	return nil
}

func (t refType) Unpack(s *cell.Slice) (any, error) {
	probe := *s
	ref, err := probe.FetchRef()
	if err != nil {
		return nil, err
	}
	v, err := UnpackCell(t.x, ref)
	if err != nil {
		return nil, err
	}
	*s = probe
	return v, nil
}

func (t refType) Pack(b *cell.Builder, v any) error {
	c, err := PackCell(t.x, v)
	if err != nil {
		return err
	}
	return b.StoreRef(c)
}

// UnpackCell decodes c as one complete value of t.
func UnpackCell(t Type, c *cell.Cell) (any, error) {
	special, isSpecialType := t.(SpecialType)
	switch {
	case isSpecialType && c.Kind() != special.SpecialKind():
		return nil, fmt.Errorf("expected %s cell, got %s: %w", special.SpecialKind(), c.Kind(), cell.ErrConstraintViolation)
	case !isSpecialType && c.IsSpecial():
		return nil, fmt.Errorf("cannot decode %s cell as an ordinary value: %w", c.Kind(), cell.ErrConstraintViolation)
	}
	s := c.BeginParse()
	v, err := t.Unpack(&s)
	if err != nil {
		return nil, err
	}
	if !s.IsEmpty() {
		return nil, fmt.Errorf("%d bits and %d references left in cell after value: %w", s.BitsLeft(), s.RefsLeft(), cell.ErrConstraintViolation)
	}
	return v, nil
}

// PackCell encodes v as the only content of a new cell.
func PackCell(t Type, v any) (*cell.Cell, error) {
	kind := cell.Ordinary
	if special, ok := t.(SpecialType); ok {
		kind = special.SpecialKind()
	}
	b := cell.NewBuilder()
	if err := t.Pack(b, v); err != nil {
		return nil, err
	}
	return b.Finalize(kind)
}

// Cond is the type of a conditional field (cond ? X): X when present
// holds, and an empty type with a nil value otherwise.
func Cond(present bool, x Type) Type {
	if present {
		return x
	}
	return absentType{}
}

type absentType struct{ single }

func (absentType) Skip(*cell.Slice) error                        { return nil }
func (absentType) ValidateSkip(*Budget, *cell.Slice, bool) error { return nil }
func (absentType) Unpack(*cell.Slice) (any, error)               { return nil, nil }

func (absentType) Pack(_ *cell.Builder, v any) error {
	if v != nil {
		return fmt.Errorf("value %v given for absent field: %w", v, cell.ErrConstraintViolation)
	}
	return nil
}

// Tuple is (n * X): n values of X in a row. Values are []any.
func Tuple(n int, x Type) Type {
	return tupleType{n: n, x: x}
}

type tupleType struct {
	single
	n int
	x Type
}

func (t tupleType) Skip(s *cell.Slice) error {
	probe := *s
	for i := 0; i < t.n; i++ {
		if err := t.x.Skip(&probe); err != nil {
			return fmt.Errorf("tuple element %d: %w", i, err)
		}
	}
	*s = probe
	return nil
}

func (t tupleType) ValidateSkip(budget *Budget, s *cell.Slice, weak bool) error {
	probe := *s
	for i := 0; i < t.n; i++ {
		if err := t.x.ValidateSkip(budget, &probe, weak); err != nil {
			return fmt.Errorf("tuple element %d: %w", i, err)
		}
	}
	*s = probe
	return nil
}

func (t tupleType) Unpack(s *cell.Slice) (any, error) {
	probe := *s
	out := make([]any, t.n)
	for i := range out {
		v, err := t.x.Unpack(&probe)
		if err != nil {
			return nil, fmt.Errorf("tuple element %d: %w", i, err)
		}
		out[i] = v
	}
	*s = probe
	return out, nil
}

func (t tupleType) Pack(b *cell.Builder, v any) error {
	values, err := valueAs[[]any](v, "tuple")
	if err != nil {
		return err
	}
	if len(values) != t.n {
		return fmt.Errorf("tuple of %d values for %d elements: %w", len(values), t.n, cell.ErrConstraintViolation)
	}
	for i, x := range values {
		if err := t.x.Pack(b, x); err != nil {
			return fmt.Errorf("tuple element %d: %w", i, err)
		}
	}
	return nil
}

// Anything takes every remaining bit and reference of the slice.
// Values are cell.Slice.
var Anything Type = anythingType{}

type anythingType struct{ single }

func (anythingType) Skip(s *cell.Slice) error {
	return s.Skip(s.BitsLeft(), s.RefsLeft())
}

func (anythingType) ValidateSkip(_ *Budget, s *cell.Slice, _ bool) error {
	return s.Skip(s.BitsLeft(), s.RefsLeft())
}

func (anythingType) Unpack(s *cell.Slice) (any, error) {
	rest := *s
	if err := s.Skip(s.BitsLeft(), s.RefsLeft()); err != nil {
		return nil, err
	}
	return rest, nil
}

func (anythingType) Pack(b *cell.Builder, v any) error {
	x, err := valueAs[cell.Slice](v, "Anything")
	if err != nil {
		return err
	}
	return b.StoreSlice(x)
}

// RefAnything is ^Cell: any referenced cell. Values are *cell.Cell.
var RefAnything Type = refAnythingType{}

type refAnythingType struct{ single }

func (refAnythingType) Skip(s *cell.Slice) error { return s.AdvanceRefs(1) }

func (refAnythingType) ValidateSkip(budget *Budget, s *cell.Slice, _ bool) error {
	if err := budget.Spend(1); err != nil {
		return err
	}
	return s.AdvanceRefs(1)
}

func (refAnythingType) Unpack(s *cell.Slice) (any, error) {
	return s.FetchRef()
}

func (refAnythingType) Pack(b *cell.Builder, v any) error {
	x, err := valueAs[*cell.Cell](v, "^Cell")
	if err != nil {
		return err
	}
	return b.StoreRef(x)
}
