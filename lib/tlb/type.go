// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tlb

import (
	"fmt"
	"math"

	"github.com/bureau-foundation/cellcodec/lib/cell"
)

// Type is a schema type: a set of constructors with a bit-exact
// encoding.
type Type interface {
	// Tag returns the index of the constructor the value at the
	// start of s was encoded with.
	Tag(s cell.Slice) (int, error)

	// CheckTag reports whether the value at the start of s begins
	// with a valid constructor tag.
	CheckTag(s cell.Slice) bool

	// Skip advances s past one encoded value.
	Skip(s *cell.Slice) error

	// ValidateSkip advances s past one encoded value, checking every
	// constraint and charging budget. With weak set, aggregate
	// consistency such as augmented dictionary extras is not
	// recomputed and special cells met through references are
	// accepted without being entered.
	ValidateSkip(budget *Budget, s *cell.Slice, weak bool) error

	// Unpack decodes one value from s.
	Unpack(s *cell.Slice) (any, error)

	// Pack encodes v into b.
	Pack(b *cell.Builder, v any) error
}

// SpecialType is implemented by types whose values always live in
// special cells, such as Merkle proofs. [Ref] finalizes their cells
// with the returned kind and lets them read special cells.
type SpecialType interface {
	Type
	SpecialKind() cell.Kind
}

// Budget counts the operations a validation may still perform. A nil
// *Budget is unlimited.
type Budget struct {
	remaining int64
}

// NewBudget returns a budget of ops operations.
func NewBudget(ops int64) *Budget {
	return &Budget{remaining: ops}
}

// Unlimited returns a budget that never runs out.
func Unlimited() *Budget {
	return &Budget{remaining: math.MaxInt64}
}

// Spend consumes n operations, failing with cell.ErrBudgetExceeded
// when fewer than n remain.
func (b *Budget) Spend(n int64) error {
	if b == nil {
		return nil
	}
	if b.remaining < n {
		b.remaining = 0
		return fmt.Errorf("validation budget exhausted: %w", cell.ErrBudgetExceeded)
	}
	b.remaining -= n
	return nil
}

// Remaining is the number of operations left.
func (b *Budget) Remaining() int64 {
	if b == nil {
		return math.MaxInt64
	}
	return b.remaining
}

// Validate checks that s holds exactly one valid encoding of t and
// nothing else.
func Validate(t Type, budget *Budget, s cell.Slice, weak bool) error {
	if err := t.ValidateSkip(budget, &s, weak); err != nil {
		return err
	}
	if !s.IsEmpty() {
		return fmt.Errorf("%d bits and %d references left after value: %w", s.BitsLeft(), s.RefsLeft(), cell.ErrConstraintViolation)
	}
	return nil
}

// ValidateRef validates the cell c as a complete encoding of t. Each
// call charges one operation. Special cells are only entered by
// special types; elsewhere a special cell is accepted in weak mode
// and rejected otherwise, which lets weak validation walk Merkle
// proofs whose hidden parts are pruned.
func ValidateRef(t Type, budget *Budget, c *cell.Cell, weak bool) error {
	if err := budget.Spend(1); err != nil {
		return err
	}
	special, isSpecialType := t.(SpecialType)
	switch {
	case isSpecialType:
		if c.Kind() != special.SpecialKind() {
			return fmt.Errorf("expected %s cell, got %s: %w", special.SpecialKind(), c.Kind(), cell.ErrConstraintViolation)
		}
	case c.IsSpecial():
		if weak {
			return nil
		}
		return fmt.Errorf("unexpected %s cell: %w", c.Kind(), cell.ErrConstraintViolation)
	}
	return Validate(t, budget, c.BeginParse(), weak)
}

// single supplies the tag methods of a type with exactly one
// constructor and an empty tag.
type single struct{}

func (single) Tag(cell.Slice) (int, error) { return 0, nil }
func (single) CheckTag(cell.Slice) bool    { return true }

// oneBitTag supplies the tag methods of a type whose two constructors
// are told apart by a single bit.
type oneBitTag struct{}

func (oneBitTag) Tag(s cell.Slice) (int, error) {
	v, err := s.PrefetchUint(1)
	return int(v), err
}

func (oneBitTag) CheckTag(s cell.Slice) bool {
	return s.BitsLeft() >= 1
}

// unpackSkip implements Skip for types whose decoding is already as
// cheap as skipping.
func unpackSkip(t Type, s *cell.Slice) error {
	_, err := t.Unpack(s)
	return err
}
