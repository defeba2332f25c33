// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tlb

import (
	"fmt"

	"github.com/bureau-foundation/cellcodec/lib/cell"
)

// Context holds the fields already decoded or encoded in the current
// record, in order. Dependent fields read earlier fields through it;
// a field can never see a later one.
type Context struct {
	names  []string
	values []any
}

func (c *Context) set(name string, v any) {
	c.names = append(c.names, name)
	c.values = append(c.values, v)
}

// Value returns the value of an earlier field. The second result is
// false if no field of that name has been seen yet.
func (c *Context) Value(name string) (any, bool) {
	for i := len(c.names) - 1; i >= 0; i-- {
		if c.names[i] == name {
			return c.values[i], true
		}
	}
	return nil, false
}

// Uint returns an earlier integer field.
func (c *Context) Uint(name string) (uint64, error) {
	v, ok := c.Value(name)
	if !ok {
		return 0, fmt.Errorf("field %q referenced before it is decoded: %w", name, cell.ErrConstraintViolation)
	}
	n, err := AsUint64(v)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", name, err)
	}
	return n, nil
}

// Flag reports whether bit of an earlier integer field is set, as
// in flags.0?X.
func (c *Context) Flag(name string, bit uint) (bool, error) {
	v, err := c.Uint(name)
	if err != nil {
		return false, err
	}
	return (v>>bit)&1 != 0, nil
}

// WidthFrom returns a field type resolver for a type parameterized
// by an earlier natural field, such as (## n) or (#<= n).
func WidthFrom(name string, build func(n uint64) Type) func(*Context) (Type, error) {
	return func(ctx *Context) (Type, error) {
		n, err := ctx.Uint(name)
		if err != nil {
			return nil, err
		}
		return build(n), nil
	}
}

// FlagSet returns a presence condition for flags.bit?X fields.
func FlagSet(name string, bit uint) func(*Context) (bool, error) {
	return func(ctx *Context) (bool, error) {
		return ctx.Flag(name, bit)
	}
}

// AtMost returns a field check enforcing { field <= limit }.
func AtMost(limit uint64) func(*Context, any) error {
	return func(_ *Context, v any) error {
		n, err := AsUint64(v)
		if err != nil {
			return err
		}
		if n > limit {
			return fmt.Errorf("value %d above %d: %w", n, limit, cell.ErrConstraintViolation)
		}
		return nil
	}
}
