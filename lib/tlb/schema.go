// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tlb

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/cellcodec/lib/cell"
)

// Field is one typed field of a constructor.
type Field struct {
	Name string

	// Type is the field's type when it does not depend on earlier
	// fields.
	Type Type

	// TypeOf resolves the type from earlier fields. It takes
	// precedence over Type.
	TypeOf func(*Context) (Type, error)

	// When, if set, decides whether the field is present. An absent
	// field occupies no bits and has a nil value.
	When func(*Context) (bool, error)

	// Check, if set, is a constraint on the decoded value, such as
	// { n <= 30 }. A failing check should wrap
	// cell.ErrConstraintViolation.
	Check func(*Context, any) error
}

func (f *Field) resolve(ctx *Context) (Type, bool, error) {
	if f.When != nil {
		present, err := f.When(ctx)
		if err != nil {
			return nil, false, err
		}
		if !present {
			return nil, false, nil
		}
	}
	if f.TypeOf != nil {
		t, err := f.TypeOf(ctx)
		return t, true, err
	}
	if f.Type == nil {
		return nil, false, fmt.Errorf("field %q has no type: %w", f.Name, cell.ErrConstraintViolation)
	}
	return f.Type, true, nil
}

// Constructor is one tagged variant of a schema type. The tag is the
// low TagLen bits of Tag, stored most significant bit first.
type Constructor struct {
	Name   string
	Tag    uint64
	TagLen int
	Fields []Field
}

// FieldValue is one decoded field.
type FieldValue struct {
	Name  string
	Value any
}

// Record is the value of a [Schema]: the constructor used and its
// field values in declaration order.
type Record struct {
	Constructor string
	Fields      []FieldValue
}

// Get returns the value of the named field.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Schema is a record type assembled from constructors.
type Schema struct {
	name         string
	constructors []Constructor
	byName       map[string]int
	dispatch     dispatch
}

// NewSchema builds a schema type. Constructor tags must be prefix
// free: no tag may be a prefix of another.
func NewSchema(name string, constructors ...Constructor) (*Schema, error) {
	if len(constructors) == 0 {
		return nil, fmt.Errorf("schema %s has no constructors", name)
	}
	s := &Schema{
		name:         name,
		constructors: constructors,
		byName:       make(map[string]int, len(constructors)),
	}
	for i, c := range constructors {
		if _, duplicate := s.byName[c.Name]; duplicate {
			return nil, fmt.Errorf("schema %s: duplicate constructor %q", name, c.Name)
		}
		s.byName[c.Name] = i
	}
	d, err := newDispatch(constructors)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	s.dispatch = d
	return s, nil
}

// MustSchema is NewSchema for schemas declared at package level.
func MustSchema(name string, constructors ...Constructor) *Schema {
	s, err := NewSchema(name, constructors...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name is the schema's type name.
func (sc *Schema) Name() string { return sc.name }

// Constructors returns the schema's constructors in declaration
// order. The result must not be modified.
func (sc *Schema) Constructors() []Constructor { return sc.constructors }

func (sc *Schema) Tag(s cell.Slice) (int, error) {
	i, err := sc.dispatch.lookup(s)
	if err != nil {
		return -1, fmt.Errorf("%s: %w", sc.name, err)
	}
	return i, nil
}

func (sc *Schema) CheckTag(s cell.Slice) bool {
	_, err := sc.dispatch.lookup(s)
	return err == nil
}

// walk drives Skip, ValidateSkip and Unpack through one constructor.
// decode is called for every present field and returns its value, or
// nil when the value was skipped.
func (sc *Schema) walk(s *cell.Slice, decode func(f *Field, t Type, s *cell.Slice) (any, error)) (Record, error) {
	probe := *s
	i, err := sc.Tag(probe)
	if err != nil {
		return Record{}, err
	}
	c := &sc.constructors[i]
	if err := probe.Advance(c.TagLen); err != nil {
		return Record{}, err
	}
	ctx := &Context{}
	record := Record{Constructor: c.Name, Fields: make([]FieldValue, 0, len(c.Fields))}
	for fi := range c.Fields {
		f := &c.Fields[fi]
		t, present, err := f.resolve(ctx)
		if err != nil {
			return Record{}, fmt.Errorf("%s.%s: %w", c.Name, f.Name, err)
		}
		var v any
		if present {
			if v, err = decode(f, t, &probe); err != nil {
				return Record{}, fmt.Errorf("%s.%s: %w", c.Name, f.Name, err)
			}
			if f.Check != nil && v != nil {
				if err := f.Check(ctx, v); err != nil {
					return Record{}, fmt.Errorf("%s.%s: %w", c.Name, f.Name, err)
				}
			}
		}
		ctx.set(f.Name, v)
		record.Fields = append(record.Fields, FieldValue{Name: f.Name, Value: v})
	}
	*s = probe
	return record, nil
}

// needsValue reports whether a field must be decoded even when only
// skipping, because its value may be read by later fields or checks.
func needsValue(f *Field, t Type) bool {
	_, isScalar := t.(scalar)
	return isScalar || f.Check != nil
}

func (sc *Schema) Skip(s *cell.Slice) error {
	_, err := sc.walk(s, func(f *Field, t Type, s *cell.Slice) (any, error) {
		if needsValue(f, t) {
			return t.Unpack(s)
		}
		return nil, t.Skip(s)
	})
	return err
}

func (sc *Schema) ValidateSkip(budget *Budget, s *cell.Slice, weak bool) error {
	_, err := sc.walk(s, func(f *Field, t Type, s *cell.Slice) (any, error) {
		if needsValue(f, t) {
			probe := *s
			if err := t.ValidateSkip(budget, &probe, weak); err != nil {
				return nil, err
			}
			return t.Unpack(s)
		}
		return nil, t.ValidateSkip(budget, s, weak)
	})
	return err
}

// UnpackRecord decodes one record.
func (sc *Schema) UnpackRecord(s *cell.Slice) (Record, error) {
	return sc.walk(s, func(_ *Field, t Type, s *cell.Slice) (any, error) {
		return t.Unpack(s)
	})
}

func (sc *Schema) Unpack(s *cell.Slice) (any, error) {
	r, err := sc.UnpackRecord(s)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (sc *Schema) Pack(b *cell.Builder, v any) error {
	var record Record
	switch x := v.(type) {
	case Record:
		record = x
	case *Record:
		record = *x
	default:
		return fmt.Errorf("%s: cannot pack %T: %w", sc.name, v, cell.ErrConstraintViolation)
	}
	i, ok := sc.byName[record.Constructor]
	if !ok {
		return fmt.Errorf("%s: unknown constructor %q: %w", sc.name, record.Constructor, cell.ErrSchemaMismatch)
	}
	c := &sc.constructors[i]
	// Fields go to a scratch builder so a failure leaves b untouched.
	out := cell.NewBuilder()
	if err := out.StoreUint(c.Tag, c.TagLen); err != nil {
		return fmt.Errorf("%s tag: %w", c.Name, err)
	}
	ctx := &Context{}
	for fi := range c.Fields {
		f := &c.Fields[fi]
		value, _ := record.Get(f.Name)
		t, present, err := f.resolve(ctx)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", c.Name, f.Name, err)
		}
		if !present {
			if value != nil {
				return fmt.Errorf("%s.%s: value given for absent field: %w", c.Name, f.Name, cell.ErrConstraintViolation)
			}
			ctx.set(f.Name, nil)
			continue
		}
		if f.Check != nil {
			if err := f.Check(ctx, value); err != nil {
				return fmt.Errorf("%s.%s: %w", c.Name, f.Name, err)
			}
		}
		if err := t.Pack(out, value); err != nil {
			return fmt.Errorf("%s.%s: %w", c.Name, f.Name, err)
		}
		ctx.set(f.Name, value)
	}
	if err := b.StoreBuilder(out); err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	return nil
}

// tableBits is the widest tag that gets a direct lookup table.
// Schemas with wider tags match constructors one by one.
const tableBits = 10

// dispatch maps the leading bits of an encoded value to the index of
// its constructor.
type dispatch struct {
	constructors []Constructor
	maxLen       int
	// table has 1<<maxLen entries indexed by the next maxLen bits;
	// -1 marks a bit pattern no constructor starts with.
	table []int16
}

func newDispatch(constructors []Constructor) (dispatch, error) {
	d := dispatch{constructors: constructors}
	for i, c := range constructors {
		if c.TagLen < 0 || c.TagLen > 64 {
			return d, fmt.Errorf("constructor %q tag length %d", c.Name, c.TagLen)
		}
		if c.TagLen < 64 && c.Tag>>c.TagLen != 0 {
			return d, fmt.Errorf("constructor %q tag %#x wider than %d bits", c.Name, c.Tag, c.TagLen)
		}
		d.maxLen = max(d.maxLen, c.TagLen)
		for _, other := range constructors[:i] {
			shorter := min(c.TagLen, other.TagLen)
			if c.Tag>>(c.TagLen-shorter) == other.Tag>>(other.TagLen-shorter) {
				return d, errors.New("constructor tags " + other.Name + " and " + c.Name + " are not prefix free")
			}
		}
	}
	if d.maxLen > tableBits {
		return d, nil
	}
	d.table = make([]int16, 1<<d.maxLen)
	for i := range d.table {
		d.table[i] = -1
	}
	for i, c := range constructors {
		shift := d.maxLen - c.TagLen
		first := c.Tag << shift
		for p := first; p < first+(1<<shift); p++ {
			d.table[p] = int16(i)
		}
	}
	return d, nil
}

func (d dispatch) lookup(s cell.Slice) (int, error) {
	if d.table != nil && s.BitsLeft() >= d.maxLen {
		pattern, err := s.PrefetchUint(d.maxLen)
		if err != nil {
			return -1, err
		}
		if i := d.table[pattern]; i >= 0 {
			return int(i), nil
		}
		return -1, fmt.Errorf("no constructor for tag bits %0*b: %w", d.maxLen, pattern, cell.ErrSchemaMismatch)
	}

	truncated := false
	for i, c := range d.constructors {
		if c.TagLen > s.BitsLeft() {
			truncated = true
			continue
		}
		pattern, err := s.PrefetchUint(c.TagLen)
		if err != nil {
			return -1, err
		}
		if pattern == c.Tag {
			return i, nil
		}
	}
	if truncated {
		return -1, fmt.Errorf("%d bits too short for a constructor tag: %w", s.BitsLeft(), cell.ErrTruncated)
	}
	return -1, fmt.Errorf("no constructor tag matches: %w", cell.ErrSchemaMismatch)
}
