// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dict

import (
	"fmt"

	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/tlb"
)

// maybeRootTag supplies the tag methods of the E wrappers, whose
// constructors differ in their first bit.
type maybeRootTag struct{}

func (maybeRootTag) Tag(s cell.Slice) (int, error) {
	v, err := s.PrefetchUint(1)
	return int(v), err
}

func (maybeRootTag) CheckTag(s cell.Slice) bool { return s.BitsLeft() >= 1 }

func skipMaybeRoot(s *cell.Slice) error {
	_, err := loadMaybeRoot(s)
	return err
}

// HashmapEType is (HashmapE n X) as a schema type. Values are
// [Dictionary].
func HashmapEType(keyBits int, value tlb.Type) tlb.Type {
	return hashmapEType{keyBits: keyBits, value: value}
}

type hashmapEType struct {
	maybeRootTag
	keyBits int
	value   tlb.Type
}

func (t hashmapEType) Skip(s *cell.Slice) error { return skipMaybeRoot(s) }

func (t hashmapEType) ValidateSkip(budget *tlb.Budget, s *cell.Slice, weak bool) error {
	probe := *s
	d, err := LoadHashmapE(&probe, t.keyBits)
	if err != nil {
		return err
	}
	if err := d.ValidateSkip(budget, t.value, weak); err != nil {
		return fmt.Errorf("HashmapE %d: %w", t.keyBits, err)
	}
	*s = probe
	return nil
}

func (t hashmapEType) Unpack(s *cell.Slice) (any, error) {
	return LoadHashmapE(s, t.keyBits)
}

func (t hashmapEType) Pack(b *cell.Builder, v any) error {
	d, ok := v.(Dictionary)
	if !ok {
		return fmt.Errorf("HashmapE: cannot pack %T: %w", v, cell.ErrConstraintViolation)
	}
	if d.KeyBits != t.keyBits && d.Root != nil {
		return fmt.Errorf("HashmapE %d: dictionary has %d-bit keys: %w", t.keyBits, d.KeyBits, cell.ErrConstraintViolation)
	}
	return StoreHashmapE(b, d)
}

// HashmapAugEType is (HashmapAugE n X Y) as a schema type, with n and
// Y taken from aug. Values are [AugDictionary].
func HashmapAugEType(aug *Aug, value tlb.Type) tlb.Type {
	return hashmapAugEType{aug: aug, value: value}
}

type hashmapAugEType struct {
	maybeRootTag
	aug   *Aug
	value tlb.Type
}

func (t hashmapAugEType) Skip(s *cell.Slice) error {
	probe := *s
	if err := skipMaybeRoot(&probe); err != nil {
		return err
	}
	if err := t.aug.Extra.Skip(&probe); err != nil {
		return err
	}
	*s = probe
	return nil
}

func (t hashmapAugEType) ValidateSkip(budget *tlb.Budget, s *cell.Slice, weak bool) error {
	if err := t.aug.validateAugE(budget, s, t.value, weak); err != nil {
		return fmt.Errorf("HashmapAugE %d: %w", t.aug.KeyBits, err)
	}
	return nil
}

func (t hashmapAugEType) Unpack(s *cell.Slice) (any, error) {
	return t.aug.LoadHashmapAugE(s)
}

func (t hashmapAugEType) Pack(b *cell.Builder, v any) error {
	d, ok := v.(AugDictionary)
	if !ok {
		return fmt.Errorf("HashmapAugE: cannot pack %T: %w", v, cell.ErrConstraintViolation)
	}
	return t.aug.StoreHashmapAugE(b, d)
}

// PfxHashmapEType is (PfxHashmapE n X) as a schema type. Values are
// [Prefix].
func PfxHashmapEType(maxKeyBits int, value tlb.Type) tlb.Type {
	return pfxHashmapEType{maxKeyBits: maxKeyBits, value: value}
}

type pfxHashmapEType struct {
	maybeRootTag
	maxKeyBits int
	value      tlb.Type
}

func (t pfxHashmapEType) Skip(s *cell.Slice) error { return skipMaybeRoot(s) }

func (t pfxHashmapEType) ValidateSkip(budget *tlb.Budget, s *cell.Slice, weak bool) error {
	probe := *s
	p, err := LoadPfxHashmapE(&probe, t.maxKeyBits)
	if err != nil {
		return err
	}
	if err := p.ValidateSkip(budget, t.value, weak); err != nil {
		return fmt.Errorf("PfxHashmapE %d: %w", t.maxKeyBits, err)
	}
	*s = probe
	return nil
}

func (t pfxHashmapEType) Unpack(s *cell.Slice) (any, error) {
	return LoadPfxHashmapE(s, t.maxKeyBits)
}

func (t pfxHashmapEType) Pack(b *cell.Builder, v any) error {
	p, ok := v.(Prefix)
	if !ok {
		return fmt.Errorf("PfxHashmapE: cannot pack %T: %w", v, cell.ErrConstraintViolation)
	}
	return StorePfxHashmapE(b, p)
}

// VarHashmapEType is (VarHashmapE n X) as a schema type. Values are
// [Variable].
func VarHashmapEType(maxKeyBits int, value tlb.Type) tlb.Type {
	return varHashmapEType{maxKeyBits: maxKeyBits, value: value}
}

type varHashmapEType struct {
	maybeRootTag
	maxKeyBits int
	value      tlb.Type
}

func (t varHashmapEType) Skip(s *cell.Slice) error { return skipMaybeRoot(s) }

func (t varHashmapEType) ValidateSkip(budget *tlb.Budget, s *cell.Slice, weak bool) error {
	probe := *s
	v, err := LoadVarHashmapE(&probe, t.maxKeyBits)
	if err != nil {
		return err
	}
	if err := v.ValidateSkip(budget, t.value, weak); err != nil {
		return fmt.Errorf("VarHashmapE %d: %w", t.maxKeyBits, err)
	}
	*s = probe
	return nil
}

func (t varHashmapEType) Unpack(s *cell.Slice) (any, error) {
	return LoadVarHashmapE(s, t.maxKeyBits)
}

func (t varHashmapEType) Pack(b *cell.Builder, v any) error {
	x, ok := v.(Variable)
	if !ok {
		return fmt.Errorf("VarHashmapE: cannot pack %T: %w", v, cell.ErrConstraintViolation)
	}
	return StoreVarHashmapE(b, x)
}
