// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dict

import (
	"fmt"
	"iter"

	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/tlb"
)

// Prefix is a PfxHashmapE: keys of at most MaxKeyBits bits, none a
// prefix of another. Nodes are phm_edge label followed by
// phmn_leaf$0 value or phmn_fork$1 left:^ right:^.
type Prefix struct {
	Root       *cell.Cell
	MaxKeyBits int
}

// NewPrefix returns an empty prefix dictionary.
func NewPrefix(maxKeyBits int) Prefix {
	return Prefix{MaxKeyBits: maxKeyBits}
}

type pfxNode struct {
	label cell.BitString
	m     int
	fork  bool
	// after the label and node tag
	body cell.Slice
}

func parsePfx(c *cell.Cell, m int) (pfxNode, error) {
	if c.IsSpecial() {
		return pfxNode{}, fmt.Errorf("dictionary node is a %s cell: %w", c.Kind(), cell.ErrConstraintViolation)
	}
	s := c.BeginParse()
	label, err := LoadLabel(&s, m)
	if err != nil {
		return pfxNode{}, err
	}
	fork, err := s.FetchBool()
	if err != nil {
		return pfxNode{}, err
	}
	if fork && label.Len() == m {
		return pfxNode{}, fmt.Errorf("prefix fork with no key bits left: %w", cell.ErrConstraintViolation)
	}
	return pfxNode{label: label, m: m, fork: fork, body: s}, nil
}

func pfxLeaf(label cell.BitString, m int, value cell.Slice) (*cell.Cell, error) {
	b := cell.NewBuilder()
	if err := StoreLabel(b, label, m); err != nil {
		return nil, err
	}
	if err := b.StoreBit(false); err != nil {
		return nil, err
	}
	if err := b.StoreSlice(value); err != nil {
		return nil, fmt.Errorf("value does not fit in leaf: %w", err)
	}
	return b.EndCell()
}

func pfxFork(label cell.BitString, m int, left, right *cell.Cell) (*cell.Cell, error) {
	b := cell.NewBuilder()
	if err := StoreLabel(b, label, m); err != nil {
		return nil, err
	}
	if err := b.StoreBit(true); err != nil {
		return nil, err
	}
	if err := b.StoreRef(left); err != nil {
		return nil, err
	}
	if err := b.StoreRef(right); err != nil {
		return nil, err
	}
	return b.EndCell()
}

func pfxRelabel(n pfxNode, label cell.BitString, m int) (*cell.Cell, error) {
	b := cell.NewBuilder()
	if err := StoreLabel(b, label, m); err != nil {
		return nil, err
	}
	if err := b.StoreBit(n.fork); err != nil {
		return nil, err
	}
	if err := b.StoreSlice(n.body); err != nil {
		return nil, err
	}
	return b.EndCell()
}

// Lookup finds the stored key that is a prefix of key and returns it
// with its value.
func (p Prefix) Lookup(key cell.BitString) (cell.BitString, cell.Slice, bool, error) {
	if key.Len() > p.MaxKeyBits {
		return cell.BitString{}, cell.Slice{}, false, fmt.Errorf("key of %d bits exceeds %d: %w", key.Len(), p.MaxKeyBits, cell.ErrConstraintViolation)
	}
	if p.Root == nil {
		return cell.BitString{}, cell.Slice{}, false, nil
	}
	c, m, consumed := p.Root, p.MaxKeyBits, 0
	for {
		n, err := parsePfx(c, m)
		if err != nil {
			return cell.BitString{}, cell.Slice{}, false, err
		}
		rest := key.Sub(consumed, key.Len())
		if !n.label.IsPrefixOf(rest) {
			return cell.BitString{}, cell.Slice{}, false, nil
		}
		consumed += n.label.Len()
		if !n.fork {
			return key.Sub(0, consumed), n.body, true, nil
		}
		if consumed == key.Len() {
			return cell.BitString{}, cell.Slice{}, false, nil
		}
		i := 0
		if key.Bit(consumed) {
			i = 1
		}
		if c, err = n.body.PrefetchRef(i); err != nil {
			return cell.BitString{}, cell.Slice{}, false, err
		}
		consumed++
		m = n.m - n.label.Len() - 1
	}
}

// Set stores value under key. Storing a key that is a proper prefix
// of a stored key, or has one as a proper prefix, is a constraint
// violation; an identical key is replaced.
func (p Prefix) Set(key cell.BitString, value cell.Slice) (Prefix, error) {
	if key.Len() > p.MaxKeyBits {
		return p, fmt.Errorf("key of %d bits exceeds %d: %w", key.Len(), p.MaxKeyBits, cell.ErrConstraintViolation)
	}
	root, err := pfxSet(p.Root, p.MaxKeyBits, key, value)
	if err != nil {
		return p, fmt.Errorf("setting key %s: %w", key, err)
	}
	return Prefix{Root: root, MaxKeyBits: p.MaxKeyBits}, nil
}

func pfxSet(c *cell.Cell, m int, key cell.BitString, value cell.Slice) (*cell.Cell, error) {
	if c == nil {
		return pfxLeaf(key, m, value)
	}
	n, err := parsePfx(c, m)
	if err != nil {
		return nil, err
	}
	common := cell.CommonPrefix(n.label, key)
	switch {
	case common < n.label.Len() && common == key.Len():
		return nil, fmt.Errorf("key is a prefix of a stored key: %w", cell.ErrConstraintViolation)
	case common < n.label.Len():
		childBits := m - common - 1
		existing, err := pfxRelabel(n, n.label.Sub(common+1, n.label.Len()), childBits)
		if err != nil {
			return nil, err
		}
		added, err := pfxLeaf(key.Sub(common+1, key.Len()), childBits, value)
		if err != nil {
			return nil, err
		}
		if key.Bit(common) {
			return pfxFork(key.Sub(0, common), m, existing, added)
		}
		return pfxFork(key.Sub(0, common), m, added, existing)
	case !n.fork && key.Len() == common:
		return pfxLeaf(key, m, value)
	case !n.fork:
		return nil, fmt.Errorf("a stored key is a prefix of the key: %w", cell.ErrConstraintViolation)
	case key.Len() == common:
		return nil, fmt.Errorf("key is a prefix of stored keys: %w", cell.ErrConstraintViolation)
	}

	left, err := n.body.PrefetchRef(0)
	if err != nil {
		return nil, err
	}
	right, err := n.body.PrefetchRef(1)
	if err != nil {
		return nil, err
	}
	rest := key.Sub(common+1, key.Len())
	if key.Bit(common) {
		right, err = pfxSet(right, m-common-1, rest, value)
	} else {
		left, err = pfxSet(left, m-common-1, rest, value)
	}
	if err != nil {
		return nil, err
	}
	return pfxFork(n.label, m, left, right)
}

// All iterates over the entries in ascending key order.
func (p Prefix) All() iter.Seq2[Entry, error] {
	return entrySeq(func(fn func(cell.BitString, cell.Slice) bool) (bool, error) {
		if p.Root == nil {
			return true, nil
		}
		return pfxEach(p.Root, p.MaxKeyBits, cell.BitString{}, fn)
	})
}

func pfxEach(c *cell.Cell, m int, prefix cell.BitString, fn func(cell.BitString, cell.Slice) bool) (bool, error) {
	n, err := parsePfx(c, m)
	if err != nil {
		return false, err
	}
	key := prefix.Append(n.label)
	if !n.fork {
		return fn(key, n.body), nil
	}
	for i, bit := range []bool{false, true} {
		child, err := n.body.PrefetchRef(i)
		if err != nil {
			return false, err
		}
		if more, err := pfxEach(child, m-n.label.Len()-1, key.AppendBit(bit), fn); !more || err != nil {
			return false, err
		}
	}
	return true, nil
}

// ValidateSkip checks the dictionary's structure, one operation per
// node. A non-nil value type must match every leaf value exactly.
func (p Prefix) ValidateSkip(budget *tlb.Budget, value tlb.Type, weak bool) error {
	if p.Root == nil {
		return nil
	}
	return pfxValidate(budget, p.Root, p.MaxKeyBits, value, weak)
}

func pfxValidate(budget *tlb.Budget, c *cell.Cell, m int, value tlb.Type, weak bool) error {
	if err := budget.Spend(1); err != nil {
		return err
	}
	if c.IsSpecial() {
		if weak {
			return nil
		}
		return fmt.Errorf("dictionary node is a %s cell: %w", c.Kind(), cell.ErrConstraintViolation)
	}
	n, err := parsePfx(c, m)
	if err != nil {
		return err
	}
	if !n.fork {
		if value == nil {
			return nil
		}
		return tlb.Validate(value, budget, n.body, weak)
	}
	s := n.body
	for i := 0; i < 2; i++ {
		child, err := s.FetchRef()
		if err != nil {
			return err
		}
		if err := pfxValidate(budget, child, m-n.label.Len()-1, value, weak); err != nil {
			return fmt.Errorf("branch %d: %w", i, err)
		}
	}
	if !s.IsEmpty() {
		return fmt.Errorf("prefix fork has trailing data: %w", cell.ErrConstraintViolation)
	}
	return nil
}

// LoadPfxHashmapE reads phme_empty$0 or phme_root$1 root:^(PfxHashmap n X).
func LoadPfxHashmapE(s *cell.Slice, maxKeyBits int) (Prefix, error) {
	root, err := loadMaybeRoot(s)
	if err != nil {
		return Prefix{}, err
	}
	return Prefix{Root: root, MaxKeyBits: maxKeyBits}, nil
}

// StorePfxHashmapE writes p as a PfxHashmapE.
func StorePfxHashmapE(b *cell.Builder, p Prefix) error {
	return storeMaybeRoot(b, p.Root)
}
