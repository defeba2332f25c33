// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dict

import (
	"fmt"
	"iter"

	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/tlb"
)

// Variable is a VarHashmapE: keys of up to MaxKeyBits bits where one
// key may be a prefix of another. After each vhm_edge label comes one
// of
//
//	vhmn_leaf$00 value:X
//	vhmn_fork$01 left:^(VarHashmap n X) right:^(VarHashmap n X) value:(Maybe X)
//	vhmn_cont$1 branch:Bit child:^(VarHashmap n X) value:X
//
// with n reduced by the label length plus one below each node.
type Variable struct {
	Root       *cell.Cell
	MaxKeyBits int
}

type varNodeKind int

const (
	varLeaf varNodeKind = iota
	varFork
	varCont
)

type varNode struct {
	label  cell.BitString
	m      int
	kind   varNodeKind
	branch bool
	// children holds the child references of forks and continuations.
	children []*cell.Cell
	// value is valid when hasValue is set.
	value    cell.Slice
	hasValue bool
}

func (n varNode) childBits() int { return n.m - n.label.Len() - 1 }

// child returns the subtree reached by the next key bit.
func (n varNode) child(bit bool) *cell.Cell {
	switch n.kind {
	case varFork:
		if bit {
			return n.children[1]
		}
		return n.children[0]
	case varCont:
		if bit == n.branch {
			return n.children[0]
		}
	}
	return nil
}

func parseVar(c *cell.Cell, m int) (varNode, error) {
	if c.IsSpecial() {
		return varNode{}, fmt.Errorf("dictionary node is a %s cell: %w", c.Kind(), cell.ErrConstraintViolation)
	}
	s := c.BeginParse()
	label, err := LoadLabel(&s, m)
	if err != nil {
		return varNode{}, err
	}
	n := varNode{label: label, m: m}
	cont, err := s.FetchBool()
	if err != nil {
		return varNode{}, err
	}
	if cont {
		n.kind = varCont
		if n.branch, err = s.FetchBool(); err != nil {
			return varNode{}, err
		}
		child, err := s.FetchRef()
		if err != nil {
			return varNode{}, err
		}
		n.children = []*cell.Cell{child}
		n.value, n.hasValue = s, true
	} else {
		fork, err := s.FetchBool()
		if err != nil {
			return varNode{}, err
		}
		if !fork {
			n.kind = varLeaf
			n.value, n.hasValue = s, true
			return n, nil
		}
		n.kind = varFork
		left, err := s.FetchRef()
		if err != nil {
			return varNode{}, err
		}
		right, err := s.FetchRef()
		if err != nil {
			return varNode{}, err
		}
		n.children = []*cell.Cell{left, right}
		present, err := s.FetchBool()
		if err != nil {
			return varNode{}, err
		}
		n.value, n.hasValue = s, present
		if !present && !s.IsEmpty() {
			return varNode{}, fmt.Errorf("fork without value has trailing data: %w", cell.ErrConstraintViolation)
		}
	}
	if n.label.Len() >= m {
		return varNode{}, fmt.Errorf("%s node with no key bits left: %w", []string{"leaf", "fork", "continuation"}[n.kind], cell.ErrConstraintViolation)
	}
	return n, nil
}

// Lookup returns the value stored under exactly key.
func (v Variable) Lookup(key cell.BitString) (cell.Slice, bool, error) {
	if key.Len() > v.MaxKeyBits {
		return cell.Slice{}, false, fmt.Errorf("key of %d bits exceeds %d: %w", key.Len(), v.MaxKeyBits, cell.ErrConstraintViolation)
	}
	if v.Root == nil {
		return cell.Slice{}, false, nil
	}
	c, m := v.Root, v.MaxKeyBits
	for {
		n, err := parseVar(c, m)
		if err != nil {
			return cell.Slice{}, false, err
		}
		if !n.label.IsPrefixOf(key) {
			return cell.Slice{}, false, nil
		}
		if key.Len() == n.label.Len() {
			return n.value, n.hasValue, nil
		}
		if c = n.child(key.Bit(n.label.Len())); c == nil {
			return cell.Slice{}, false, nil
		}
		key = key.Sub(n.label.Len()+1, key.Len())
		m = n.childBits()
	}
}

// All iterates over the entries in ascending key order, a key before
// the keys it prefixes.
func (v Variable) All() iter.Seq2[Entry, error] {
	return entrySeq(func(fn func(cell.BitString, cell.Slice) bool) (bool, error) {
		if v.Root == nil {
			return true, nil
		}
		return varEach(v.Root, v.MaxKeyBits, cell.BitString{}, fn)
	})
}

func varEach(c *cell.Cell, m int, prefix cell.BitString, fn func(cell.BitString, cell.Slice) bool) (bool, error) {
	n, err := parseVar(c, m)
	if err != nil {
		return false, err
	}
	key := prefix.Append(n.label)
	if n.hasValue && !fn(key, n.value) {
		return false, nil
	}
	for _, bit := range []bool{false, true} {
		child := n.child(bit)
		if child == nil {
			continue
		}
		if more, err := varEach(child, n.childBits(), key.AppendBit(bit), fn); !more || err != nil {
			return false, err
		}
	}
	return true, nil
}

// ValidateSkip checks the dictionary's structure, one operation per
// node. A non-nil value type must match every stored value exactly.
func (v Variable) ValidateSkip(budget *tlb.Budget, value tlb.Type, weak bool) error {
	if v.Root == nil {
		return nil
	}
	return varValidate(budget, v.Root, v.MaxKeyBits, value, weak)
}

func varValidate(budget *tlb.Budget, c *cell.Cell, m int, value tlb.Type, weak bool) error {
	if err := budget.Spend(1); err != nil {
		return err
	}
	if c.IsSpecial() {
		if weak {
			return nil
		}
		return fmt.Errorf("dictionary node is a %s cell: %w", c.Kind(), cell.ErrConstraintViolation)
	}
	n, err := parseVar(c, m)
	if err != nil {
		return err
	}
	if n.hasValue && value != nil {
		if err := tlb.Validate(value, budget, n.value, weak); err != nil {
			return fmt.Errorf("value: %w", err)
		}
	}
	for i, child := range n.children {
		if err := varValidate(budget, child, n.childBits(), value, weak); err != nil {
			return fmt.Errorf("branch %d: %w", i, err)
		}
	}
	return nil
}

// LoadVarHashmapE reads vhme_empty$0 or vhme_root$1 root:^(VarHashmap n X).
func LoadVarHashmapE(s *cell.Slice, maxKeyBits int) (Variable, error) {
	root, err := loadMaybeRoot(s)
	if err != nil {
		return Variable{}, err
	}
	return Variable{Root: root, MaxKeyBits: maxKeyBits}, nil
}

// StoreVarHashmapE writes v as a VarHashmapE.
func StoreVarHashmapE(b *cell.Builder, v Variable) error {
	return storeMaybeRoot(b, v.Root)
}
