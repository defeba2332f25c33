// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dict

import (
	"fmt"
	"slices"

	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/tlb"
)

// trie implements the hm_edge node layout shared by plain and
// augmented dictionaries. With aug set, every node stores its extra
// directly after the label; fork nodes keep their two child
// references first.
type trie struct {
	aug *Aug
}

// node is one parsed hm_edge. m counts the key bits the edge and
// everything below it consume.
type node struct {
	cell  *cell.Cell
	label cell.BitString
	m     int
	body  cell.Slice
}

func (n node) isLeaf() bool { return n.label.Len() == n.m }

// childBits is the key width of the subtrees under a fork.
func (n node) childBits() int { return n.m - n.label.Len() - 1 }

func (t trie) parse(c *cell.Cell, m int) (node, error) {
	if c.IsSpecial() {
		return node{}, fmt.Errorf("dictionary node is a %s cell: %w", c.Kind(), cell.ErrConstraintViolation)
	}
	s := c.BeginParse()
	label, err := LoadLabel(&s, m)
	if err != nil {
		return node{}, err
	}
	return node{cell: c, label: label, m: m, body: s}, nil
}

// child returns the fork branch selected by bit.
func (t trie) child(n node, bit bool) (*cell.Cell, error) {
	i := 0
	if bit {
		i = 1
	}
	return n.body.PrefetchRef(i)
}

// extraSlice returns the window holding the node's extra.
func (t trie) extraSlice(n node) (cell.Slice, error) {
	s := n.body
	if !n.isLeaf() {
		if err := s.AdvanceRefs(2); err != nil {
			return cell.Slice{}, err
		}
	}
	start := s
	if err := t.aug.Extra.Skip(&s); err != nil {
		return cell.Slice{}, err
	}
	return start.Until(s), nil
}

func (t trie) extra(n node) (any, error) {
	s, err := t.extraSlice(n)
	if err != nil {
		return nil, err
	}
	return t.aug.Extra.Unpack(&s)
}

// value returns the leaf value: everything after the label and, for
// augmented dictionaries, the extra.
func (t trie) value(n node) (cell.Slice, error) {
	s := n.body
	if t.aug != nil {
		if err := t.aug.Extra.Skip(&s); err != nil {
			return cell.Slice{}, err
		}
	}
	return s, nil
}

func (t trie) leaf(label cell.BitString, m int, value cell.Slice) (*cell.Cell, error) {
	b := cell.NewBuilder()
	if err := StoreLabel(b, label, m); err != nil {
		return nil, err
	}
	if t.aug != nil {
		extra, err := t.aug.Leaf(value)
		if err != nil {
			return nil, fmt.Errorf("leaf extra: %w", err)
		}
		if err := t.aug.Extra.Pack(b, extra); err != nil {
			return nil, fmt.Errorf("leaf extra: %w", err)
		}
	}
	if err := b.StoreSlice(value); err != nil {
		return nil, fmt.Errorf("value does not fit in leaf: %w", err)
	}
	return b.EndCell()
}

func (t trie) fork(label cell.BitString, m int, left, right *cell.Cell) (*cell.Cell, error) {
	b := cell.NewBuilder()
	if err := StoreLabel(b, label, m); err != nil {
		return nil, err
	}
	if err := b.StoreRef(left); err != nil {
		return nil, err
	}
	if err := b.StoreRef(right); err != nil {
		return nil, err
	}
	if t.aug != nil {
		extra, err := t.combined(left, right, m-label.Len()-1)
		if err != nil {
			return nil, err
		}
		if err := t.aug.Extra.Pack(b, extra); err != nil {
			return nil, fmt.Errorf("fork extra: %w", err)
		}
	}
	return b.EndCell()
}

// combined computes the extra a fork over left and right must carry.
func (t trie) combined(left, right *cell.Cell, m int) (any, error) {
	var extras [2]any
	for i, c := range []*cell.Cell{left, right} {
		n, err := t.parse(c, m)
		if err != nil {
			return nil, err
		}
		if extras[i], err = t.extra(n); err != nil {
			return nil, err
		}
	}
	extra, err := t.aug.Combine(extras[0], extras[1])
	if err != nil {
		return nil, fmt.Errorf("combining extras: %w", err)
	}
	return extra, nil
}

// relabel rewrites n under a new label, keeping everything after the
// old one.
func (t trie) relabel(n node, label cell.BitString, m int) (*cell.Cell, error) {
	b := cell.NewBuilder()
	if err := StoreLabel(b, label, m); err != nil {
		return nil, err
	}
	if err := b.StoreSlice(n.body); err != nil {
		return nil, err
	}
	return b.EndCell()
}

func (t trie) lookup(root *cell.Cell, key cell.BitString, visit func(*cell.Cell)) (cell.Slice, bool, error) {
	c, m := root, key.Len()
	for {
		if visit != nil {
			visit(c)
		}
		n, err := t.parse(c, m)
		if err != nil {
			return cell.Slice{}, false, err
		}
		if !n.label.IsPrefixOf(key) {
			return cell.Slice{}, false, nil
		}
		if n.isLeaf() {
			v, err := t.value(n)
			return v, err == nil, err
		}
		bit := key.Bit(n.label.Len())
		if c, err = t.child(n, bit); err != nil {
			return cell.Slice{}, false, err
		}
		key = key.Sub(n.label.Len()+1, key.Len())
		m = n.childBits()
	}
}

// set stores value under key in the subtree c, which may be nil, and
// returns the new subtree root.
func (t trie) set(c *cell.Cell, key cell.BitString, value cell.Slice) (*cell.Cell, error) {
	m := key.Len()
	if c == nil {
		return t.leaf(key, m, value)
	}
	n, err := t.parse(c, m)
	if err != nil {
		return nil, err
	}
	common := cell.CommonPrefix(n.label, key)
	if common == n.label.Len() {
		if n.isLeaf() {
			return t.leaf(key, m, value)
		}
		bit := key.Bit(common)
		branch, err := t.child(n, bit)
		if err != nil {
			return nil, err
		}
		updated, err := t.set(branch, key.Sub(common+1, m), value)
		if err != nil {
			return nil, err
		}
		left, right, err := t.children(n)
		if err != nil {
			return nil, err
		}
		if bit {
			right = updated
		} else {
			left = updated
		}
		return t.fork(n.label, m, left, right)
	}

	childBits := m - common - 1
	existing, err := t.relabel(n, n.label.Sub(common+1, n.label.Len()), childBits)
	if err != nil {
		return nil, err
	}
	added, err := t.leaf(key.Sub(common+1, m), childBits, value)
	if err != nil {
		return nil, err
	}
	if key.Bit(common) {
		return t.fork(key.Sub(0, common), m, existing, added)
	}
	return t.fork(key.Sub(0, common), m, added, existing)
}

func (t trie) children(n node) (left, right *cell.Cell, err error) {
	if left, err = n.body.PrefetchRef(0); err != nil {
		return nil, nil, err
	}
	if right, err = n.body.PrefetchRef(1); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// remove deletes key from the subtree c. The bool result reports
// whether the key was present; the new subtree is nil when it became
// empty.
func (t trie) remove(c *cell.Cell, key cell.BitString) (*cell.Cell, bool, error) {
	m := key.Len()
	n, err := t.parse(c, m)
	if err != nil {
		return nil, false, err
	}
	if !n.label.IsPrefixOf(key) {
		return c, false, nil
	}
	if n.isLeaf() {
		return nil, true, nil
	}
	bit := key.Bit(n.label.Len())
	branch, err := t.child(n, bit)
	if err != nil {
		return nil, false, err
	}
	updated, found, err := t.remove(branch, key.Sub(n.label.Len()+1, m))
	if err != nil || !found {
		return c, found, err
	}
	left, right, err := t.children(n)
	if err != nil {
		return nil, false, err
	}
	if updated == nil {
		// The fork collapses into the surviving branch, whose label
		// absorbs the fork's label and branch bit.
		survivor := left
		if !bit {
			survivor = right
		}
		sn, err := t.parse(survivor, n.childBits())
		if err != nil {
			return nil, false, err
		}
		merged, err := t.relabel(sn, n.label.AppendBit(!bit).Append(sn.label), m)
		return merged, true, err
	}
	if bit {
		right = updated
	} else {
		left = updated
	}
	merged, err := t.fork(n.label, m, left, right)
	return merged, true, err
}

// build constructs a subtree from entries sorted by key with distinct
// keys. offset is the number of key bits consumed above this node.
func (t trie) build(entries []Entry, offset, m int) (*cell.Cell, error) {
	first := entries[0].Key.Sub(offset, offset+m)
	if len(entries) == 1 {
		return t.leaf(first, m, entries[0].Value)
	}
	last := entries[len(entries)-1].Key.Sub(offset, offset+m)
	common := cell.CommonPrefix(first, last)
	split, _ := slices.BinarySearchFunc(entries, true, func(e Entry, _ bool) int {
		if e.Key.Bit(offset + common) {
			return 0
		}
		return -1
	})
	left, err := t.build(entries[:split], offset+common+1, m-common-1)
	if err != nil {
		return nil, err
	}
	right, err := t.build(entries[split:], offset+common+1, m-common-1)
	if err != nil {
		return nil, err
	}
	return t.fork(first.Sub(0, common), m, left, right)
}

// each visits leaves in ascending key order until fn returns false.
func (t trie) each(c *cell.Cell, m int, prefix cell.BitString, fn func(key cell.BitString, n node) bool) (bool, error) {
	n, err := t.parse(c, m)
	if err != nil {
		return false, err
	}
	key := prefix.Append(n.label)
	if n.isLeaf() {
		return fn(key, n), nil
	}
	left, right, err := t.children(n)
	if err != nil {
		return false, err
	}
	if more, err := t.each(left, n.childBits(), key.AppendBit(false), fn); !more || err != nil {
		return false, err
	}
	return t.each(right, n.childBits(), key.AppendBit(true), fn)
}

// edge descends to the smallest (or, with last set, largest) leaf.
func (t trie) edge(c *cell.Cell, m int, last bool) (cell.BitString, node, error) {
	var key cell.BitString
	for {
		n, err := t.parse(c, m)
		if err != nil {
			return cell.BitString{}, node{}, err
		}
		key = key.Append(n.label)
		if n.isLeaf() {
			return key, n, nil
		}
		if c, err = t.child(n, last); err != nil {
			return cell.BitString{}, node{}, err
		}
		key = key.AppendBit(last)
		m = n.childBits()
	}
}

// nearest finds the leaf closest to key in subtree c: the smallest
// key above it when next is set, the largest below it otherwise.
// Returned keys are relative to c.
func (t trie) nearest(c *cell.Cell, key cell.BitString, next, allowEq bool) (cell.BitString, node, bool, error) {
	m := key.Len()
	n, err := t.parse(c, m)
	if err != nil {
		return cell.BitString{}, node{}, false, err
	}
	label := n.label
	if common := cell.CommonPrefix(label, key); common < label.Len() {
		// The whole subtree lies on one side of key.
		if label.Bit(common) != next {
			return cell.BitString{}, node{}, false, nil
		}
		found, leaf, err := t.edge(c, m, !next)
		return found, leaf, err == nil, err
	}
	if n.isLeaf() {
		return key, n, allowEq, nil
	}

	bit := key.Bit(label.Len())
	branch, err := t.child(n, bit)
	if err != nil {
		return cell.BitString{}, node{}, false, err
	}
	sub, leaf, ok, err := t.nearest(branch, key.Sub(label.Len()+1, m), next, allowEq)
	if err != nil || ok {
		return label.AppendBit(bit).Append(sub), leaf, ok, err
	}
	// The sibling is usable only when it lies in the wanted direction.
	if bit == next {
		return cell.BitString{}, node{}, false, nil
	}
	sibling, err := t.child(n, !bit)
	if err != nil {
		return cell.BitString{}, node{}, false, err
	}
	sub, leaf, err = t.edge(sibling, n.childBits(), !next)
	if err != nil {
		return cell.BitString{}, node{}, false, err
	}
	return label.AppendBit(!bit).Append(sub), leaf, true, nil
}

// prefixed returns the subtree of c (with m-bit keys) holding the keys
// that start with prefix, or nil if there are none. Its root label
// carries the whole path from c, or with strip only the part after
// prefix.
func (t trie) prefixed(c *cell.Cell, m int, prefix cell.BitString, strip bool) (*cell.Cell, error) {
	var path cell.BitString
	for {
		n, err := t.parse(c, m)
		if err != nil {
			return nil, err
		}
		rest := prefix.Sub(path.Len(), prefix.Len())
		if cell.CommonPrefix(n.label, rest) < min(n.label.Len(), rest.Len()) {
			return nil, nil
		}
		if rest.Len() <= n.label.Len() {
			label := path.Append(n.label)
			width := path.Len() + m
			if strip {
				label = label.Sub(prefix.Len(), label.Len())
				width -= prefix.Len()
			}
			if path.Len() == 0 && !strip {
				return c, nil
			}
			return t.relabel(n, label, width)
		}
		bit := rest.Bit(n.label.Len())
		if c, err = t.child(n, bit); err != nil {
			return nil, err
		}
		path = path.Append(n.label).AppendBit(bit)
		m = n.childBits()
	}
}

// validate checks the subtree c, charging one operation per node.
// value, if non-nil, must match each leaf value exactly. Without weak,
// augmented extras are recomputed and compared bit for bit.
func (t trie) validate(budget *tlb.Budget, c *cell.Cell, m int, value tlb.Type, weak bool) error {
	if err := budget.Spend(1); err != nil {
		return err
	}
	if c.IsSpecial() {
		if weak {
			return nil
		}
		return fmt.Errorf("dictionary node is a %s cell: %w", c.Kind(), cell.ErrConstraintViolation)
	}
	n, err := t.parse(c, m)
	if err != nil {
		return err
	}

	if n.isLeaf() {
		s := n.body
		var stored cell.Slice
		if t.aug != nil {
			start := s
			if err := t.aug.Extra.ValidateSkip(budget, &s, weak); err != nil {
				return fmt.Errorf("leaf extra: %w", err)
			}
			stored = start.Until(s)
		}
		if value != nil {
			if err := tlb.Validate(value, budget, s, weak); err != nil {
				return fmt.Errorf("leaf value: %w", err)
			}
		}
		if t.aug == nil || weak {
			return nil
		}
		extra, err := t.aug.Leaf(s)
		if err != nil {
			return fmt.Errorf("leaf extra: %w", err)
		}
		return t.aug.checkEncoding(extra, stored)
	}

	s := n.body
	left, err := s.FetchRef()
	if err != nil {
		return err
	}
	right, err := s.FetchRef()
	if err != nil {
		return err
	}
	var stored cell.Slice
	if t.aug != nil {
		start := s
		if err := t.aug.Extra.ValidateSkip(budget, &s, weak); err != nil {
			return fmt.Errorf("fork extra: %w", err)
		}
		stored = start.Until(s)
	}
	if !s.IsEmpty() {
		return fmt.Errorf("fork node has %d extra bits and %d extra references: %w", s.BitsLeft(), s.RefsLeft(), cell.ErrConstraintViolation)
	}
	for i, branch := range []*cell.Cell{left, right} {
		if err := t.validate(budget, branch, n.childBits(), value, weak); err != nil {
			return fmt.Errorf("branch %d: %w", i, err)
		}
	}
	if t.aug == nil || weak {
		return nil
	}
	extra, err := t.combined(left, right, n.childBits())
	if err != nil {
		return err
	}
	return t.aug.checkEncoding(extra, stored)
}
