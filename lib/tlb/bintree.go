// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tlb

import (
	"fmt"

	"github.com/bureau-foundation/cellcodec/lib/cell"
)

// BinTreeNode is the value of a [BinTree]. A leaf has a nil Left and
// Right; a fork has both.
type BinTreeNode struct {
	Leaf        any
	Left, Right *BinTreeNode
}

// IsLeaf reports whether the node is a leaf.
func (n *BinTreeNode) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// Leaves returns the leaf values from left to right.
func (n *BinTreeNode) Leaves() []any {
	if n.IsLeaf() {
		return []any{n.Leaf}
	}
	return append(n.Left.Leaves(), n.Right.Leaves()...)
}

// BinTree is bt_leaf$0 leaf:X | bt_fork$1 left:^(BinTree X)
// right:^(BinTree X). Values are *BinTreeNode.
func BinTree(x Type) Type {
	return binTreeType{x: x}
}

type binTreeType struct {
	oneBitTag
	x Type
}

func (t binTreeType) Skip(s *cell.Slice) error {
	probe := *s
	fork, err := probe.FetchBool()
	if err != nil {
		return err
	}
	if fork {
		err = probe.AdvanceRefs(2)
	} else {
		err = t.x.Skip(&probe)
	}
	if err != nil {
		return err
	}
	*s = probe
	return nil
}

func (t binTreeType) ValidateSkip(budget *Budget, s *cell.Slice, weak bool) error {
	probe := *s
	fork, err := probe.FetchBool()
	if err != nil {
		return err
	}
	if !fork {
		if err := t.x.ValidateSkip(budget, &probe, weak); err != nil {
			return err
		}
		*s = probe
		return nil
	}
	for i := 0; i < 2; i++ {
		ref, err := probe.FetchRef()
		if err != nil {
			return err
		}
		if err := ValidateRef(t, budget, ref, weak); err != nil {
			return fmt.Errorf("bintree branch %d: %w", i, err)
		}
	}
	*s = probe
	return nil
}

func (t binTreeType) Unpack(s *cell.Slice) (any, error) {
	probe := *s
	fork, err := probe.FetchBool()
	if err != nil {
		return nil, err
	}
	if !fork {
		leaf, err := t.x.Unpack(&probe)
		if err != nil {
			return nil, err
		}
		*s = probe
		return &BinTreeNode{Leaf: leaf}, nil
	}
	var branches [2]*BinTreeNode
	for i := range branches {
		ref, err := probe.FetchRef()
		if err != nil {
			return nil, err
		}
		v, err := UnpackCell(t, ref)
		if err != nil {
			return nil, fmt.Errorf("bintree branch %d: %w", i, err)
		}
		branches[i] = v.(*BinTreeNode)
	}
	*s = probe
	return &BinTreeNode{Left: branches[0], Right: branches[1]}, nil
}

func (t binTreeType) Pack(b *cell.Builder, v any) error {
	node, err := valueAs[*BinTreeNode](v, "BinTree")
	if err != nil {
		return err
	}
	if node.IsLeaf() {
		if err := b.StoreBit(false); err != nil {
			return err
		}
		return t.x.Pack(b, node.Leaf)
	}
	if node.Left == nil || node.Right == nil {
		return fmt.Errorf("bintree fork with one branch: %w", cell.ErrConstraintViolation)
	}
	if err := b.StoreBit(true); err != nil {
		return err
	}
	for i, branch := range []*BinTreeNode{node.Left, node.Right} {
		c, err := PackCell(t, branch)
		if err != nil {
			return fmt.Errorf("bintree branch %d: %w", i, err)
		}
		if err := b.StoreRef(c); err != nil {
			return err
		}
	}
	return nil
}
