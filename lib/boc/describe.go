// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boc

import (
	"github.com/bureau-foundation/cellcodec/lib/cell"
)

// Node is one cell of a described tree. Refs are indices into the
// same node list, which is in serialization order.
type Node struct {
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Bits  int    `json:"bits"`
	Data  string `json:"data"`
	Level int    `json:"level"`
	Hash  string `json:"hash"`
	Depth uint16 `json:"depth"`
	Refs  []int  `json:"refs,omitempty"`
}

// Summary aggregates a described tree.
type Summary struct {
	Roots    []string       `json:"roots"`
	Cells    int            `json:"cells"`
	MaxLevel int            `json:"max_level"`
	MaxDepth uint16         `json:"max_depth"`
	Kinds    map[string]int `json:"kinds"`
}

// Describe lists the distinct cells under roots in the order
// Serialize would write them.
func Describe(roots []*cell.Cell) ([]Node, Summary) {
	order, index := topologicalOrder(roots)
	summary := Summary{Cells: len(order), Kinds: make(map[string]int)}
	for _, root := range roots {
		summary.Roots = append(summary.Roots, root.Hash(0).String())
		summary.MaxDepth = max(summary.MaxDepth, root.Depth(0))
	}

	nodes := make([]Node, len(order))
	for i, c := range order {
		node := Node{
			Index: i,
			Kind:  c.Kind().String(),
			Bits:  c.BitLen(),
			Data:  c.Data().Hex(),
			Level: c.Level(),
			Hash:  c.RepresentationHash().String(),
			Depth: c.Depth(cell.MaxLevel),
		}
		for r := 0; r < c.RefCount(); r++ {
			node.Refs = append(node.Refs, index[c.Ref(r).RepresentationHash()])
		}
		nodes[i] = node
		summary.Kinds[node.Kind]++
		summary.MaxLevel = max(summary.MaxLevel, c.Level())
	}
	return nodes, summary
}
