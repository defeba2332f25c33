// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tlb

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bureau-foundation/cellcodec/lib/cell"
)

func TestValidateAll(t *testing.T) {
	var roots []*cell.Cell
	for _, record := range sampleMessages() {
		roots = append(roots, packToCell(t, testMessage, record))
	}
	err := ValidateAll(context.Background(), testMessage, roots, ValidateOptions{Workers: 3})
	if err != nil {
		t.Fatalf("ValidateAll: %v", err)
	}

	// Replace root 2 with a cell carrying a trailing bit.
	b := cell.NewBuilder()
	b.StoreUint(0b11, 2)
	b.StoreBit(true)
	bad, _ := b.EndCell()
	roots[2] = bad

	err = ValidateAll(context.Background(), testMessage, roots, ValidateOptions{Workers: 2})
	if !errors.Is(err, cell.ErrConstraintViolation) {
		t.Fatalf("ValidateAll: got %v, want ErrConstraintViolation", err)
	}
	if !strings.Contains(err.Error(), "root 2:") {
		t.Errorf("error %q does not name root 2", err)
	}
	if strings.Contains(err.Error(), "root 0:") {
		t.Errorf("error %q blames a valid root", err)
	}
	var rootErr *RootError
	if !errors.As(err, &rootErr) || rootErr.Index != 2 {
		t.Errorf("errors.As(*RootError) = %+v, want index 2", rootErr)
	}
}

func TestValidateAllBudgetPerRoot(t *testing.T) {
	typ := BinTree(UInt(4))
	node := &BinTreeNode{Leaf: uint64(0)}
	for i := 0; i < 8; i++ {
		node = &BinTreeNode{Left: &BinTreeNode{Leaf: uint64(i)}, Right: node}
	}
	deep := packToCell(t, typ, node)
	shallow := packToCell(t, typ, &BinTreeNode{Leaf: uint64(3)})

	roots := []*cell.Cell{shallow, deep, shallow}
	err := ValidateAll(context.Background(), typ, roots, ValidateOptions{OpsPerRoot: 5})
	if !errors.Is(err, cell.ErrBudgetExceeded) {
		t.Fatalf("ValidateAll: got %v, want ErrBudgetExceeded", err)
	}
	if !strings.Contains(err.Error(), "root 1:") || strings.Contains(err.Error(), "root 0:") {
		t.Errorf("error %q should blame only root 1", err)
	}
}

func TestValidateAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	roots := []*cell.Cell{packToCell(t, UInt(8), uint64(1))}

	err := ValidateAll(ctx, UInt(8), roots, ValidateOptions{Workers: 1})
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("ValidateAll: got %v, want nil or context.Canceled", err)
	}
}
