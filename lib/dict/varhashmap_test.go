// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dict

import (
	"errors"
	"testing"

	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/tlb"
)

// varCell assembles one VarHashmap node: an edge label for m key bits,
// the node tag bits, then the given references and value bits.
func varCell(t *testing.T, label string, m int, tag string, refs []*cell.Cell, tail string) *cell.Cell {
	t.Helper()
	b := cell.NewBuilder()
	if err := StoreLabel(b, cell.MustParseBitString(label), m); err != nil {
		t.Fatalf("StoreLabel: %v", err)
	}
	b.StoreBits(cell.MustParseBitString(tag))
	for _, r := range refs {
		b.StoreRef(r)
	}
	b.StoreBits(cell.MustParseBitString(tail))
	c, err := b.EndCell()
	if err != nil {
		t.Fatalf("EndCell: %v", err)
	}
	return c
}

// sampleVariable holds
//
//	"1"   -> 0x01
//	"10"  -> 0x02
//	"11"  -> 0x03
//	"0"   -> 0x04
//	"01"  -> 0x05
func sampleVariable(t *testing.T) Variable {
	const m = 4
	leaf10 := varCell(t, "", m-2, "00", nil, "00000010")
	leaf11 := varCell(t, "", m-2, "00", nil, "00000011")
	fork1 := varCell(t, "", m-1, "01", []*cell.Cell{leaf10, leaf11}, "1"+"00000001")

	leaf01 := varCell(t, "", m-2, "00", nil, "00000101")
	cont0 := varCell(t, "", m-1, "1"+"1", []*cell.Cell{leaf01}, "00000100")

	root := varCell(t, "", m, "01", []*cell.Cell{cont0, fork1}, "0")
	return Variable{Root: root, MaxKeyBits: m}
}

func TestVariableLookup(t *testing.T) {
	v := sampleVariable(t)
	tests := []struct {
		key   string
		value uint64
		found bool
	}{
		{"1", 1, true},
		{"10", 2, true},
		{"11", 3, true},
		{"0", 4, true},
		{"01", 5, true},
		{"", 0, false},
		{"00", 0, false},
		{"100", 0, false},
	}
	for _, tt := range tests {
		value, ok, err := v.Lookup(cell.MustParseBitString(tt.key))
		if err != nil {
			t.Fatalf("Lookup(%q): %v", tt.key, err)
		}
		if ok != tt.found {
			t.Errorf("Lookup(%q) found = %v, want %v", tt.key, ok, tt.found)
			continue
		}
		if ok {
			got, err := value.PrefetchUint(8)
			if err != nil || got != tt.value {
				t.Errorf("Lookup(%q) = %d, %v; want %d", tt.key, got, err, tt.value)
			}
		}
	}
}

func TestVariableAll(t *testing.T) {
	var keys []string
	for e, err := range sampleVariable(t).All() {
		if err != nil {
			t.Fatalf("All: %v", err)
		}
		keys = append(keys, e.Key.String())
	}
	want := []string{"0", "01", "1", "10", "11"}
	if len(keys) != len(want) {
		t.Fatalf("All = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("All = %v, want %v", keys, want)
		}
	}
}

func TestVariableValidate(t *testing.T) {
	v := sampleVariable(t)
	if err := v.ValidateSkip(tlb.Unlimited(), tlb.UInt(8), false); err != nil {
		t.Errorf("ValidateSkip: %v", err)
	}
	if err := v.ValidateSkip(tlb.NewBudget(4), tlb.UInt(8), false); !errors.Is(err, cell.ErrBudgetExceeded) {
		t.Errorf("ValidateSkip with budget 4: got %v, want ErrBudgetExceeded", err)
	}

	// A continuation at a node with no key bits left.
	leaf := varCell(t, "", 0, "00", nil, "00000001")
	bad := Variable{Root: varCell(t, "", 0, "11", []*cell.Cell{leaf}, "00000001"), MaxKeyBits: 0}
	if err := bad.ValidateSkip(tlb.Unlimited(), nil, false); !errors.Is(err, cell.ErrConstraintViolation) {
		t.Errorf("ValidateSkip: got %v, want ErrConstraintViolation", err)
	}

	typ := VarHashmapEType(4, tlb.UInt(8))
	b := cell.NewBuilder()
	if err := typ.Pack(b, v); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	c, _ := b.EndCell()
	if err := tlb.Validate(typ, tlb.Unlimited(), c.BeginParse(), false); err != nil {
		t.Errorf("Validate VarHashmapE: %v", err)
	}
}
