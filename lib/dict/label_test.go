// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dict

import (
	"errors"
	"testing"

	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/testutil"
)

func TestLabelEncodingIsMinimal(t *testing.T) {
	for m := 0; m <= 12; m++ {
		for n := 0; n <= m; n++ {
			for v := uint64(0); v < 1<<n; v++ {
				label := cell.BitStringFromUint(v, n)

				b := cell.NewBuilder()
				if err := StoreLabel(b, label, m); err != nil {
					t.Fatalf("StoreLabel(%s, %d): %v", label, m, err)
				}
				best := min(LabelCost(LabelShort, n, m), LabelCost(LabelLong, n, m))
				if label.AllSame() {
					best = min(best, LabelCost(LabelSame, n, m))
				}
				if b.BitLen() != best {
					t.Fatalf("label %q with m=%d: %d bits (%s), minimum is %d",
						label, m, b.BitLen(), ChooseLabel(label, m), best)
				}
				if got := LabelCost(ChooseLabel(label, m), n, m); got != b.BitLen() {
					t.Fatalf("label %q with m=%d: LabelCost says %d, encoded %d", label, m, got, b.BitLen())
				}

				c, err := b.EndCell()
				if err != nil {
					t.Fatalf("EndCell: %v", err)
				}
				s := c.BeginParse()
				got, err := LoadLabel(&s, m)
				if err != nil {
					t.Fatalf("LoadLabel(%s, %d): %v", label, m, err)
				}
				if !got.Equal(label) || !s.IsEmpty() {
					t.Fatalf("LoadLabel = %q with %d bits left, want %q", got, s.BitsLeft(), label)
				}
			}
		}
	}
}

func TestLabelForms(t *testing.T) {
	tests := []struct {
		label string
		m     int
		want  LabelForm
		bits  string
	}{
		{"", 0, LabelShort, "00"},
		{"1", 1, LabelShort, "0101"},
		{"0000000", 7, LabelSame, "11" + "0" + "111"},
		{"1111", 8, LabelSame, "11" + "1" + "0100"},
		{"0110101", 7, LabelLong, "10" + "111" + "0110101"},
		{"01", 7, LabelShort, "0" + "110" + "01"},
	}
	for _, tt := range tests {
		label := testutil.Bits(t, tt.label)
		if got := ChooseLabel(label, tt.m); got != tt.want {
			t.Errorf("ChooseLabel(%q, %d) = %s, want %s", tt.label, tt.m, got, tt.want)
		}
		b := cell.NewBuilder()
		if err := StoreLabel(b, label, tt.m); err != nil {
			t.Fatalf("StoreLabel: %v", err)
		}
		if got := b.Bits().String(); got != tt.bits {
			t.Errorf("StoreLabel(%q, %d) = %s, want %s", tt.label, tt.m, got, tt.bits)
		}
	}
}

func TestLoadLabelRejectsOverlongLabels(t *testing.T) {
	// hml_long with n = 5 where only 3 key bits remain.
	b := cell.NewBuilder()
	b.StoreUint(0b10, 2)
	b.StoreUint(5, 3)
	b.StoreUint(0, 5)
	c, _ := b.EndCell()
	s := c.BeginParse()
	if _, err := LoadLabel(&s, 4); !errors.Is(err, cell.ErrConstraintViolation) {
		t.Errorf("long label: got %v, want ErrConstraintViolation", err)
	}

	// hml_short with unary 3 where m = 2.
	b = cell.NewBuilder()
	b.StoreUint(0b01110, 5)
	b.StoreUint(0, 3)
	c, _ = b.EndCell()
	s = c.BeginParse()
	if _, err := LoadLabel(&s, 2); !errors.Is(err, cell.ErrConstraintViolation) {
		t.Errorf("short label: got %v, want ErrConstraintViolation", err)
	}
	if s.BitOffset() != 0 {
		t.Error("failed LoadLabel moved the slice")
	}

	if err := StoreLabel(cell.NewBuilder(), cell.MustParseBitString("111"), 2); !errors.Is(err, cell.ErrConstraintViolation) {
		t.Errorf("StoreLabel of 3 bits with m=2: got %v, want ErrConstraintViolation", err)
	}
}
