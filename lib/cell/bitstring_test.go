// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cell

import "testing"

func TestBitStringHex(t *testing.T) {
	tests := []struct {
		bits string
		want string
	}{
		{"", ""},
		{"1010", "A"},
		{"10100001", "A1"},
		{"1", "C_"},
		{"0", "4_"},
		{"101", "B_"},
		{"11110", "F4_"},
	}
	for _, tt := range tests {
		t.Run(tt.bits, func(t *testing.T) {
			b := MustParseBitString(tt.bits)
			if got := b.Hex(); got != tt.want {
				t.Errorf("Hex(%s) = %q, want %q", tt.bits, got, tt.want)
			}
			back, err := ParseHexBitString(tt.want)
			if err != nil {
				t.Fatalf("ParseHexBitString(%q): %v", tt.want, err)
			}
			if !back.Equal(b) {
				t.Errorf("ParseHexBitString(%q) = %s, want %s", tt.want, back, tt.bits)
			}
		})
	}
}

func TestBitStringOperations(t *testing.T) {
	a := MustParseBitString("1100_1010_11")
	if a.Len() != 10 {
		t.Fatalf("Len = %d, want 10", a.Len())
	}
	if got := a.Sub(2, 7).String(); got != "00101" {
		t.Errorf("Sub(2,7) = %s, want 00101", got)
	}
	if got := a.Append(MustParseBitString("01")).String(); got != "110010101101" {
		t.Errorf("Append = %s", got)
	}
	if got := a.AppendBit(true).String(); got != "11001010111" {
		t.Errorf("AppendBit = %s", got)
	}
	if got := CommonPrefix(a, MustParseBitString("1100_1011")); got != 7 {
		t.Errorf("CommonPrefix = %d, want 7", got)
	}
	if got := BitStringFromUint(5, 4).String(); got != "0101" {
		t.Errorf("BitStringFromUint(5,4) = %s, want 0101", got)
	}
	if got := MustParseBitString("0101").Uint(); got != 5 {
		t.Errorf("Uint = %d, want 5", got)
	}
	if !MustParseBitString("111").AllSame() || MustParseBitString("110").AllSame() {
		t.Error("AllSame misreports")
	}
}

func TestBitStringCompare(t *testing.T) {
	ordered := []string{"", "0", "00", "01", "1", "10", "11"}
	for i := range ordered {
		for j := range ordered {
			a, b := MustParseBitString(ordered[i]), MustParseBitString(ordered[j])
			got := a.Compare(b)
			want := 0
			if i < j {
				want = -1
			} else if i > j {
				want = 1
			}
			if got != want {
				t.Errorf("Compare(%q, %q) = %d, want %d", ordered[i], ordered[j], got, want)
			}
		}
	}
}

func TestParseBitStringRejectsOtherCharacters(t *testing.T) {
	if _, err := ParseBitString("0102"); err == nil {
		t.Error("ParseBitString accepted '2'")
	}
}

func TestLevelMask(t *testing.T) {
	tests := []struct {
		mask      LevelMask
		level     int
		hashCount int
	}{
		{0, 0, 1},
		{1, 1, 2},
		{2, 2, 2},
		{3, 2, 3},
		{4, 3, 2},
		{7, 3, 4},
	}
	for _, tt := range tests {
		if got := tt.mask.Level(); got != tt.level {
			t.Errorf("mask %03b Level = %d, want %d", tt.mask, got, tt.level)
		}
		if got := tt.mask.HashCount(); got != tt.hashCount {
			t.Errorf("mask %03b HashCount = %d, want %d", tt.mask, got, tt.hashCount)
		}
	}
	if got := LevelMask(7).Apply(2); got != 3 {
		t.Errorf("Apply(2) = %03b, want 011", got)
	}
	if !LevelMask(2).IsSignificant(2) || LevelMask(2).IsSignificant(1) {
		t.Error("IsSignificant misreports for mask 010")
	}
	if OneLevel(3) != 4 || OneLevel(0) != 0 {
		t.Error("OneLevel misreports")
	}
}
