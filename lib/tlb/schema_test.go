// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tlb

import (
	"errors"
	"math/big"
	"testing"

	"github.com/bureau-foundation/cellcodec/lib/cell"
)

// testMessage exercises dependent widths, flag-conditional fields,
// field constraints and references:
//
//	msg_data$0 flags:(## 2) { flags <= 2 } len:(#<= 30) payload:(bits len)
//	  extra:flags.0?(## 16) amount:Grams = Message;
//	msg_nested$10 count:(#< 5) inner:(Maybe ^(## 32)) = Message;
//	msg_empty$11 = Message;
var testMessage = MustSchema("Message",
	Constructor{Name: "msg_data", Tag: 0b0, TagLen: 1, Fields: []Field{
		{Name: "flags", Type: Nat(2), Check: AtMost(2)},
		{Name: "len", Type: NatLeq(30)},
		{Name: "payload", TypeOf: WidthFrom("len", func(n uint64) Type { return Bits(int(n)) })},
		{Name: "extra", Type: Nat(16), When: FlagSet("flags", 0)},
		{Name: "amount", Type: Grams},
	}},
	Constructor{Name: "msg_nested", Tag: 0b10, TagLen: 2, Fields: []Field{
		{Name: "count", Type: NatLess(5)},
		{Name: "inner", Type: Maybe(Ref(Nat(32)))},
	}},
	Constructor{Name: "msg_empty", Tag: 0b11, TagLen: 2},
)

func sampleMessages() []Record {
	return []Record{
		{Constructor: "msg_data", Fields: []FieldValue{
			{"flags", uint64(1)},
			{"len", uint64(5)},
			{"payload", cell.MustParseBitString("10011")},
			{"extra", uint64(0xBEEF)},
			{"amount", big.NewInt(1_000_000)},
		}},
		{Constructor: "msg_data", Fields: []FieldValue{
			{"flags", uint64(2)},
			{"len", uint64(0)},
			{"payload", cell.BitString{}},
			{"extra", nil},
			{"amount", big.NewInt(0)},
		}},
		{Constructor: "msg_nested", Fields: []FieldValue{
			{"count", uint64(4)},
			{"inner", uint64(123456)},
		}},
		{Constructor: "msg_nested", Fields: []FieldValue{
			{"count", uint64(0)},
			{"inner", nil},
		}},
		{Constructor: "msg_empty", Fields: []FieldValue{}},
	}
}

func TestSchemaRoundTrip(t *testing.T) {
	for _, record := range sampleMessages() {
		t.Run(record.Constructor, func(t *testing.T) {
			c := packToCell(t, testMessage, record)

			s := c.BeginParse()
			got, err := testMessage.UnpackRecord(&s)
			if err != nil {
				t.Fatalf("UnpackRecord: %v", err)
			}
			if !valuesEqual(got, record) {
				t.Errorf("UnpackRecord = %+v, want %+v", got, record)
			}
			if !s.IsEmpty() {
				t.Errorf("%d bits left after UnpackRecord", s.BitsLeft())
			}

			again := packToCell(t, testMessage, got)
			if !again.Equal(c) {
				t.Errorf("re-encoding the decoded record changed the cell")
			}

			if err := Validate(testMessage, Unlimited(), c.BeginParse(), false); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestSchemaSkipMatchesUnpack(t *testing.T) {
	for _, record := range sampleMessages() {
		b := cell.NewBuilder()
		if err := testMessage.Pack(b, record); err != nil {
			t.Fatalf("Pack: %v", err)
		}
		// Trailing data must be left in place by both.
		b.StoreUint(0x5A, 8)
		c, err := b.EndCell()
		if err != nil {
			t.Fatalf("EndCell: %v", err)
		}

		unpacked := c.BeginParse()
		if _, err := testMessage.Unpack(&unpacked); err != nil {
			t.Fatalf("%s: Unpack: %v", record.Constructor, err)
		}
		skipped := c.BeginParse()
		if err := testMessage.Skip(&skipped); err != nil {
			t.Fatalf("%s: Skip: %v", record.Constructor, err)
		}
		validated := c.BeginParse()
		if err := testMessage.ValidateSkip(Unlimited(), &validated, false); err != nil {
			t.Fatalf("%s: ValidateSkip: %v", record.Constructor, err)
		}
		if skipped != unpacked || validated != unpacked {
			t.Errorf("%s: offsets differ: unpack %d, skip %d, validate %d",
				record.Constructor, unpacked.BitOffset(), skipped.BitOffset(), validated.BitOffset())
		}
		if rest, _ := unpacked.FetchUint(8); rest != 0x5A {
			t.Errorf("%s: trailing byte = %#x, want 0x5a", record.Constructor, rest)
		}
	}
}

func TestSchemaTagMatchesConstructor(t *testing.T) {
	want := map[string]int{"msg_data": 0, "msg_nested": 1, "msg_empty": 2}
	for _, record := range sampleMessages() {
		c := packToCell(t, testMessage, record)
		got, err := testMessage.Tag(c.BeginParse())
		if err != nil {
			t.Fatalf("%s: Tag: %v", record.Constructor, err)
		}
		if got != want[record.Constructor] {
			t.Errorf("%s: Tag = %d, want %d", record.Constructor, got, want[record.Constructor])
		}
		if !testMessage.CheckTag(c.BeginParse()) {
			t.Errorf("%s: CheckTag = false", record.Constructor)
		}
	}
}

func TestSchemaTruncatedInput(t *testing.T) {
	for _, record := range sampleMessages() {
		full := packToCell(t, testMessage, record)
		for k := 0; k < full.BitLen(); k++ {
			b := cell.NewBuilder()
			b.StoreBits(full.Data().Sub(0, k))
			for i := 0; i < full.RefCount(); i++ {
				b.StoreRef(full.Ref(i))
			}
			prefix, err := b.EndCell()
			if err != nil {
				t.Fatalf("EndCell: %v", err)
			}
			s := prefix.BeginParse()
			if _, err := testMessage.Unpack(&s); !errors.Is(err, cell.ErrTruncated) {
				t.Errorf("%s cut to %d of %d bits: got %v, want ErrTruncated",
					record.Constructor, k, full.BitLen(), err)
			}
			if s.BitOffset() != 0 {
				t.Errorf("%s cut to %d bits: failed Unpack moved the slice", record.Constructor, k)
			}
		}
	}
}

func TestSchemaConstraintViolation(t *testing.T) {
	// msg_data with flags = 3.
	b := cell.NewBuilder()
	b.StoreUint(0, 1)
	b.StoreUint(3, 2)
	b.StoreUint(0, 5)
	b.StoreUint(0, 4)
	c, _ := b.EndCell()

	s := c.BeginParse()
	if _, err := testMessage.Unpack(&s); !errors.Is(err, cell.ErrConstraintViolation) {
		t.Errorf("Unpack flags=3: got %v, want ErrConstraintViolation", err)
	}
	if err := Validate(testMessage, Unlimited(), c.BeginParse(), false); !errors.Is(err, cell.ErrConstraintViolation) {
		t.Errorf("Validate flags=3: got %v, want ErrConstraintViolation", err)
	}

	record := sampleMessages()[0]
	record.Fields[0].Value = uint64(3)
	if err := testMessage.Pack(cell.NewBuilder(), record); !errors.Is(err, cell.ErrConstraintViolation) {
		t.Errorf("Pack flags=3: got %v, want ErrConstraintViolation", err)
	}

	// len = 31 breaks (#<= 30).
	b = cell.NewBuilder()
	b.StoreUint(0, 1)
	b.StoreUint(0, 2)
	b.StoreUint(31, 5)
	b.StoreZeroes(31 + 4)
	c, _ = b.EndCell()
	s = c.BeginParse()
	if _, err := testMessage.Unpack(&s); !errors.Is(err, cell.ErrConstraintViolation) {
		t.Errorf("Unpack len=31: got %v, want ErrConstraintViolation", err)
	}
}

func TestSchemaPackFailureLeavesBuilder(t *testing.T) {
	b := cell.NewBuilder()
	b.StoreUint(0x5, 3)

	record := sampleMessages()[0]
	record.Fields[4].Value = "not an amount"
	if err := testMessage.Pack(b, record); err == nil {
		t.Fatal("Pack with a bad amount succeeded")
	}
	if b.BitLen() != 3 || b.RefCount() != 0 {
		t.Fatalf("builder holds %d bits and %d refs after a failed Pack, want 3 and 0", b.BitLen(), b.RefCount())
	}

	if err := testMessage.Pack(b, sampleMessages()[2]); err != nil {
		t.Fatalf("Pack after failure: %v", err)
	}
	if b.RefCount() != 1 {
		t.Errorf("RefCount = %d, want 1", b.RefCount())
	}
}

func TestSchemaUnknownTagPattern(t *testing.T) {
	sparse := MustSchema("Sparse",
		Constructor{Name: "a", Tag: 0b00, TagLen: 2},
		Constructor{Name: "b", Tag: 0b01, TagLen: 2},
		Constructor{Name: "c", Tag: 0b10, TagLen: 2},
	)
	b := cell.NewBuilder()
	b.StoreUint(0b11, 2)
	c, _ := b.EndCell()

	if _, err := sparse.Tag(c.BeginParse()); !errors.Is(err, cell.ErrSchemaMismatch) {
		t.Errorf("Tag(11): got %v, want ErrSchemaMismatch", err)
	}
	if sparse.CheckTag(c.BeginParse()) {
		t.Error("CheckTag(11) = true")
	}

	b = cell.NewBuilder()
	b.StoreUint(1, 1)
	short, _ := b.EndCell()
	if _, err := sparse.Tag(short.BeginParse()); !errors.Is(err, cell.ErrTruncated) {
		t.Errorf("Tag(1): got %v, want ErrTruncated", err)
	}
}

func TestSchemaWideTags(t *testing.T) {
	wide := MustSchema("Wide",
		Constructor{Name: "beef", Tag: 0xDEADBEEF, TagLen: 32, Fields: []Field{{Name: "v", Type: Nat(8)}}},
		Constructor{Name: "babe", Tag: 0xCAFEBABE, TagLen: 32},
	)
	record := Record{Constructor: "beef", Fields: []FieldValue{{"v", uint64(9)}}}
	c := packToCell(t, wide, record)
	s := c.BeginParse()
	got, err := wide.Unpack(&s)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if !valuesEqual(got, record) {
		t.Errorf("Unpack = %+v, want %+v", got, record)
	}

	b := cell.NewBuilder()
	b.StoreUint(0x12345678, 32)
	other, _ := b.EndCell()
	if _, err := wide.Tag(other.BeginParse()); !errors.Is(err, cell.ErrSchemaMismatch) {
		t.Errorf("Tag(0x12345678): got %v, want ErrSchemaMismatch", err)
	}
}

func TestNewSchemaRejectsAmbiguousTags(t *testing.T) {
	_, err := NewSchema("Ambiguous",
		Constructor{Name: "short", Tag: 0b1, TagLen: 1},
		Constructor{Name: "long", Tag: 0b10, TagLen: 2},
	)
	if err == nil {
		t.Error("tags 1 and 10 accepted")
	}
	_, err = NewSchema("Duplicate",
		Constructor{Name: "x", Tag: 0, TagLen: 1},
		Constructor{Name: "x", Tag: 1, TagLen: 1},
	)
	if err == nil {
		t.Error("duplicate constructor names accepted")
	}
}
