// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
)

type sampleHeader struct {
	Version  int      `cbor:"version"`
	Checksum [32]byte `cbor:"checksum"`
	Roots    []uint64 `cbor:"roots,omitempty"`
}

type sampleDump struct {
	Kind string `json:"kind"`
	Bits int    `json:"bits"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleHeader{Version: 1, Roots: []uint64{3, 1}}
	original.Checksum[0] = 0xAB
	original.Checksum[31] = 0xCD

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded sampleHeader
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Version != original.Version || decoded.Checksum != original.Checksum {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
	if len(decoded.Roots) != 2 || decoded.Roots[0] != 3 || decoded.Roots[1] != 1 {
		t.Errorf("roots = %v, want [3 1]", decoded.Roots)
	}
}

func TestByteArrayEncodesAsByteString(t *testing.T) {
	var hash [32]byte
	data, err := Marshal(hash)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// Major type 2 with a one-byte length: 0x58 0x20.
	if len(data) != 34 || data[0] != 0x58 || data[1] != 0x20 {
		t.Errorf("[32]byte encoded as %x, want a 32-byte byte string", data)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	value := map[string]any{"zeta": 1, "alpha": 2, "mid": []int{1, 2}}
	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(value)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding violated: %x != %x", first, again)
		}
	}
}

func TestUnmarshalFirstLeavesRest(t *testing.T) {
	header, err := Marshal(sampleHeader{Version: 2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	body := []byte{0xB5, 0xEE, 0x9C, 0x72}
	var decoded sampleHeader
	rest, err := UnmarshalFirst(append(header, body...), &decoded)
	if err != nil {
		t.Fatalf("UnmarshalFirst: %v", err)
	}
	if decoded.Version != 2 {
		t.Errorf("Version = %d, want 2", decoded.Version)
	}
	if !bytes.Equal(rest, body) {
		t.Errorf("rest = %x, want %x", rest, body)
	}

	if err := Unmarshal(append(header, body...), &decoded); err == nil {
		t.Error("Unmarshal accepted trailing bytes")
	}
}

func TestJSONTagFallback(t *testing.T) {
	data, err := Marshal(sampleDump{Kind: "pruned", Bits: 288})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"kind"`) || !strings.Contains(notation, `"pruned"`) {
		t.Errorf("notation %q does not use the json tag name", notation)
	}

	var generic any
	if err := Unmarshal(data, &generic); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := generic.(map[string]any); !ok {
		t.Errorf("generic decode produced %T, want map[string]any", generic)
	}
}

func TestEncoderDecoderStream(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for i := range 3 {
		if err := encoder.Encode(sampleDump{Kind: "ordinary", Bits: i}); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}
	decoder := NewDecoder(&buffer)
	for i := range 3 {
		var got sampleDump
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode %d: %v", i, err)
		}
		if got.Bits != i {
			t.Errorf("item %d has Bits %d", i, got.Bits)
		}
	}
}

func TestUnmarshalRejectsDuplicateKeys(t *testing.T) {
	// {"a": 1, "a": 2}
	data := []byte{0xA2, 0x61, 'a', 0x01, 0x61, 'a', 0x02}
	var decoded map[string]int
	if err := Unmarshal(data, &decoded); err == nil {
		t.Error("Unmarshal accepted a map with duplicate keys")
	}
}
