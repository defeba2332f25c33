// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package merkle

import (
	"errors"
	"testing"

	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/dict"
	"github.com/bureau-foundation/cellcodec/lib/tlb"
)

// sampleDictionary holds count 16-bit keys 0, 7, 14, ... each mapped
// to a value that references a 64-bit payload cell, which in turn
// references a shared trailer.
func sampleDictionary(t *testing.T, count int) dict.Dictionary {
	t.Helper()
	trailer := cell.NewBuilder()
	trailer.StoreUint(0xDEADBEEF, 32)
	trailerCell, err := trailer.EndCell()
	if err != nil {
		t.Fatalf("EndCell: %v", err)
	}
	var entries []dict.Entry
	for i := 0; i < count; i++ {
		payload := cell.NewBuilder()
		payload.StoreUint(uint64(i)*0x0101010101, 64)
		payload.StoreRef(trailerCell)
		payloadCell, err := payload.EndCell()
		if err != nil {
			t.Fatalf("EndCell: %v", err)
		}
		value := cell.NewBuilder()
		value.StoreUint(uint64(i), 16)
		value.StoreRef(payloadCell)
		valueCell, err := value.EndCell()
		if err != nil {
			t.Fatalf("EndCell: %v", err)
		}
		entries = append(entries, dict.Entry{
			Key:   cell.BitStringFromUint(uint64(i*7), 16),
			Value: valueCell.BeginParse(),
		})
	}
	d, err := dict.Build(16, entries)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return d
}

func proveKey(t *testing.T, d dict.Dictionary, key cell.BitString) *cell.Cell {
	t.Helper()
	path, err := d.Trace(key)
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	proof, err := ProveCells(d.Root, path)
	if err != nil {
		t.Fatalf("ProveCells: %v", err)
	}
	return proof
}

func TestProveDictionaryLookup(t *testing.T) {
	d := sampleDictionary(t, 64)
	key := cell.BitStringFromUint(21*7, 16)
	proof := proveKey(t, d, key)

	disclosed, err := Verify(proof, d.Root.Hash(0))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if disclosed.Hash(0) != d.Root.Hash(0) || disclosed.Depth(0) != d.Root.Depth(0) {
		t.Error("disclosed tree does not hash like the full tree")
	}
	if disclosed.Level() != 1 {
		t.Errorf("disclosed tree level = %d, want 1", disclosed.Level())
	}

	partial := dict.Dictionary{Root: disclosed, KeyBits: 16}
	value, ok, err := partial.Lookup(key)
	if err != nil || !ok {
		t.Fatalf("Lookup in proof = %v, %v", ok, err)
	}
	if n, _ := value.PrefetchUint(16); n != 21 {
		t.Errorf("proved value = %d, want 21", n)
	}
	payload, err := value.PrefetchRef(0)
	if err != nil {
		t.Fatalf("PrefetchRef: %v", err)
	}
	if payload.Kind() != cell.PrunedBranch {
		t.Errorf("value payload is %s, want it pruned", payload.Kind())
	}

	if err := partial.ValidateSkip(tlb.Unlimited(), nil, true); err != nil {
		t.Errorf("weak ValidateSkip of the proof: %v", err)
	}
	if err := partial.ValidateSkip(tlb.Unlimited(), nil, false); !errors.Is(err, cell.ErrConstraintViolation) {
		t.Errorf("strict ValidateSkip of the proof: got %v, want ErrConstraintViolation", err)
	}
	if _, _, err := partial.Lookup(cell.BitStringFromUint(50*7, 16)); !errors.Is(err, cell.ErrConstraintViolation) {
		t.Errorf("Lookup of an undisclosed key: got %v, want ErrConstraintViolation", err)
	}
}

func TestProofOfAbsence(t *testing.T) {
	d := sampleDictionary(t, 32)
	missing := cell.BitStringFromUint(3, 16)
	proof := proveKey(t, d, missing)
	disclosed, err := Verify(proof, d.Root.Hash(0))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	_, ok, err := dict.Dictionary{Root: disclosed, KeyBits: 16}.Lookup(missing)
	if err != nil || ok {
		t.Errorf("Lookup of a missing key in its proof = %v, %v; want absent", ok, err)
	}
}

func TestVerifyRejects(t *testing.T) {
	d := sampleDictionary(t, 8)
	proof := proveKey(t, d, cell.BitStringFromUint(0, 16))

	var wrong cell.Hash
	wrong[0] = 1
	if _, err := Verify(proof, wrong); !errors.Is(err, cell.ErrProofInvalid) {
		t.Errorf("Verify with wrong expected hash: got %v, want ErrProofInvalid", err)
	}
	if _, err := Verify(d.Root, cell.Hash{}); !errors.Is(err, cell.ErrProofInvalid) {
		t.Errorf("Verify of an ordinary cell: got %v, want ErrProofInvalid", err)
	}
	if _, err := Verify(proof, cell.Hash{}); err != nil {
		t.Errorf("Verify without expected hash: %v", err)
	}
}

// replace rebuilds root with every occurrence of target swapped for
// replacement.
func replace(t *testing.T, root, target, replacement *cell.Cell) *cell.Cell {
	t.Helper()
	if root.Equal(target) {
		return replacement
	}
	refs := make([]*cell.Cell, root.RefCount())
	for i := range refs {
		refs[i] = replace(t, root.Ref(i), target, replacement)
	}
	out, err := root.Rebuild(refs)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return out
}

func collectCells(c *cell.Cell, out map[cell.Hash]*cell.Cell) {
	out[c.RepresentationHash()] = c
	for i := 0; i < c.RefCount(); i++ {
		collectCells(c.Ref(i), out)
	}
}

func TestProofSoundness(t *testing.T) {
	d := sampleDictionary(t, 6)
	proof := proveKey(t, d, cell.BitStringFromUint(14, 16))
	env, err := Open(proof)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := env.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	cells := make(map[cell.Hash]*cell.Cell)
	collectCells(env.Root, cells)
	flips := 0
	for _, target := range cells {
		data := target.Data()
		for bit := 0; bit < data.Len(); bit++ {
			flipped := data.Sub(0, bit).AppendBit(!data.Bit(bit)).Append(data.Sub(bit+1, data.Len()))
			tampered, err := target.Rewrite(flipped)
			if err != nil {
				// Not even a well-formed cell.
				continue
			}
			forged := env
			forged.Root = replace(t, env.Root, target, tampered)
			if _, err := forged.Verify(); !errors.Is(err, cell.ErrProofInvalid) {
				t.Fatalf("flipping bit %d of %s: Verify = %v, want ErrProofInvalid", bit, target.Hash(0), err)
			}
			if _, err := forged.Seal(); !errors.Is(err, cell.ErrProofInvalid) {
				t.Fatalf("flipping bit %d: Seal = %v, want ErrProofInvalid", bit, err)
			}
			flips++
		}
	}
	if flips == 0 {
		t.Fatal("no bits flipped")
	}
}

func TestProveKeepsRootAndLeaves(t *testing.T) {
	b := cell.NewBuilder()
	b.StoreUint(1, 8)
	leaf, _ := b.EndCell()
	b = cell.NewBuilder()
	b.StoreRef(leaf)
	inner, _ := b.EndCell()
	b = cell.NewBuilder()
	b.StoreRef(inner)
	b.StoreRef(leaf)
	root, _ := b.EndCell()

	proof, err := Prove(root, func(*cell.Cell) bool { return false })
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	disclosed, err := Verify(proof, root.Hash(0))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if disclosed.Ref(0).Kind() != cell.PrunedBranch {
		t.Errorf("inner cell is %s, want pruned", disclosed.Ref(0).Kind())
	}
	if disclosed.Ref(1) != leaf {
		t.Error("leaf cell was not disclosed as is")
	}
}

func TestProofType(t *testing.T) {
	d := sampleDictionary(t, 16)
	proof := proveKey(t, d, cell.BitStringFromUint(35, 16))
	env, err := Open(proof)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	typ := tlb.Ref(ProofType(dict.HashmapEType(16, tlb.Anything)))
	b := cell.NewBuilder()
	// A proof over a HashmapE needs the 1-bit wrapper as its root.
	wrapper := cell.NewBuilder()
	dict.StoreHashmapE(wrapper, d)
	full, _ := wrapper.EndCell()
	wrapped, err := Prove(full, func(c *cell.Cell) bool { return c == d.Root })
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	wrappedEnv, err := Open(wrapped)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := typ.Pack(b, wrappedEnv); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	c, err := b.EndCell()
	if err != nil {
		t.Fatalf("EndCell: %v", err)
	}
	if c.Ref(0).Kind() != cell.MerkleProof {
		t.Fatalf("packed reference is %s, want a merkle proof", c.Ref(0).Kind())
	}
	if err := tlb.Validate(typ, tlb.Unlimited(), c.BeginParse(), false); err != nil {
		t.Errorf("Validate: %v", err)
	}
	s := c.BeginParse()
	v, err := typ.Unpack(&s)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if got := v.(Envelope); got.Hash != full.Hash(0) {
		t.Errorf("unpacked proof hash = %s, want %s", got.Hash, full.Hash(0))
	}

	// An envelope claiming a different hash cannot be sealed into a
	// cell at all.
	env.Hash[0] ^= 0xFF
	if _, err := tlb.PackCell(ProofType(tlb.Anything), env); !errors.Is(err, cell.ErrProofInvalid) {
		t.Errorf("PackCell of a forged envelope: got %v, want ErrProofInvalid", err)
	}
}
