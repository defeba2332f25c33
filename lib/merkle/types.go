// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package merkle

import (
	"fmt"

	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/tlb"
)

// HashUpdate is update_hashes#72 old_hash:bits256 new_hash:bits256,
// the record of a state transition by hashes alone.
type HashUpdate struct {
	Old cell.Hash
	New cell.Hash
}

var hashUpdateSchema = tlb.MustSchema("HASH_UPDATE",
	tlb.Constructor{Name: "update_hashes", Tag: 0x72, TagLen: 8, Fields: []tlb.Field{
		{Name: "old_hash", Type: tlb.Bits(256)},
		{Name: "new_hash", Type: tlb.Bits(256)},
	}},
)

// HashUpdateType is the schema type of [HashUpdate] values.
var HashUpdateType tlb.Type = hashUpdateType{}

type hashUpdateType struct{}

func (hashUpdateType) Tag(s cell.Slice) (int, error) { return hashUpdateSchema.Tag(s) }

func (hashUpdateType) CheckTag(s cell.Slice) bool { return hashUpdateSchema.CheckTag(s) }

func (hashUpdateType) Skip(s *cell.Slice) error { return hashUpdateSchema.Skip(s) }

func (hashUpdateType) ValidateSkip(budget *tlb.Budget, s *cell.Slice, weak bool) error {
	return hashUpdateSchema.ValidateSkip(budget, s, weak)
}

func (hashUpdateType) Unpack(s *cell.Slice) (any, error) {
	r, err := hashUpdateSchema.UnpackRecord(s)
	if err != nil {
		return nil, err
	}
	var out HashUpdate
	oldHash, _ := r.Get("old_hash")
	newHash, _ := r.Get("new_hash")
	copy(out.Old[:], oldHash.(cell.BitString).Bytes())
	copy(out.New[:], newHash.(cell.BitString).Bytes())
	return out, nil
}

func (hashUpdateType) Pack(b *cell.Builder, v any) error {
	u, ok := v.(HashUpdate)
	if !ok {
		return fmt.Errorf("HASH_UPDATE: cannot pack %T: %w", v, cell.ErrConstraintViolation)
	}
	return hashUpdateSchema.Pack(b, tlb.Record{Constructor: "update_hashes", Fields: []tlb.FieldValue{
		{Name: "old_hash", Value: cell.NewBitString(u.Old[:], 256)},
		{Name: "new_hash", Value: cell.NewBitString(u.New[:], 256)},
	}})
}

// ProofType is !merkle_proof#03 {X:Type} virtual_hash:bits256
// depth:uint16 virtual_root:^X = MERKLE_PROOF X, the content of a
// MerkleProof cell. Use it as tlb.Ref(ProofType(x)). Values are
// [Envelope]; the disclosed tree is validated weakly against x.
func ProofType(x tlb.Type) tlb.SpecialType {
	return proofType{x: x}
}

type proofType struct {
	x tlb.Type
}

func (proofType) SpecialKind() cell.Kind { return cell.MerkleProof }

func (proofType) Tag(s cell.Slice) (int, error) {
	v, err := s.PrefetchUint(8)
	if err != nil {
		return -1, err
	}
	if cell.Kind(v) != cell.MerkleProof {
		return -1, fmt.Errorf("tag %#x is not merkle_proof: %w", v, cell.ErrSchemaMismatch)
	}
	return 0, nil
}

func (t proofType) CheckTag(s cell.Slice) bool {
	_, err := t.Tag(s)
	return err == nil
}

func (proofType) Skip(s *cell.Slice) error {
	return s.Skip(8+256+16, 1)
}

func (t proofType) ValidateSkip(budget *tlb.Budget, s *cell.Slice, weak bool) error {
	probe := *s
	v, err := t.Unpack(&probe)
	if err != nil {
		return err
	}
	env := v.(Envelope)
	if _, err := env.Verify(); err != nil {
		return err
	}
	if err := tlb.ValidateRef(t.x, budget, env.Root, true); err != nil {
		return fmt.Errorf("merkle proof tree: %w", err)
	}
	*s = probe
	return nil
}

func (t proofType) Unpack(s *cell.Slice) (any, error) {
	probe := *s
	if _, err := t.Tag(probe); err != nil {
		return nil, err
	}
	if err := probe.Advance(8); err != nil {
		return nil, err
	}
	hash, err := probe.FetchBytes(32)
	if err != nil {
		return nil, err
	}
	depth, err := probe.FetchUint(16)
	if err != nil {
		return nil, err
	}
	root, err := probe.FetchRef()
	if err != nil {
		return nil, err
	}
	env := Envelope{Depth: uint16(depth), Root: root}
	copy(env.Hash[:], hash)
	*s = probe
	return env, nil
}

func (proofType) Pack(b *cell.Builder, v any) error {
	env, ok := v.(Envelope)
	if !ok {
		return fmt.Errorf("MERKLE_PROOF: cannot pack %T: %w", v, cell.ErrConstraintViolation)
	}
	if err := b.StoreUint(uint64(cell.MerkleProof), 8); err != nil {
		return err
	}
	if err := b.StoreBytes(env.Hash[:]); err != nil {
		return err
	}
	if err := b.StoreUint(uint64(env.Depth), 16); err != nil {
		return err
	}
	return b.StoreRef(env.Root)
}

// Update is the content of a MerkleUpdate cell taken apart.
type Update struct {
	Old, New           cell.Hash
	OldDepth, NewDepth uint16
	OldRoot, NewRoot   *cell.Cell
}

// UpdateType is !merkle_update#04 {X:Type} old_hash:bits256
// new_hash:bits256 old_depth:uint16 new_depth:uint16 old:^X new:^X =
// MERKLE_UPDATE X. Use it as tlb.Ref(UpdateType(x)). Values are
// [Update]; both sides are validated weakly against x.
func UpdateType(x tlb.Type) tlb.SpecialType {
	return updateType{x: x}
}

type updateType struct {
	x tlb.Type
}

func (updateType) SpecialKind() cell.Kind { return cell.MerkleUpdate }

func (updateType) Tag(s cell.Slice) (int, error) {
	v, err := s.PrefetchUint(8)
	if err != nil {
		return -1, err
	}
	if cell.Kind(v) != cell.MerkleUpdate {
		return -1, fmt.Errorf("tag %#x is not merkle_update: %w", v, cell.ErrSchemaMismatch)
	}
	return 0, nil
}

func (t updateType) CheckTag(s cell.Slice) bool {
	_, err := t.Tag(s)
	return err == nil
}

func (updateType) Skip(s *cell.Slice) error {
	return s.Skip(8+2*256+2*16, 2)
}

func (t updateType) ValidateSkip(budget *tlb.Budget, s *cell.Slice, weak bool) error {
	probe := *s
	v, err := t.Unpack(&probe)
	if err != nil {
		return err
	}
	u := v.(Update)
	sides := []Envelope{
		{Hash: u.Old, Depth: u.OldDepth, Root: u.OldRoot},
		{Hash: u.New, Depth: u.NewDepth, Root: u.NewRoot},
	}
	for i, side := range sides {
		if _, err := side.Verify(); err != nil {
			return fmt.Errorf("merkle update side %d: %w", i, err)
		}
		if err := tlb.ValidateRef(t.x, budget, side.Root, true); err != nil {
			return fmt.Errorf("merkle update side %d: %w", i, err)
		}
	}
	*s = probe
	return nil
}

func (t updateType) Unpack(s *cell.Slice) (any, error) {
	probe := *s
	if _, err := t.Tag(probe); err != nil {
		return nil, err
	}
	if err := probe.Advance(8); err != nil {
		return nil, err
	}
	var u Update
	for _, h := range []*cell.Hash{&u.Old, &u.New} {
		raw, err := probe.FetchBytes(32)
		if err != nil {
			return nil, err
		}
		copy(h[:], raw)
	}
	for _, d := range []*uint16{&u.OldDepth, &u.NewDepth} {
		v, err := probe.FetchUint(16)
		if err != nil {
			return nil, err
		}
		*d = uint16(v)
	}
	var err error
	if u.OldRoot, err = probe.FetchRef(); err != nil {
		return nil, err
	}
	if u.NewRoot, err = probe.FetchRef(); err != nil {
		return nil, err
	}
	*s = probe
	return u, nil
}

func (updateType) Pack(b *cell.Builder, v any) error {
	u, ok := v.(Update)
	if !ok {
		return fmt.Errorf("MERKLE_UPDATE: cannot pack %T: %w", v, cell.ErrConstraintViolation)
	}
	if err := b.StoreUint(uint64(cell.MerkleUpdate), 8); err != nil {
		return err
	}
	for _, h := range []cell.Hash{u.Old, u.New} {
		if err := b.StoreBytes(h[:]); err != nil {
			return err
		}
	}
	for _, d := range []uint16{u.OldDepth, u.NewDepth} {
		if err := b.StoreUint(uint64(d), 16); err != nil {
			return err
		}
	}
	if err := b.StoreRef(u.OldRoot); err != nil {
		return err
	}
	return b.StoreRef(u.NewRoot)
}
