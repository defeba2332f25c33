// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cell

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// MaxDepth is the deepest a cell tree may be.
const MaxDepth = 1024

// Kind distinguishes ordinary cells from the special kinds. A special
// cell's kind is stored in its first data byte.
type Kind uint8

const (
	Ordinary     Kind = 0
	PrunedBranch Kind = 1
	Library      Kind = 2
	MerkleProof  Kind = 3
	MerkleUpdate Kind = 4
)

func (k Kind) String() string {
	switch k {
	case Ordinary:
		return "ordinary"
	case PrunedBranch:
		return "pruned"
	case Library:
		return "library"
	case MerkleProof:
		return "merkle-proof"
	case MerkleUpdate:
		return "merkle-update"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsMerkle reports whether cells of this kind lower the level of
// their references.
func (k Kind) IsMerkle() bool {
	return k == MerkleProof || k == MerkleUpdate
}

// Hash is a SHA-256 cell hash.
type Hash [32]byte

// String returns the lower-case hex encoding.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether every byte is zero.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ParseHash parses a 64-character hex string.
func ParseHash(s string) (Hash, error) {
	var h Hash
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("parsing cell hash: %w", err)
	}
	if len(decoded) != len(h) {
		return h, fmt.Errorf("cell hash is %d bytes, want %d", len(decoded), len(h))
	}
	copy(h[:], decoded)
	return h, nil
}

// Cell is an immutable node of a cell tree. Cells are shared by
// pointer and never modified after [Builder.Finalize] returns them.
type Cell struct {
	data []byte
	bits int
	refs []*Cell
	kind Kind
	mask LevelMask

	// One entry per significant level, lowest level first.
	hashes []Hash
	depths []uint16
}

// Kind is the cell's kind.
func (c *Cell) Kind() Kind { return c.kind }

// IsSpecial reports whether the cell is anything but ordinary.
func (c *Cell) IsSpecial() bool { return c.kind != Ordinary }

// BitLen is the number of data bits.
func (c *Cell) BitLen() int { return c.bits }

// RefCount is the number of references.
func (c *Cell) RefCount() int { return len(c.refs) }

// Ref returns reference i. It panics if i is out of range.
func (c *Cell) Ref(i int) *Cell { return c.refs[i] }

// Data returns a copy of the data bits.
func (c *Cell) Data() BitString {
	return NewBitString(c.data, c.bits)
}

// LevelMask is the cell's level mask.
func (c *Cell) LevelMask() LevelMask { return c.mask }

// Level is the cell's level.
func (c *Cell) Level() int { return c.mask.Level() }

// Hash returns the cell's hash at the given level. Levels above the
// cell's own level return its highest hash.
func (c *Cell) Hash(level int) Hash {
	return c.hashes[c.mask.Apply(level).HashIndex()]
}

// Depth returns the depth of the tree below the cell at the given
// level. A cell without references has depth 0.
func (c *Cell) Depth(level int) uint16 {
	return c.depths[c.mask.Apply(level).HashIndex()]
}

// RepresentationHash is the hash of the cell exactly as stored,
// pruned branches and all. Serialization and interning key cells by
// it.
func (c *Cell) RepresentationHash() Hash {
	return c.hashes[len(c.hashes)-1]
}

// BeginParse returns a slice over the whole cell.
func (c *Cell) BeginParse() Slice {
	return Slice{cell: c, bitEnd: c.bits, refEnd: len(c.refs)}
}

// Equal reports whether two cells have the same representation.
func (c *Cell) Equal(other *Cell) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	return c.RepresentationHash() == other.RepresentationHash()
}

// Descriptors returns the two descriptor bytes that open the cell's
// serialization: d1 packs the reference count, the special flag and
// the level mask, d2 encodes the data length in half-bytes.
func (c *Cell) Descriptors() (d1, d2 byte) {
	return c.d1(c.mask), c.d2()
}

func (c *Cell) d1(mask LevelMask) byte {
	d := byte(len(c.refs)) + byte(mask)*32
	if c.kind != Ordinary {
		d += 8
	}
	return d
}

func (c *Cell) d2() byte {
	return byte(c.bits/8 + (c.bits+7)/8)
}

// PaddedData returns the data bytes with a completion tag: when the
// bit length is not a multiple of eight, a one bit follows the data
// and the rest of the last byte is zero.
func (c *Cell) PaddedData() []byte {
	out := make([]byte, len(c.data))
	copy(out, c.data)
	if c.bits%8 != 0 {
		setBit(out, c.bits)
	}
	return out
}

// String renders the cell and its references as an indented tree of
// hex bit strings, one cell per line.
func (c *Cell) String() string {
	var sb strings.Builder
	c.format(&sb, 0)
	return sb.String()
}

func (c *Cell) format(sb *strings.Builder, indent int) {
	sb.WriteString(strings.Repeat("  ", indent))
	if c.kind != Ordinary {
		sb.WriteString("*")
	}
	fmt.Fprintf(sb, "%d[%s]", c.bits, c.Data().Hex())
	if len(c.refs) > 0 {
		sb.WriteString(" ->")
	}
	sb.WriteString("\n")
	for _, ref := range c.refs {
		ref.format(sb, indent+1)
	}
}

func newCell(kind Kind, data []byte, bits int, refs []*Cell) (*Cell, error) {
	if bits > MaxBits {
		return nil, fmt.Errorf("cell with %d bits: %w", bits, ErrOverflow)
	}
	if len(refs) > MaxRefs {
		return nil, fmt.Errorf("cell with %d references: %w", len(refs), ErrOverflow)
	}
	for i, ref := range refs {
		if ref == nil {
			return nil, fmt.Errorf("reference %d is nil: %w", i, ErrConstraintViolation)
		}
	}
	c := &Cell{data: data, bits: bits, refs: refs, kind: kind}

	mask, err := c.computeLevelMask()
	if err != nil {
		return nil, err
	}
	c.mask = mask
	if err := c.computeHashes(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cell) computeLevelMask() (LevelMask, error) {
	if c.kind != Ordinary {
		if c.bits < 8 {
			return 0, fmt.Errorf("special cell with %d bits: %w", c.bits, ErrConstraintViolation)
		}
		if Kind(c.data[0]) != c.kind {
			return 0, fmt.Errorf("%s cell tagged %d: %w", c.kind, c.data[0], ErrConstraintViolation)
		}
	}

	switch c.kind {
	case Ordinary:
		var mask LevelMask
		for _, ref := range c.refs {
			mask |= ref.mask
		}
		return mask, nil

	case PrunedBranch:
		if len(c.refs) != 0 {
			return 0, fmt.Errorf("pruned branch with %d references: %w", len(c.refs), ErrConstraintViolation)
		}
		if c.bits < 16 {
			return 0, fmt.Errorf("pruned branch with %d bits: %w", c.bits, ErrConstraintViolation)
		}
		mask := LevelMask(c.data[1])
		level := mask.Level()
		if level == 0 || level > MaxLevel || mask > 7 {
			return 0, fmt.Errorf("pruned branch with level mask %#x: %w", uint8(mask), ErrConstraintViolation)
		}
		if want := (2 + mask.HashIndex()*(len(Hash{})+2)) * 8; c.bits != want {
			return 0, fmt.Errorf("pruned branch with %d bits, want %d: %w", c.bits, want, ErrConstraintViolation)
		}
		return mask, nil

	case Library:
		if c.bits != 8+256 {
			return 0, fmt.Errorf("library cell with %d bits: %w", c.bits, ErrConstraintViolation)
		}
		if len(c.refs) != 0 {
			return 0, fmt.Errorf("library cell with %d references: %w", len(c.refs), ErrConstraintViolation)
		}
		return 0, nil

	case MerkleProof:
		if c.bits != 8+(32+2)*8 {
			return 0, fmt.Errorf("merkle proof with %d bits: %w", c.bits, ErrConstraintViolation)
		}
		if len(c.refs) != 1 {
			return 0, fmt.Errorf("merkle proof with %d references: %w", len(c.refs), ErrConstraintViolation)
		}
		if err := c.checkMerkleRef(0, 1, 33); err != nil {
			return 0, err
		}
		return c.refs[0].mask.ShiftRight(), nil

	case MerkleUpdate:
		if c.bits != 8+(32+2)*8*2 {
			return 0, fmt.Errorf("merkle update with %d bits: %w", c.bits, ErrConstraintViolation)
		}
		if len(c.refs) != 2 {
			return 0, fmt.Errorf("merkle update with %d references: %w", len(c.refs), ErrConstraintViolation)
		}
		if err := c.checkMerkleRef(0, 1, 65); err != nil {
			return 0, err
		}
		if err := c.checkMerkleRef(1, 33, 67); err != nil {
			return 0, err
		}
		return (c.refs[0].mask | c.refs[1].mask).ShiftRight(), nil
	}
	return 0, fmt.Errorf("unknown special cell kind %d: %w", uint8(c.kind), ErrConstraintViolation)
}

// checkMerkleRef compares the hash stored at byte hashAt and the depth
// stored at byte depthAt with reference i.
func (c *Cell) checkMerkleRef(i, hashAt, depthAt int) error {
	ref := c.refs[i]
	want := ref.Hash(0)
	if string(c.data[hashAt:hashAt+32]) != string(want[:]) {
		return fmt.Errorf("%s reference %d hash mismatch: %w", c.kind, i, ErrProofInvalid)
	}
	if depth := binary.BigEndian.Uint16(c.data[depthAt:]); depth != ref.Depth(0) {
		return fmt.Errorf("%s reference %d depth %d, stored %d: %w", c.kind, i, ref.Depth(0), depth, ErrProofInvalid)
	}
	return nil
}

// computeHashes fills one hash and depth per significant level. A
// pruned branch computes only its highest hash; the lower ones are
// read from its data.
func (c *Cell) computeHashes() error {
	count := c.mask.HashCount()
	c.hashes = make([]Hash, count)
	c.depths = make([]uint16, count)

	offset := 0
	if c.kind == PrunedBranch {
		offset = count - 1
		depthsAt := 2 + offset*32
		for i := 0; i < offset; i++ {
			copy(c.hashes[i][:], c.data[2+i*32:])
			c.depths[i] = binary.BigEndian.Uint16(c.data[depthsAt+i*2:])
			if c.depths[i] > MaxDepth {
				return fmt.Errorf("pruned branch stored depth %d exceeds %d: %w", c.depths[i], MaxDepth, ErrConstraintViolation)
			}
		}
	}

	padded := c.PaddedData()
	level := c.mask.Level()
	hashIndex := 0
	for levelIndex := 0; levelIndex <= level; levelIndex++ {
		if !c.mask.IsSignificant(levelIndex) {
			continue
		}
		if hashIndex < offset {
			hashIndex++
			continue
		}

		hasher := sha256.New()
		hasher.Write([]byte{c.d1(c.mask.Apply(levelIndex)), c.d2()})
		if hashIndex == offset {
			hasher.Write(padded)
		} else {
			hasher.Write(c.hashes[hashIndex-1][:])
		}

		childLevel := levelIndex
		if c.kind.IsMerkle() {
			childLevel++
		}
		depth := 0
		var buf [2]byte
		for _, ref := range c.refs {
			childDepth := ref.Depth(childLevel)
			binary.BigEndian.PutUint16(buf[:], childDepth)
			hasher.Write(buf[:])
			depth = max(depth, int(childDepth)+1)
		}
		if depth > MaxDepth {
			return fmt.Errorf("cell depth %d exceeds %d: %w", depth, MaxDepth, ErrConstraintViolation)
		}
		for _, ref := range c.refs {
			childHash := ref.Hash(childLevel)
			hasher.Write(childHash[:])
		}

		hasher.Sum(c.hashes[hashIndex][:0])
		c.depths[hashIndex] = uint16(depth)
		hashIndex++
	}
	return nil
}
