// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math/bits"
	"slices"

	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/cellstore"
)

// Magic opens every serialized bag of cells.
const Magic uint32 = 0xb5ee9c72

var (
	// ErrBadMagic means the input does not start with [Magic].
	ErrBadMagic = errors.New("not a bag of cells")

	// ErrChecksum means a stored checksum does not match the content.
	ErrChecksum = errors.New("checksum mismatch")

	// ErrTooLarge means the input exceeds the caller's [Limits].
	ErrTooLarge = errors.New("bag of cells exceeds limits")
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Options selects the optional parts of the serialized form.
type Options struct {
	// Index writes the table of cell end offsets after the root list.
	Index bool

	// CRC32C appends a CRC-32C of everything before it.
	CRC32C bool

	// CacheBits marks cells referenced more than once in the index.
	// It has no effect without Index.
	CacheBits bool
}

// Limits bound what Deserialize accepts. Zero fields are unlimited.
type Limits struct {
	MaxCells int
	MaxRoots int
	MaxSize  int
}

// DefaultLimits returns limits suited to untrusted input of a few
// megabytes.
func DefaultLimits() Limits {
	return Limits{
		MaxCells: 1 << 20,
		MaxRoots: 1 << 10,
		MaxSize:  64 << 20,
	}
}

// Serialize writes the trees under roots as one bag of cells. Equal
// subtrees, by representation hash, are written once. Cells appear
// parents first, so every reference points to a later index.
func Serialize(roots []*cell.Cell, options Options) ([]byte, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("serializing an empty root list: %w", cell.ErrConstraintViolation)
	}
	order, index := topologicalOrder(roots)

	sizeBytes := byteWidth(uint64(len(order)))
	referenced := make(map[cell.Hash]int, len(order))
	var total uint64
	for _, c := range order {
		total += uint64(2 + len(c.PaddedData()) + c.RefCount()*sizeBytes)
		for i := 0; i < c.RefCount(); i++ {
			referenced[c.Ref(i).RepresentationHash()]++
		}
	}
	cacheBits := options.Index && options.CacheBits
	offsetLimit := total
	if cacheBits {
		offsetLimit <<= 1
	}
	offsetBytes := byteWidth(offsetLimit)

	var out bytes.Buffer
	putUint(&out, uint64(Magic), 4)
	var flags byte
	if options.Index {
		flags |= 0x80
	}
	if options.CRC32C {
		flags |= 0x40
	}
	if cacheBits {
		flags |= 0x20
	}
	out.WriteByte(flags | byte(sizeBytes))
	out.WriteByte(byte(offsetBytes))
	putUint(&out, uint64(len(order)), sizeBytes)
	putUint(&out, uint64(len(roots)), sizeBytes)
	putUint(&out, 0, sizeBytes)
	putUint(&out, total, offsetBytes)
	for _, root := range roots {
		putUint(&out, uint64(index[root.RepresentationHash()]), sizeBytes)
	}

	if options.Index {
		var end uint64
		for _, c := range order {
			end += uint64(2 + len(c.PaddedData()) + c.RefCount()*sizeBytes)
			value := end
			if cacheBits {
				value <<= 1
				if referenced[c.RepresentationHash()] > 1 {
					value |= 1
				}
			}
			putUint(&out, value, offsetBytes)
		}
	}

	for _, c := range order {
		d1, d2 := c.Descriptors()
		out.WriteByte(d1)
		out.WriteByte(d2)
		out.Write(c.PaddedData())
		for i := 0; i < c.RefCount(); i++ {
			putUint(&out, uint64(index[c.Ref(i).RepresentationHash()]), sizeBytes)
		}
	}

	if options.CRC32C {
		var sum [4]byte
		binary.LittleEndian.PutUint32(sum[:], crc32.Checksum(out.Bytes(), castagnoli))
		out.Write(sum[:])
	}
	return out.Bytes(), nil
}

// topologicalOrder returns the distinct cells under roots in reverse
// DFS postorder, which places every cell before its references, and
// the index of each cell by representation hash.
func topologicalOrder(roots []*cell.Cell) ([]*cell.Cell, map[cell.Hash]int) {
	visited := make(map[cell.Hash]bool)
	var postorder []*cell.Cell
	var visit func(c *cell.Cell)
	visit = func(c *cell.Cell) {
		hash := c.RepresentationHash()
		if visited[hash] {
			return
		}
		visited[hash] = true
		for i := c.RefCount() - 1; i >= 0; i-- {
			visit(c.Ref(i))
		}
		postorder = append(postorder, c)
	}
	for i := len(roots) - 1; i >= 0; i-- {
		visit(roots[i])
	}
	slices.Reverse(postorder)

	index := make(map[cell.Hash]int, len(postorder))
	for i, c := range postorder {
		index[c.RepresentationHash()] = i
	}
	return postorder, index
}

// Deserialize parses a bag of cells and returns its roots.
func Deserialize(data []byte, limits Limits) ([]*cell.Cell, error) {
	return DeserializeInto(data, limits, nil)
}

// DeserializeInto is Deserialize with every decoded cell interned
// into store, so that subtrees already held by the store are shared.
// A nil store interns nothing.
func DeserializeInto(data []byte, limits Limits, store *cellstore.Store) ([]*cell.Cell, error) {
	if limits.MaxSize > 0 && len(data) > limits.MaxSize {
		return nil, fmt.Errorf("%d bytes, limit %d: %w", len(data), limits.MaxSize, ErrTooLarge)
	}
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	if limits.MaxCells > 0 && h.cells > limits.MaxCells {
		return nil, fmt.Errorf("%d cells, limit %d: %w", h.cells, limits.MaxCells, ErrTooLarge)
	}
	if limits.MaxRoots > 0 && len(h.roots) > limits.MaxRoots {
		return nil, fmt.Errorf("%d roots, limit %d: %w", len(h.roots), limits.MaxRoots, ErrTooLarge)
	}

	raws, err := parseCells(data, h)
	if err != nil {
		return nil, err
	}

	built := make([]*cell.Cell, len(raws))
	for i := len(raws) - 1; i >= 0; i-- {
		c, err := raws[i].build(built)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		if store != nil {
			c = store.Intern(c)
		}
		built[i] = c
	}

	roots := make([]*cell.Cell, len(h.roots))
	for i, index := range h.roots {
		roots[i] = built[index]
	}
	return roots, nil
}

type header struct {
	hasIndex    bool
	hasCRC      bool
	cacheBits   bool
	sizeBytes   int
	offsetBytes int
	cells       int
	roots       []int
	totalSize   uint64

	// indexAt and cellsAt are byte offsets into the input.
	indexAt int
	cellsAt int
}

func parseHeader(data []byte) (header, error) {
	var h header
	r := reader{data: data}
	magic, err := r.uint(4)
	if err != nil {
		return h, err
	}
	if uint32(magic) != Magic {
		return h, fmt.Errorf("magic %08x: %w", magic, ErrBadMagic)
	}
	flags, err := r.uint(1)
	if err != nil {
		return h, err
	}
	h.hasIndex = flags&0x80 != 0
	h.hasCRC = flags&0x40 != 0
	h.cacheBits = flags&0x20 != 0
	h.sizeBytes = int(flags & 0x07)
	if flags&0x18 != 0 {
		return h, fmt.Errorf("reserved flags %#x set: %w", flags&0x18, cell.ErrConstraintViolation)
	}
	if h.sizeBytes == 0 || h.sizeBytes > 4 {
		return h, fmt.Errorf("reference size %d: %w", h.sizeBytes, cell.ErrConstraintViolation)
	}
	if h.cacheBits && !h.hasIndex {
		return h, fmt.Errorf("cache bits without an index: %w", cell.ErrConstraintViolation)
	}
	offsetBytes, err := r.uint(1)
	if err != nil {
		return h, err
	}
	h.offsetBytes = int(offsetBytes)
	if h.offsetBytes == 0 || h.offsetBytes > 8 {
		return h, fmt.Errorf("offset size %d: %w", h.offsetBytes, cell.ErrConstraintViolation)
	}

	cells, err := r.uint(h.sizeBytes)
	if err != nil {
		return h, err
	}
	rootCount, err := r.uint(h.sizeBytes)
	if err != nil {
		return h, err
	}
	absent, err := r.uint(h.sizeBytes)
	if err != nil {
		return h, err
	}
	h.totalSize, err = r.uint(h.offsetBytes)
	if err != nil {
		return h, err
	}
	h.cells = int(cells)
	switch {
	case rootCount == 0:
		return h, fmt.Errorf("no roots: %w", cell.ErrConstraintViolation)
	case rootCount > cells:
		return h, fmt.Errorf("%d roots among %d cells: %w", rootCount, cells, cell.ErrConstraintViolation)
	case absent != 0:
		return h, fmt.Errorf("%d absent cells: %w", absent, cell.ErrConstraintViolation)
	}

	// Every size below is checked against the input before any
	// allocation proportional to it.
	if uint64(r.remaining()) < rootCount*uint64(h.sizeBytes) {
		return h, fmt.Errorf("root list: %w", cell.ErrTruncated)
	}
	h.roots = make([]int, rootCount)
	for i := range h.roots {
		index, _ := r.uint(h.sizeBytes)
		if index >= cells {
			return h, fmt.Errorf("root %d is cell %d of %d: %w", i, index, cells, cell.ErrConstraintViolation)
		}
		h.roots[i] = int(index)
	}

	h.indexAt = r.pos
	if h.hasIndex {
		if uint64(r.remaining()) < cells*uint64(h.offsetBytes) {
			return h, fmt.Errorf("index: %w", cell.ErrTruncated)
		}
		r.pos += h.cells * h.offsetBytes
	}
	h.cellsAt = r.pos

	trailer := 0
	if h.hasCRC {
		trailer = 4
	}
	switch {
	case uint64(r.remaining()) < h.totalSize+uint64(trailer):
		return h, fmt.Errorf("cell data of %d bytes: %w", h.totalSize, cell.ErrTruncated)
	case uint64(r.remaining()) > h.totalSize+uint64(trailer):
		return h, fmt.Errorf("%d bytes after cell data: %w", uint64(r.remaining())-h.totalSize-uint64(trailer), cell.ErrConstraintViolation)
	}
	if h.hasCRC {
		body := data[:len(data)-4]
		stored := binary.LittleEndian.Uint32(data[len(data)-4:])
		if computed := crc32.Checksum(body, castagnoli); computed != stored {
			return h, fmt.Errorf("crc32c %08x, stored %08x: %w", computed, stored, ErrChecksum)
		}
	}
	// Each cell takes at least its two descriptor bytes.
	if uint64(h.cells)*2 > h.totalSize {
		return h, fmt.Errorf("%d cells in %d bytes: %w", h.cells, h.totalSize, cell.ErrTruncated)
	}
	return h, nil
}

// rawCell is one parsed cell record whose references are indices.
type rawCell struct {
	kind cell.Kind
	mask cell.LevelMask
	data []byte
	bits int
	refs []int
}

func parseCells(data []byte, h header) ([]rawCell, error) {
	r := reader{data: data[:h.cellsAt+int(h.totalSize)], pos: h.cellsAt}
	index := reader{data: data, pos: h.indexAt}
	raws := make([]rawCell, h.cells)
	for i := range raws {
		raw, err := parseCell(&r, h.sizeBytes)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		for _, ref := range raw.refs {
			if ref <= i || ref >= h.cells {
				return nil, fmt.Errorf("cell %d references cell %d: %w", i, ref, cell.ErrConstraintViolation)
			}
		}
		raws[i] = raw

		if h.hasIndex {
			stored, _ := index.uint(h.offsetBytes)
			if h.cacheBits {
				stored >>= 1
			}
			if end := uint64(r.pos - h.cellsAt); stored != end {
				return nil, fmt.Errorf("index gives cell %d end %d, actual %d: %w", i, stored, end, cell.ErrConstraintViolation)
			}
		}
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("%d unparsed bytes of cell data: %w", r.remaining(), cell.ErrConstraintViolation)
	}
	return raws, nil
}

func parseCell(r *reader, sizeBytes int) (rawCell, error) {
	var raw rawCell
	d1, err := r.uint(1)
	if err != nil {
		return raw, err
	}
	d2, err := r.uint(1)
	if err != nil {
		return raw, err
	}
	refCount := int(d1 & 7)
	if refCount > cell.MaxRefs {
		return raw, fmt.Errorf("descriptor %#02x has %d references: %w", d1, refCount, cell.ErrConstraintViolation)
	}
	special := d1&8 != 0
	raw.mask = cell.LevelMask(d1 >> 5)
	if d1&16 != 0 {
		// Stored hashes and depths are recomputed on build.
		if err := r.skip(raw.mask.HashCount() * (32 + 2)); err != nil {
			return raw, err
		}
	}

	length := int(d2+1) / 2
	raw.data, err = r.bytes(length)
	if err != nil {
		return raw, err
	}
	raw.bits = length * 8
	if d2&1 != 0 {
		last := raw.data[length-1]
		if last == 0 {
			return raw, fmt.Errorf("padded data ends in a zero byte: %w", cell.ErrConstraintViolation)
		}
		raw.bits -= bits.TrailingZeros8(last) + 1
	}
	if special {
		if raw.bits < 8 {
			return raw, fmt.Errorf("special cell with %d bits: %w", raw.bits, cell.ErrConstraintViolation)
		}
		raw.kind = cell.Kind(raw.data[0])
		if raw.kind == cell.Ordinary {
			return raw, fmt.Errorf("special cell tagged ordinary: %w", cell.ErrConstraintViolation)
		}
	}

	raw.refs = make([]int, refCount)
	for i := range raw.refs {
		index, err := r.uint(sizeBytes)
		if err != nil {
			return raw, err
		}
		raw.refs[i] = int(index)
	}
	return raw, nil
}

func (raw rawCell) build(built []*cell.Cell) (*cell.Cell, error) {
	b := cell.NewBuilder()
	if err := b.StoreBits(cell.NewBitString(raw.data, raw.bits)); err != nil {
		return nil, err
	}
	for _, ref := range raw.refs {
		if err := b.StoreRef(built[ref]); err != nil {
			return nil, err
		}
	}
	c, err := b.Finalize(raw.kind)
	if err != nil {
		return nil, err
	}
	if c.LevelMask() != raw.mask {
		return nil, fmt.Errorf("descriptor level mask %#x, computed %#x: %w", uint8(raw.mask), uint8(c.LevelMask()), cell.ErrConstraintViolation)
	}
	return c, nil
}

// reader reads big-endian integers and byte runs, failing with
// cell.ErrTruncated at the end of its data.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int { return len(r.data) - r.pos }

func (r *reader) uint(width int) (uint64, error) {
	if r.remaining() < width {
		return 0, fmt.Errorf("reading %d bytes at offset %d: %w", width, r.pos, cell.ErrTruncated)
	}
	var v uint64
	for _, b := range r.data[r.pos : r.pos+width] {
		v = v<<8 | uint64(b)
	}
	r.pos += width
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, fmt.Errorf("reading %d bytes at offset %d: %w", n, r.pos, cell.ErrTruncated)
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) skip(n int) error {
	_, err := r.bytes(n)
	return err
}

func putUint(out *bytes.Buffer, v uint64, width int) {
	for i := width - 1; i >= 0; i-- {
		out.WriteByte(byte(v >> (8 * i)))
	}
}

// byteWidth is the number of bytes needed to hold v, at least one.
func byteWidth(v uint64) int {
	return max(1, (bits.Len64(v)+7)/8)
}
