// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cell

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// BitString is an immutable sequence of bits stored most significant
// bit first. Bits past Len in the last byte are always zero, so two
// equal bit strings have equal byte representations.
type BitString struct {
	data []byte
	n    int
}

// NewBitString returns the first n bits of data. The data is copied.
func NewBitString(data []byte, n int) BitString {
	if n < 0 {
		n = 0
	}
	if n > len(data)*8 {
		n = len(data) * 8
	}
	out := make([]byte, (n+7)/8)
	copy(out, data)
	clearTail(out, n)
	return BitString{data: out, n: n}
}

// BitStringFromUint returns value as an n-bit big-endian bit string.
// Bits of value above n are dropped.
func BitStringFromUint(value uint64, n int) BitString {
	out := make([]byte, (n+7)/8)
	for i := 0; i < n; i++ {
		if n-1-i < 64 && (value>>(n-1-i))&1 != 0 {
			setBit(out, i)
		}
	}
	return BitString{data: out, n: n}
}

// ParseBitString parses a string of '0' and '1' characters. Spaces
// and underscores are ignored so long keys can be grouped.
func ParseBitString(s string) (BitString, error) {
	out := make([]byte, 0, len(s)/8+1)
	n := 0
	for i, r := range s {
		switch r {
		case ' ', '_':
			continue
		case '0', '1':
		default:
			return BitString{}, fmt.Errorf("parsing bit string: unexpected %q at offset %d", r, i)
		}
		if n%8 == 0 {
			out = append(out, 0)
		}
		if r == '1' {
			setBit(out, n)
		}
		n++
	}
	return BitString{data: out, n: n}, nil
}

// MustParseBitString is ParseBitString for literals known to be
// valid.
func MustParseBitString(s string) BitString {
	b, err := ParseBitString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// ParseHexBitString parses the hex notation produced by [BitString.Hex].
// A trailing '_' means the last hex digit carries a completion tag:
// the lowest set bit and everything after it are padding.
func ParseHexBitString(s string) (BitString, error) {
	tagged := strings.HasSuffix(s, "_")
	s = strings.TrimSuffix(s, "_")
	padded := s
	if len(padded)%2 == 1 {
		padded += "0"
	}
	data, err := hex.DecodeString(padded)
	if err != nil {
		return BitString{}, fmt.Errorf("parsing hex bit string: %w", err)
	}
	n := len(s) * 4
	if tagged {
		for n > 0 && !getBit(data, n-1) {
			n--
		}
		if n == 0 {
			return BitString{}, fmt.Errorf("parsing hex bit string %q: completion tag missing", s+"_")
		}
		n--
	}
	return NewBitString(data, n), nil
}

// Len is the number of bits.
func (b BitString) Len() int { return b.n }

// Bit reports whether bit i is set. It panics if i is out of range.
func (b BitString) Bit(i int) bool {
	if i < 0 || i >= b.n {
		panic(fmt.Sprintf("cell: bit index %d out of range [0,%d)", i, b.n))
	}
	return getBit(b.data, i)
}

// Bytes returns a copy of the underlying bytes. Bits past Len in the
// last byte are zero.
func (b BitString) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Uint returns the bit string as a big-endian unsigned integer. Only
// the last 64 bits contribute.
func (b BitString) Uint() uint64 {
	var v uint64
	for i := 0; i < b.n; i++ {
		v <<= 1
		if getBit(b.data, i) {
			v |= 1
		}
	}
	return v
}

// Sub returns bits [from, to).
func (b BitString) Sub(from, to int) BitString {
	if from < 0 || to > b.n || from > to {
		panic(fmt.Sprintf("cell: bit range [%d,%d) out of range [0,%d)", from, to, b.n))
	}
	out := make([]byte, (to-from+7)/8)
	copyBits(out, 0, b.data, from, to-from)
	return BitString{data: out, n: to - from}
}

// Append returns b followed by other.
func (b BitString) Append(other BitString) BitString {
	out := make([]byte, (b.n+other.n+7)/8)
	copy(out, b.data)
	copyBits(out, b.n, other.data, 0, other.n)
	return BitString{data: out, n: b.n + other.n}
}

// AppendBit returns b followed by one bit.
func (b BitString) AppendBit(bit bool) BitString {
	out := make([]byte, (b.n+1+7)/8)
	copy(out, b.data)
	if bit {
		setBit(out, b.n)
	}
	return BitString{data: out, n: b.n + 1}
}

// Equal reports whether both strings have the same length and bits.
func (b BitString) Equal(other BitString) bool {
	if b.n != other.n {
		return false
	}
	for i := range b.data {
		if b.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

// Compare orders bit strings lexicographically by bit, with a proper
// prefix ordered before any longer string it prefixes.
func (b BitString) Compare(other BitString) int {
	common := CommonPrefix(b, other)
	switch {
	case common < b.n && common < other.n:
		if getBit(b.data, common) {
			return 1
		}
		return -1
	case b.n < other.n:
		return -1
	case b.n > other.n:
		return 1
	}
	return 0
}

// IsPrefixOf reports whether b is a prefix of other.
func (b BitString) IsPrefixOf(other BitString) bool {
	return b.n <= other.n && CommonPrefix(b, other) == b.n
}

// AllSame reports whether every bit equals the first one. An empty
// string reports true.
func (b BitString) AllSame() bool {
	if b.n == 0 {
		return true
	}
	first := getBit(b.data, 0)
	for i := 1; i < b.n; i++ {
		if getBit(b.data, i) != first {
			return false
		}
	}
	return true
}

// String renders the bits as '0' and '1' characters.
func (b BitString) String() string {
	var sb strings.Builder
	sb.Grow(b.n)
	for i := 0; i < b.n; i++ {
		if getBit(b.data, i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Hex renders the bits in upper-case hex. When the length is not a
// multiple of four, a completion tag (a one bit followed by zeros)
// fills the last digit and the output ends in '_'.
func (b BitString) Hex() string {
	digits := (b.n + 3) / 4
	buf := make([]byte, (digits+1)/2)
	copy(buf, b.data)
	if b.n%4 != 0 {
		setBit(buf, b.n)
	}
	out := strings.ToUpper(hex.EncodeToString(buf))[:digits]
	if b.n%4 != 0 {
		out += "_"
	}
	return out
}

// CommonPrefix returns the length of the longest common prefix of a
// and b.
func CommonPrefix(a, b BitString) int {
	limit := min(a.n, b.n)
	i := 0
	for i+8 <= limit && a.data[i/8] == b.data[i/8] {
		i += 8
	}
	for i < limit && getBit(a.data, i) == getBit(b.data, i) {
		i++
	}
	return i
}

func getBit(data []byte, i int) bool {
	return data[i/8]&(0x80>>(i%8)) != 0
}

func setBit(data []byte, i int) {
	data[i/8] |= 0x80 >> (i % 8)
}

func clearBit(data []byte, i int) {
	data[i/8] &^= 0x80 >> (i % 8)
}

// copyBits copies n bits from src starting at bit srcOff into dst
// starting at bit dstOff.
func copyBits(dst []byte, dstOff int, src []byte, srcOff int, n int) {
	if dstOff%8 == 0 && srcOff%8 == 0 {
		whole := n / 8
		copy(dst[dstOff/8:dstOff/8+whole], src[srcOff/8:srcOff/8+whole])
		dstOff += whole * 8
		srcOff += whole * 8
		n -= whole * 8
	}
	for i := 0; i < n; i++ {
		if getBit(src, srcOff+i) {
			setBit(dst, dstOff+i)
		} else {
			clearBit(dst, dstOff+i)
		}
	}
}

// clearTail zeroes every bit at position n or later.
func clearTail(data []byte, n int) {
	if n%8 != 0 && n/8 < len(data) {
		data[n/8] &= ^byte(0xff >> (n % 8))
	}
	for i := (n + 7) / 8; i < len(data); i++ {
		data[i] = 0
	}
}
