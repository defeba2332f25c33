// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boc

import (
	"github.com/zeebo/blake3"
)

// Checksum is a BLAKE3 keyed digest of a serialized bag of cells.
type Checksum [32]byte

// envelopeDomainKey keys the envelope checksum so that it can never
// collide with a BLAKE3 digest computed for another purpose over the
// same bytes. It is the ASCII domain name zero-padded to 32 bytes;
// changing it invalidates every existing envelope.
var envelopeDomainKey = [32]byte{
	'c', 'e', 'l', 'l', 'c', 'o', 'd', 'e', 'c', '.', 'b', 'o', 'c', '.',
	'e', 'n', 'v', 'e', 'l', 'o', 'p', 'e',
}

// ChecksumOf computes the envelope checksum of a serialized bag of
// cells.
func ChecksumOf(data []byte) Checksum {
	hasher, err := blake3.NewKeyed(envelopeDomainKey[:])
	if err != nil {
		// Only a key of the wrong length fails, and the key is a
		// fixed-size array.
		panic("boc: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var sum Checksum
	copy(sum[:], hasher.Sum(nil))
	return sum
}
