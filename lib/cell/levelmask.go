// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cell

import "math/bits"

// MaxLevel is the highest level a cell can have.
const MaxLevel = 3

// LevelMask records which Merkle levels a cell's hash depends on.
// Bit i set means the cell contains a pruned branch that is hidden
// at level i+1. Only the low three bits are meaningful.
type LevelMask uint8

// OneLevel returns the mask with only the given level set. Level 0
// has an empty mask.
func OneLevel(level int) LevelMask {
	if level <= 0 {
		return 0
	}
	return LevelMask(1) << (level - 1)
}

// Level is the highest level in the mask: the position of its
// highest set bit, counting from one.
func (m LevelMask) Level() int {
	return bits.Len8(uint8(m & 7))
}

// HashIndex is the index of the highest hash a cell with this mask
// stores.
func (m LevelMask) HashIndex() int {
	return bits.OnesCount8(uint8(m & 7))
}

// HashCount is the number of distinct hashes a cell with this mask
// has.
func (m LevelMask) HashCount() int {
	return m.HashIndex() + 1
}

// Apply restricts the mask to levels below level.
func (m LevelMask) Apply(level int) LevelMask {
	if level >= 8 {
		return m
	}
	return m & LevelMask((1<<level)-1)
}

// IsSignificant reports whether level gets its own hash. Level 0 is
// always significant.
func (m LevelMask) IsSignificant(level int) bool {
	return level == 0 || (m>>(level-1))&1 != 0
}

// ShiftRight lowers every level by one, which is what passing through
// a Merkle cell does.
func (m LevelMask) ShiftRight() LevelMask {
	return m >> 1
}
