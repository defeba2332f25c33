// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dict

import (
	"fmt"
	"iter"

	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/tlb"
)

// Aug describes an augmented dictionary (HashmapAug n X Y): every node
// carries an extra of type Y summarizing its subtree.
type Aug struct {
	KeyBits int

	// Extra is the type Y of the per-node extra.
	Extra tlb.Type

	// Leaf computes the extra of a leaf from its value.
	Leaf func(value cell.Slice) (any, error)

	// Combine computes a fork's extra from its children's.
	Combine func(left, right any) (any, error)

	// Empty is the extra stored with an empty HashmapAugE.
	Empty any
}

// AugDictionary is a HashmapAugE value: an optional root and the
// extra of the whole dictionary.
type AugDictionary struct {
	Root  *cell.Cell
	Extra any
}

func (a *Aug) trie() trie { return trie{aug: a} }

func (a *Aug) checkKey(key cell.BitString) error {
	if key.Len() != a.KeyBits {
		return fmt.Errorf("key of %d bits for a %d-bit dictionary: %w", key.Len(), a.KeyBits, cell.ErrConstraintViolation)
	}
	return nil
}

// checkEncoding fails unless extra encodes to exactly stored.
func (a *Aug) checkEncoding(extra any, stored cell.Slice) error {
	b := cell.NewBuilder()
	if err := a.Extra.Pack(b, extra); err != nil {
		return fmt.Errorf("encoding computed extra: %w", err)
	}
	c, err := b.EndCell()
	if err != nil {
		return err
	}
	if !c.BeginParse().Equal(stored) {
		return fmt.Errorf("stored extra %s differs from computed %s: %w", stored, c.BeginParse(), cell.ErrConstraintViolation)
	}
	return nil
}

func (a *Aug) withRoot(root *cell.Cell) (AugDictionary, error) {
	if root == nil {
		return AugDictionary{Extra: a.Empty}, nil
	}
	n, err := a.trie().parse(root, a.KeyBits)
	if err != nil {
		return AugDictionary{}, err
	}
	extra, err := a.trie().extra(n)
	if err != nil {
		return AugDictionary{}, err
	}
	return AugDictionary{Root: root, Extra: extra}, nil
}

// Build constructs an augmented dictionary from entries, computing
// every extra.
func (a *Aug) Build(entries []Entry) (AugDictionary, error) {
	sorted, err := sortEntries(a.KeyBits, entries)
	if err != nil {
		return AugDictionary{}, err
	}
	if len(sorted) == 0 {
		return a.withRoot(nil)
	}
	root, err := a.trie().build(sorted, 0, a.KeyBits)
	if err != nil {
		return AugDictionary{}, err
	}
	return a.withRoot(root)
}

// Set stores value under key, recomputing the extras on its path.
func (a *Aug) Set(d AugDictionary, key cell.BitString, value cell.Slice) (AugDictionary, error) {
	if err := a.checkKey(key); err != nil {
		return d, err
	}
	root, err := a.trie().set(d.Root, key, value)
	if err != nil {
		return d, fmt.Errorf("setting key %s: %w", key, err)
	}
	return a.withRoot(root)
}

// Delete removes key, recomputing the extras on its path.
func (a *Aug) Delete(d AugDictionary, key cell.BitString) (AugDictionary, bool, error) {
	if err := a.checkKey(key); err != nil {
		return d, false, err
	}
	if d.Root == nil {
		return d, false, nil
	}
	root, found, err := a.trie().remove(d.Root, key)
	if err != nil || !found {
		return d, found, err
	}
	out, err := a.withRoot(root)
	return out, true, err
}

// Lookup returns the value and leaf extra stored under key.
func (a *Aug) Lookup(d AugDictionary, key cell.BitString) (cell.Slice, any, bool, error) {
	if err := a.checkKey(key); err != nil {
		return cell.Slice{}, nil, false, err
	}
	if d.Root == nil {
		return cell.Slice{}, nil, false, nil
	}
	t := a.trie()
	c, m := d.Root, a.KeyBits
	for {
		n, err := t.parse(c, m)
		if err != nil {
			return cell.Slice{}, nil, false, err
		}
		if !n.label.IsPrefixOf(key) {
			return cell.Slice{}, nil, false, nil
		}
		if n.isLeaf() {
			extra, err := t.extra(n)
			if err != nil {
				return cell.Slice{}, nil, false, err
			}
			value, err := t.value(n)
			return value, extra, err == nil, err
		}
		if c, err = t.child(n, key.Bit(n.label.Len())); err != nil {
			return cell.Slice{}, nil, false, err
		}
		key = key.Sub(n.label.Len()+1, key.Len())
		m = n.childBits()
	}
}

// All iterates over the entries in ascending key order, yielding
// values without their extras. A malformed node ends the sequence with
// a final error.
func (a *Aug) All(d AugDictionary) iter.Seq2[Entry, error] {
	t := a.trie()
	return entrySeq(func(fn func(cell.BitString, cell.Slice) bool) (bool, error) {
		if d.Root == nil {
			return true, nil
		}
		var valueErr error
		more, err := t.each(d.Root, a.KeyBits, cell.BitString{}, func(key cell.BitString, n node) bool {
			value, err := t.value(n)
			if err != nil {
				valueErr = err
				return false
			}
			return fn(key, value)
		})
		if err == nil {
			err = valueErr
		}
		return more, err
	})
}

// RootExtra returns the extra of the whole dictionary.
func (a *Aug) RootExtra(d AugDictionary) any {
	return d.Extra
}

// Validate checks the dictionary rooted at root. Without weak, every
// stored extra is recomputed from its leaves and must match bit for
// bit. value, if non-nil, must match every leaf value exactly.
func (a *Aug) Validate(budget *tlb.Budget, root *cell.Cell, value tlb.Type, weak bool) error {
	if root == nil {
		return nil
	}
	return a.trie().validate(budget, root, a.KeyBits, value, weak)
}

// LoadHashmapAugE reads ahme_empty$0 extra:Y or ahme_root$1
// root:^(HashmapAug n X Y) extra:Y.
func (a *Aug) LoadHashmapAugE(s *cell.Slice) (AugDictionary, error) {
	probe := *s
	root, err := loadMaybeRoot(&probe)
	if err != nil {
		return AugDictionary{}, err
	}
	extra, err := a.Extra.Unpack(&probe)
	if err != nil {
		return AugDictionary{}, fmt.Errorf("dictionary extra: %w", err)
	}
	*s = probe
	return AugDictionary{Root: root, Extra: extra}, nil
}

// StoreHashmapAugE writes d as a HashmapAugE.
func (a *Aug) StoreHashmapAugE(b *cell.Builder, d AugDictionary) error {
	if err := storeMaybeRoot(b, d.Root); err != nil {
		return err
	}
	return a.Extra.Pack(b, d.Extra)
}

// validateAugE validates a HashmapAugE at s, including that the stored
// dictionary extra matches the root node's.
func (a *Aug) validateAugE(budget *tlb.Budget, s *cell.Slice, value tlb.Type, weak bool) error {
	probe := *s
	root, err := loadMaybeRoot(&probe)
	if err != nil {
		return err
	}
	start := probe
	if err := a.Extra.ValidateSkip(budget, &probe, weak); err != nil {
		return fmt.Errorf("dictionary extra: %w", err)
	}
	stored := start.Until(probe)
	if err := a.Validate(budget, root, value, weak); err != nil {
		return err
	}
	if !weak {
		expected := a.Empty
		if root != nil {
			n, err := a.trie().parse(root, a.KeyBits)
			if err != nil {
				return err
			}
			if expected, err = a.trie().extra(n); err != nil {
				return err
			}
		}
		if err := a.checkEncoding(expected, stored); err != nil {
			return fmt.Errorf("dictionary extra: %w", err)
		}
	}
	*s = probe
	return nil
}
