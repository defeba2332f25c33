// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dict

import (
	"fmt"
	"iter"
	"slices"

	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/tlb"
)

// Entry is one key/value pair.
type Entry struct {
	Key   cell.BitString
	Value cell.Slice
}

// Dictionary is a HashmapE with fixed-width keys. The zero Root is the
// empty dictionary. Dictionaries are persistent: Set and Delete return
// a new Dictionary and leave the receiver untouched.
type Dictionary struct {
	Root    *cell.Cell
	KeyBits int
}

// New returns an empty dictionary with keyBits-bit keys.
func New(keyBits int) Dictionary {
	return Dictionary{KeyBits: keyBits}
}

// IsEmpty reports whether the dictionary has no entries.
func (d Dictionary) IsEmpty() bool { return d.Root == nil }

func (d Dictionary) checkKey(key cell.BitString) error {
	if key.Len() != d.KeyBits {
		return fmt.Errorf("key of %d bits for a %d-bit dictionary: %w", key.Len(), d.KeyBits, cell.ErrConstraintViolation)
	}
	return nil
}

// Lookup returns the value stored under key.
func (d Dictionary) Lookup(key cell.BitString) (cell.Slice, bool, error) {
	if err := d.checkKey(key); err != nil {
		return cell.Slice{}, false, err
	}
	if d.Root == nil {
		return cell.Slice{}, false, nil
	}
	return trie{}.lookup(d.Root, key, nil)
}

// Trace returns the cells a lookup of key reads, root first. A Merkle
// proof disclosing exactly these cells proves the lookup's result,
// whether or not the key is present.
func (d Dictionary) Trace(key cell.BitString) ([]*cell.Cell, error) {
	if err := d.checkKey(key); err != nil {
		return nil, err
	}
	if d.Root == nil {
		return nil, nil
	}
	var path []*cell.Cell
	_, _, err := trie{}.lookup(d.Root, key, func(c *cell.Cell) {
		path = append(path, c)
	})
	return path, err
}

// Set stores value under key, replacing any existing value.
func (d Dictionary) Set(key cell.BitString, value cell.Slice) (Dictionary, error) {
	if err := d.checkKey(key); err != nil {
		return d, err
	}
	root, err := trie{}.set(d.Root, key, value)
	if err != nil {
		return d, fmt.Errorf("setting key %s: %w", key, err)
	}
	return Dictionary{Root: root, KeyBits: d.KeyBits}, nil
}

// SetBuilder is Set with the value taken from a builder.
func (d Dictionary) SetBuilder(key cell.BitString, value *cell.Builder) (Dictionary, error) {
	c, err := value.EndCell()
	if err != nil {
		return d, err
	}
	return d.Set(key, c.BeginParse())
}

// Delete removes key. The bool result reports whether it was present.
func (d Dictionary) Delete(key cell.BitString) (Dictionary, bool, error) {
	if err := d.checkKey(key); err != nil {
		return d, false, err
	}
	if d.Root == nil {
		return d, false, nil
	}
	root, found, err := trie{}.remove(d.Root, key)
	if err != nil {
		return d, false, fmt.Errorf("deleting key %s: %w", key, err)
	}
	return Dictionary{Root: root, KeyBits: d.KeyBits}, found, nil
}

// Build constructs a dictionary holding entries. The result depends
// only on the set of entries, not their order. Duplicate keys are a
// constraint violation.
func Build(keyBits int, entries []Entry) (Dictionary, error) {
	d := New(keyBits)
	sorted, err := sortEntries(keyBits, entries)
	if err != nil || len(sorted) == 0 {
		return d, err
	}
	root, err := trie{}.build(sorted, 0, keyBits)
	if err != nil {
		return d, err
	}
	d.Root = root
	return d, nil
}

func sortEntries(keyBits int, entries []Entry) ([]Entry, error) {
	sorted := slices.Clone(entries)
	for _, e := range sorted {
		if e.Key.Len() != keyBits {
			return nil, fmt.Errorf("key of %d bits for a %d-bit dictionary: %w", e.Key.Len(), keyBits, cell.ErrConstraintViolation)
		}
	}
	slices.SortFunc(sorted, func(a, b Entry) int { return a.Key.Compare(b.Key) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Key.Equal(sorted[i-1].Key) {
			return nil, fmt.Errorf("duplicate key %s: %w", sorted[i].Key, cell.ErrConstraintViolation)
		}
	}
	return sorted, nil
}

// All iterates over the entries in ascending key order. Each call
// starts a fresh traversal. A malformed or pruned node ends the
// sequence with one final pair carrying a non-nil error.
func (d Dictionary) All() iter.Seq2[Entry, error] {
	return entrySeq(func(fn func(cell.BitString, cell.Slice) bool) (bool, error) {
		if d.Root == nil {
			return true, nil
		}
		return trie{}.each(d.Root, d.KeyBits, cell.BitString{}, func(key cell.BitString, n node) bool {
			return fn(key, n.body)
		})
	})
}

// entrySeq turns a traversal that reports its error on return into a
// sequence that yields the error last. Nothing is yielded after the
// consumer stops.
func entrySeq(walk func(fn func(cell.BitString, cell.Slice) bool) (bool, error)) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		stopped := false
		_, err := walk(func(key cell.BitString, value cell.Slice) bool {
			if !yield(Entry{Key: key, Value: value}, nil) {
				stopped = true
				return false
			}
			return true
		})
		if err != nil && !stopped {
			yield(Entry{}, err)
		}
	}
}

// Entries returns every entry in ascending key order.
func (d Dictionary) Entries() ([]Entry, error) {
	var out []Entry
	if d.Root == nil {
		return out, nil
	}
	_, err := trie{}.each(d.Root, d.KeyBits, cell.BitString{}, func(key cell.BitString, n node) bool {
		out = append(out, Entry{Key: key, Value: n.body})
		return true
	})
	return out, err
}

// Len counts the entries.
func (d Dictionary) Len() (int, error) {
	count := 0
	if d.Root == nil {
		return 0, nil
	}
	_, err := trie{}.each(d.Root, d.KeyBits, cell.BitString{}, func(cell.BitString, node) bool {
		count++
		return true
	})
	return count, err
}

// Min returns the entry with the smallest key.
func (d Dictionary) Min() (Entry, bool, error) {
	return d.edge(false)
}

// Max returns the entry with the largest key.
func (d Dictionary) Max() (Entry, bool, error) {
	return d.edge(true)
}

func (d Dictionary) edge(last bool) (Entry, bool, error) {
	if d.Root == nil {
		return Entry{}, false, nil
	}
	key, n, err := trie{}.edge(d.Root, d.KeyBits, last)
	if err != nil {
		return Entry{}, false, err
	}
	return Entry{Key: key, Value: n.body}, true, nil
}

// Nearest returns the entry whose key is closest to key in one
// direction: the smallest key above it when next is set, otherwise the
// largest key below it. With allowEq, key itself qualifies.
func (d Dictionary) Nearest(key cell.BitString, next, allowEq bool) (Entry, bool, error) {
	if err := d.checkKey(key); err != nil {
		return Entry{}, false, err
	}
	if d.Root == nil {
		return Entry{}, false, nil
	}
	found, n, ok, err := trie{}.nearest(d.Root, key, next, allowEq)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	return Entry{Key: found, Value: n.body}, true, nil
}

// LookupDelete removes key and returns the value it held.
func (d Dictionary) LookupDelete(key cell.BitString) (Dictionary, cell.Slice, bool, error) {
	value, found, err := d.Lookup(key)
	if err != nil || !found {
		return d, cell.Slice{}, false, err
	}
	out, _, err := d.Delete(key)
	if err != nil {
		return d, cell.Slice{}, false, err
	}
	return out, value, true, nil
}

// PrefixSubdict returns the entries whose keys start with prefix. The
// result shares every cell below the point where prefix ends. With
// removePrefix the keys lose the prefix and the result has
// KeyBits-prefix.Len() bit keys; otherwise keys are unchanged.
func (d Dictionary) PrefixSubdict(prefix cell.BitString, removePrefix bool) (Dictionary, error) {
	if prefix.Len() > d.KeyBits {
		return d, fmt.Errorf("prefix of %d bits for a %d-bit dictionary: %w", prefix.Len(), d.KeyBits, cell.ErrConstraintViolation)
	}
	keyBits := d.KeyBits
	if removePrefix {
		keyBits -= prefix.Len()
	}
	if d.Root == nil {
		return New(keyBits), nil
	}
	root, err := trie{}.prefixed(d.Root, d.KeyBits, prefix, removePrefix)
	if err != nil {
		return d, fmt.Errorf("extracting prefix %s: %w", prefix, err)
	}
	return Dictionary{Root: root, KeyBits: keyBits}, nil
}

// ValidateSkip checks the dictionary's structure against the budget,
// one operation per node. A non-nil value type must match every leaf
// value exactly.
func (d Dictionary) ValidateSkip(budget *tlb.Budget, value tlb.Type, weak bool) error {
	if d.Root == nil {
		return nil
	}
	return trie{}.validate(budget, d.Root, d.KeyBits, value, weak)
}

// LoadHashmapE reads hme_empty$0 or hme_root$1 root:^(Hashmap n X).
func LoadHashmapE(s *cell.Slice, keyBits int) (Dictionary, error) {
	root, err := loadMaybeRoot(s)
	if err != nil {
		return Dictionary{}, err
	}
	return Dictionary{Root: root, KeyBits: keyBits}, nil
}

// StoreHashmapE writes d as a HashmapE.
func StoreHashmapE(b *cell.Builder, d Dictionary) error {
	return storeMaybeRoot(b, d.Root)
}

func loadMaybeRoot(s *cell.Slice) (*cell.Cell, error) {
	probe := *s
	present, err := probe.FetchBool()
	if err != nil {
		return nil, err
	}
	var root *cell.Cell
	if present {
		if root, err = probe.FetchRef(); err != nil {
			return nil, err
		}
	}
	*s = probe
	return root, nil
}

func storeMaybeRoot(b *cell.Builder, root *cell.Cell) error {
	if root == nil {
		return b.StoreBit(false)
	}
	if b.AvailableRefs() < 1 {
		return fmt.Errorf("no reference left for dictionary root: %w", cell.ErrOverflow)
	}
	if err := b.StoreBit(true); err != nil {
		return err
	}
	return b.StoreRef(root)
}
