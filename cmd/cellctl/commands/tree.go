// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/dict"
)

// treeFile is the JSONC description of a cell forest read by build.
//
//	{
//	  "roots": [
//	    {"bits": "0101", "refs": [{"hex": "DEADBEEF"}]},
//	    // a HashmapE with two 8-bit keys
//	    {"dict": {"key_bits": 8, "entries": [
//	      {"key": "01", "value": {"bits": "1"}},
//	      {"key": "FF", "value": {"hex": "AB"}},
//	    ]}},
//	    {"proof": {"refs": [{"prune": {"hex": "CAFE"}}]}},
//	  ],
//	}
type treeFile struct {
	Roots []treeNode `json:"roots"`
}

// treeNode describes one cell. An ordinary cell takes bits or hex
// plus refs; each of the other fields makes a special cell and
// excludes the rest.
type treeNode struct {
	Bits string     `json:"bits,omitempty"`
	Hex  string     `json:"hex,omitempty"`
	Refs []treeNode `json:"refs,omitempty"`

	// Prune stands in for the described subtree with a level-1
	// pruned branch.
	Prune *treeNode `json:"prune,omitempty"`

	// Library is the hex hash of the referenced library cell.
	Library string `json:"library,omitempty"`

	Proof  *treeNode   `json:"proof,omitempty"`
	Update *treeUpdate `json:"update,omitempty"`

	// Dict makes an ordinary cell holding a HashmapE.
	Dict *treeDict `json:"dict,omitempty"`
}

type treeUpdate struct {
	From treeNode `json:"from"`
	To   treeNode `json:"to"`
}

type treeDict struct {
	KeyBits int         `json:"key_bits"`
	Entries []treeEntry `json:"entries"`
}

type treeEntry struct {
	// Key is hex, in the notation of [cell.ParseHexBitString].
	Key   string   `json:"key"`
	Value treeNode `json:"value"`
}

// parseTree strips comments and trailing commas, then decodes a
// treeFile. Unknown fields are errors so that typos do not silently
// produce empty cells.
func parseTree(data []byte) (*treeFile, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()
	var file treeFile
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing tree: %w", err)
	}
	if len(file.Roots) == 0 {
		return nil, fmt.Errorf("parsing tree: no roots")
	}
	return &file, nil
}

// buildTree builds every root of file.
func buildTree(file *treeFile) ([]*cell.Cell, error) {
	roots := make([]*cell.Cell, len(file.Roots))
	for i := range file.Roots {
		root, err := file.Roots[i].build(fmt.Sprintf("roots[%d]", i))
		if err != nil {
			return nil, err
		}
		roots[i] = root
	}
	return roots, nil
}

func (n *treeNode) build(path string) (*cell.Cell, error) {
	special := 0
	for _, set := range []bool{n.Prune != nil, n.Library != "", n.Proof != nil, n.Update != nil, n.Dict != nil} {
		if set {
			special++
		}
	}
	ordinary := n.Bits != "" || n.Hex != "" || len(n.Refs) > 0
	if special > 1 || (special == 1 && ordinary) {
		return nil, fmt.Errorf("%s: prune, library, proof, update and dict exclude each other and bits, hex and refs", path)
	}

	switch {
	case n.Prune != nil:
		inner, err := n.Prune.build(path + ".prune")
		if err != nil {
			return nil, err
		}
		return wrap(path, func() (*cell.Cell, error) { return cell.NewPrunedBranch(inner, 1) })
	case n.Library != "":
		hash, err := cell.ParseHash(n.Library)
		if err != nil {
			return nil, fmt.Errorf("%s.library: %w", path, err)
		}
		return wrap(path, func() (*cell.Cell, error) { return cell.NewLibraryRef(hash) })
	case n.Proof != nil:
		inner, err := n.Proof.build(path + ".proof")
		if err != nil {
			return nil, err
		}
		return wrap(path, func() (*cell.Cell, error) { return cell.NewMerkleProof(inner) })
	case n.Update != nil:
		from, err := n.Update.From.build(path + ".update.from")
		if err != nil {
			return nil, err
		}
		to, err := n.Update.To.build(path + ".update.to")
		if err != nil {
			return nil, err
		}
		return wrap(path, func() (*cell.Cell, error) { return cell.NewMerkleUpdate(from, to) })
	case n.Dict != nil:
		return n.Dict.build(path + ".dict")
	}

	b := cell.NewBuilder()
	if n.Bits != "" && n.Hex != "" {
		return nil, fmt.Errorf("%s: bits and hex exclude each other", path)
	}
	var data cell.BitString
	var err error
	switch {
	case n.Bits != "":
		data, err = cell.ParseBitString(n.Bits)
	case n.Hex != "":
		data, err = cell.ParseHexBitString(n.Hex)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := b.StoreBits(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range n.Refs {
		ref, err := n.Refs[i].build(fmt.Sprintf("%s.refs[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if err := b.StoreRef(ref); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return wrap(path, b.EndCell)
}

func (d *treeDict) build(path string) (*cell.Cell, error) {
	if d.KeyBits <= 0 || d.KeyBits > cell.MaxBits {
		return nil, fmt.Errorf("%s: key_bits %d out of range", path, d.KeyBits)
	}
	entries := make([]dict.Entry, len(d.Entries))
	for i := range d.Entries {
		entry := &d.Entries[i]
		key, err := parseKey(entry.Key, d.KeyBits)
		if err != nil {
			return nil, fmt.Errorf("%s.entries[%d]: %w", path, i, err)
		}
		value, err := entry.Value.build(fmt.Sprintf("%s.entries[%d].value", path, i))
		if err != nil {
			return nil, err
		}
		entries[i] = dict.Entry{Key: key, Value: value.BeginParse()}
	}
	dictionary, err := dict.Build(d.KeyBits, entries)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	b := cell.NewBuilder()
	if err := dict.StoreHashmapE(b, dictionary); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wrap(path, b.EndCell)
}

// parseKey reads a hex dictionary key of exactly keyBits bits.
func parseKey(text string, keyBits int) (cell.BitString, error) {
	key, err := cell.ParseHexBitString(text)
	if err != nil {
		return cell.BitString{}, err
	}
	if key.Len() != keyBits {
		return cell.BitString{}, fmt.Errorf("key %q has %d bits, want %d", text, key.Len(), keyBits)
	}
	return key, nil
}

func wrap(path string, finish func() (*cell.Cell, error)) (*cell.Cell, error) {
	c, err := finish()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
