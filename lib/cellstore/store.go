// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cellstore

import (
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/cellcodec/lib/cell"
)

// Config holds the optional parameters of a [Store].
type Config struct {
	// Logger receives a summary line from [Store.LogStats]. If nil,
	// a no-op logger is used.
	Logger *slog.Logger
}

// Store interns cells by representation hash, so that equal subtrees
// decoded from different places share one *cell.Cell. Cells are
// immutable, which makes any stored pointer safe to hand out to
// every caller.
//
// Store is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	cells  map[cell.Hash]*cell.Cell
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates an empty store.
func New(config Config) *Store {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		cells:  make(map[cell.Hash]*cell.Cell),
		logger: logger,
	}
}

// Intern returns the stored cell with c's representation hash,
// storing c first if no such cell exists. The references of c are
// taken as they are; use [Store.InternTree] to canonicalize a whole
// tree.
func (s *Store) Intern(c *cell.Cell) *cell.Cell {
	hash := c.RepresentationHash()

	s.mu.RLock()
	existing, ok := s.cells[hash]
	s.mu.RUnlock()
	if ok {
		s.hits.Add(1)
		return existing
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another writer may have stored it between the two locks.
	if existing, ok := s.cells[hash]; ok {
		s.hits.Add(1)
		return existing
	}
	s.cells[hash] = c
	s.misses.Add(1)
	return c
}

// InternTree interns every cell of the tree under root, children
// first, and returns the canonical root. A cell whose references
// were replaced by stored equivalents is rebuilt; its hashes do not
// change.
func (s *Store) InternTree(root *cell.Cell) (*cell.Cell, error) {
	done := make(map[cell.Hash]*cell.Cell)
	var visit func(c *cell.Cell) (*cell.Cell, error)
	visit = func(c *cell.Cell) (*cell.Cell, error) {
		hash := c.RepresentationHash()
		if out, ok := done[hash]; ok {
			return out, nil
		}
		if existing, ok := s.Get(hash); ok {
			s.hits.Add(1)
			done[hash] = existing
			return existing, nil
		}
		refs := make([]*cell.Cell, c.RefCount())
		changed := false
		for i := range refs {
			ref, err := visit(c.Ref(i))
			if err != nil {
				return nil, err
			}
			refs[i] = ref
			changed = changed || ref != c.Ref(i)
		}
		if changed {
			rebuilt, err := c.Rebuild(refs)
			if err != nil {
				return nil, err
			}
			c = rebuilt
		}
		out := s.Intern(c)
		done[hash] = out
		return out, nil
	}
	return visit(root)
}

// Get returns the cell stored under a representation hash.
func (s *Store) Get(hash cell.Hash) (*cell.Cell, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cells[hash]
	return c, ok
}

// Len returns the number of distinct cells in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cells)
}

// Walk calls fn for every stored cell until fn returns false. The
// order is unspecified. Walk works on a snapshot, so fn may call
// back into the store.
func (s *Store) Walk(fn func(*cell.Cell) bool) {
	for c := range s.All() {
		if !fn(c) {
			return
		}
	}
}

// All returns a snapshot iterator over the stored cells.
func (s *Store) All() iter.Seq[*cell.Cell] {
	s.mu.RLock()
	snapshot := make([]*cell.Cell, 0, len(s.cells))
	for _, c := range s.cells {
		snapshot = append(snapshot, c)
	}
	s.mu.RUnlock()
	return func(yield func(*cell.Cell) bool) {
		for _, c := range snapshot {
			if !yield(c) {
				return
			}
		}
	}
}

// Stats reports how many Intern calls found an existing cell and
// how many stored a new one.
func (s *Store) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// LogStats writes the store's size and hit counts to the logger.
func (s *Store) LogStats(message string) {
	hits, misses := s.Stats()
	s.logger.Debug(message,
		"cells", s.Len(),
		"hits", hits,
		"misses", misses,
	)
}
