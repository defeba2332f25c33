// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tlb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/bureau-foundation/cellcodec/lib/cell"
)

// ValidateOptions configures [ValidateAll].
type ValidateOptions struct {
	// Workers is the number of roots validated at once. If zero or
	// negative, defaults to runtime.NumCPU().
	Workers int

	// OpsPerRoot is the budget each root gets. If zero or negative,
	// roots are validated without a budget.
	OpsPerRoot int64

	// Weak skips aggregate consistency checks.
	Weak bool

	// Logger receives one message per failed root and a summary. If
	// nil, a no-op logger is used.
	Logger *slog.Logger
}

// RootError is the failure of one root in [ValidateAll].
type RootError struct {
	Index int
	Err   error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("root %d: %v", e.Index, e.Err)
}

func (e *RootError) Unwrap() error { return e.Err }

// ValidateAll validates each root cell as a complete encoding of t,
// one root per worker. Cells are immutable, so workers share nothing
// but the input. Cancelling ctx stops workers from starting further
// roots; a root already being validated runs to completion, bounded
// by its budget.
//
// The returned error joins one [*RootError] per failed root, so
// errors.Is sees every category that occurred.
func ValidateAll(ctx context.Context, t Type, roots []*cell.Cell, options ValidateOptions) error {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	workers := options.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(roots))

	failures := make([]error, len(roots))
	indexes := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				var budget *Budget
				if options.OpsPerRoot > 0 {
					budget = NewBudget(options.OpsPerRoot)
				}
				if err := ValidateRef(t, budget, roots[i], options.Weak); err != nil {
					failures[i] = &RootError{Index: i, Err: err}
					logger.Debug("root failed validation",
						"root", i,
						"hash", roots[i].Hash(0).String(),
						"error", err,
					)
				}
			}
		}()
	}

	var cancelled error
feed:
	for i := range roots {
		select {
		case indexes <- i:
		case <-ctx.Done():
			cancelled = fmt.Errorf("validation stopped before root %d: %w", i, ctx.Err())
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	err := errors.Join(append(failures, cancelled)...)
	if err != nil {
		logger.Info("validation finished with failures", "roots", len(roots))
	} else {
		logger.Info("validation finished", "roots", len(roots))
	}
	return err
}
