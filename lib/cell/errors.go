// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cell

import "errors"

// Failure taxonomy shared by every codec package. Failure sites wrap
// one of these with fmt.Errorf("...: %w") and callers add context the
// same way, so errors.Is identifies the category at any depth. None
// of them are recoverable by adjusting the input: the whole value is
// rejected.
var (
	// ErrTruncated means a read ran past the remaining bits or
	// references of a slice.
	ErrTruncated = errors.New("truncated")

	// ErrSchemaMismatch means no constructor tag matched the input.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrConstraintViolation means a bounded or dependent field, a
	// special cell layout, or an augmented dictionary aggregate was
	// not what its declaration requires.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrOverflow means a builder would exceed 1023 bits or 4
	// references.
	ErrOverflow = errors.New("overflow")

	// ErrBudgetExceeded means a validation ran out of operations.
	ErrBudgetExceeded = errors.New("budget exceeded")

	// ErrProofInvalid means a Merkle hash or depth did not match.
	ErrProofInvalid = errors.New("proof invalid")
)
