// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tlb

import (
	"fmt"
	"math/big"

	"github.com/bureau-foundation/cellcodec/lib/cell"
)

// AsUint64 converts the integer kinds Pack accepts to uint64.
func AsUint64(v any) (uint64, error) {
	switch x := v.(type) {
	case uint64:
		return x, nil
	case uint:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case uint16:
		return uint64(x), nil
	case uint8:
		return uint64(x), nil
	case int, int64, int32, int16, int8:
		i, _ := AsInt64(x)
		if i < 0 {
			return 0, fmt.Errorf("negative value %d for unsigned field: %w", i, cell.ErrConstraintViolation)
		}
		return uint64(i), nil
	case *big.Int:
		if x.Sign() < 0 || !x.IsUint64() {
			return 0, fmt.Errorf("value %s out of uint64 range: %w", x, cell.ErrConstraintViolation)
		}
		return x.Uint64(), nil
	}
	return 0, fmt.Errorf("%T is not an unsigned integer: %w", v, cell.ErrConstraintViolation)
}

// AsInt64 converts the integer kinds Pack accepts to int64.
func AsInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case uint64, uint, uint32, uint16, uint8:
		u, _ := AsUint64(x)
		if u > 1<<63-1 {
			return 0, fmt.Errorf("value %d out of int64 range: %w", u, cell.ErrConstraintViolation)
		}
		return int64(u), nil
	case *big.Int:
		if !x.IsInt64() {
			return 0, fmt.Errorf("value %s out of int64 range: %w", x, cell.ErrConstraintViolation)
		}
		return x.Int64(), nil
	}
	return 0, fmt.Errorf("%T is not an integer: %w", v, cell.ErrConstraintViolation)
}

// AsBigInt converts the integer kinds Pack accepts to a new *big.Int.
func AsBigInt(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		return new(big.Int).Set(x), nil
	case uint64, uint, uint32, uint16, uint8:
		u, _ := AsUint64(x)
		return new(big.Int).SetUint64(u), nil
	case int, int64, int32, int16, int8:
		i, _ := AsInt64(x)
		return big.NewInt(i), nil
	}
	return nil, fmt.Errorf("%T is not an integer: %w", v, cell.ErrConstraintViolation)
}

// valueAs asserts the Go type a Pack method expects.
func valueAs[T any](v any, what string) (T, error) {
	x, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: cannot pack %T as %T: %w", what, v, zero, cell.ErrConstraintViolation)
	}
	return x, nil
}
