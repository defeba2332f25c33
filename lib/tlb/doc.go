// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tlb encodes typed values into cells according to schema
// types: the runtime half of a TL-B schema, without the grammar.
//
// Every schema type implements [Type]:
//
//   - Tag peeks at a slice and returns the index of the constructor
//     the encoded value uses, failing with cell.ErrSchemaMismatch when
//     no constructor matches.
//   - CheckTag is the non-failing form of Tag.
//   - Skip advances a slice past one encoded value without building
//     a Go value for it.
//   - ValidateSkip is Skip that also checks every declared constraint
//     and charges a [Budget] for every cell and recursive step, so
//     adversarially deep or wide input is rejected with
//     cell.ErrBudgetExceeded instead of exhausting the validator.
//   - Unpack and Pack convert between slices and Go values. For every
//     value v a type accepts, Unpack(Pack(v)) returns v.
//
// Combinators cover the TL-B built-ins: fixed and bounded naturals
// ([Nat], [NatLess], [NatLeq]), machine and wide integers ([UInt],
// [Int]), [Bits], [Bool], [Maybe], [Either], boxed references
// ([Ref]), [Tuple], [Unary], [VarUInteger] and [VarInteger], [BinTree],
// and the catch-alls [Anything] and [RefAnything].
//
// Record types are built from [Constructor] descriptions with
// [NewSchema]. A constructor names a tag and an ordered field list.
// Fields whose width or presence depends on earlier fields, such as
// (## n) or flags.0?X, resolve their type through a [Context] holding
// the values decoded so far in the same record. Dispatch between
// constructors goes through a lookup table built once from the
// declared tags.
//
// Errors are the sentinels from package cell, wrapped with the path
// to the failing field.
package tlb
