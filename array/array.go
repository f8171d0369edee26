// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

// Package array provides the minimal nullable, columnar value
// representation that groupagg's aggregators consume. It stands in
// for the "columnar storage layer" collaborator that a real query
// engine would supply (nullable value arrays, run-end-encoded arrays,
// decimal types with scale, variable-length binary).
package array

// Type tags the logical type of an Array, independent of its Go
// representation, so factories can dispatch on it without a type
// switch on every concrete array kind.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt64
	TypeFloat64
	TypeDecimal
	TypeBinary
	TypeStruct
	TypeList
)

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeDecimal:
		return "decimal"
	case TypeBinary:
		return "binary"
	case TypeStruct:
		return "struct"
	case TypeList:
		return "list"
	default:
		return "invalid"
	}
}

// Array is the common contract every value column satisfies. It is
// intentionally small: aggregators only ever need length, a
// validity predicate, and a way to know whether the whole column is
// actually a scalar broadcast to Len().
type Array interface {
	Type() Type
	Len() int
	IsValid(i int) bool

	// IsScalar reports whether this array represents a single
	// logical value broadcast across Len() rows (a constant
	// expression passed where a column was expected). Aggregators
	// must treat IsValid/value-at-index identically regardless of
	// IsScalar; it exists only so a caller that wants to avoid
	// materializing a broadcast can check it, nothing here depends
	// on it for correctness.
	IsScalar() bool
}

// RunEnds is implemented by arrays that can report their own
// run-end-encoded structure, allowing consumers to iterate runs
// instead of materializing every logical row. Arrays that do not
// implement it are assumed to be flat (one physical slot per row).
type RunEnds interface {
	// Runs returns the (exclusive) end index of each run; its length
	// is the count of runs. Runs()[i] is the first logical row index
	// not covered by run i.
	Runs() []int64
}
