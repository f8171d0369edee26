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

package groupagg

import (
	"fmt"

	"github.com/heliumdb/groupagg/array"
	"github.com/heliumdb/groupagg/groupid"
)

// FirstLast implements hash_first_last (and, via thin wrappers,
// hash_first/hash_last). It is an *ordered* aggregator: the caller
// must feed batches in the intended total order, and Merge is
// asymmetric as a result.
type FirstLast struct {
	base
	opts      ScalarAggregateOptions
	inputType array.Type

	firstIsNull  []bool
	lastIsNull   []bool
	hasValues    []bool // at least one non-null seen
	hasAnyValues []bool // at least one row seen at all

	first, last []any
}

func NewFirstLast(opts ScalarAggregateOptions) *FirstLast {
	return &FirstLast{base: newBase(), opts: opts}
}

func (a *FirstLast) Init(inputType array.Type) error {
	if err := validateMinCount(a.opts.MinCount); err != nil {
		return err
	}
	a.inputType = inputType
	return nil
}

func (a *FirstLast) Resize(n uint32) {
	a.resize(n)
	growBool(&a.firstIsNull, n, false)
	growBool(&a.lastIsNull, n, false)
	growBool(&a.hasValues, n, false)
	growBool(&a.hasAnyValues, n, false)
	growAny(&a.first, n)
	growAny(&a.last, n)
}

func growAny(s *[]any, n uint32) {
	if uint32(len(*s)) >= n {
		return
	}
	grown := make([]any, n)
	copy(grown, *s)
	*s = grown
}

// readAny reads logical row i of v as a boxed Go value, used by the
// collection-style aggregators (First/Last, One, List, Distinct)
// which must hold on to arbitrary input types rather than a single
// widened numeric kind.
func readAny(v array.Array, i int) any {
	idx := valueIndex(v, i)
	switch a := v.(type) {
	case *array.Int64Array:
		return a.At(idx)
	case *array.Float64Array:
		return a.At(idx)
	case *array.BoolArray:
		return a.At(idx)
	case *array.DecimalArray:
		return a.At(idx)
	case *array.BinaryArray:
		b := a.At(idx)
		cp := append([]byte(nil), b...)
		return cp
	default:
		return nil
	}
}

func (a *FirstLast) Consume(b Batch) error {
	for i, g := range b.Groups.Ids {
		valid := b.Values.IsValid(i)
		if !a.hasAnyValues[g] {
			a.hasAnyValues[g] = true
			if valid {
				a.first[g] = readAny(b.Values, i)
				a.hasValues[g] = true
			} else {
				a.firstIsNull[g] = true
			}
		}
		if valid {
			a.last[g] = readAny(b.Values, i)
			a.lastIsNull[g] = false
		} else {
			a.last[g] = nil
			a.lastIsNull[g] = true
		}
	}
	return nil
}

// Merge is asymmetric: this.first wins over
// other.first once this has already seen any row, but other.last
// always wins (other is always the logically later segment).
func (a *FirstLast) Merge(other Aggregator, mapping groupid.Mapping) error {
	o, ok := other.(*FirstLast)
	if !ok {
		return fmt.Errorf("groupagg: FirstLast.Merge: %w", ErrInvalid)
	}
	for g := range o.hasAnyValues {
		if !o.hasAnyValues[g] {
			continue
		}
		dst := mapping[g]
		if !a.hasAnyValues[dst] {
			a.hasAnyValues[dst] = true
			a.first[dst] = o.first[g]
			a.firstIsNull[dst] = o.firstIsNull[g]
			a.hasValues[dst] = o.hasValues[g]
		}
		a.last[dst] = o.last[g]
		a.lastIsNull[dst] = o.lastIsNull[g]
	}
	return nil
}

// firstLastStruct is the {first, last} output of hash_first_last.
type firstLastStruct struct {
	first, last array.Array
}

func (s *firstLastStruct) Type() array.Type   { return array.TypeStruct }
func (s *firstLastStruct) Len() int           { return s.first.Len() }
func (s *firstLastStruct) IsValid(i int) bool { return s.first.IsValid(i) || s.last.IsValid(i) }
func (s *firstLastStruct) IsScalar() bool     { return false }
func (s *firstLastStruct) First() array.Array { return s.first }
func (s *firstLastStruct) Last() array.Array  { return s.last }

func (a *FirstLast) Finalize() array.Array {
	n := len(a.hasAnyValues)
	firstValid := make([]bool, n)
	lastValid := make([]bool, n)
	for g := 0; g < n; g++ {
		if a.opts.SkipNulls {
			firstValid[g] = a.hasValues[g]
			lastValid[g] = a.hasValues[g] && !a.lastIsNull[g]
		} else {
			firstValid[g] = a.hasAnyValues[g] && !a.firstIsNull[g]
			lastValid[g] = a.hasAnyValues[g] && !a.lastIsNull[g]
		}
	}
	return &firstLastStruct{
		first: boxedArray(a.first, firstValid),
		last:  boxedArray(a.last, lastValid),
	}
}

func (a *FirstLast) OutType() array.Type { return array.TypeStruct }

// boxedArray packs the boxed-any values First/Last/One/List hold
// back into a typed array.Array, inferring the element type from the
// first non-nil entry (every value was read from one typed input
// column, so this is sound).
func boxedArray(values []any, valid []bool) array.Array {
	var sample any
	for i, v := range values {
		if valid[i] {
			sample = v
			break
		}
	}
	switch sample.(type) {
	case int64:
		out := make([]int64, len(values))
		for i, v := range values {
			if valid[i] {
				out[i] = v.(int64)
			}
		}
		return &array.Int64Array{Values: out, Valid: valid}
	case float64:
		out := make([]float64, len(values))
		for i, v := range values {
			if valid[i] {
				out[i] = v.(float64)
			}
		}
		return &array.Float64Array{Values: out, Valid: valid}
	case bool:
		out := make([]bool, len(values))
		for i, v := range values {
			if valid[i] {
				out[i] = v.(bool)
			}
		}
		return &array.BoolArray{Values: out, Valid: valid}
	case array.Decimal:
		out := make([]array.Decimal, len(values))
		for i, v := range values {
			if valid[i] {
				out[i] = v.(array.Decimal)
			}
		}
		return &array.DecimalArray{Values: out, Valid: valid}
	case []byte:
		out := make([][]byte, len(values))
		for i, v := range values {
			if valid[i] {
				out[i] = v.([]byte)
			}
		}
		return &array.BinaryArray{Values: out, Valid: valid}
	default:
		return &array.Int64Array{Values: make([]int64, len(values)), Valid: make([]bool, len(values))}
	}
}

// hashFirstLastField implements hash_first/hash_last.
type hashFirstLastField struct {
	*FirstLast
	field func(*firstLastStruct) array.Array
}

func NewHashFirst(opts ScalarAggregateOptions) Aggregator {
	return &hashFirstLastField{FirstLast: NewFirstLast(opts), field: (*firstLastStruct).First}
}

func NewHashLast(opts ScalarAggregateOptions) Aggregator {
	return &hashFirstLastField{FirstLast: NewFirstLast(opts), field: (*firstLastStruct).Last}
}

func (h *hashFirstLastField) Finalize() array.Array {
	s := h.FirstLast.Finalize().(*firstLastStruct)
	return h.field(s)
}

func (h *hashFirstLastField) OutType() array.Type { return h.FirstLast.inputType }
