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

// CountAll implements hash_count_all: counts every row routed to a
// group, irrespective of value nullity.
type CountAll struct {
	base
	counts []int64
}

func NewCountAll() *CountAll { return &CountAll{base: newBase()} }

func (a *CountAll) Init(inputType array.Type) error { return nil }

func (a *CountAll) Resize(n uint32) {
	a.resize(n)
	growInt64(&a.counts, n)
}

func (a *CountAll) Consume(b Batch) error {
	for _, g := range b.Groups.Ids {
		a.counts[g]++
	}
	return nil
}

func (a *CountAll) Merge(other Aggregator, mapping groupid.Mapping) error {
	o, ok := other.(*CountAll)
	if !ok {
		return fmt.Errorf("groupagg: CountAll.Merge: %w", ErrInvalid)
	}
	for g, c := range o.counts {
		a.counts[mapping[g]] += c
	}
	return nil
}

func (a *CountAll) Finalize() array.Array {
	out := &array.Int64Array{Values: a.counts}
	a.counts = nil
	return out
}

func (a *CountAll) OutType() array.Type { return array.TypeInt64 }

// Count implements hash_count: counts rows per group according to
// CountOptions.Mode (ONLY_VALID, ONLY_NULL, ALL).
type Count struct {
	base
	opts   CountOptions
	counts []int64
}

func NewCount(opts CountOptions) *Count {
	return &Count{base: newBase(), opts: opts}
}

func (a *Count) Init(inputType array.Type) error { return nil }

func (a *Count) Resize(n uint32) {
	a.resize(n)
	growInt64(&a.counts, n)
}

// isValidRowAt reports whether row i of values should be counted under
// Count.opts.Mode == ONLY_VALID (and, inverted, backs ONLY_NULL). It
// special-cases run-end-encoded arrays by consulting the inner
// value-slot's validity rather than materializing the expansion, and
// a nil values column (hash_count with no expression argument
// behaves like hash_count_all).
func isValidRowAt(values array.Array, i int) bool {
	if values == nil {
		return true
	}
	if ree, ok := values.(*array.RunEndArray); ok {
		return ree.IsValid(i)
	}
	return values.IsValid(i)
}

func (a *Count) Consume(b Batch) error {
	switch a.opts.Mode {
	case CountAllMode:
		for _, g := range b.Groups.Ids {
			a.counts[g]++
		}
	case CountOnlyValid:
		consumeCountRows(b, a.counts, true)
	case CountOnlyNull:
		consumeCountRows(b, a.counts, false)
	}
	return nil
}

// consumeCountRows specializes iteration over run-end-encoded value
// columns into per-run increments rather than expanding each row,
// since Count's per-row validity only ever changes at a run boundary.
func consumeCountRows(b Batch, counts []int64, wantValid bool) {
	if ree, ok := b.Values.(*array.RunEndArray); ok {
		ids := b.Groups.Ids
		ree.EachRun(func(slot int, start, end int64) {
			valid := ree.Values.IsValid(slot)
			if valid != wantValid {
				return
			}
			for i := start; i < end; i++ {
				counts[ids[i]]++
			}
		})
		return
	}
	for i, g := range b.Groups.Ids {
		if isValidRowAt(b.Values, i) == wantValid {
			counts[g]++
		}
	}
}

func (a *Count) Merge(other Aggregator, mapping groupid.Mapping) error {
	o, ok := other.(*Count)
	if !ok {
		return fmt.Errorf("groupagg: Count.Merge: %w", ErrInvalid)
	}
	for g, c := range o.counts {
		a.counts[mapping[g]] += c
	}
	return nil
}

func (a *Count) Finalize() array.Array {
	out := &array.Int64Array{Values: a.counts}
	a.counts = nil
	return out
}

func (a *Count) OutType() array.Type { return array.TypeInt64 }

// growInt64 extends *s to length n, leaving existing entries alone
// and zero-initializing new slots (the correct identity for Count).
func growInt64(s *[]int64, n uint32) {
	if uint32(len(*s)) >= n {
		return
	}
	grown := make([]int64, n)
	copy(grown, *s)
	*s = grown
}
