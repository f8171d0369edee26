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

// One implements hash_one: an arbitrary representative value per
// group (the first one Consume happens to see, with no ordering
// guarantee across Merge). Unlike FirstLast it is commutative, so
// Merge only needs to fill groups this side hasn't captured yet.
type One struct {
	base
	opts      ScalarAggregateOptions
	inputType array.Type
	hasValues []bool
	hasAny    []bool
	isNull    []bool
	value     []any
}

func NewOne(opts ScalarAggregateOptions) *One { return &One{base: newBase(), opts: opts} }

func (a *One) Init(inputType array.Type) error {
	if err := validateMinCount(a.opts.MinCount); err != nil {
		return err
	}
	a.inputType = inputType
	return nil
}

func (a *One) Resize(n uint32) {
	a.resize(n)
	growBool(&a.hasValues, n, false)
	growBool(&a.hasAny, n, false)
	growBool(&a.isNull, n, false)
	growAny(&a.value, n)
}

func (a *One) Consume(b Batch) error {
	for i, g := range b.Groups.Ids {
		if a.hasAny[g] {
			continue
		}
		valid := b.Values.IsValid(i)
		a.hasAny[g] = true
		if valid {
			a.value[g] = readAny(b.Values, i)
			a.hasValues[g] = true
		} else {
			a.isNull[g] = true
		}
	}
	return nil
}

func (a *One) Merge(other Aggregator, mapping groupid.Mapping) error {
	o, ok := other.(*One)
	if !ok {
		return fmt.Errorf("groupagg: One.Merge: %w", ErrInvalid)
	}
	for g := range o.hasAny {
		if !o.hasAny[g] {
			continue
		}
		dst := mapping[g]
		if a.hasAny[dst] {
			continue
		}
		a.hasAny[dst] = true
		a.hasValues[dst] = o.hasValues[g]
		a.isNull[dst] = o.isNull[g]
		a.value[dst] = o.value[g]
	}
	return nil
}

func (a *One) Finalize() array.Array {
	n := len(a.hasAny)
	valid := make([]bool, n)
	for g := 0; g < n; g++ {
		if a.opts.SkipNulls {
			valid[g] = a.hasValues[g]
		} else {
			valid[g] = a.hasAny[g] && !a.isNull[g]
		}
	}
	return boxedArray(a.value, valid)
}

func (a *One) OutType() array.Type { return a.inputType }

// List implements hash_list: every value seen per group, in arrival
// order, duplicates and nulls retained per opts.SkipNulls. Per-group
// buffers are grown incrementally rather than pre-sized, since a
// group's final cardinality isn't known until Finalize; very large
// per-group collections are an accepted cost of an explicitly
// unbounded list aggregator, mitigated only by spilling the
// in-progress buffer of any group that grows past
// listSpillThreshold through the zstd codec in spill.go, the same
// Compressor/Decompressor convention internal/tdigest uses to wire a
// sketch for transport (compr/compression.go).
type List struct {
	base
	opts   ScalarAggregateOptions
	kind   array.Type
	values [][]any
	isNull [][]bool
	spills [][][]byte // compressed chunks, oldest first, per group
}

func NewList(opts ScalarAggregateOptions) *List { return &List{base: newBase(), opts: opts} }

func (a *List) Init(inputType array.Type) error {
	if err := validateMinCount(a.opts.MinCount); err != nil {
		return err
	}
	a.kind = inputType
	return nil
}

func (a *List) Resize(n uint32) {
	a.resize(n)
	old := len(a.values)
	if uint32(old) >= n {
		return
	}
	grownV := make([][]any, n)
	copy(grownV, a.values)
	a.values = grownV
	grownN := make([][]bool, n)
	copy(grownN, a.isNull)
	a.isNull = grownN
	grownS := make([][][]byte, n)
	copy(grownS, a.spills)
	a.spills = grownS
}

// listSpillThreshold bounds how many in-memory entries a single
// group's buffer accumulates before it is compressed and appended to
// that group's spill chunk list, since list aggregation is explicitly
// unbounded per group.
const listSpillThreshold = 4096

func (a *List) Consume(b Batch) error {
	for i, g := range b.Groups.Ids {
		valid := b.Values.IsValid(i)
		if !valid && a.opts.SkipNulls {
			continue
		}
		if valid {
			a.values[g] = append(a.values[g], readAny(b.Values, i))
			a.isNull[g] = append(a.isNull[g], false)
		} else {
			a.values[g] = append(a.values[g], nil)
			a.isNull[g] = append(a.isNull[g], true)
		}
		if len(a.values[g]) >= listSpillThreshold {
			a.spill(g)
		}
	}
	return nil
}

func (a *List) spill(g uint32) {
	chunk := encodeListChunk(a.kind, a.values[g], a.isNull[g])
	a.spills[g] = append(a.spills[g], compressChunk(chunk))
	a.values[g] = nil
	a.isNull[g] = nil
}

func (a *List) Merge(other Aggregator, mapping groupid.Mapping) error {
	o, ok := other.(*List)
	if !ok {
		return fmt.Errorf("groupagg: List.Merge: %w", ErrInvalid)
	}
	if a.kind == array.TypeInvalid {
		a.kind = o.kind
	}
	for g := range o.values {
		dst := mapping[g]
		if len(o.spills[g]) > 0 && len(a.values[dst]) > 0 {
			a.spill(dst) // keep this side's in-memory values ahead of other's chunks
		}
		a.spills[dst] = append(a.spills[dst], o.spills[g]...)
		a.values[dst] = append(a.values[dst], o.values[g]...)
		a.isNull[dst] = append(a.isNull[dst], o.isNull[g]...)
		if len(a.values[dst]) >= listSpillThreshold {
			a.spill(dst)
		}
	}
	return nil
}

func (a *List) Finalize() array.Array {
	n := len(a.values)
	out := make([][]any, n)
	valid := make([]bool, n)
	for g := 0; g < n; g++ {
		var vals []any
		for _, c := range a.spills[g] {
			cv, _ := decodeListChunk(a.kind, decompressChunk(c))
			vals = append(vals, cv...)
		}
		vals = append(vals, a.values[g]...)
		out[g] = vals
		valid[g] = true
	}
	return &anyListArray{values: out, valid: valid}
}

func (a *List) OutType() array.Type { return array.TypeList }
