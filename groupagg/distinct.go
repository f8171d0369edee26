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
	"encoding/binary"
	"fmt"
	"math"

	"github.com/heliumdb/groupagg/array"
	"github.com/heliumdb/groupagg/groupid"
	"github.com/heliumdb/groupagg/internal/grouper"
)

// encodeKey renders logical row i of v as the byte key a grouper.
// Grouper dedups on, alongside whether the row is null.
func encodeKey(v array.Array, i int) (data []byte, isNull bool) {
	if !v.IsValid(i) {
		return nil, true
	}
	idx := valueIndex(v, i)
	switch a := v.(type) {
	case *array.Int64Array:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(a.At(idx)))
		return buf, false
	case *array.Float64Array:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(a.At(idx)))
		return buf, false
	case *array.BoolArray:
		if a.At(idx) {
			return []byte{1}, false
		}
		return []byte{0}, false
	case *array.DecimalArray:
		d := a.At(idx)
		buf := make([]byte, 12)
		binary.LittleEndian.PutUint64(buf[:8], uint64(d.Coef))
		binary.LittleEndian.PutUint32(buf[8:], uint32(d.Scale))
		return buf, false
	case *array.BinaryArray:
		return a.At(idx), false
	default:
		return nil, false
	}
}

// passesMode reports whether a row with the given validity should be
// folded into a Distinct/CountDistinct set under mode.
func passesMode(mode CountMode, valid bool) bool {
	switch mode {
	case CountOnlyValid:
		return valid
	case CountOnlyNull:
		return !valid
	default: // CountAllMode
		return true
	}
}

// CountDistinct implements hash_count_distinct: the number of unique
// (value, nullness) pairs seen per group, selected by CountOptions.Mode.
type CountDistinct struct {
	base
	opts   CountOptions
	g      *grouper.Grouper
	counts []int64
}

func NewCountDistinct(opts CountOptions) *CountDistinct {
	return &CountDistinct{base: newBase(), opts: opts, g: grouper.New()}
}

func (a *CountDistinct) Init(inputType array.Type) error { return nil }

func (a *CountDistinct) Resize(n uint32) {
	a.resize(n)
	growInt64(&a.counts, n)
}

func (a *CountDistinct) Consume(b Batch) error {
	for i, g := range b.Groups.Ids {
		valid := b.Values.IsValid(i)
		if !passesMode(a.opts.Mode, valid) {
			continue
		}
		data, isNull := encodeKey(b.Values, i)
		if a.g.Add(g, data, isNull) {
			a.counts[g]++
		}
	}
	return nil
}

// Merge re-consumes other's unique pairs through this instance's
// grouper, remapped through mapping, so that the result is the same
// whether the whole input was folded in one grouper or across many.
func (a *CountDistinct) Merge(other Aggregator, mapping groupid.Mapping) error {
	o, ok := other.(*CountDistinct)
	if !ok {
		return fmt.Errorf("groupagg: CountDistinct.Merge: %w", ErrInvalid)
	}
	o.g.Each(func(e grouper.Entry) {
		dst := mapping[e.GroupID]
		if a.g.Add(dst, e.Value, e.Null) {
			a.counts[dst]++
		}
	})
	return nil
}

func (a *CountDistinct) Finalize() array.Array {
	valid := make([]bool, len(a.counts))
	for i := range valid {
		valid[i] = true
	}
	return &array.Int64Array{Values: a.counts, Valid: valid}
}

func (a *CountDistinct) OutType() array.Type { return array.TypeInt64 }

// Distinct implements hash_distinct: the list of unique values seen
// per group, retaining a null entry according to CountOptions.Mode.
type Distinct struct {
	base
	opts    CountOptions
	g       *grouper.Grouper
	entries []distinctEntry
}

type distinctEntry struct {
	group  uint32
	value  any
	isNull bool
}

func NewDistinct(opts CountOptions) *Distinct {
	return &Distinct{base: newBase(), opts: opts, g: grouper.New()}
}

func (a *Distinct) Init(inputType array.Type) error { return nil }

func (a *Distinct) Resize(n uint32) { a.resize(n) }

func (a *Distinct) Consume(b Batch) error {
	for i, g := range b.Groups.Ids {
		valid := b.Values.IsValid(i)
		if !passesMode(a.opts.Mode, valid) {
			continue
		}
		data, isNull := encodeKey(b.Values, i)
		if a.g.Add(g, data, isNull) {
			var v any
			if valid {
				v = readAny(b.Values, i)
			}
			a.entries = append(a.entries, distinctEntry{group: g, value: v, isNull: isNull})
		}
	}
	return nil
}

func (a *Distinct) Merge(other Aggregator, mapping groupid.Mapping) error {
	o, ok := other.(*Distinct)
	if !ok {
		return fmt.Errorf("groupagg: Distinct.Merge: %w", ErrInvalid)
	}
	for _, e := range o.entries {
		dst := mapping[e.group]
		if a.g.Add(dst, encodeEntryValue(e), e.isNull) {
			a.entries = append(a.entries, distinctEntry{group: dst, value: e.value, isNull: e.isNull})
		}
	}
	return nil
}

// encodeEntryValue re-derives the byte key for an already-boxed
// distinctEntry, so Merge can re-run it through the destination
// grouper without having kept the original array around.
func encodeEntryValue(e distinctEntry) []byte {
	if e.isNull {
		return nil
	}
	switch v := e.value.(type) {
	case int64:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(v))
		return buf
	case float64:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		return buf
	case bool:
		if v {
			return []byte{1}
		}
		return []byte{0}
	case array.Decimal:
		buf := make([]byte, 12)
		binary.LittleEndian.PutUint64(buf[:8], uint64(v.Coef))
		binary.LittleEndian.PutUint32(buf[8:], uint32(v.Scale))
		return buf
	case []byte:
		return v
	default:
		return nil
	}
}

// anyListArray is the output shape of hash_distinct: a variable-width
// list of boxed values per group, in the same style as
// fixedSizeListArray but without a fixed per-group width.
type anyListArray struct {
	values [][]any
	valid  []bool
}

func (a *anyListArray) Type() array.Type { return array.TypeList }
func (a *anyListArray) Len() int         { return len(a.values) }
func (a *anyListArray) IsValid(i int) bool {
	return a.valid[i]
}
func (a *anyListArray) IsScalar() bool  { return false }
func (a *anyListArray) At(i int) []any { return a.values[i] }

func (a *Distinct) Finalize() array.Array {
	n := int(a.numGroups)
	out := make([][]any, n)
	valid := make([]bool, n)
	for g := 0; g < n; g++ {
		out[g] = []any{}
		valid[g] = true
	}
	for _, e := range a.entries {
		out[e.group] = append(out[e.group], e.value)
	}
	return &anyListArray{values: out, valid: valid}
}

func (a *Distinct) OutType() array.Type { return array.TypeList }
