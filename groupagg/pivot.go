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
	"math"

	"github.com/heliumdb/groupagg/array"
	"github.com/heliumdb/groupagg/groupid"
)

// PivotWider implements hash_pivot_wider: for each
// row, b.PivotValues carries the pivot key and b.Values the cell
// value; rows are scattered into one output column per
// opts.KeyNames entry, keyed by group. Each (key, group) cell may be
// populated at most once; a second row targeting an already-filled
// cell is an error, since silently overwriting would make the result
// depend on row order.
type PivotWider struct {
	base
	opts     PivotWiderOptions
	keyIndex map[string]int

	values [][]any
	valid  [][]bool
	seen   [][]bool
}

func NewPivotWider(opts PivotWiderOptions) *PivotWider {
	idx := make(map[string]int, len(opts.KeyNames))
	for i, k := range opts.KeyNames {
		idx[k] = i
	}
	p := &PivotWider{base: newBase(), opts: opts, keyIndex: idx}
	p.values = make([][]any, len(opts.KeyNames))
	p.valid = make([][]bool, len(opts.KeyNames))
	p.seen = make([][]bool, len(opts.KeyNames))
	return p
}

func (a *PivotWider) Init(inputType array.Type) error { return nil }

// takeIndexWidth reports the narrowest unsigned integer width (in
// bits) that can address numGroups distinct output rows. Group ids
// throughout this package are already groupid.Column's dense uint32,
// so hash_pivot_wider's take-index selection never needs to widen
// past 32 bits regardless of numGroups: there is no wider group-id
// representation to take from in the first place.
func takeIndexWidth(numGroups uint32) int {
	switch {
	case numGroups <= math.MaxUint8:
		return 8
	case numGroups <= math.MaxUint16:
		return 16
	default:
		return 32
	}
}

func (a *PivotWider) Resize(n uint32) {
	a.resize(n)
	_ = takeIndexWidth(n) // selection is informational only; see doc comment
	for k := range a.values {
		growAny(&a.values[k], n)
		growBool(&a.valid[k], n, false)
		growBool(&a.seen[k], n, false)
	}
}

func (a *PivotWider) Consume(b Batch) error {
	for i, g := range b.Groups.Ids {
		key, null := encodeKey(b.PivotValues, i)
		if null {
			continue // a null pivot key never selects an output column
		}
		idx, ok := a.keyIndex[string(key)]
		if !ok {
			if a.opts.UnexpectedKeyBehavior == UnexpectedKeyRaise {
				return fmt.Errorf("groupagg: pivot key %q not in key_names: %w", key, ErrInvalid)
			}
			continue
		}
		if !b.Values.IsValid(i) {
			continue // a null value never fills a cell
		}
		if a.seen[idx][g] {
			debugf("groupagg: pivot_wider[%s] collision for key %q, group %d", a.instanceID, key, g)
			return fmt.Errorf("groupagg: duplicate cell for key %q, group %d: %w", key, g, ErrInvalid)
		}
		a.seen[idx][g] = true
		a.values[idx][g] = readAny(b.Values, i)
		a.valid[idx][g] = true
	}
	return nil
}

// Merge folds other's cells into this aggregator. It computes the
// inverse of mapping once (mapping runs source-to-destination; this
// needs, for each destination slot, which source slot feeds it) and
// then takes through that inverse, since this holds boxed per-cell
// values rather than physical columns to gather from.
func (a *PivotWider) Merge(other Aggregator, mapping groupid.Mapping) error {
	o, ok := other.(*PivotWider)
	if !ok || len(o.keyIndex) != len(a.keyIndex) {
		return fmt.Errorf("groupagg: PivotWider.Merge: %w", ErrInvalid)
	}
	inv := groupid.Invert(mapping, a.NumGroups())
	for idx := range o.seen {
		for dst, src := range inv {
			if int(src) >= len(mapping) || mapping[src] != uint32(dst) {
				continue // no source slot maps to dst
			}
			if !o.seen[idx][src] {
				continue
			}
			if a.seen[idx][dst] {
				debugf("groupagg: pivot_wider[%s] merge collision for group %d", a.instanceID, dst)
				return fmt.Errorf("groupagg: PivotWider.Merge: duplicate cell for group %d: %w", dst, ErrInvalid)
			}
			a.seen[idx][dst] = true
			a.values[idx][dst] = o.values[idx][src]
			a.valid[idx][dst] = o.valid[idx][src]
		}
	}
	return nil
}

// pivotStruct is the output of hash_pivot_wider: one column per
// opts.KeyNames entry, struct-packed in key_names order.
type pivotStruct struct {
	names   []string
	columns []array.Array
}

func (s *pivotStruct) Type() array.Type { return array.TypeStruct }
func (s *pivotStruct) Len() int {
	if len(s.columns) == 0 {
		return 0
	}
	return s.columns[0].Len()
}
func (s *pivotStruct) IsValid(i int) bool {
	for _, c := range s.columns {
		if c.IsValid(i) {
			return true
		}
	}
	return false
}
func (s *pivotStruct) IsScalar() bool { return false }

// Column returns the output column for the given key name, or nil
// if it is not one of opts.KeyNames.
func (s *pivotStruct) Column(name string) array.Array {
	for i, n := range s.names {
		if n == name {
			return s.columns[i]
		}
	}
	return nil
}

func (a *PivotWider) Finalize() array.Array {
	cols := make([]array.Array, len(a.opts.KeyNames))
	for idx := range a.opts.KeyNames {
		cols[idx] = boxedArray(a.values[idx], a.valid[idx])
	}
	return &pivotStruct{names: append([]string(nil), a.opts.KeyNames...), columns: cols}
}

func (a *PivotWider) OutType() array.Type { return array.TypeStruct }
