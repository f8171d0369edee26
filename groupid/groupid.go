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

// Package groupid represents the dense group-id column that an
// upstream grouping/hashing stage hands to the aggregation engine.
package groupid

// Column is a non-null uint32 group-id column: Ids[i] identifies
// the group row i of a batch belongs to, and NumGroups is the
// smallest bound known to be valid for every id seen so far
// (Ids[i] < NumGroups for all i).
type Column struct {
	Ids       []uint32
	NumGroups uint32
}

func (c Column) Len() int { return len(c.Ids) }

// Mapping remaps group ids from one aggregator's space into
// another's during Merge: slot i in the source aggregator
// corresponds to slot Mapping[i] in the destination.
type Mapping []uint32

// Invert computes the inverse of a Mapping that is a bijection onto
// [0, n): Invert(m)[m[i]] == i. A slot in [0, n) that no m[i] maps to
// holds 0, so a caller whose mapping is not onto [0, n) checks
// m[Invert(m)[d]] == d before trusting slot d. Used by pivot-wider's
// Merge, which needs to scatter a source column through the *inverse*
// of the caller-supplied mapping.
func Invert(m Mapping, n uint32) Mapping {
	inv := make(Mapping, n)
	for i, dst := range m {
		inv[dst] = uint32(i)
	}
	return inv
}
