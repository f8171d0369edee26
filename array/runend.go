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

package array

// RunEndArray wraps an inner flat array of Values (one slot per run)
// and an Ends slice mapping run index -> exclusive end row. It
// implements Array over the logical (expanded) row space without
// ever materializing the expansion: callers iterate runs instead.
type RunEndArray struct {
	Ends   []int64 // Ends[k] is the exclusive end row of run k
	Values Array   // one validity/value slot per run
}

func (r *RunEndArray) Type() Type { return r.Values.Type() }

func (r *RunEndArray) Len() int {
	if len(r.Ends) == 0 {
		return 0
	}
	return int(r.Ends[len(r.Ends)-1])
}

func (r *RunEndArray) IsScalar() bool { return false }

// runOf returns the run index covering logical row i using binary
// search over Ends, mirroring how a real run-end decoder would
// locate a row without unpacking the whole column.
func (r *RunEndArray) runOf(i int) int {
	lo, hi := 0, len(r.Ends)
	for lo < hi {
		mid := (lo + hi) / 2
		if int64(i) < r.Ends[mid] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

func (r *RunEndArray) IsValid(i int) bool {
	return r.Values.IsValid(r.runOf(i))
}

func (r *RunEndArray) Runs() []int64 { return r.Ends }

// EachRun iterates the physical runs of r, calling fn with the run's
// value-slot index and the half-open logical row range [start, end)
// it covers. Aggregators that specialize run-end iteration (Count, in
// particular) should use this instead of looping row-by-row.
func (r *RunEndArray) EachRun(fn func(slot int, start, end int64)) {
	start := int64(0)
	for slot, end := range r.Ends {
		fn(slot, start, end)
		start = end
	}
}
