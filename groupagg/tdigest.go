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
	"github.com/heliumdb/groupagg/internal/tdigest"
)

// TDigest implements hash_tdigest (and, unwrapped to a single scalar,
// hash_approximate_median).
type TDigest struct {
	base
	opts    TDigestOptions
	sketch  []*tdigest.T
	count   []int64
	noNulls []bool
}

func NewTDigest(opts TDigestOptions) *TDigest {
	if len(opts.Q) == 0 {
		opts.Q = []float64{0.5}
	}
	return &TDigest{base: newBase(), opts: opts}
}

func (a *TDigest) Init(inputType array.Type) error {
	if err := validateMinCount(a.opts.MinCount); err != nil {
		return err
	}
	switch inputType {
	case array.TypeInt64, array.TypeFloat64, array.TypeDecimal:
		return nil
	default:
		return fmt.Errorf("groupagg: tdigest over %s: %w", inputType, ErrNotImplemented)
	}
}

func (a *TDigest) Resize(n uint32) {
	a.resize(n)
	old := len(a.sketch)
	if uint32(old) >= n {
		return
	}
	grown := make([]*tdigest.T, n)
	copy(grown, a.sketch)
	a.sketch = grown
	growInt64(&a.count, n)
	growBool(&a.noNulls, n, true)
}

func (a *TDigest) ensure(g uint32) *tdigest.T {
	if a.sketch[g] == nil {
		a.sketch[g] = tdigest.New(int(a.opts.Delta), int(a.opts.BufferSize))
	}
	return a.sketch[g]
}

func (a *TDigest) Consume(b Batch) error {
	for i, g := range b.Groups.Ids {
		if !b.Values.IsValid(i) {
			a.noNulls[g] = false
			continue
		}
		v := asFloat64(b.Values, i)
		if math.IsNaN(v) {
			continue // NaNs are ignored
		}
		a.count[g]++
		s := a.ensure(g)
		before := s.Compactions
		s.Add(v)
		if s.Compactions > before {
			debugf("groupagg: tdigest[%s] compacted group %d to %d centroids (delta=%d)",
				a.instanceID, g, s.CentroidCount(), a.opts.Delta)
		}
	}
	return nil
}

func (a *TDigest) Merge(other Aggregator, mapping groupid.Mapping) error {
	o, ok := other.(*TDigest)
	if !ok {
		return fmt.Errorf("groupagg: TDigest.Merge: %w", ErrInvalid)
	}
	for g, s := range o.sketch {
		dst := mapping[g]
		a.count[dst] += o.count[g]
		if !o.noNulls[g] {
			a.noNulls[dst] = false
		}
		if s == nil {
			continue
		}
		a.ensure(dst).Merge(s)
	}
	return nil
}

func (a *TDigest) Finalize() array.Array {
	n := len(a.count)
	values := make([][]float64, n)
	valid := make([]bool, n)
	for g := 0; g < n; g++ {
		if !validOutput(a.count[g], a.noNulls[g], a.opts.SkipNulls, a.opts.MinCount) {
			continue
		}
		if a.sketch[g] == nil || a.sketch[g].Empty() {
			continue
		}
		values[g] = a.sketch[g].Quantiles(a.opts.Q)
		valid[g] = true
	}
	return &fixedSizeListArray{width: len(a.opts.Q), values: values, valid: valid}
}

func (a *TDigest) OutType() array.Type { return array.TypeList }

// fixedSizeListArray is the output shape of hash_tdigest: a
// fixed-size list<float64, len(q)> per group.
type fixedSizeListArray struct {
	width  int
	values [][]float64
	valid  []bool
}

func (f *fixedSizeListArray) Type() array.Type   { return array.TypeList }
func (f *fixedSizeListArray) Len() int           { return len(f.values) }
func (f *fixedSizeListArray) IsValid(i int) bool { return f.valid[i] }
func (f *fixedSizeListArray) IsScalar() bool     { return false }
func (f *fixedSizeListArray) At(i int) []float64 { return f.values[i] }

// ApproxMedian implements hash_approximate_median: the special case
// q = [0.5] of TDigest, unwrapped to a scalar double.
type ApproxMedian struct{ *TDigest }

func NewApproxMedian(opts ScalarAggregateOptions) *ApproxMedian {
	return &ApproxMedian{NewTDigest(TDigestOptions{
		Q: []float64{0.5}, Delta: 100, BufferSize: 500,
		SkipNulls: opts.SkipNulls, MinCount: opts.MinCount,
	})}
}

func (a *ApproxMedian) Finalize() array.Array {
	list := a.TDigest.Finalize().(*fixedSizeListArray)
	out := make([]float64, list.Len())
	valid := make([]bool, list.Len())
	for g := 0; g < list.Len(); g++ {
		if list.IsValid(g) {
			out[g] = list.At(g)[0]
			valid[g] = true
		}
	}
	return &array.Float64Array{Values: out, Valid: valid}
}

func (a *ApproxMedian) OutType() array.Type { return array.TypeFloat64 }
