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
	"math"
	"testing"

	"github.com/heliumdb/groupagg/array"
)

func TestApproxMedianOverUniformRange(t *testing.T) {
	a := NewApproxMedian(DefaultScalarAggregateOptions())
	a.Init(array.TypeFloat64)
	a.Resize(1)
	n := 1001
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(i)
	}
	err := a.Consume(Batch{Values: &array.Float64Array{Values: vals}, Groups: groupIds(make([]uint32, n))})
	if err != nil {
		t.Fatal(err)
	}
	out := a.Finalize().(*array.Float64Array)
	if !out.IsValid(0) {
		t.Fatalf("want valid result")
	}
	if math.Abs(out.At(0)-500) > 10 {
		t.Fatalf("want approx median near 500, got %v", out.At(0))
	}
}

func TestTDigestIgnoresNaN(t *testing.T) {
	a := NewTDigest(DefaultTDigestOptions())
	a.Init(array.TypeFloat64)
	a.Resize(1)
	err := a.Consume(Batch{
		Values: &array.Float64Array{Values: []float64{1, math.NaN(), 2, 3}},
		Groups: groupIds([]uint32{0, 0, 0, 0}),
	})
	if err != nil {
		t.Fatal(err)
	}
	out := a.Finalize().(*fixedSizeListArray)
	if !out.IsValid(0) {
		t.Fatalf("want valid result despite the NaN")
	}
	got := out.At(0)[0]
	if got < 1 || got > 3 {
		t.Fatalf("want median of {1,2,3} (NaN ignored), got %v", got)
	}
}

func TestTDigestDebugfFiresOnCompaction(t *testing.T) {
	opts := DefaultTDigestOptions()
	opts.Delta = 4
	opts.BufferSize = 1 // flush (and so compress) on every Add
	a := NewTDigest(opts)
	a.Init(array.TypeFloat64)
	a.Resize(1)

	var reports int
	prev := Debugf
	Debugf = func(format string, args ...any) { reports++ }
	defer func() { Debugf = prev }()

	vals := make([]float64, 20)
	for i := range vals {
		vals[i] = float64(i)
	}
	if err := a.Consume(Batch{Values: &array.Float64Array{Values: vals}, Groups: groupIds(make([]uint32, len(vals)))}); err != nil {
		t.Fatal(err)
	}
	if reports == 0 {
		t.Fatalf("want Debugf to fire at least once once centroids exceed delta=%d", opts.Delta)
	}
}

func TestTDigestEmptyGroupIsInvalid(t *testing.T) {
	a := NewTDigest(DefaultTDigestOptions())
	a.Init(array.TypeFloat64)
	a.Resize(1)
	err := a.Consume(Batch{
		Values: &array.Float64Array{Values: []float64{0}, Valid: []bool{false}},
		Groups: groupIds([]uint32{0}),
	})
	if err != nil {
		t.Fatal(err)
	}
	out := a.Finalize().(*fixedSizeListArray)
	if out.IsValid(0) {
		t.Fatalf("want invalid when the group never saw a non-null value")
	}
}
