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

package tdigest

import (
	"math"
	"testing"
)

func TestNewAppliesDefaults(t *testing.T) {
	d := New(0, 0)
	if d.Delta != 100 || d.BufferSize != 500 {
		t.Fatalf("want defaults (100, 500), got (%d, %d)", d.Delta, d.BufferSize)
	}
}

func TestEmptySketchIsEmpty(t *testing.T) {
	d := New(100, 500)
	if !d.Empty() {
		t.Fatalf("freshly constructed sketch must be empty")
	}
	d.Add(1)
	if d.Empty() {
		t.Fatalf("sketch with a pending point must not report empty")
	}
}

func TestQuantilesOfUniformRange(t *testing.T) {
	d := New(100, 500)
	n := 10001
	for i := 0; i < n; i++ {
		d.Add(float64(i))
	}
	qs := d.Quantiles([]float64{0, 0.5, 1})
	if qs[0] != 0 {
		t.Fatalf("want min quantile 0, got %v", qs[0])
	}
	if qs[2] != float64(n-1) {
		t.Fatalf("want max quantile %v, got %v", n-1, qs[2])
	}
	want := float64(n-1) / 2
	if math.Abs(qs[1]-want) > want*0.02 {
		t.Fatalf("want median near %v, got %v", want, qs[1])
	}
}

func TestQuantilesOutOfRangeIsNaN(t *testing.T) {
	d := New(100, 500)
	d.Add(1)
	qs := d.Quantiles([]float64{-0.1, 1.1})
	if !math.IsNaN(qs[0]) || !math.IsNaN(qs[1]) {
		t.Fatalf("quantiles outside [0,1] must be NaN")
	}
}

func TestSingleValueSketchAlwaysReturnsThatValue(t *testing.T) {
	d := New(100, 500)
	d.Add(42)
	qs := d.Quantiles([]float64{0, 0.25, 0.5, 0.75, 1})
	for _, q := range qs {
		if q != 42 {
			t.Fatalf("want every quantile of a single-point sketch to be 42, got %v", q)
		}
	}
}

func TestMergeOfTwoRangesMatchesSinglePass(t *testing.T) {
	left := New(100, 500)
	for i := 0; i < 500; i++ {
		left.Add(float64(i))
	}
	right := New(100, 500)
	for i := 500; i < 1000; i++ {
		right.Add(float64(i))
	}
	left.Merge(right)

	whole := New(100, 500)
	for i := 0; i < 1000; i++ {
		whole.Add(float64(i))
	}

	got := left.Quantiles([]float64{0.5})[0]
	want := whole.Quantiles([]float64{0.5})[0]
	if math.Abs(got-want) > want*0.05 {
		t.Fatalf("merged median %v should be close to single-pass median %v", got, want)
	}
}

func TestMergeWithEmptyIsNoOp(t *testing.T) {
	d := New(100, 500)
	d.Add(1)
	d.Add(2)
	before := d.Quantiles([]float64{0.5})[0]

	d.Merge(New(100, 500))

	after := d.Quantiles([]float64{0.5})[0]
	if before != after {
		t.Fatalf("merging an empty sketch must not change quantiles: before=%v after=%v", before, after)
	}
}

func TestCompressBoundsCentroidCount(t *testing.T) {
	d := New(20, 2000)
	for i := 0; i < 2000; i++ {
		d.Add(float64(i))
	}
	d.flush()
	// compression should keep the centroid count well under the raw
	// point count, though not tightly bounded by delta alone.
	if len(d.data) >= 2000 {
		t.Fatalf("compress should have reduced centroid count below raw point count, got %d", len(d.data))
	}
}
