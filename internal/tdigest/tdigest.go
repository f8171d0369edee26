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

// Package tdigest provides a pure-Go t-digest sketch for approximate
// quantiles, adapted from sneller's internal/percentile package: the
// same clustering/compression algorithm, generalized from float32 to
// float64 (groupagg's moments are all float64) and parameterized by
// delta (compression) and buffer size instead of hard-coded SIMD lane
// counts, since this port has no assembly backend to keep in lockstep.
package tdigest

import (
	"math"
	"sort"
)

// centroid is the average position ("mean") and weight of a cluster
// of points.
type centroid struct {
	Mean   float64
	Weight float64
}

// centroids is sorted by Mean, ascending.
type centroids []centroid

func (c centroids) sort() {
	sort.Slice(c, func(i, j int) bool { return c[i].Mean < c[j].Mean })
}

// T is a per-group t-digest sketch: the aggregator state backing
// hash_tdigest and hash_approximate_median.
type T struct {
	Delta      int // compression parameter, TDigestOptions.delta
	BufferSize int // TDigestOptions.buffer_size

	data        centroids
	totalWeight float64
	min, max    float64

	// pending buffers newly-added points until BufferSize is
	// reached or a Quantile/Merge forces a flush, mirroring the
	// batched-centroid-add structure of sneller's
	// centroidsCompress/addCentroids pair (processing at most a
	// handful of new points per compression pass).
	pending centroids

	// Compactions counts how many times addCentroids has actually
	// clustered centroids together (as opposed to the no-op pass-through
	// taken while the sketch is still smaller than Delta). A caller
	// wanting to observe buffer-compaction events polls this after Add.
	Compactions int
}

// New creates an empty sketch with the given compression and buffer
// parameters. delta <= 0 and bufferSize <= 0 fall back to the
// documented defaults (100, 500).
func New(delta, bufferSize int) *T {
	if delta <= 0 {
		delta = 100
	}
	if bufferSize <= 0 {
		bufferSize = 500
	}
	return &T{
		Delta:      delta,
		BufferSize: bufferSize,
		min:        math.Inf(1),
		max:        math.Inf(-1),
	}
}

// Empty reports whether the sketch has consumed zero points.
func (t *T) Empty() bool { return t.totalWeight == 0 && len(t.pending) == 0 }

// CentroidCount reports the number of centroids currently retained,
// for diagnostics; it does not force a flush of pending points.
func (t *T) CentroidCount() int { return len(t.data) }

// Add folds a single value into the sketch. NaN is ignored by the
// caller.
func (t *T) Add(x float64) {
	t.pending = append(t.pending, centroid{Mean: x, Weight: 1})
	if len(t.pending) >= t.BufferSize {
		t.flush()
	}
}

func (t *T) flush() {
	if len(t.pending) == 0 {
		return
	}
	t.addCentroids(t.pending)
	t.pending = t.pending[:0]
}

// addCentroids merges newCentroids into t.data and recompresses,
// following the merge-sort-then-compress structure of sneller's
// internal/percentile/tdigest.go addCentroids, generalized to an
// arbitrary batch size rather than a fixed 16/48-lane SIMD layout.
func (t *T) addCentroids(newCentroids centroids) {
	merged := make(centroids, 0, len(newCentroids)+len(t.data))
	merged = append(merged, newCentroids...)
	merged = append(merged, t.data...)
	merged.sort()

	total := t.totalWeight
	for _, c := range newCentroids {
		total += c.Weight
	}
	t.totalWeight = total

	if len(merged) > t.Delta && total > 0 {
		t.Compactions++
	}
	t.data = compress(merged, total, t.Delta)

	if len(t.data) > 0 {
		if t.data[0].Mean < t.min {
			t.min = t.data[0].Mean
		}
		if last := t.data[len(t.data)-1].Mean; last > t.max {
			t.max = last
		}
	}
}

// compress implements the clustering pass: centroids are merged
// left-to-right as long as the running cumulative weight stays under
// a scale-function-derived limit, exactly the k-scale function used
// by sneller's centroidsCompress (a sin/asin based approximation
// of the t-digest paper's k1 scale function), ported from float32 to
// float64 arithmetic.
func compress(in centroids, total float64, delta int) centroids {
	if len(in) <= delta || total <= 0 {
		out := make(centroids, len(in))
		copy(out, in)
		return out
	}

	scaleLimit := func(cumWeight float64) float64 {
		x := 2*(cumWeight/total) - 1
		if x > 1 {
			x = 1
		}
		if x < -1 {
			x = -1
		}
		k := (math.Asin(x) + math.Pi/2) * float64(delta) / math.Pi
		if k > float64(delta) {
			k = float64(delta)
		}
		k += 1
		y := math.Sin(k*math.Pi/float64(delta) - math.Pi/2)
		return ((y + 1) / 2) * total
	}

	out := make(centroids, 0, delta*2)
	cum := in[0].Weight
	out = append(out, in[0])
	limit := scaleLimit(cum)

	for i := 1; i < len(in); i++ {
		c := in[i]
		newCum := cum + c.Weight
		if newCum <= limit {
			last := &out[len(out)-1]
			w := last.Weight + c.Weight
			last.Mean = last.Mean + (c.Mean-last.Mean)*(c.Weight/w)
			last.Weight = w
		} else {
			limit = scaleLimit(newCum)
			out = append(out, c)
		}
		cum = newCum
	}
	return out
}

// Merge folds other's sketch into t by concatenating its centroids
// and recompressing, as required for cross-partition aggregation.
func (t *T) Merge(other *T) {
	if other == nil || other.Empty() {
		return
	}
	other.flush()
	t.flush()

	if other.min < t.min {
		t.min = other.min
	}
	if other.max > t.max {
		t.max = other.max
	}
	t.addCentroids(other.data)
}

// Quantiles returns the approximate value at each requested quantile
// in [0, 1], using the same weighted-interpolation walk as sneller's
// Percentiles.
func (t *T) Quantiles(qs []float64) []float64 {
	t.flush()

	n := len(t.data)
	cumulative := make([]float64, n+1)
	sum := 0.0
	for i, c := range t.data {
		cumulative[i] = sum + c.Weight/2
		sum += c.Weight
	}
	cumulative[n] = sum

	weightedAverage := func(m1, w1, m2, w2 float64) float64 {
		if m1 > m2 {
			m1, w1, m2, w2 = m2, w2, m1, w1
		}
		x := (m1*w1 + m2*w2) / (w1 + w2)
		if x < m1 {
			x = m1
		}
		if x > m2 {
			x = m2
		}
		return x
	}

	out := make([]float64, len(qs))
	for i, q := range qs {
		switch {
		case q < 0 || q > 1 || n == 0:
			out[i] = math.NaN()
		case n == 1:
			out[i] = t.data[0].Mean
		case q == 0:
			out[i] = t.min
		case q == 1:
			out[i] = t.max
		default:
			index := q * t.totalWeight
			if index <= t.data[0].Weight/2 {
				out[i] = t.min + (2*index/t.data[0].Weight)*(t.data[0].Mean-t.min)
				continue
			}
			lower := sort.Search(len(cumulative), func(k int) bool { return cumulative[k] >= index })
			if lower+1 < len(cumulative) && lower > 0 {
				z1 := index - cumulative[lower-1]
				z2 := cumulative[lower] - index
				out[i] = weightedAverage(t.data[lower-1].Mean, z2, t.data[lower].Mean, z1)
			} else {
				lastWeight := t.data[n-1].Weight / 2
				w1 := index - (t.totalWeight - lastWeight)
				w2 := lastWeight - w1
				out[i] = weightedAverage(t.data[n-1].Mean, w1, t.max, w2)
			}
		}
	}
	return out
}
