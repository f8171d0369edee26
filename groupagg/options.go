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
)

// validateMinCount rejects a min_count outside what an int32 row
// count could ever satisfy, the same bound the options equality
// helpers in the original Arrow kernel apply before it's ever
// passed to Init.
func validateMinCount(minCount uint32) error {
	if minCount > math.MaxInt32 {
		return fmt.Errorf("groupagg: min_count %d exceeds int32 range: %w", minCount, ErrInvalidOptions)
	}
	return nil
}

// ScalarAggregateOptions is shared by Sum, Product, Mean, MinMax,
// First/Last, Any/All, One, List.
type ScalarAggregateOptions struct {
	SkipNulls bool
	MinCount  uint32
}

// DefaultScalarAggregateOptions returns the documented defaults:
// {skip_nulls: true, min_count: 1}.
func DefaultScalarAggregateOptions() ScalarAggregateOptions {
	return ScalarAggregateOptions{SkipNulls: true, MinCount: 1}
}

// CountMode selects which rows hash_count/hash_count_distinct/
// hash_distinct counts or retains.
type CountMode uint8

const (
	CountOnlyValid CountMode = iota
	CountOnlyNull
	CountAllMode
)

// CountOptions configures hash_count, hash_count_distinct and
// hash_distinct.
type CountOptions struct {
	Mode CountMode
}

func DefaultCountOptions() CountOptions { return CountOptions{Mode: CountOnlyValid} }

// VarianceOptions configures hash_variance/hash_stddev.
type VarianceOptions struct {
	Ddof      int
	SkipNulls bool
	MinCount  uint32
}

func DefaultVarianceOptions() VarianceOptions {
	return VarianceOptions{Ddof: 0, SkipNulls: true, MinCount: 0}
}

// SkewOptions configures hash_skew/hash_kurtosis (implicit ddof=0).
type SkewOptions struct {
	SkipNulls bool
	MinCount  uint32
}

func DefaultSkewOptions() SkewOptions {
	return SkewOptions{SkipNulls: true, MinCount: 0}
}

// TDigestOptions configures hash_tdigest/hash_approximate_median.
type TDigestOptions struct {
	Q          []float64
	Delta      uint32
	BufferSize uint32
	SkipNulls  bool
	MinCount   uint32
}

func DefaultTDigestOptions() TDigestOptions {
	return TDigestOptions{
		Q:          []float64{0.5},
		Delta:      100,
		BufferSize: 500,
		SkipNulls:  true,
		MinCount:   0,
	}
}

// UnexpectedKeyBehavior controls hash_pivot_wider's reaction to a
// pivot key not present in PivotWiderOptions.key_names.
type UnexpectedKeyBehavior uint8

const (
	UnexpectedKeyIgnore UnexpectedKeyBehavior = iota
	UnexpectedKeyRaise
)

// PivotWiderOptions configures hash_pivot_wider.
type PivotWiderOptions struct {
	KeyNames              []string
	UnexpectedKeyBehavior UnexpectedKeyBehavior
}
