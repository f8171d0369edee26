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

	"golang.org/x/exp/slices"
)

// Func names every aggregate function this package implements,
// following the hash_* naming convention used throughout.
type Func string

const (
	FuncCount           Func = "hash_count"
	FuncCountAll        Func = "hash_count_all"
	FuncSum             Func = "hash_sum"
	FuncProduct         Func = "hash_product"
	FuncMean            Func = "hash_mean"
	FuncVariance        Func = "hash_variance"
	FuncStddev          Func = "hash_stddev"
	FuncSkew            Func = "hash_skew"
	FuncKurtosis        Func = "hash_kurtosis"
	FuncTDigest         Func = "hash_tdigest"
	FuncApproxMedian    Func = "hash_approximate_median"
	FuncMinMax          Func = "hash_min_max"
	FuncMin             Func = "hash_min"
	FuncMax             Func = "hash_max"
	FuncFirstLast       Func = "hash_first_last"
	FuncFirst           Func = "hash_first"
	FuncLast            Func = "hash_last"
	FuncAny             Func = "hash_any"
	FuncAll             Func = "hash_all"
	FuncCountDistinct   Func = "hash_count_distinct"
	FuncDistinct        Func = "hash_distinct"
	FuncOne             Func = "hash_one"
	FuncList            Func = "hash_list"
	FuncPivotWider      Func = "hash_pivot_wider"
)

// Funcs lists every registered function name, sorted, for callers
// that want to enumerate or validate against the supported set (e.g.
// a config loader reporting an unknown name).
func Funcs() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, string(name))
	}
	slices.Sort(names)
	return names
}

// factories maps each Func to a constructor taking the generic
// Options bag below. This mirrors sneller's op-dispatch switch in
// vm/hash_aggregate.go and the name->builtin table in
// expr/builtin.go, collapsed into a map since none of this port's
// constructors need bytecode codegen hooks.
var factories = map[Func]func(Options) (Aggregator, error){
	FuncCount: func(o Options) (Aggregator, error) {
		return NewCount(o.countOrDefault()), nil
	},
	FuncCountAll: func(o Options) (Aggregator, error) {
		return NewCountAll(), nil
	},
	FuncSum: func(o Options) (Aggregator, error) {
		return NewSum(o.scalarOrDefault()), nil
	},
	FuncProduct: func(o Options) (Aggregator, error) {
		return NewProduct(o.scalarOrDefault()), nil
	},
	FuncMean: func(o Options) (Aggregator, error) {
		return NewMean(o.scalarOrDefault()), nil
	},
	FuncVariance: func(o Options) (Aggregator, error) {
		return NewVariance(o.varianceOrDefault()), nil
	},
	FuncStddev: func(o Options) (Aggregator, error) {
		return NewStddev(o.varianceOrDefault()), nil
	},
	FuncSkew: func(o Options) (Aggregator, error) {
		return NewSkew(o.skewOrDefault()), nil
	},
	FuncKurtosis: func(o Options) (Aggregator, error) {
		return NewKurtosis(o.skewOrDefault()), nil
	},
	FuncTDigest: func(o Options) (Aggregator, error) {
		return NewTDigest(o.tdigestOrDefault()), nil
	},
	FuncApproxMedian: func(o Options) (Aggregator, error) {
		return NewApproxMedian(o.scalarOrDefault()), nil
	},
	FuncMinMax: func(o Options) (Aggregator, error) {
		return NewMinMax(o.scalarOrDefault()), nil
	},
	FuncMin: func(o Options) (Aggregator, error) {
		return NewHashMin(o.scalarOrDefault()), nil
	},
	FuncMax: func(o Options) (Aggregator, error) {
		return NewHashMax(o.scalarOrDefault()), nil
	},
	FuncFirstLast: func(o Options) (Aggregator, error) {
		return NewFirstLast(o.scalarOrDefault()), nil
	},
	FuncFirst: func(o Options) (Aggregator, error) {
		return NewHashFirst(o.scalarOrDefault()), nil
	},
	FuncLast: func(o Options) (Aggregator, error) {
		return NewHashLast(o.scalarOrDefault()), nil
	},
	FuncAny: func(o Options) (Aggregator, error) {
		return NewAny(o.scalarOrDefault()), nil
	},
	FuncAll: func(o Options) (Aggregator, error) {
		return NewAll(o.scalarOrDefault()), nil
	},
	FuncCountDistinct: func(o Options) (Aggregator, error) {
		return NewCountDistinct(o.countOrDefault()), nil
	},
	FuncDistinct: func(o Options) (Aggregator, error) {
		return NewDistinct(o.countOrDefault()), nil
	},
	FuncOne: func(o Options) (Aggregator, error) {
		return NewOne(o.scalarOrDefault()), nil
	},
	FuncList: func(o Options) (Aggregator, error) {
		return NewList(o.scalarOrDefault()), nil
	},
	FuncPivotWider: func(o Options) (Aggregator, error) {
		if o.PivotWider == nil {
			return nil, fmt.Errorf("groupagg: %s requires pivot-wider options: %w", FuncPivotWider, ErrInvalidOptions)
		}
		return NewPivotWider(*o.PivotWider), nil
	},
}

// Options bundles every function's option variant; New picks whichever
// field a given Func actually uses and ignores the rest. A nil field
// falls back to that function's documented defaults.
type Options struct {
	Scalar     *ScalarAggregateOptions
	Count      *CountOptions
	Variance   *VarianceOptions
	Skew       *SkewOptions
	TDigest    *TDigestOptions
	PivotWider *PivotWiderOptions
}

func (o Options) scalarOrDefault() ScalarAggregateOptions {
	if o.Scalar != nil {
		return *o.Scalar
	}
	return DefaultScalarAggregateOptions()
}

func (o Options) countOrDefault() CountOptions {
	if o.Count != nil {
		return *o.Count
	}
	return DefaultCountOptions()
}

func (o Options) varianceOrDefault() VarianceOptions {
	if o.Variance != nil {
		return *o.Variance
	}
	return DefaultVarianceOptions()
}

func (o Options) skewOrDefault() SkewOptions {
	if o.Skew != nil {
		return *o.Skew
	}
	return DefaultSkewOptions()
}

func (o Options) tdigestOrDefault() TDigestOptions {
	if o.TDigest != nil {
		return *o.TDigest
	}
	return DefaultTDigestOptions()
}

// New constructs the Aggregator registered for name. Returns
// ErrNotImplemented for an unknown name.
func New(name Func, opts Options) (Aggregator, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("groupagg: %s: %w", name, ErrNotImplemented)
	}
	return factory(opts)
}
