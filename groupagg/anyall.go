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

	"github.com/heliumdb/groupagg/array"
	"github.com/heliumdb/groupagg/groupid"
)

// AnyAll is the shared implementation behind hash_any/hash_all: Any is
// an OR-reduce with identity false, All an AND-reduce with identity
// true.
type AnyAll struct {
	base
	opts    ScalarAggregateOptions
	isAll   bool
	reduced []bool
	noNulls []bool
	count   []int64
}

func newAnyAll(isAll bool, opts ScalarAggregateOptions) *AnyAll {
	return &AnyAll{base: newBase(), opts: opts, isAll: isAll}
}

func NewAny(opts ScalarAggregateOptions) *AnyAll { return newAnyAll(false, opts) }
func NewAll(opts ScalarAggregateOptions) *AnyAll { return newAnyAll(true, opts) }

func (a *AnyAll) Init(inputType array.Type) error {
	if err := validateMinCount(a.opts.MinCount); err != nil {
		return err
	}
	if inputType != array.TypeBool {
		return fmt.Errorf("groupagg: any/all over %s: %w", inputType, ErrNotImplemented)
	}
	return nil
}

func (a *AnyAll) identity() bool { return a.isAll }

func (a *AnyAll) Resize(n uint32) {
	a.resize(n)
	growBool(&a.reduced, n, a.identity())
	growBool(&a.noNulls, n, true)
	growInt64(&a.count, n)
}

func (a *AnyAll) Consume(b Batch) error {
	ba := b.Values.(*array.BoolArray)
	for i, g := range b.Groups.Ids {
		if !ba.IsValid(i) {
			a.noNulls[g] = false
			continue
		}
		a.count[g]++
		v := ba.At(valueIndex(ba, i))
		if a.isAll {
			a.reduced[g] = a.reduced[g] && v
		} else {
			a.reduced[g] = a.reduced[g] || v
		}
	}
	return nil
}

func (a *AnyAll) Merge(other Aggregator, mapping groupid.Mapping) error {
	o, ok := other.(*AnyAll)
	if !ok || o.isAll != a.isAll {
		return fmt.Errorf("groupagg: AnyAll.Merge: %w", ErrInvalid)
	}
	for g := range o.count {
		dst := mapping[g]
		a.count[dst] += o.count[g]
		if !o.noNulls[g] {
			a.noNulls[dst] = false
		}
		if a.isAll {
			a.reduced[dst] = a.reduced[dst] && o.reduced[g]
		} else {
			a.reduced[dst] = a.reduced[dst] || o.reduced[g]
		}
	}
	return nil
}

// Finalize applies the short-circuit rule: output
// validity = (count >= min_count) AND (skip_nulls OR no_nulls OR
// short_circuit), where short_circuit is `reduced` for Any and
// `NOT reduced` for All.
func (a *AnyAll) Finalize() array.Array {
	n := len(a.reduced)
	valid := make([]bool, n)
	for g := 0; g < n; g++ {
		if a.count[g] < int64(a.opts.MinCount) {
			continue
		}
		shortCircuit := a.reduced[g]
		if a.isAll {
			shortCircuit = !a.reduced[g]
		}
		valid[g] = a.opts.SkipNulls || a.noNulls[g] || shortCircuit
	}
	out := append([]bool(nil), a.reduced...)
	return &array.BoolArray{Values: out, Valid: valid}
}

func (a *AnyAll) OutType() array.Type { return array.TypeBool }
