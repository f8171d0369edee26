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

// Mean implements hash_mean: reduces as Sum, then divides by count
// at Finalize. Integer and float inputs produce
// float64; decimal inputs produce the decimal type with half-away-
// from-zero rounding of the division remainder. Boolean inputs are
// treated as {0, 1}.
type Mean struct{ *reducer }

func NewMean(opts ScalarAggregateOptions) *Mean { return &Mean{newReducer(opSum, opts)} }

func (a *Mean) Init(inputType array.Type) error { return a.init(inputType) }
func (a *Mean) Resize(n uint32)                 { a.resize(n) }
func (a *Mean) Consume(b Batch) error            { return a.fold(b) }
func (a *Mean) Merge(other Aggregator, m groupid.Mapping) error {
	o, ok := other.(*Mean)
	if !ok {
		return fmt.Errorf("groupagg: Mean.Merge: %w", ErrInvalid)
	}
	return a.reducer.merge(o.reducer, m)
}

func (a *Mean) Finalize() array.Array {
	valid := a.validMask()
	if a.kind == reduceDecimal {
		vs := make([]array.Decimal, len(a.accD))
		for g, sum := range a.accD {
			if !valid[g] || a.count[g] == 0 {
				continue
			}
			vs[g] = array.Decimal{Coef: decimalMeanRound(sum, a.count[g]), Scale: a.scale}
		}
		return &array.DecimalArray{Values: vs, Valid: valid}
	}

	out := make([]float64, len(a.count))
	for g := range out {
		if !valid[g] || a.count[g] == 0 {
			continue
		}
		var sum float64
		switch a.kind {
		case reduceInt64, reduceBool:
			sum = float64(a.accI[g])
		case reduceFloat64:
			sum = a.accF[g]
		}
		out[g] = sum / float64(a.count[g])
	}
	return &array.Float64Array{Values: out, Valid: valid}
}

func (a *Mean) OutType() array.Type {
	if a.kind == reduceDecimal {
		return array.TypeDecimal
	}
	return array.TypeFloat64
}

// decimalMeanRound divides sum by count with half-away-from-zero
// rounding derived from the remainder: |2*r| >= count rounds away
// from zero.
func decimalMeanRound(sum, count int64) int64 {
	q := sum / count
	r := sum % count
	if r == 0 {
		return q
	}
	if absInt64(2*r) >= count {
		if sum < 0 {
			q--
		} else {
			q++
		}
	}
	return q
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
