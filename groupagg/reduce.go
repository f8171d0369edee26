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

// reduceKind is the widened accumulator kind a reducing aggregator
// (Sum/Product/Mean) picks per input type: integers widen to int64,
// decimals stay in their declared (here: int64-coefficient) type,
// floats stay at float64.
type reduceKind uint8

const (
	reduceInt64 reduceKind = iota
	reduceFloat64
	reduceDecimal
	reduceBool // treated as {0,1}, widened like an integer
)

func kindFor(t array.Type) (reduceKind, error) {
	switch t {
	case array.TypeInt64:
		return reduceInt64, nil
	case array.TypeFloat64:
		return reduceFloat64, nil
	case array.TypeDecimal:
		return reduceDecimal, nil
	case array.TypeBool:
		return reduceBool, nil
	default:
		return 0, fmt.Errorf("groupagg: reducer over %s: %w", t, ErrNotImplemented)
	}
}

// reduceOp is the per-row fold applied by Sum/Product; Sum uses add,
// Product uses multiply, both over the widened accumulator kind.
type reduceOp uint8

const (
	opSum reduceOp = iota
	opProduct
)

// reducer is the shared state/implementation for Sum and Product:
// one accumulator and one count/no_nulls pair per group, folded by
// op. Mean embeds a reducer configured with opSum and divides by
// count at Finalize.
type reducer struct {
	base
	opts  ScalarAggregateOptions
	op    reduceOp
	kind  reduceKind
	scale int32 // valid when kind == reduceDecimal

	accI     []int64   // reduceInt64, reduceBool
	accF     []float64 // reduceFloat64
	accD     []int64   // reduceDecimal (coefficient)
	count    []int64
	noNulls  []bool
}

func identityFor(op reduceOp, kind reduceKind) (int64, float64) {
	if op == opProduct {
		return 1, 1
	}
	return 0, 0
}

func newReducer(op reduceOp, opts ScalarAggregateOptions) *reducer {
	return &reducer{base: newBase(), op: op, opts: opts}
}

func (r *reducer) init(inputType array.Type) error {
	if err := validateMinCount(r.opts.MinCount); err != nil {
		return err
	}
	k, err := kindFor(inputType)
	if err != nil {
		return err
	}
	r.kind = k
	return nil
}

func (r *reducer) resize(n uint32) {
	r.base.resize(n)
	identI, identF := identityFor(r.op, r.kind)
	switch r.kind {
	case reduceInt64, reduceBool:
		growFillInt64(&r.accI, n, identI)
	case reduceFloat64:
		growFillFloat64(&r.accF, n, identF)
	case reduceDecimal:
		growFillInt64(&r.accD, n, identI)
	}
	growBool(&r.noNulls, n, true)
	growInt64(&r.count, n)
}

func (r *reducer) fold(b Batch) error {
	if r.kind == reduceDecimal {
		if d, ok := b.Values.(*array.DecimalArray); ok && len(d.Values) > 0 {
			r.scale = d.Values[0].Scale
		}
	}
	ids := b.Groups.Ids
	for i, g := range ids {
		if !b.Values.IsValid(i) {
			r.noNulls[g] = false
			continue
		}
		r.count[g]++
		switch r.kind {
		case reduceInt64:
			v := b.Values.(*array.Int64Array).At(valueIndex(b.Values, i))
			r.applyInt(g, v)
		case reduceBool:
			v := int64(0)
			if b.Values.(*array.BoolArray).At(valueIndex(b.Values, i)) {
				v = 1
			}
			r.applyInt(g, v)
		case reduceFloat64:
			v := b.Values.(*array.Float64Array).At(valueIndex(b.Values, i))
			r.applyFloat(g, v)
		case reduceDecimal:
			v := b.Values.(*array.DecimalArray).At(valueIndex(b.Values, i)).Coef
			r.applyDecimal(g, v)
		}
	}
	return nil
}

// valueIndex returns the physical slot to read for logical row i: for
// a scalar (broadcast) column that is always 0, otherwise i.
func valueIndex(v array.Array, i int) int {
	if v.IsScalar() {
		return 0
	}
	return i
}

func (r *reducer) applyInt(g uint32, v int64) {
	if r.op == opSum {
		r.accI[g] += v // two's-complement wraparound is Go's defined overflow behavior
	} else {
		r.accI[g] *= v
	}
}

func (r *reducer) applyFloat(g uint32, v float64) {
	if r.op == opSum {
		r.accF[g] += v
	} else {
		r.accF[g] *= v
	}
}

func (r *reducer) applyDecimal(g uint32, v int64) {
	if r.op == opSum {
		r.accD[g] += v
	} else {
		r.accD[g] *= v
	}
}

func (r *reducer) merge(other *reducer, mapping groupid.Mapping) error {
	if other.kind != r.kind {
		return fmt.Errorf("groupagg: reducer.Merge: mismatched kinds: %w", ErrInvalid)
	}
	for g := range other.count {
		dst := mapping[g]
		r.count[dst] += other.count[g]
		if !other.noNulls[g] {
			r.noNulls[dst] = false
		}
		switch r.kind {
		case reduceInt64, reduceBool:
			r.applyInt(dst, relativeOf(other.accI[g], r.op))
		case reduceFloat64:
			r.applyFloat(dst, relativeOfF(other.accF[g], r.op))
		case reduceDecimal:
			r.scale = other.scale
			r.applyDecimal(dst, relativeOf(other.accD[g], r.op))
		}
	}
	return nil
}

// relativeOf/relativeOfF exist only to make merge's "apply the other
// side's raw accumulator" intent explicit (Sum/Product's merge is
// literally applying the other's total onto this side with the same
// op, which is valid because + and * are both associative and
// commutative over the wraparound ring / IEEE field).
func relativeOf(v int64, _ reduceOp) int64     { return v }
func relativeOfF(v float64, _ reduceOp) float64 { return v }

func (r *reducer) validMask() []bool {
	out := make([]bool, len(r.count))
	for g := range out {
		out[g] = validOutput(r.count[g], r.noNulls[g], r.opts.SkipNulls, r.opts.MinCount)
	}
	return out
}

// Sum implements hash_sum.
type Sum struct{ *reducer }

func NewSum(opts ScalarAggregateOptions) *Sum { return &Sum{newReducer(opSum, opts)} }

func (a *Sum) Init(inputType array.Type) error { return a.init(inputType) }
func (a *Sum) Resize(n uint32)                 { a.resize(n) }
func (a *Sum) Consume(b Batch) error            { return a.fold(b) }
func (a *Sum) Merge(other Aggregator, m groupid.Mapping) error {
	o, ok := other.(*Sum)
	if !ok {
		return fmt.Errorf("groupagg: Sum.Merge: %w", ErrInvalid)
	}
	return a.reducer.merge(o.reducer, m)
}

func (a *Sum) Finalize() array.Array {
	valid := a.validMask()
	var out array.Array
	switch a.kind {
	case reduceInt64, reduceBool:
		out = &array.Int64Array{Values: a.accI, Valid: valid}
	case reduceFloat64:
		out = &array.Float64Array{Values: a.accF, Valid: valid}
	case reduceDecimal:
		vs := make([]array.Decimal, len(a.accD))
		for i, c := range a.accD {
			vs[i] = array.Decimal{Coef: c, Scale: a.scale}
		}
		out = &array.DecimalArray{Values: vs, Valid: valid}
	}
	return out
}

func (a *Sum) OutType() array.Type {
	if a.kind == reduceDecimal {
		return array.TypeDecimal
	}
	if a.kind == reduceFloat64 {
		return array.TypeFloat64
	}
	return array.TypeInt64
}

// Product implements hash_product.
type Product struct{ *reducer }

func NewProduct(opts ScalarAggregateOptions) *Product { return &Product{newReducer(opProduct, opts)} }

func (a *Product) Init(inputType array.Type) error { return a.init(inputType) }
func (a *Product) Resize(n uint32)                 { a.resize(n) }
func (a *Product) Consume(b Batch) error            { return a.fold(b) }
func (a *Product) Merge(other Aggregator, m groupid.Mapping) error {
	o, ok := other.(*Product)
	if !ok {
		return fmt.Errorf("groupagg: Product.Merge: %w", ErrInvalid)
	}
	return a.reducer.merge(o.reducer, m)
}

func (a *Product) Finalize() array.Array {
	valid := a.validMask()
	var out array.Array
	switch a.kind {
	case reduceInt64, reduceBool:
		out = &array.Int64Array{Values: a.accI, Valid: valid}
	case reduceFloat64:
		out = &array.Float64Array{Values: a.accF, Valid: valid}
	case reduceDecimal:
		vs := make([]array.Decimal, len(a.accD))
		for i, c := range a.accD {
			vs[i] = array.Decimal{Coef: c, Scale: a.scale}
		}
		out = &array.DecimalArray{Values: vs, Valid: valid}
	}
	return out
}

func (a *Product) OutType() array.Type {
	if a.kind == reduceDecimal {
		return array.TypeDecimal
	}
	if a.kind == reduceFloat64 {
		return array.TypeFloat64
	}
	return array.TypeInt64
}

func growFillInt64(s *[]int64, n uint32, fill int64) {
	old := len(*s)
	if uint32(old) >= n {
		return
	}
	grown := make([]int64, n)
	copy(grown, *s)
	for i := old; i < int(n); i++ {
		grown[i] = fill
	}
	*s = grown
}

func growFillFloat64(s *[]float64, n uint32, fill float64) {
	old := len(*s)
	if uint32(old) >= n {
		return
	}
	grown := make([]float64, n)
	copy(grown, *s)
	for i := old; i < int(n); i++ {
		grown[i] = fill
	}
	*s = grown
}

func growBool(s *[]bool, n uint32, fill bool) {
	old := len(*s)
	if uint32(old) >= n {
		return
	}
	grown := make([]bool, n)
	copy(grown, *s)
	for i := old; i < int(n); i++ {
		grown[i] = fill
	}
	*s = grown
}
