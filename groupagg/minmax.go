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
	"bytes"
	"fmt"
	"math"

	"github.com/heliumdb/groupagg/array"
	"github.com/heliumdb/groupagg/groupid"
)

// MinMax implements hash_min_max (and, via the hashMinMaxField
// wrapper, hash_min/hash_max). Numeric accumulators
// are seeded with type-specific anti-extrema (the type's max sentinel
// for min, min sentinel for max); variable-length binary uses
// per-group owned byte strings compared lexicographically.
type MinMax struct {
	base
	opts ScalarAggregateOptions
	kind reduceKind
	isBinary bool

	minI, maxI []int64
	minF, maxF []float64
	minD, maxD []int64
	scale      int32
	minB, maxB [][]byte

	hasValues []bool
	hasNulls  []bool
}

func NewMinMax(opts ScalarAggregateOptions) *MinMax { return &MinMax{base: newBase(), opts: opts} }

func (a *MinMax) Init(inputType array.Type) error {
	if err := validateMinCount(a.opts.MinCount); err != nil {
		return err
	}
	if inputType == array.TypeBinary {
		a.isBinary = true
		return nil
	}
	k, err := kindFor(inputType)
	if err != nil {
		return err
	}
	a.kind = k
	return nil
}

func (a *MinMax) Resize(n uint32) {
	a.resize(n)
	growBool(&a.hasValues, n, false)
	growBool(&a.hasNulls, n, false)
	if a.isBinary {
		old := len(a.minB)
		if uint32(old) < n {
			a.minB = append(a.minB, make([][]byte, int(n)-old)...)
			a.maxB = append(a.maxB, make([][]byte, int(n)-old)...)
		}
		return
	}
	switch a.kind {
	case reduceInt64, reduceBool:
		growFillInt64(&a.minI, n, math.MaxInt64)
		growFillInt64(&a.maxI, n, math.MinInt64)
	case reduceFloat64:
		growFillFloat64(&a.minF, n, math.Inf(1))
		growFillFloat64(&a.maxF, n, math.Inf(-1))
	case reduceDecimal:
		growFillInt64(&a.minD, n, math.MaxInt64)
		growFillInt64(&a.maxD, n, math.MinInt64)
	}
}

func (a *MinMax) Consume(b Batch) error {
	ids := b.Groups.Ids
	if a.isBinary {
		ba := b.Values.(*array.BinaryArray)
		for i, g := range ids {
			if !ba.IsValid(i) {
				a.hasNulls[g] = true
				continue
			}
			v := ba.At(valueIndex(ba, i))
			a.hasValues[g] = true
			if a.minB[g] == nil || bytes.Compare(v, a.minB[g]) < 0 {
				a.minB[g] = append([]byte(nil), v...)
			}
			if a.maxB[g] == nil || bytes.Compare(v, a.maxB[g]) > 0 {
				a.maxB[g] = append([]byte(nil), v...)
			}
		}
		return nil
	}

	if a.kind == reduceDecimal {
		if d, ok := b.Values.(*array.DecimalArray); ok && len(d.Values) > 0 {
			a.scale = d.Values[0].Scale
		}
	}

	for i, g := range ids {
		if !b.Values.IsValid(i) {
			a.hasNulls[g] = true
			continue
		}
		a.hasValues[g] = true
		switch a.kind {
		case reduceInt64:
			v := b.Values.(*array.Int64Array).At(valueIndex(b.Values, i))
			if v < a.minI[g] {
				a.minI[g] = v
			}
			if v > a.maxI[g] {
				a.maxI[g] = v
			}
		case reduceBool:
			bv := b.Values.(*array.BoolArray).At(valueIndex(b.Values, i))
			v := int64(0)
			if bv {
				v = 1
			}
			if v < a.minI[g] {
				a.minI[g] = v
			}
			if v > a.maxI[g] {
				a.maxI[g] = v
			}
		case reduceFloat64:
			v := b.Values.(*array.Float64Array).At(valueIndex(b.Values, i))
			if v < a.minF[g] {
				a.minF[g] = v
			}
			if v > a.maxF[g] {
				a.maxF[g] = v
			}
		case reduceDecimal:
			v := b.Values.(*array.DecimalArray).At(valueIndex(b.Values, i)).Coef
			if v < a.minD[g] {
				a.minD[g] = v
			}
			if v > a.maxD[g] {
				a.maxD[g] = v
			}
		}
	}
	return nil
}

func (a *MinMax) Merge(other Aggregator, mapping groupid.Mapping) error {
	o, ok := other.(*MinMax)
	if !ok || o.isBinary != a.isBinary {
		return fmt.Errorf("groupagg: MinMax.Merge: %w", ErrInvalid)
	}
	for g := range o.hasValues {
		dst := mapping[g]
		if o.hasValues[g] {
			a.hasValues[dst] = true
		}
		if o.hasNulls[g] {
			a.hasNulls[dst] = true
		}
		if a.isBinary {
			if o.minB[g] != nil && (a.minB[dst] == nil || bytes.Compare(o.minB[g], a.minB[dst]) < 0) {
				a.minB[dst] = o.minB[g]
			}
			if o.maxB[g] != nil && (a.maxB[dst] == nil || bytes.Compare(o.maxB[g], a.maxB[dst]) > 0) {
				a.maxB[dst] = o.maxB[g]
			}
			continue
		}
		switch a.kind {
		case reduceInt64, reduceBool:
			if o.minI[g] < a.minI[dst] {
				a.minI[dst] = o.minI[g]
			}
			if o.maxI[g] > a.maxI[dst] {
				a.maxI[dst] = o.maxI[g]
			}
		case reduceFloat64:
			if o.minF[g] < a.minF[dst] {
				a.minF[dst] = o.minF[g]
			}
			if o.maxF[g] > a.maxF[dst] {
				a.maxF[dst] = o.maxF[g]
			}
		case reduceDecimal:
			a.scale = o.scale
			if o.minD[g] < a.minD[dst] {
				a.minD[dst] = o.minD[g]
			}
			if o.maxD[g] > a.maxD[dst] {
				a.maxD[dst] = o.maxD[g]
			}
		}
	}
	return nil
}

// minMaxStruct is the {min, max} output column of hash_min_max.
type minMaxStruct struct {
	min, max array.Array
}

func (s *minMaxStruct) Type() array.Type   { return array.TypeStruct }
func (s *minMaxStruct) Len() int           { return s.min.Len() }
func (s *minMaxStruct) IsValid(i int) bool { return s.min.IsValid(i) || s.max.IsValid(i) }
func (s *minMaxStruct) IsScalar() bool     { return false }
func (s *minMaxStruct) Min() array.Array   { return s.min }
func (s *minMaxStruct) Max() array.Array   { return s.max }

func (a *MinMax) validMask() []bool {
	n := len(a.hasValues)
	valid := make([]bool, n)
	for g := 0; g < n; g++ {
		valid[g] = a.hasValues[g] && (a.opts.SkipNulls || !a.hasNulls[g])
	}
	return valid
}

func (a *MinMax) Finalize() array.Array {
	valid := a.validMask()
	if a.isBinary {
		return &minMaxStruct{
			min: &array.BinaryArray{Values: a.minB, Valid: valid},
			max: &array.BinaryArray{Values: a.maxB, Valid: valid},
		}
	}
	switch a.kind {
	case reduceInt64, reduceBool:
		return &minMaxStruct{
			min: &array.Int64Array{Values: a.minI, Valid: valid},
			max: &array.Int64Array{Values: a.maxI, Valid: valid},
		}
	case reduceFloat64:
		return &minMaxStruct{
			min: &array.Float64Array{Values: a.minF, Valid: valid},
			max: &array.Float64Array{Values: a.maxF, Valid: valid},
		}
	case reduceDecimal:
		minV := make([]array.Decimal, len(a.minD))
		maxV := make([]array.Decimal, len(a.maxD))
		for i := range minV {
			minV[i] = array.Decimal{Coef: a.minD[i], Scale: a.scale}
			maxV[i] = array.Decimal{Coef: a.maxD[i], Scale: a.scale}
		}
		return &minMaxStruct{
			min: &array.DecimalArray{Values: minV, Valid: valid},
			max: &array.DecimalArray{Values: maxV, Valid: valid},
		}
	}
	return nil
}

func (a *MinMax) OutType() array.Type { return array.TypeStruct }

// hashMinMaxField implements hash_min/hash_max: a thin finalizer
// that returns the corresponding struct field of an embedded MinMax.
type hashMinMaxField struct {
	*MinMax
	field func(*minMaxStruct) array.Array
}

func NewHashMin(opts ScalarAggregateOptions) Aggregator {
	return &hashMinMaxField{MinMax: NewMinMax(opts), field: (*minMaxStruct).Min}
}

func NewHashMax(opts ScalarAggregateOptions) Aggregator {
	return &hashMinMaxField{MinMax: NewMinMax(opts), field: (*minMaxStruct).Max}
}

func (h *hashMinMaxField) Finalize() array.Array {
	s := h.MinMax.Finalize().(*minMaxStruct)
	return h.field(s)
}

func (h *hashMinMaxField) OutType() array.Type {
	switch {
	case h.isBinary:
		return array.TypeBinary
	case h.kind == reduceFloat64:
		return array.TypeFloat64
	case h.kind == reduceDecimal:
		return array.TypeDecimal
	default:
		return array.TypeInt64
	}
}
