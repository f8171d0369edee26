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

package array

// validity is a shared helper for the flat numeric arrays below: a
// nil Valid bitmap means "all rows valid", matching the convention
// ion's datum decoder uses for non-nullable runs.
type validity []bool

// isValid maps i to slot 0 when scalar is set, the same broadcast
// rule value reads apply via valueIndex, so a scalar column's Valid
// (length 1 or nil) is never indexed past its only slot.
func (v validity) isValid(i int, scalar bool) bool {
	if scalar {
		i = 0
	}
	if v == nil {
		return true
	}
	return v[i]
}

// Int64Array is a flat, nullable array of 64-bit integers.
type Int64Array struct {
	Values []int64
	Valid  []bool // nil means all-valid
	Scalar bool
}

func (a *Int64Array) Type() Type       { return TypeInt64 }
func (a *Int64Array) Len() int         { return len(a.Values) }
func (a *Int64Array) IsValid(i int) bool { return validity(a.Valid).isValid(i, a.Scalar) }
func (a *Int64Array) IsScalar() bool   { return a.Scalar }

// At returns the value at i; the caller must have already checked
// IsValid(i).
func (a *Int64Array) At(i int) int64 { return a.Values[i] }

// Float64Array is a flat, nullable array of double-precision floats.
type Float64Array struct {
	Values []float64
	Valid  []bool
	Scalar bool
}

func (a *Float64Array) Type() Type         { return TypeFloat64 }
func (a *Float64Array) Len() int           { return len(a.Values) }
func (a *Float64Array) IsValid(i int) bool { return validity(a.Valid).isValid(i, a.Scalar) }
func (a *Float64Array) IsScalar() bool     { return a.Scalar }
func (a *Float64Array) At(i int) float64   { return a.Values[i] }

// BoolArray is a flat, nullable array of booleans.
type BoolArray struct {
	Values []bool
	Valid  []bool
	Scalar bool
}

func (a *BoolArray) Type() Type         { return TypeBool }
func (a *BoolArray) Len() int           { return len(a.Values) }
func (a *BoolArray) IsValid(i int) bool { return validity(a.Valid).isValid(i, a.Scalar) }
func (a *BoolArray) IsScalar() bool     { return a.Scalar }
func (a *BoolArray) At(i int) bool      { return a.Values[i] }

// Decimal is a fixed-scale decimal value: Coef * 10^-Scale. This is a
// deliberate simplification of ion's arbitrary-precision decimal
// datum; Coef is a plain int64, sufficient to exercise the
// Mean/Sum/MinMax/Variance decimal code paths.
type Decimal struct {
	Coef  int64
	Scale int32
}

// Float64 converts the decimal to a double using its declared scale,
// as required for the moment aggregators.
func (d Decimal) Float64() float64 {
	f := float64(d.Coef)
	for i := int32(0); i < d.Scale; i++ {
		f /= 10
	}
	for i := int32(0); i > d.Scale; i-- {
		f *= 10
	}
	return f
}

// MaxSentinel and MinSentinel are the anti-extrema used to seed
// MinMax accumulators over decimal columns.
func MaxSentinel(scale int32) Decimal { return Decimal{Coef: 1<<63 - 1, Scale: scale} }
func MinSentinel(scale int32) Decimal { return Decimal{Coef: -(1 << 63), Scale: scale} }

// DecimalArray is a flat, nullable array of same-scale decimals.
type DecimalArray struct {
	Values []Decimal
	Valid  []bool
	Scalar bool
}

func (a *DecimalArray) Type() Type         { return TypeDecimal }
func (a *DecimalArray) Len() int           { return len(a.Values) }
func (a *DecimalArray) IsValid(i int) bool { return validity(a.Valid).isValid(i, a.Scalar) }
func (a *DecimalArray) IsScalar() bool     { return a.Scalar }
func (a *DecimalArray) At(i int) Decimal   { return a.Values[i] }

// BinaryArray is a flat, nullable array of variable-length byte
// strings (also used to represent UTF-8 string columns).
type BinaryArray struct {
	Values [][]byte
	Valid  []bool
	Scalar bool
}

func (a *BinaryArray) Type() Type         { return TypeBinary }
func (a *BinaryArray) Len() int           { return len(a.Values) }
func (a *BinaryArray) IsValid(i int) bool { return validity(a.Valid).isValid(i, a.Scalar) }
func (a *BinaryArray) IsScalar() bool     { return a.Scalar }
func (a *BinaryArray) At(i int) []byte    { return a.Values[i] }
