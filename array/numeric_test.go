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

import "testing"

func TestDecimalFloat64PositiveScale(t *testing.T) {
	d := Decimal{Coef: 12345, Scale: 2} // 123.45
	got := d.Float64()
	if got < 123.449 || got > 123.451 {
		t.Fatalf("want ~123.45, got %v", got)
	}
}

func TestDecimalFloat64NegativeScale(t *testing.T) {
	d := Decimal{Coef: 5, Scale: -2} // 500
	if got := d.Float64(); got != 500 {
		t.Fatalf("want 500, got %v", got)
	}
}

func TestDecimalFloat64ZeroScale(t *testing.T) {
	d := Decimal{Coef: 42, Scale: 0}
	if got := d.Float64(); got != 42 {
		t.Fatalf("want 42, got %v", got)
	}
}

func TestMaxMinSentinelPreserveScale(t *testing.T) {
	max := MaxSentinel(3)
	min := MinSentinel(3)
	if max.Scale != 3 || min.Scale != 3 {
		t.Fatalf("sentinels must carry the requested scale")
	}
	if max.Coef <= min.Coef {
		t.Fatalf("MaxSentinel must compare greater than MinSentinel")
	}
}

func TestNilValidityMeansAllValid(t *testing.T) {
	a := &Int64Array{Values: []int64{1, 2, 3}}
	for i := 0; i < 3; i++ {
		if !a.IsValid(i) {
			t.Fatalf("row %d should be valid when Valid is nil", i)
		}
	}
}

func TestExplicitValidityMask(t *testing.T) {
	a := &BinaryArray{Values: [][]byte{[]byte("a"), []byte("b")}, Valid: []bool{true, false}}
	if !a.IsValid(0) || a.IsValid(1) {
		t.Fatalf("explicit Valid mask not honored")
	}
}

func TestScalarIsValidBroadcastsSlotZero(t *testing.T) {
	// A null scalar (e.g. CAST(NULL AS INT64) broadcast across a
	// batch) carries a single-element Valid mask but must answer
	// IsValid for every logical row without a range panic.
	a := &Int64Array{Values: []int64{0}, Valid: []bool{false}, Scalar: true}
	for i := 0; i < 5; i++ {
		if a.IsValid(i) {
			t.Fatalf("row %d: scalar null should report invalid", i)
		}
	}

	b := &Float64Array{Values: []float64{1.5}, Valid: []bool{true}, Scalar: true}
	for i := 0; i < 5; i++ {
		if !b.IsValid(i) {
			t.Fatalf("row %d: scalar valid should report valid", i)
		}
	}
}

func TestTypeStringNames(t *testing.T) {
	cases := map[Type]string{
		TypeBool: "bool", TypeInt64: "int64", TypeFloat64: "float64",
		TypeDecimal: "decimal", TypeBinary: "binary", TypeStruct: "struct",
		TypeList: "list", TypeInvalid: "invalid",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Fatalf("Type(%d).String() = %q, want %q", typ, got, want)
		}
	}
}
