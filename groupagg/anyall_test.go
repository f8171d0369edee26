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
	"testing"

	"github.com/heliumdb/groupagg/array"
	"github.com/heliumdb/groupagg/groupid"
)

func boolBatch(values []bool, valid []bool, groups []uint32, numGroups uint32) Batch {
	return Batch{
		Values: &array.BoolArray{Values: values, Valid: valid},
		Groups: groupid.Column{Ids: groups, NumGroups: numGroups},
	}
}

func TestAnyShortCircuitsOnTrue(t *testing.T) {
	// group 0: false, null, true -> reduced=true, valid regardless of the null
	// group 1: false, null       -> reduced=false, invalid (a null present, not skipped)
	opts := ScalarAggregateOptions{SkipNulls: false, MinCount: 0}
	a2 := NewAny(opts)
	a2.Init(array.TypeBool)
	a2.Resize(2)
	err := a2.Consume(boolBatch(
		[]bool{false, false, true, false, false},
		[]bool{true, false, true, true, false},
		[]uint32{0, 0, 0, 1, 1}, 2))
	if err != nil {
		t.Fatal(err)
	}
	out := a2.Finalize().(*array.BoolArray)
	if !out.IsValid(0) || out.At(0) != true {
		t.Fatalf("group 0: want valid true, got valid=%v value=%v", out.IsValid(0), out.At(0))
	}
	if out.IsValid(1) {
		t.Fatalf("group 1: want invalid (null present, no short-circuit), got valid")
	}
}

func TestAllShortCircuitsOnFalse(t *testing.T) {
	opts := ScalarAggregateOptions{SkipNulls: false, MinCount: 0}
	a := NewAll(opts)
	a.Init(array.TypeBool)
	a.Resize(2)
	// group 0: true, null, false -> reduced=false, short-circuits valid
	// group 1: true, null        -> reduced=true, invalid (null blocks it)
	err := a.Consume(boolBatch(
		[]bool{true, false, false, true, false},
		[]bool{true, false, true, true, false},
		[]uint32{0, 0, 0, 1, 1}, 2))
	if err != nil {
		t.Fatal(err)
	}
	out := a.Finalize().(*array.BoolArray)
	if !out.IsValid(0) || out.At(0) != false {
		t.Fatalf("group 0: want valid false, got valid=%v value=%v", out.IsValid(0), out.At(0))
	}
	if out.IsValid(1) {
		t.Fatalf("group 1: want invalid, got valid")
	}
}

func TestAnyAllMerge(t *testing.T) {
	a1 := NewAny(DefaultScalarAggregateOptions())
	a1.Init(array.TypeBool)
	a1.Resize(1)
	a1.Consume(boolBatch([]bool{false}, nil, []uint32{0}, 1))

	a2 := NewAny(DefaultScalarAggregateOptions())
	a2.Init(array.TypeBool)
	a2.Resize(1)
	a2.Consume(boolBatch([]bool{true}, nil, []uint32{0}, 1))

	if err := a1.Merge(a2, groupid.Mapping{0}); err != nil {
		t.Fatal(err)
	}
	out := a1.Finalize().(*array.BoolArray)
	if !out.IsValid(0) || !out.At(0) {
		t.Fatalf("merged any: want true, got valid=%v value=%v", out.IsValid(0), out.At(0))
	}
}
