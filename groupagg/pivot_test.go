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
	"errors"
	"testing"

	"github.com/heliumdb/groupagg/array"
	"github.com/heliumdb/groupagg/groupid"
)

func pivotBatch(keys, values []string, groups []uint32, numGroups uint32) Batch {
	keyBytes := make([][]byte, len(keys))
	for i, k := range keys {
		keyBytes[i] = []byte(k)
	}
	valBytes := make([][]byte, len(values))
	for i, v := range values {
		valBytes[i] = []byte(v)
	}
	return Batch{
		PivotValues: &array.BinaryArray{Values: keyBytes},
		Values:      &array.BinaryArray{Values: valBytes},
		Groups:      groupid.Column{Ids: groups, NumGroups: numGroups},
	}
}

func TestPivotWiderScattersByKey(t *testing.T) {
	opts := PivotWiderOptions{KeyNames: []string{"a", "b"}, UnexpectedKeyBehavior: UnexpectedKeyIgnore}
	p := NewPivotWider(opts)
	p.Init(array.TypeBinary)
	p.Resize(2)

	err := p.Consume(pivotBatch(
		[]string{"a", "b", "a"},
		[]string{"x1", "y1", "x0"},
		[]uint32{1, 1, 0}, 2))
	if err != nil {
		t.Fatal(err)
	}
	out := p.Finalize().(*pivotStruct)
	colA := out.Column("a").(*array.BinaryArray)
	colB := out.Column("b").(*array.BinaryArray)
	if !colA.IsValid(0) || string(colA.At(0)) != "x0" {
		t.Fatalf("column a, group 0: want x0, got valid=%v value=%q", colA.IsValid(0), colA.At(0))
	}
	if !colA.IsValid(1) || string(colA.At(1)) != "x1" {
		t.Fatalf("column a, group 1: want x1, got valid=%v value=%q", colA.IsValid(1), colA.At(1))
	}
	if colB.IsValid(0) {
		t.Fatalf("column b, group 0: want no cell filled, got valid")
	}
	if !colB.IsValid(1) || string(colB.At(1)) != "y1" {
		t.Fatalf("column b, group 1: want y1, got valid=%v value=%q", colB.IsValid(1), colB.At(1))
	}
}

func TestPivotWiderDuplicateCellIsError(t *testing.T) {
	opts := PivotWiderOptions{KeyNames: []string{"a"}, UnexpectedKeyBehavior: UnexpectedKeyIgnore}
	p := NewPivotWider(opts)
	p.Init(array.TypeBinary)
	p.Resize(1)
	err := p.Consume(pivotBatch([]string{"a", "a"}, []string{"x", "x2"}, []uint32{0, 0}, 1))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("want ErrInvalid for duplicate cell, got %v", err)
	}
}

func TestPivotWiderUnexpectedKeyRaises(t *testing.T) {
	opts := PivotWiderOptions{KeyNames: []string{"a"}, UnexpectedKeyBehavior: UnexpectedKeyRaise}
	p := NewPivotWider(opts)
	p.Init(array.TypeBinary)
	p.Resize(1)
	err := p.Consume(pivotBatch([]string{"zzz"}, []string{"x"}, []uint32{0}, 1))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("want ErrInvalid for unexpected key under kRaise, got %v", err)
	}
}

func TestPivotWiderMergeAppliesMapping(t *testing.T) {
	opts := PivotWiderOptions{KeyNames: []string{"a"}, UnexpectedKeyBehavior: UnexpectedKeyIgnore}
	dst := NewPivotWider(opts)
	dst.Init(array.TypeBinary)
	dst.Resize(2)

	src := NewPivotWider(opts)
	src.Init(array.TypeBinary)
	src.Resize(2)
	if err := src.Consume(pivotBatch([]string{"a", "a"}, []string{"s0", "s1"}, []uint32{0, 1}, 2)); err != nil {
		t.Fatal(err)
	}

	// source group 0 -> dest group 1, source group 1 -> dest group 0
	mapping := groupid.Mapping{1, 0}
	if err := dst.Merge(src, mapping); err != nil {
		t.Fatal(err)
	}

	out := dst.Finalize().(*pivotStruct)
	col := out.Column("a").(*array.BinaryArray)
	if !col.IsValid(0) || string(col.At(0)) != "s1" {
		t.Fatalf("dest group 0: want s1, got valid=%v value=%q", col.IsValid(0), col.At(0))
	}
	if !col.IsValid(1) || string(col.At(1)) != "s0" {
		t.Fatalf("dest group 1: want s0, got valid=%v value=%q", col.IsValid(1), col.At(1))
	}
}

func TestPivotWiderMergeDuplicateCellIsError(t *testing.T) {
	opts := PivotWiderOptions{KeyNames: []string{"a"}, UnexpectedKeyBehavior: UnexpectedKeyIgnore}
	dst := NewPivotWider(opts)
	dst.Init(array.TypeBinary)
	dst.Resize(1)
	if err := dst.Consume(pivotBatch([]string{"a"}, []string{"x"}, []uint32{0}, 1)); err != nil {
		t.Fatal(err)
	}

	src := NewPivotWider(opts)
	src.Init(array.TypeBinary)
	src.Resize(1)
	if err := src.Consume(pivotBatch([]string{"a"}, []string{"y"}, []uint32{0}, 1)); err != nil {
		t.Fatal(err)
	}

	err := dst.Merge(src, groupid.Mapping{0})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("want ErrInvalid for duplicate cell on merge, got %v", err)
	}
}

func TestPivotWiderDebugfFiresOnCollision(t *testing.T) {
	opts := PivotWiderOptions{KeyNames: []string{"a"}, UnexpectedKeyBehavior: UnexpectedKeyIgnore}
	p := NewPivotWider(opts)
	p.Init(array.TypeBinary)
	p.Resize(1)

	var reports int
	prev := Debugf
	Debugf = func(format string, args ...any) { reports++ }
	defer func() { Debugf = prev }()

	err := p.Consume(pivotBatch([]string{"a", "a"}, []string{"x", "x2"}, []uint32{0, 0}, 1))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("want ErrInvalid for duplicate cell, got %v", err)
	}
	if reports != 1 {
		t.Fatalf("want Debugf to fire exactly once on the collision, got %d", reports)
	}
}

func TestPivotWiderUnexpectedKeyIgnored(t *testing.T) {
	opts := PivotWiderOptions{KeyNames: []string{"a"}, UnexpectedKeyBehavior: UnexpectedKeyIgnore}
	p := NewPivotWider(opts)
	p.Init(array.TypeBinary)
	p.Resize(1)
	if err := p.Consume(pivotBatch([]string{"zzz"}, []string{"x"}, []uint32{0}, 1)); err != nil {
		t.Fatalf("want unexpected key ignored silently, got %v", err)
	}
}
