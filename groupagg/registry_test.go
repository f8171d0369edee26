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
)

func TestNewDispatchesSumAndMean(t *testing.T) {
	sum, err := New(FuncSum, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := sum.Init(array.TypeInt64); err != nil {
		t.Fatal(err)
	}
	if _, ok := sum.(*Sum); !ok {
		t.Fatalf("hash_sum: want *Sum, got %T", sum)
	}

	mean, err := New(FuncMean, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := mean.(*Mean); !ok {
		t.Fatalf("hash_mean: want *Mean, got %T", mean)
	}
}

func TestNewUnknownFuncIsNotImplemented(t *testing.T) {
	_, err := New(Func("hash_nonexistent"), Options{})
	if !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("want ErrNotImplemented, got %v", err)
	}
}

func TestNewPivotWiderRequiresOptions(t *testing.T) {
	_, err := New(FuncPivotWider, Options{})
	if !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("want ErrInvalidOptions, got %v", err)
	}
}

func TestFuncsIsSortedAndComplete(t *testing.T) {
	names := Funcs()
	if len(names) != len(factories) {
		t.Fatalf("want %d names, got %d", len(factories), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("Funcs() not sorted at index %d: %q >= %q", i, names[i-1], names[i])
		}
	}
}
