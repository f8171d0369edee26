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

package grouper

import "testing"

func TestAddDedupsRepeatedValue(t *testing.T) {
	g := New()
	if !g.Add(0, []byte("a"), false) {
		t.Fatalf("first insert of a new value should report true")
	}
	if g.Add(0, []byte("a"), false) {
		t.Fatalf("re-inserting the same (group, value) should report false")
	}
	if g.Len() != 1 {
		t.Fatalf("want 1 unique entry, got %d", g.Len())
	}
}

func TestAddDistinguishesGroups(t *testing.T) {
	g := New()
	g.Add(0, []byte("a"), false)
	if !g.Add(1, []byte("a"), false) {
		t.Fatalf("same value under a different group must be a new entry")
	}
	if g.Len() != 2 {
		t.Fatalf("want 2 unique entries, got %d", g.Len())
	}
}

func TestAddDistinguishesNullFromEmptyString(t *testing.T) {
	g := New()
	g.Add(0, nil, true)
	if !g.Add(0, []byte(""), false) {
		t.Fatalf("an empty string is not the same as null")
	}
	if g.Len() != 2 {
		t.Fatalf("want 2 unique entries (null and empty string), got %d", g.Len())
	}
}

func TestAddOwnsValueBytes(t *testing.T) {
	g := New()
	buf := []byte("mutable")
	g.Add(0, buf, false)
	copy(buf, "OVERWRIT")
	var got string
	g.Each(func(e Entry) { got = string(e.Value) })
	if got != "mutable" {
		t.Fatalf("Grouper must copy the value, got %q after caller mutated its buffer", got)
	}
}

func TestEachPreservesInsertionOrder(t *testing.T) {
	g := New()
	g.Add(0, []byte("z"), false)
	g.Add(0, []byte("a"), false)
	g.Add(0, []byte("m"), false)
	var order []string
	g.Each(func(e Entry) { order = append(order, string(e.Value)) })
	want := []string{"z", "a", "m"}
	for i, w := range want {
		if order[i] != w {
			t.Fatalf("want insertion order %v, got %v", want, order)
		}
	}
}

func TestAddHandlesHashCollisionBucketing(t *testing.T) {
	// even if two different values land in the same bucket, Add must
	// still distinguish them by the full entry comparison, not just
	// the bucket hash.
	g := New()
	for i := 0; i < 500; i++ {
		g.Add(uint32(i%3), []byte{byte(i), byte(i >> 8)}, false)
	}
	if g.Len() != 500 {
		t.Fatalf("want 500 unique entries, got %d", g.Len())
	}
}
