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

// Package grouper implements an external deduplication collaborator
// for Distinct/CountDistinct: something that deduplicates (value,
// group) pairs. It is keyed with siphash,
// the same keyed hash sneller's vm package uses to bucket rows
// during hash-aggregation (vm/interphash.go, vm/siphash_generic.go),
// here used for exact set membership rather than bucket routing.
package grouper

import (
	"bytes"

	"github.com/dchest/siphash"
)

// Entry is one deduplicated (value, group) pair. Null is tracked
// separately from Value because a zero-length Value is a valid
// (empty string) value, not a null.
type Entry struct {
	GroupID uint32
	Value   []byte
	Null    bool
}

// Grouper deduplicates (value, group) pairs across any number of
// Add calls, in insertion order, so that Distinct/CountDistinct's
// Merge can re-feed another aggregator's unique pairs through it and
// still converge to the same result regardless of call order.
type Grouper struct {
	k0, k1  uint64
	buckets map[uint64][]int
	entries []Entry
}

// New creates a Grouper keyed with a fixed, arbitrary 128-bit key.
// The key only needs to avoid pathological collisions for a given
// process's lifetime; it is not a security boundary.
func New() *Grouper {
	return &Grouper{
		k0:      0x646f6e277420706c,
		k1:      0x6179207769746820,
		buckets: make(map[uint64][]int),
	}
}

func (g *Grouper) key(groupID uint32, value []byte, null bool) uint64 {
	buf := make([]byte, 5+len(value))
	buf[0] = byte(groupID)
	buf[1] = byte(groupID >> 8)
	buf[2] = byte(groupID >> 16)
	buf[3] = byte(groupID >> 24)
	if null {
		buf[4] = 1
	}
	copy(buf[5:], value)
	hi, _ := siphash.Hash128(g.k0, g.k1, buf)
	return hi
}

// Add inserts (groupID, value) if it has not been seen before and
// reports whether it was newly inserted.
func (g *Grouper) Add(groupID uint32, value []byte, null bool) bool {
	h := g.key(groupID, value, null)
	for _, idx := range g.buckets[h] {
		e := &g.entries[idx]
		if e.GroupID == groupID && e.Null == null && (null || bytes.Equal(e.Value, value)) {
			return false
		}
	}
	idx := len(g.entries)
	// own the bytes: the caller's buffer may be reused across rows.
	var owned []byte
	if !null && len(value) > 0 {
		owned = append(owned, value...)
	}
	g.entries = append(g.entries, Entry{GroupID: groupID, Value: owned, Null: null})
	g.buckets[h] = append(g.buckets[h], idx)
	return true
}

// Len returns the number of unique (value, group) pairs seen.
func (g *Grouper) Len() int { return len(g.entries) }

// Each iterates the unique pairs in insertion order.
func (g *Grouper) Each(fn func(Entry)) {
	for _, e := range g.entries {
		fn(e)
	}
}
