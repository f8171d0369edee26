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

// Package groupagg is a group-wise aggregation engine for columnar,
// nullable data: given batches where each row carries a value and an
// already-assigned group id, it incrementally maintains per-group
// aggregate state and produces one aggregate result per group on
// demand.
//
// Every aggregator implements the Aggregator contract (Init, Resize,
// Consume, Merge, Finalize) uniformly, following the AggregateKind
// dispatch and merge-table structure of sneller's vm/aggregate.go,
// generalized from a fixed byte-buffer layout to typed Go per-group
// slices.
package groupagg

import (
	"github.com/google/uuid"
	"github.com/heliumdb/groupagg/array"
	"github.com/heliumdb/groupagg/groupid"
)

// Batch is what one Consume call folds into an aggregator's state:
// aligned Values/PivotValues/Groups columns of equal length.
// PivotValues is only populated for hash_pivot_wider; Values is
// nil only for hash_count_all.
type Batch struct {
	Values      array.Array
	PivotValues array.Array
	Groups      groupid.Column
}

// Aggregator is the uniform per-group aggregation protocol every
// function in this package implements. All methods are synchronous
// and single-threaded; an Aggregator owns its buffers exclusively.
type Aggregator interface {
	// Init records the input type against the options the aggregator
	// was constructed with. Returns ErrInvalidOptions if those options
	// fail validation, ErrNotImplemented if inputType is unsupported.
	Init(inputType array.Type) error

	// Resize extends per-group state to newNumGroups, which must be
	// >= the aggregator's current group count. Calling Resize with
	// the current count is a no-op.
	Resize(newNumGroups uint32)

	// Consume folds a batch into the aggregator's state.
	Consume(b Batch) error

	// Merge folds other's state into this aggregator's, remapping
	// other's group ids through mapping (mapping[otherGroup] is the
	// destination slot in this aggregator, which must already cover
	// the image of mapping).
	Merge(other Aggregator, mapping groupid.Mapping) error

	// Finalize returns a nullable output column of length
	// NumGroups() and leaves the aggregator in an unspecified state.
	Finalize() array.Array

	// OutType reports the output column's logical type. Valid after
	// Init.
	OutType() array.Type

	// NumGroups reports the aggregator's current group capacity.
	NumGroups() uint32
}

// base is embedded by every aggregator to provide the bookkeeping
// common to all of them (current group count, a debug-visible
// instance id in the style of the per-query UUID tagging in
// cmd/snellerd/handler_execute_query.go).
type base struct {
	numGroups  uint32
	instanceID uuid.UUID
}

func newBase() base {
	return base{instanceID: uuid.New()}
}

func (b *base) NumGroups() uint32 { return b.numGroups }

func (b *base) resize(newNumGroups uint32) {
	if newNumGroups < b.numGroups {
		return
	}
	b.numGroups = newNumGroups
}
