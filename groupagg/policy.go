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

// validOutput implements the uniform finalize-time validity policy
// shared by every aggregator:
//
//	output_valid[g] = (count[g] >= min_count) AND (skip_nulls OR no_nulls[g])
//
// Aggregator-specific refinements (variance's ddof floor, t-digest's
// empty-sketch check, Any/All's short-circuit) are applied by the
// caller on top of this.
func validOutput(count int64, noNulls bool, skipNulls bool, minCount uint32) bool {
	if count < int64(minCount) {
		return false
	}
	return skipNulls || noNulls
}
