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

import "errors"

// The three error categories aggregators report. Call sites wrap
// these with fmt.Errorf("...: %w", ErrX) the same way vm/apply.go and
// vm/cross.go wrap internal errors; callers classify with errors.Is.
var (
	// ErrNotImplemented is returned from Init, for an input type (or
	// option combination) the aggregator does not support, and from
	// New, for a function name with no registered factory.
	ErrNotImplemented = errors.New("groupagg: not implemented")

	// ErrInvalid is a runtime, data-dependent failure: a pivot
	// collision, an overflowing variable-length concatenation, an
	// unexpected pivot key under kRaise.
	ErrInvalid = errors.New("groupagg: invalid")

	// ErrInvalidOptions is returned from Init when the options
	// record is the wrong variant or fails validation.
	ErrInvalidOptions = errors.New("groupagg: invalid options")
)

// Debugf is a global diagnostic hook, nil by default, in the same
// style as vm/log.go's package-level Errorf: an embedder may set it
// during init() to capture additional context without groupagg
// depending on a logging library.
var Debugf func(format string, args ...any)

func debugf(format string, args ...any) {
	if Debugf != nil {
		Debugf(format, args...)
	}
}
