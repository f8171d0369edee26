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

// Package registryconfig loads per-function default option overrides
// from a JSON-or-YAML document, the way cmd/sdb's configuration
// loader reads its db.yaml/db.json without caring which one it got
// (sigs.k8s.io/yaml converts YAML to JSON before the stdlib decoder
// ever sees it, so one struct tag set serves both).
package registryconfig

import (
	"fmt"
	"os"

	"github.com/heliumdb/groupagg/groupagg"
	"sigs.k8s.io/yaml"
)

// Defaults holds the subset of option records an operator may want
// to override process-wide, one section per option record (scalar
// aggregate, count, variance, skew, t-digest). Any section or field
// left unset keeps groupagg's built-in default.
type Defaults struct {
	ScalarAggregateDefaults *ScalarAggregateDefaults `json:"scalar_aggregate,omitempty"`
	CountDefaults           *CountDefaults           `json:"count,omitempty"`
	VarianceDefaults        *VarianceDefaults        `json:"variance,omitempty"`
	SkewDefaults            *SkewDefaults            `json:"skew,omitempty"`
	TDigestDefaults         *TDigestDefaults         `json:"tdigest,omitempty"`
}

type ScalarAggregateDefaults struct {
	SkipNulls *bool   `json:"skip_nulls,omitempty"`
	MinCount  *uint32 `json:"min_count,omitempty"`
}

type CountDefaults struct {
	Mode string `json:"mode,omitempty"` // "only_valid", "only_null", "all"
}

type VarianceDefaults struct {
	Ddof      *int    `json:"ddof,omitempty"`
	SkipNulls *bool   `json:"skip_nulls,omitempty"`
	MinCount  *uint32 `json:"min_count,omitempty"`
}

type SkewDefaults struct {
	SkipNulls *bool   `json:"skip_nulls,omitempty"`
	MinCount  *uint32 `json:"min_count,omitempty"`
}

type TDigestDefaults struct {
	Q          []float64 `json:"q,omitempty"`
	Delta      *uint32   `json:"delta,omitempty"`
	BufferSize *uint32   `json:"buffer_size,omitempty"`
	SkipNulls  *bool     `json:"skip_nulls,omitempty"`
	MinCount   *uint32   `json:"min_count,omitempty"`
}

// Load parses a JSON-or-YAML defaults document.
func Load(data []byte) (*Defaults, error) {
	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("registryconfig: %w", err)
	}
	return &d, nil
}

// LoadFile reads and parses a defaults document from path.
func LoadFile(path string) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registryconfig: %w", err)
	}
	return Load(data)
}

// ScalarAggregate resolves this config's scalar-aggregate overrides
// against groupagg's built-in defaults.
func (d *Defaults) ScalarAggregate() groupagg.ScalarAggregateOptions {
	opts := groupagg.DefaultScalarAggregateOptions()
	if d == nil || d.ScalarAggregateDefaults == nil {
		return opts
	}
	if v := d.ScalarAggregateDefaults.SkipNulls; v != nil {
		opts.SkipNulls = *v
	}
	if v := d.ScalarAggregateDefaults.MinCount; v != nil {
		opts.MinCount = *v
	}
	return opts
}

// Count resolves this config's count-mode override against
// groupagg's built-in default.
func (d *Defaults) Count() (groupagg.CountOptions, error) {
	opts := groupagg.DefaultCountOptions()
	if d == nil || d.CountDefaults == nil || d.CountDefaults.Mode == "" {
		return opts, nil
	}
	switch d.CountDefaults.Mode {
	case "only_valid":
		opts.Mode = groupagg.CountOnlyValid
	case "only_null":
		opts.Mode = groupagg.CountOnlyNull
	case "all":
		opts.Mode = groupagg.CountAllMode
	default:
		return opts, fmt.Errorf("registryconfig: unknown count mode %q", d.CountDefaults.Mode)
	}
	return opts, nil
}

// Variance resolves this config's variance overrides against
// groupagg's built-in defaults.
func (d *Defaults) Variance() groupagg.VarianceOptions {
	opts := groupagg.DefaultVarianceOptions()
	if d == nil || d.VarianceDefaults == nil {
		return opts
	}
	if v := d.VarianceDefaults.Ddof; v != nil {
		opts.Ddof = *v
	}
	if v := d.VarianceDefaults.SkipNulls; v != nil {
		opts.SkipNulls = *v
	}
	if v := d.VarianceDefaults.MinCount; v != nil {
		opts.MinCount = *v
	}
	return opts
}

// Skew resolves this config's skew/kurtosis overrides against
// groupagg's built-in defaults.
func (d *Defaults) Skew() groupagg.SkewOptions {
	opts := groupagg.DefaultSkewOptions()
	if d == nil || d.SkewDefaults == nil {
		return opts
	}
	if v := d.SkewDefaults.SkipNulls; v != nil {
		opts.SkipNulls = *v
	}
	if v := d.SkewDefaults.MinCount; v != nil {
		opts.MinCount = *v
	}
	return opts
}

// TDigest resolves this config's t-digest overrides against
// groupagg's built-in defaults.
func (d *Defaults) TDigest() groupagg.TDigestOptions {
	opts := groupagg.DefaultTDigestOptions()
	if d == nil || d.TDigestDefaults == nil {
		return opts
	}
	t := d.TDigestDefaults
	if len(t.Q) > 0 {
		opts.Q = t.Q
	}
	if t.Delta != nil {
		opts.Delta = *t.Delta
	}
	if t.BufferSize != nil {
		opts.BufferSize = *t.BufferSize
	}
	if t.SkipNulls != nil {
		opts.SkipNulls = *t.SkipNulls
	}
	if t.MinCount != nil {
		opts.MinCount = *t.MinCount
	}
	return opts
}
