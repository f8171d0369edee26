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

package registryconfig

import "testing"

func TestLoadYAMLOverridesScalarAggregate(t *testing.T) {
	doc := []byte(`
scalar_aggregate:
  skip_nulls: false
  min_count: 3
`)
	d, err := Load(doc)
	if err != nil {
		t.Fatal(err)
	}
	opts := d.ScalarAggregate()
	if opts.SkipNulls {
		t.Fatalf("want skip_nulls=false, got true")
	}
	if opts.MinCount != 3 {
		t.Fatalf("want min_count=3, got %d", opts.MinCount)
	}
}

func TestLoadJSONEquivalent(t *testing.T) {
	doc := []byte(`{"variance": {"ddof": 1}}`)
	d, err := Load(doc)
	if err != nil {
		t.Fatal(err)
	}
	opts := d.Variance()
	if opts.Ddof != 1 {
		t.Fatalf("want ddof=1, got %d", opts.Ddof)
	}
	// unspecified fields keep the built-in default.
	if !opts.SkipNulls {
		t.Fatalf("want skip_nulls default true, got false")
	}
}

func TestNilDefaultsFallBackEntirely(t *testing.T) {
	var d *Defaults
	opts := d.ScalarAggregate()
	if !opts.SkipNulls || opts.MinCount != 1 {
		t.Fatalf("want built-in defaults from nil *Defaults, got %+v", opts)
	}
}

func TestUnknownCountModeErrors(t *testing.T) {
	doc := []byte(`count: {mode: "bogus"}`)
	d, err := Load(doc)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Count(); err == nil {
		t.Fatalf("want error for unknown count mode")
	}
}
