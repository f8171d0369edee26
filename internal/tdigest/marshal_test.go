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

package tdigest

import (
	"math"
	"testing"
)

func TestMarshalUnmarshalRoundTripsQuantiles(t *testing.T) {
	d := New(100, 500)
	for i := 0; i < 2000; i++ {
		d.Add(math.Sin(float64(i)) * 100)
	}
	want := d.Quantiles([]float64{0, 0.1, 0.5, 0.9, 1})

	blob := d.Marshal()
	restored, err := Unmarshal(100, 500, blob)
	if err != nil {
		t.Fatal(err)
	}
	got := restored.Quantiles([]float64{0, 0.1, 0.5, 0.9, 1})

	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("quantile %d: want %v, got %v", i, want[i], got[i])
		}
	}
}

func TestUnmarshalRejectsShortSnapshot(t *testing.T) {
	// a valid zstd stream whose decompressed payload is shorter than
	// the 24-byte header must be rejected, not indexed out of bounds.
	short := zstdEncoder.EncodeAll([]byte{1, 2, 3}, nil)
	if _, err := Unmarshal(100, 500, short); err == nil {
		t.Fatalf("want an error for a snapshot shorter than the header")
	}
}

func TestUnmarshalRejectsMisalignedSnapshot(t *testing.T) {
	// 24-byte header plus a partial (non-16-byte-multiple) centroid.
	raw := make([]byte, 24+10)
	misaligned := zstdEncoder.EncodeAll(raw, nil)
	if _, err := Unmarshal(100, 500, misaligned); err == nil {
		t.Fatalf("want an error for a centroid section not a multiple of 16 bytes")
	}
}

func TestUnmarshalRejectsGarbageInput(t *testing.T) {
	if _, err := Unmarshal(100, 500, []byte("not zstd data")); err == nil {
		t.Fatalf("want an error decoding non-zstd input")
	}
}

func TestMarshalOfEmptySketch(t *testing.T) {
	d := New(100, 500)
	blob := d.Marshal()
	restored, err := Unmarshal(100, 500, blob)
	if err != nil {
		t.Fatal(err)
	}
	if !restored.Empty() {
		t.Fatalf("round-tripping an empty sketch should stay empty")
	}
}
