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
	"encoding/binary"
	"fmt"
	"math"
	"runtime"

	"github.com/klauspost/compress/zstd"
)

// Marshal/Unmarshal give a t-digest a compact wire form so that a
// cross-partition Merge, where the caller partitions input and
// invokes Merge to fold results back together, can ship a group's
// sketch between processes. The encoding is zstd-compressed
// little-endian (mean, weight) pairs, matching the compression
// wrapper convention used by sneller's compr package.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil)
	if err != nil {
		panic(err)
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(runtime.GOMAXPROCS(0)))
	if err != nil {
		panic(err)
	}
}

// Marshal flushes any pending points and returns a compressed
// snapshot of the sketch sufficient to reconstruct it via Unmarshal.
func (t *T) Marshal() []byte {
	t.flush()

	raw := make([]byte, 24+len(t.data)*16)
	binary.LittleEndian.PutUint64(raw[0:], math.Float64bits(t.totalWeight))
	binary.LittleEndian.PutUint64(raw[8:], math.Float64bits(t.min))
	binary.LittleEndian.PutUint64(raw[16:], math.Float64bits(t.max))
	off := 24
	for _, c := range t.data {
		binary.LittleEndian.PutUint64(raw[off:], math.Float64bits(c.Mean))
		binary.LittleEndian.PutUint64(raw[off+8:], math.Float64bits(c.Weight))
		off += 16
	}
	return zstdEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/2))
}

// Unmarshal decodes a sketch produced by Marshal into a fresh T with
// the given delta/buffer-size parameters (those are not serialized:
// they govern future Add/Merge compression, not the wire data).
func Unmarshal(delta, bufferSize int, compressed []byte) (*T, error) {
	raw, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("tdigest: decompress: %w", err)
	}
	if len(raw) < 24 || (len(raw)-24)%16 != 0 {
		return nil, fmt.Errorf("tdigest: corrupt snapshot: %d bytes", len(raw))
	}
	t := New(delta, bufferSize)
	t.totalWeight = math.Float64frombits(binary.LittleEndian.Uint64(raw[0:]))
	t.min = math.Float64frombits(binary.LittleEndian.Uint64(raw[8:]))
	t.max = math.Float64frombits(binary.LittleEndian.Uint64(raw[16:]))
	n := (len(raw) - 24) / 16
	t.data = make(centroids, n)
	off := 24
	for i := 0; i < n; i++ {
		t.data[i].Mean = math.Float64frombits(binary.LittleEndian.Uint64(raw[off:]))
		t.data[i].Weight = math.Float64frombits(binary.LittleEndian.Uint64(raw[off+8:]))
		off += 16
	}
	return t, nil
}
