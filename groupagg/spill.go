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
	"encoding/binary"
	"math"

	"github.com/heliumdb/groupagg/array"
	"github.com/klauspost/compress/zstd"
)

var (
	spillEncoder *zstd.Encoder
	spillDecoder *zstd.Decoder
)

func init() {
	var err error
	spillEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		panic(err)
	}
	spillDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
}

func compressChunk(raw []byte) []byte {
	return spillEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/2))
}

func decompressChunk(compressed []byte) []byte {
	raw, err := spillDecoder.DecodeAll(compressed, nil)
	if err != nil {
		panic(err) // a chunk this package wrote itself failing to decode is a bug
	}
	return raw
}

// encodeListChunk renders a run of boxed hash_list entries into a
// flat byte buffer: one validity byte per entry, followed by the
// type-specific encoding of valid entries; a list output holds a
// single known element type per aggregator instance.
func encodeListChunk(kind array.Type, values []any, isNull []bool) []byte {
	buf := make([]byte, 0, len(values)*9)
	for i, v := range values {
		if isNull[i] {
			buf = append(buf, 1)
			continue
		}
		buf = append(buf, 0)
		buf = appendListValue(buf, kind, v)
	}
	return buf
}

func appendListValue(buf []byte, kind array.Type, v any) []byte {
	switch kind {
	case array.TypeInt64:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(v.(int64)))
		return append(buf, tmp[:]...)
	case array.TypeFloat64:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v.(float64)))
		return append(buf, tmp[:]...)
	case array.TypeBool:
		if v.(bool) {
			return append(buf, 1)
		}
		return append(buf, 0)
	case array.TypeDecimal:
		d := v.(array.Decimal)
		var tmp [12]byte
		binary.LittleEndian.PutUint64(tmp[:8], uint64(d.Coef))
		binary.LittleEndian.PutUint32(tmp[8:], uint32(d.Scale))
		return append(buf, tmp[:]...)
	case array.TypeBinary:
		b := v.([]byte)
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(len(b)))
		buf = append(buf, tmp[:]...)
		return append(buf, b...)
	default:
		return buf
	}
}

// decodeListChunk is the inverse of encodeListChunk.
func decodeListChunk(kind array.Type, buf []byte) ([]any, []bool) {
	var values []any
	var nulls []bool
	for len(buf) > 0 {
		null := buf[0] == 1
		buf = buf[1:]
		nulls = append(nulls, null)
		if null {
			values = append(values, nil)
			continue
		}
		var v any
		v, buf = readListValue(buf, kind)
		values = append(values, v)
	}
	return values, nulls
}

func readListValue(buf []byte, kind array.Type) (any, []byte) {
	switch kind {
	case array.TypeInt64:
		return int64(binary.LittleEndian.Uint64(buf[:8])), buf[8:]
	case array.TypeFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(buf[:8])), buf[8:]
	case array.TypeBool:
		return buf[0] == 1, buf[1:]
	case array.TypeDecimal:
		coef := int64(binary.LittleEndian.Uint64(buf[:8]))
		scale := int32(binary.LittleEndian.Uint32(buf[8:12]))
		return array.Decimal{Coef: coef, Scale: scale}, buf[12:]
	case array.TypeBinary:
		n := binary.LittleEndian.Uint32(buf[:4])
		buf = buf[4:]
		b := append([]byte(nil), buf[:n]...)
		return b, buf[n:]
	default:
		return nil, buf
	}
}
