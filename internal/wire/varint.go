// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wire

import "math/bits"

// MaxVarintLen is the largest number of bytes a 64-bit varint can occupy.
const MaxVarintLen = 10

// ReadVarint decodes the varint starting at buf[offset].
//
// Returns the value and the number of bytes consumed. Fails with
// [ErrorTruncated] if buf ends before the varint does, and with
// [ErrorOverflow] if the varint does not fit in 64 bits.
func ReadVarint(buf []byte, offset int) (uint64, int, error) {
	var x uint64
	p := buf[min(offset, len(buf)):]
	for i := range MaxVarintLen {
		if i == len(p) {
			return 0, 0, fail(ErrorTruncated, offset+i)
		}

		b := p[i]
		if i == MaxVarintLen-1 {
			// The tenth byte only has room for the top bit of a uint64.
			if b > 1 {
				return 0, 0, fail(ErrorOverflow, offset)
			}
			return x | uint64(b)<<63, MaxVarintLen, nil
		}

		x |= uint64(b&0x7f) << (i * 7)
		if b < 0x80 {
			return x, i + 1, nil
		}
	}
	panic("unreachable")
}

// AppendVarint appends the varint encoding of v to out.
func AppendVarint(out []byte, v uint64) []byte {
	for v >= 0x80 {
		out = append(out, byte(v)|0x80)
		v >>= 7
	}
	return append(out, byte(v))
}

// PutVarint writes the varint encoding of v to the start of out, and returns
// the number of bytes written.
//
// If out is too short to hold the whole encoding, nothing is written and zero
// is returned.
func PutVarint(out []byte, v uint64) int {
	n := SizeVarint(v)
	if len(out) < n {
		return 0
	}
	for i := range n - 1 {
		out[i] = byte(v) | 0x80
		v >>= 7
	}
	out[n-1] = byte(v)
	return n
}

// SizeVarint returns the encoded size of v.
func SizeVarint(v uint64) int {
	// Same trick as protowire: 9/64 is a cheap approximation of 1/7.
	return int(9*uint32(bits.Len64(v))+64) / 64
}
