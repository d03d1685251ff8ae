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

package wire_test

import (
	"errors"
	"fmt"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"buf.build/go/pbconform/internal/wire"
)

var varints = []uint64{
	0, 1, 127, 128, 150, 300, 16383, 16384,
	math.MaxUint32, math.MaxInt64, math.MaxUint64,
	1 << 56, 1<<63 - 1, 1 << 63,
}

func TestVarintRoundTrip(t *testing.T) {
	t.Parallel()

	for _, v := range varints {
		t.Run(fmt.Sprint(v), func(t *testing.T) {
			t.Parallel()

			want := protowire.AppendVarint(nil, v)
			got := wire.AppendVarint(nil, v)
			assert.Equal(t, want, got)
			assert.Equal(t, protowire.SizeVarint(v), wire.SizeVarint(v))

			buf := make([]byte, wire.MaxVarintLen)
			n := wire.PutVarint(buf, v)
			assert.Equal(t, want, buf[:n])

			x, n, err := wire.ReadVarint(append([]byte{0xff}, got...), 1)
			require.NoError(t, err)
			assert.Equal(t, v, x)
			assert.Equal(t, len(want), n)
		})
	}
}

func TestPutVarintShort(t *testing.T) {
	t.Parallel()

	buf := []byte{0xaa}
	assert.Zero(t, wire.PutVarint(buf, 300))
	assert.Equal(t, []byte{0xaa}, buf)
	assert.Equal(t, 1, wire.PutVarint(buf, 5))
	assert.Equal(t, []byte{5}, buf)
}

func TestReadVarintErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  []byte
		offset int
		want   wire.ErrorCode
	}{
		{name: "empty", input: nil, want: wire.ErrorTruncated},
		{name: "continuation", input: []byte{0x80, 0x80}, want: wire.ErrorTruncated, offset: 0},
		{name: "past-end", input: []byte{0x01}, offset: 1, want: wire.ErrorTruncated},
		{
			name:  "eleven-bytes",
			input: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x81, 0x00},
			want:  wire.ErrorOverflow,
		},
		{
			name:  "tenth-byte-too-big",
			input: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02},
			want:  wire.ErrorOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, n, err := wire.ReadVarint(tt.input, tt.offset)
			assert.Zero(t, n)

			var perr *wire.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.want, perr.Code())

			// protowire agrees that these are malformed.
			_, m := protowire.ConsumeVarint(tt.input[min(tt.offset, len(tt.input)):])
			assert.Negative(t, m)
		})
	}

	_, _, err := wire.ReadVarint([]byte{0x80}, 0)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}
