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
	"testing"

	"github.com/protocolbuffers/protoscope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/testing/protopack"

	"buf.build/go/pbconform/internal/wire"
)

func scope(t *testing.T, text string) []byte {
	t.Helper()
	b, err := protoscope.NewScanner(text).Exec()
	require.NoError(t, err)
	return b
}

func scan(buf []byte) ([]wire.Record, error) {
	var recs []wire.Record
	s := wire.NewScanner(buf)
	for s.Next() {
		recs = append(recs, s.Record())
	}
	return recs, s.Err()
}

func TestScanner(t *testing.T) {
	t.Parallel()

	buf := scope(t, `
		1: 150
		2: {"testing"}
		3: 5i32
		4: 6i64
		5: {}
	`)

	recs, err := scan(buf)
	require.NoError(t, err)
	require.Len(t, recs, 5)

	assert.Equal(t, wire.Number(1), recs[0].Number)
	assert.Equal(t, wire.VarintType, recs[0].Type)
	assert.Equal(t, uint64(150), recs[0].Value)
	assert.Equal(t, 0, recs[0].Offset)

	assert.Equal(t, wire.BytesType, recs[1].Type)
	assert.Equal(t, "testing", string(recs[1].Bytes))
	assert.Equal(t, 3, recs[1].Offset)

	assert.Equal(t, wire.Fixed32Type, recs[2].Type)
	assert.Equal(t, uint64(5), recs[2].Value)
	assert.Len(t, recs[2].Bytes, 4)

	assert.Equal(t, wire.Fixed64Type, recs[3].Type)
	assert.Equal(t, uint64(6), recs[3].Value)
	assert.Len(t, recs[3].Bytes, 8)

	assert.Equal(t, wire.BytesType, recs[4].Type)
	assert.Empty(t, recs[4].Bytes)
}

func TestScannerAliases(t *testing.T) {
	t.Parallel()

	buf := protopack.Message{
		protopack.Tag{Number: 1, Type: protopack.BytesType}, protopack.String("abc"),
	}.Marshal()

	recs, err := scan(buf)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	buf[2] = 'x'
	assert.Equal(t, "xbc", string(recs[0].Bytes))
}

func TestScannerRewind(t *testing.T) {
	t.Parallel()

	buf := scope(t, `1: 1 2: 2`)
	s := wire.NewScanner(buf)
	require.True(t, s.Next())
	require.True(t, s.Next())
	require.False(t, s.Next())

	s.Rewind()
	require.True(t, s.Next())
	assert.Equal(t, wire.Number(1), s.Record().Number)
	assert.Equal(t, 2, s.Offset())
}

func TestScannerEmpty(t *testing.T) {
	t.Parallel()

	recs, err := scan(nil)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestScannerErrors(t *testing.T) {
	t.Parallel()

	tag := func(n protowire.Number, t protowire.Type) []byte {
		return protowire.AppendVarint(nil, uint64(n)<<3|uint64(t))
	}
	cat := func(bufs ...[]byte) []byte {
		var out []byte
		for _, b := range bufs {
			out = append(out, b...)
		}
		return out
	}

	tests := []struct {
		name   string
		input  []byte
		code   wire.ErrorCode
		offset int
	}{
		{
			name:   "start-group",
			input:  cat([]byte{0x08, 0x01}, tag(3, protowire.StartGroupType), tag(3, protowire.EndGroupType)),
			code:   wire.ErrorGroup,
			offset: 2,
		},
		{name: "end-group", input: tag(4, protowire.EndGroupType), code: wire.ErrorGroup},
		{name: "type-6", input: cat(tag(1, 6), []byte{1}), code: wire.ErrorReserved},
		{name: "type-7", input: cat(tag(1, 7), []byte{1}), code: wire.ErrorReserved},
		{name: "field-0", input: []byte{0x00, 0x01}, code: wire.ErrorFieldNumber},
		{name: "field-too-big", input: cat(tag(1<<29, protowire.VarintType), []byte{1}), code: wire.ErrorFieldNumber},
		{name: "short-len", input: []byte{0x0a, 0x05, 'a', 'b', 'c'}, code: wire.ErrorTruncated, offset: 2},
		{name: "short-i32", input: []byte{0x0d, 'a', 'b', 'c'}, code: wire.ErrorTruncated, offset: 1},
		{name: "short-i64", input: []byte{0x09, 'a', 'b', 'c', 'd', 'e', 'f', 'g'}, code: wire.ErrorTruncated, offset: 1},
		{name: "missing-varint", input: []byte{0x08}, code: wire.ErrorTruncated, offset: 1},
		{name: "short-tag", input: []byte{0x80}, code: wire.ErrorTruncated, offset: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := scan(tt.input)
			var perr *wire.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.code, perr.Code(), "%v", err)
			assert.Equal(t, tt.offset, perr.Offset(), "%v", err)
		})
	}
}
