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

package pbconform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buf.build/go/pbconform"
	"buf.build/go/pbconform/internal/schema"
	"buf.build/go/pbconform/internal/wire"
	"buf.build/go/pbconform/internal/zc"
)

func TestUnmarshalRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  pbconform.Request
	}{
		{name: "empty", input: "", want: pbconform.Request{}},
		{
			name: "binary",
			input: `
				1: {1: 42}
				3: 1
				4: {"protobuf_test_messages.proto3.TestAllTypesProto3"}
				5: 1
			`,
			want: pbconform.Request{
				Payload:      pbconform.ProtobufPayload{0x08, 42},
				OutputFormat: pbconform.FormatProtobuf,
				MessageType:  pbconform.TestAllTypesProto3,
				Category:     pbconform.CategoryBinary,
			},
		},
		{
			name:  "json",
			input: `2: {"{\"optionalInt32\": 1}"} 3: 2 5: 3`,
			want: pbconform.Request{
				Payload:      pbconform.JSONPayload(`{"optionalInt32": 1}`),
				OutputFormat: pbconform.FormatJSON,
				Category:     pbconform.CategoryJSONIgnoreUnknown,
			},
		},
		{
			name:  "last-payload-wins",
			input: `1: {"abc"} 7: {"[]"} 2: {"{}"}`,
			want:  pbconform.Request{Payload: pbconform.JSONPayload("{}")},
		},
		{
			name:  "text",
			input: `8: {"optional_int32: 1"}`,
			want:  pbconform.Request{Payload: pbconform.TextPayload("optional_int32: 1")},
		},
		{
			name:  "jspb",
			input: `7: {"[1]"}`,
			want:  pbconform.Request{Payload: pbconform.JSPBPayload("[1]")},
		},
		{
			name:  "unknown-fields",
			input: `6: {1: 1} 9: 1 100: 5i32 1000: 7i64 4: {"x"}`,
			want:  pbconform.Request{MessageType: "x"},
		},
		{
			name:  "mismatched-wire-types",
			input: `4: 5 3: {"x"} 5: 1i32 1: 3`,
			want:  pbconform.Request{},
		},
		{
			name:  "out-of-range-enums",
			input: `3: 17 5: -1`,
			want: pbconform.Request{
				OutputFormat: pbconform.WireFormat(17),
				Category:     pbconform.TestCategory(-1),
			},
		},
		{
			name:  "empty-payload",
			input: `1: {}`,
			want:  pbconform.Request{Payload: pbconform.ProtobufPayload{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf := scope(t, tt.input)
			got, err := pbconform.UnmarshalRequest(buf)
			require.NoError(t, err)

			assert.Equal(t, tt.want.OutputFormat, got.OutputFormat)
			assert.Equal(t, tt.want.MessageType, got.MessageType)
			assert.Equal(t, tt.want.Category, got.Category)
			if tt.want.Payload == nil {
				assert.Nil(t, got.Payload)
			} else {
				require.NotNil(t, got.Payload)
				assert.IsType(t, tt.want.Payload, got.Payload)
				assert.Equal(t, string(tt.want.Payload.Bytes()), string(got.Payload.Bytes()))
			}

			checkRequest(t, buf, got)
		})
	}
}

// checkRequest checks that req is what the reference implementation decodes
// buf to.
func checkRequest(t *testing.T, buf []byte, req pbconform.Request) {
	t.Helper()

	m := reference(t, schema.ConformanceRequest, buf)
	assert.Equal(t, int32(req.OutputFormat), int32(field(m, "requested_output_format").Enum()))
	assert.Equal(t, int32(req.Category), int32(field(m, "test_category").Enum()))
	assert.Equal(t, req.MessageType, field(m, "message_type").String())

	fd := m.WhichOneof(m.Descriptor().Oneofs().ByName("payload"))
	if req.Payload == nil {
		assert.Nil(t, fd)
		return
	}
	require.NotNil(t, fd)

	var want string
	switch req.Payload.(type) {
	case pbconform.ProtobufPayload:
		want = "protobuf_payload"
	case pbconform.JSONPayload:
		want = "json_payload"
	case pbconform.JSPBPayload:
		want = "jspb_payload"
	case pbconform.TextPayload:
		want = "text_payload"
	}
	assert.Equal(t, want, string(fd.Name()))

	var got string
	switch v := m.Get(fd).Interface().(type) {
	case []byte:
		got = string(v)
	case string:
		got = v
	}
	assert.Equal(t, got, string(req.Payload.Bytes()))
}

func TestUnmarshalRequestErrors(t *testing.T) {
	t.Parallel()

	tests := map[string][]byte{
		"truncated-payload": {0x0a, 0x05, 'a'},
		"missing-varint":    {0x18},
		"group":             {0x0b, 0x0c},
		"field-zero":        {0x00, 0x00},
		"reserved-type":     {0x1f, 0x01},
		"truncated-varint":  {0x18, 0x80, 0x80},
		"overlong-length":   {0x22, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x7f},
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			req, err := pbconform.UnmarshalRequest(input)
			var perr *wire.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, pbconform.Request{}, req)
		})
	}
}

func TestRequestViews(t *testing.T) {
	t.Parallel()

	buf := scope(t, `1: {"payload"} 4: {"conformance.FailureSet"}`)
	req, err := pbconform.UnmarshalRequest(buf)
	require.NoError(t, err)

	assert.True(t, zc.Aliases(req.MessageType, buf))
	assert.True(t, zc.Aliases(zc.String(req.Payload.Bytes()), buf))
}

func TestRequestMarshal(t *testing.T) {
	t.Parallel()

	req := pbconform.Request{
		Payload:      pbconform.JSONPayload(`{"optionalString": "x"}`),
		OutputFormat: pbconform.FormatProtobuf,
		MessageType:  pbconform.TestAllTypesProto2,
		Category:     pbconform.CategoryJSON,
	}
	buf := req.Marshal()
	assert.Len(t, buf, req.Size())

	got, err := pbconform.UnmarshalRequest(buf)
	require.NoError(t, err)
	assert.Equal(t, req, got)
	checkRequest(t, buf, got)

	_, err = req.MarshalTo(make([]byte, req.Size()-1))
	assert.ErrorIs(t, err, wire.ErrBufferTooSmall)

	neg := pbconform.Request{OutputFormat: -2}
	got, err = pbconform.UnmarshalRequest(neg.Marshal())
	require.NoError(t, err)
	assert.Equal(t, neg, got)
	assert.Equal(t, 11, neg.Size())
}

func TestEnumStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "JSON", pbconform.FormatJSON.String())
	assert.Equal(t, "TEXT_FORMAT", pbconform.FormatTextFormat.String())
	assert.Equal(t, "WireFormat(17)", pbconform.WireFormat(17).String())
	assert.False(t, pbconform.WireFormat(-1).Known())
	assert.True(t, pbconform.FormatJSPB.Known())

	assert.Equal(t, "JSON_IGNORE_UNKNOWN_PARSING_TEST", pbconform.CategoryJSONIgnoreUnknown.String())
	assert.Equal(t, "TestCategory(6)", pbconform.TestCategory(6).String())
	assert.True(t, pbconform.CategoryTextFormat.Known())
}
