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

package pbconform

import (
	"fmt"

	"buf.build/go/pbconform/internal/debug"
	"buf.build/go/pbconform/internal/wire"
	"buf.build/go/pbconform/internal/zc"
)

// Field numbers of conformance.ConformanceRequest.
const (
	reqProtobufPayload wire.Number = 1
	reqJSONPayload     wire.Number = 2
	reqOutputFormat    wire.Number = 3
	reqMessageType     wire.Number = 4
	reqCategory        wire.Number = 5
	reqJSPBPayload     wire.Number = 7
	reqTextPayload     wire.Number = 8
)

// Payload is the input of a [Request]: one of [ProtobufPayload],
// [JSONPayload], [JSPBPayload] or [TextPayload].
//
// A Payload decoded by [UnmarshalRequest] is a view into the decoded buffer.
type Payload interface {
	// Bytes returns the encoded payload.
	Bytes() []byte

	number() wire.Number
}

type (
	// ProtobufPayload is a binary-encoded input message.
	ProtobufPayload []byte
	// JSONPayload is a ProtoJSON-encoded input message.
	JSONPayload []byte
	// JSPBPayload is a JSPB-encoded input message.
	JSPBPayload []byte
	// TextPayload is a text-format input message.
	TextPayload []byte
)

func (p ProtobufPayload) Bytes() []byte { return p }
func (p JSONPayload) Bytes() []byte     { return p }
func (p JSPBPayload) Bytes() []byte     { return p }
func (p TextPayload) Bytes() []byte     { return p }

func (ProtobufPayload) number() wire.Number { return reqProtobufPayload }
func (JSONPayload) number() wire.Number     { return reqJSONPayload }
func (JSPBPayload) number() wire.Number     { return reqJSPBPayload }
func (TextPayload) number() wire.Number     { return reqTextPayload }

// Request is a single conformance test case, as sent by the test runner.
type Request struct {
	// The input message, or nil if the runner sent none.
	Payload Payload

	OutputFormat WireFormat
	// Full name of the message type the payload encodes.
	MessageType string
	Category    TestCategory
}

// UnmarshalRequest decodes a conformance.ConformanceRequest.
//
// The payload and MessageType of the result alias buf; they are valid for
// exactly as long as buf is and must be copied to outlive it.
//
// Unknown fields, and known fields encoded with an unexpected wire type, are
// skipped. When more than one payload is present, the last one wins. Only
// malformed wire data is an error, in which case it is a [*wire.ParseError].
func UnmarshalRequest(buf []byte) (Request, error) {
	var req Request
	var s wire.Scanner
	s.Reset(buf)
	for s.Next() {
		rec := s.Record()
		debug.Log(nil, "request field", "%v", rec)

		switch rec.Type {
		case wire.BytesType:
			switch rec.Number {
			case reqProtobufPayload:
				req.Payload = ProtobufPayload(rec.Bytes)
			case reqJSONPayload:
				req.Payload = JSONPayload(rec.Bytes)
			case reqJSPBPayload:
				req.Payload = JSPBPayload(rec.Bytes)
			case reqTextPayload:
				req.Payload = TextPayload(rec.Bytes)
			case reqMessageType:
				req.MessageType = zc.String(rec.Bytes)
			}

		case wire.VarintType:
			switch rec.Number {
			case reqOutputFormat:
				req.OutputFormat = WireFormat(int32(rec.Value))
			case reqCategory:
				req.Category = TestCategory(int32(rec.Value))
			}
		}
	}
	if err := s.Err(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Size returns the encoded size of this request.
func (r *Request) Size() int {
	var n int
	if r.Payload != nil {
		n += wire.SizeBytesField(r.Payload.number(), len(r.Payload.Bytes()))
	}
	if r.OutputFormat != 0 {
		n += wire.SizeTag(reqOutputFormat) + wire.SizeVarint(uint64(r.OutputFormat))
	}
	if r.MessageType != "" {
		n += wire.SizeBytesField(reqMessageType, len(r.MessageType))
	}
	if r.Category != 0 {
		n += wire.SizeTag(reqCategory) + wire.SizeVarint(uint64(r.Category))
	}
	return n
}

// MarshalTo encodes this request into buf, returning the number of bytes
// written. Fails with [wire.ErrBufferTooSmall] if buf is shorter than
// [Request.Size].
func (r *Request) MarshalTo(buf []byte) (int, error) {
	e := wire.NewEncoder(buf)
	if r.Payload != nil {
		if err := e.BytesField(r.Payload.number(), r.Payload.Bytes()); err != nil {
			return e.Len(), err
		}
	}
	if r.OutputFormat != 0 {
		// Negative enum values sign-extend to ten bytes, as int32 fields do.
		if err := e.VarintField(reqOutputFormat, uint64(r.OutputFormat)); err != nil {
			return e.Len(), err
		}
	}
	if r.MessageType != "" {
		if err := e.StringField(reqMessageType, r.MessageType); err != nil {
			return e.Len(), err
		}
	}
	if r.Category != 0 {
		if err := e.VarintField(reqCategory, uint64(r.Category)); err != nil {
			return e.Len(), err
		}
	}
	return e.Len(), nil
}

// Marshal encodes this request into a new buffer.
func (r *Request) Marshal() []byte {
	buf := make([]byte, r.Size())
	n, _ := r.MarshalTo(buf)
	return buf[:n]
}

// Format implements [fmt.Formatter].
func (r *Request) Format(s fmt.State, verb rune) {
	var payload any
	if r.Payload != nil {
		payload = debug.Fprintf("%T(%d bytes)", r.Payload, len(r.Payload.Bytes()))
	}
	debug.Dict("Request",
		"payload", payload,
		"output", r.OutputFormat,
		"type", r.MessageType,
		"category", r.Category,
	).Format(s, verb)
}
