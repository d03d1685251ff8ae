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

// Field numbers of conformance.ConformanceResponse.
const (
	respParseError      wire.Number = 1
	respRuntimeError    wire.Number = 2
	respProtobufPayload wire.Number = 3
	respJSONPayload     wire.Number = 4
	respSkipped         wire.Number = 5
	respSerializeError  wire.Number = 6
)

// Result is the outcome of a conformance test: one of [ParseError],
// [RuntimeError], [ProtobufResult], [JSONResult], [Skipped] or
// [SerializeError].
type Result interface {
	// Kind returns a short name for this kind of result, for logging.
	Kind() string

	number() wire.Number
	bytes() []byte
}

type (
	// ParseError reports that the input payload could not be decoded.
	ParseError string
	// RuntimeError reports that the test could not be run at all.
	RuntimeError string
	// SerializeError reports that a decoded message could not be re-encoded.
	SerializeError string
	// Skipped reports that the test exercises an unsupported feature.
	Skipped string

	// ProtobufResult is the binary-encoded output message.
	ProtobufResult []byte
	// JSONResult is the ProtoJSON-encoded output message.
	JSONResult []byte
)

func (ParseError) Kind() string     { return "parse_error" }
func (RuntimeError) Kind() string   { return "runtime_error" }
func (SerializeError) Kind() string { return "serialize_error" }
func (Skipped) Kind() string        { return "skipped" }
func (ProtobufResult) Kind() string { return "protobuf_payload" }
func (JSONResult) Kind() string     { return "json_payload" }

func (ParseError) number() wire.Number     { return respParseError }
func (RuntimeError) number() wire.Number   { return respRuntimeError }
func (SerializeError) number() wire.Number { return respSerializeError }
func (Skipped) number() wire.Number        { return respSkipped }
func (ProtobufResult) number() wire.Number { return respProtobufPayload }
func (JSONResult) number() wire.Number     { return respJSONPayload }

func (r ParseError) bytes() []byte     { return zc.Bytes(string(r)) }
func (r RuntimeError) bytes() []byte   { return zc.Bytes(string(r)) }
func (r SerializeError) bytes() []byte { return zc.Bytes(string(r)) }
func (r Skipped) bytes() []byte        { return zc.Bytes(string(r)) }
func (r ProtobufResult) bytes() []byte { return r }
func (r JSONResult) bytes() []byte     { return r }

// Response is the testee's answer to a single [Request].
type Response struct {
	// Exactly one result. A Response with a nil Result encodes as an empty
	// message.
	Result Result
}

// Size returns the exact encoded size of this response.
func (r Response) Size() int {
	if r.Result == nil {
		return 0
	}
	return wire.SizeBytesField(r.Result.number(), len(r.Result.bytes()))
}

// MarshalTo encodes this response into buf, returning the number of bytes
// written.
//
// Fails with [wire.ErrBufferTooSmall] if buf is shorter than [Response.Size];
// in that case nothing is written.
func (r Response) MarshalTo(buf []byte) (int, error) {
	if r.Result == nil {
		return 0, nil
	}

	e := wire.NewEncoder(buf)
	if err := e.BytesField(r.Result.number(), r.Result.bytes()); err != nil {
		return 0, err
	}
	return e.Len(), nil
}

// Marshal encodes this response into a new buffer.
func (r Response) Marshal() []byte {
	buf := make([]byte, r.Size())
	n, _ := r.MarshalTo(buf)
	return buf[:n]
}

// UnmarshalResponse decodes a conformance.ConformanceResponse.
//
// Byte results alias buf. Result kinds this package does not produce, such as
// text format payloads, are skipped.
func UnmarshalResponse(buf []byte) (Response, error) {
	var resp Response
	var s wire.Scanner
	s.Reset(buf)
	for s.Next() {
		rec := s.Record()
		if rec.Type != wire.BytesType {
			continue
		}

		switch rec.Number {
		case respParseError:
			resp.Result = ParseError(rec.Bytes)
		case respRuntimeError:
			resp.Result = RuntimeError(rec.Bytes)
		case respSerializeError:
			resp.Result = SerializeError(rec.Bytes)
		case respSkipped:
			resp.Result = Skipped(rec.Bytes)
		case respProtobufPayload:
			resp.Result = ProtobufResult(rec.Bytes)
		case respJSONPayload:
			resp.Result = JSONResult(rec.Bytes)
		}
	}
	if err := s.Err(); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// Format implements [fmt.Formatter].
func (r Response) Format(s fmt.State, verb rune) {
	switch v := r.Result.(type) {
	case nil:
		fmt.Fprint(s, "Response{}")
	case ProtobufResult, JSONResult:
		debug.Dict("Response", v.Kind(), debug.Fprintf("%d bytes", len(v.bytes()))).Format(s, verb)
	default:
		debug.Dict("Response", v.Kind(), debug.Fprintf("%q", v.bytes())).Format(s, verb)
	}
}
