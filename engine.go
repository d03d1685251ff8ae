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

	"google.golang.org/protobuf/proto"

	"buf.build/go/pbconform/internal/debug"
)

// Codec decodes and re-encodes conformance payloads. It is the message
// library under test.
//
// Message types are identified by their fully-qualified name. Implementations
// must be safe for concurrent use.
type Codec interface {
	Decode(name string, data []byte) (proto.Message, error)
	DecodeJSON(name string, data []byte, opts JSONOptions) (proto.Message, error)
	Encode(msg proto.Message) ([]byte, error)
	EncodeJSON(msg proto.Message, opts JSONOptions) ([]byte, error)
}

// JSONOptions configures ProtoJSON handling in a [Codec].
type JSONOptions struct {
	// If set, unknown fields in JSON input are ignored rather than rejected.
	IgnoreUnknown bool
}

// Engine runs conformance tests against a [Codec].
//
// An Engine is immutable once constructed, and may be shared by concurrent
// calls to [Engine.Serve] on different streams.
type Engine struct {
	codec Codec
	table map[string]transform

	failures []string
	// failures, pre-encoded as conformance.FailureSet entries.
	failureSet []byte
}

// NewEngine returns an engine that round-trips payloads through codec.
func NewEngine(codec Codec, opts ...EngineOption) *Engine {
	e := &Engine{codec: codec}
	for _, opt := range opts {
		opt.apply(e)
	}
	e.failureSet = encodeFailureSet(e.failures)
	e.table = e.dispatchTable()
	return e
}

// RunTest runs a single conformance test.
//
// RunTest never fails: every problem, including a panic inside the codec, is
// reported as some kind of [Result].
func (e *Engine) RunTest(req *Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			debug.Log(nil, "panic", "%v\n%s", r, debug.Stack(3))
			resp = Response{Result: RuntimeError(fmt.Sprintf("panic while running test: %v", r))}
		}
	}()

	var in []byte
	switch p := req.Payload.(type) {
	case nil:
		return Response{Result: RuntimeError("No payload provided in request")}
	case JSPBPayload:
		return Response{Result: Skipped("JSPB input not supported")}
	case TextPayload:
		return Response{Result: Skipped("Text format input not supported")}
	default:
		in = p.Bytes()
	}

	protobufOut := req.OutputFormat == FormatProtobuf || req.OutputFormat == FormatUnspecified
	jsonOut := req.OutputFormat == FormatJSON
	if !protobufOut && !jsonOut {
		switch req.OutputFormat {
		case FormatJSPB:
			return Response{Result: Skipped("JSPB output not supported")}
		case FormatTextFormat:
			return Response{Result: Skipped("TEXT_FORMAT output not supported")}
		default:
			return Response{Result: Skipped("Unknown output format")}
		}
	}

	step, ok := e.table[req.MessageType]
	if !ok {
		return Response{Result: Skipped("Unsupported message type")}
	}

	jsonOpts := JSONOptions{IgnoreUnknown: req.Category == CategoryJSONIgnoreUnknown}

	var (
		msg proto.Message
		err error
	)
	if _, isJSON := req.Payload.(JSONPayload); isJSON {
		msg, err = e.codec.DecodeJSON(req.MessageType, in, jsonOpts)
	} else {
		msg, err = e.codec.Decode(req.MessageType, in)
	}
	if err != nil {
		return Response{Result: ParseError(err.Error())}
	}

	if msg, err = step(msg); err != nil {
		return Response{Result: RuntimeError(err.Error())}
	}

	if jsonOut {
		out, err := e.codec.EncodeJSON(msg, jsonOpts)
		if err != nil {
			return Response{Result: SerializeError(err.Error())}
		}
		return Response{Result: JSONResult(out)}
	}

	out, err := e.codec.Encode(msg)
	if err != nil {
		return Response{Result: SerializeError(err.Error())}
	}
	return Response{Result: ProtobufResult(out)}
}
