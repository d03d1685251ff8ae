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

// Package pbconform implements the testee side of the Protobuf conformance
// test protocol.
//
// The test runner (conformance_test_runner) starts a testee process and
// exchanges length-prefixed frames with it over stdin and stdout. Each input
// frame is a conformance.ConformanceRequest naming a message type, an input
// payload and the desired output format; the testee decodes the payload,
// re-encodes it, and answers with a conformance.ConformanceResponse.
//
// Requests and responses are decoded and encoded by hand, directly on top of
// the wire format, so that the protocol layer does not itself depend on the
// message library under test. Payloads are decoded and re-encoded by a
// [Codec], which is where the library under test plugs in.
//
// # Lifetimes
//
// [Engine.Serve] handles one frame at a time. Everything derived from a frame,
// including the [Request] decoded from it and the views it holds, lives in a
// per-frame region that is recycled once the response has been written.
// Values decoded by [UnmarshalRequest] and [UnmarshalResponse] likewise alias
// their input buffer.
//
// # Support Status
//
// Binary and JSON inputs and outputs are supported. JSPB and text format
// requests are answered with [Skipped].
package pbconform
