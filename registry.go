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

	"buf.build/go/pbconform/internal/wire"
)

// Names of the message types an [Engine] will run tests for.
const (
	TestAllTypesProto3         = "protobuf_test_messages.proto3.TestAllTypesProto3"
	TestAllTypesProto2         = "protobuf_test_messages.proto2.TestAllTypesProto2"
	TestAllTypesEditionsProto3 = "protobuf_test_messages.editions.proto3.TestAllTypesProto3"
	TestAllTypesEditionsProto2 = "protobuf_test_messages.editions.proto2.TestAllTypesProto2"

	// FailureSet is what the runner sends first, to ask which tests are
	// expected to fail.
	FailureSet = "conformance.FailureSet"
)

// Field numbers of conformance.FailureSet and conformance.TestStatus.
const (
	failureSetTest wire.Number = 2
	testStatusName wire.Number = 1
)

// transform is the step between decoding a payload and re-encoding it.
type transform func(proto.Message) (proto.Message, error)

func identity(m proto.Message) (proto.Message, error) { return m, nil }

// dispatchTable builds the table of supported message types. It is not
// modified after construction.
func (e *Engine) dispatchTable() map[string]transform {
	return map[string]transform{
		TestAllTypesProto3:         identity,
		TestAllTypesProto2:         identity,
		TestAllTypesEditionsProto3: identity,
		TestAllTypesEditionsProto2: identity,
		FailureSet:                 e.addFailures,
	}
}

// addFailures merges the configured failure list into a decoded FailureSet.
func (e *Engine) addFailures(m proto.Message) (proto.Message, error) {
	if len(e.failureSet) == 0 {
		return m, nil
	}

	extra, err := e.codec.Decode(FailureSet, e.failureSet)
	if err != nil {
		return nil, fmt.Errorf("failed to load expected failures: %w", err)
	}
	proto.Merge(m, extra)
	return m, nil
}

// encodeFailureSet encodes names as the repeated test field of a
// conformance.FailureSet.
func encodeFailureSet(names []string) []byte {
	var out []byte
	for _, name := range names {
		out = wire.AppendVarint(out, wire.EncodeTag(failureSetTest, wire.BytesType))
		out = wire.AppendVarint(out, uint64(wire.SizeBytesField(testStatusName, len(name))))
		out = wire.AppendVarint(out, wire.EncodeTag(testStatusName, wire.BytesType))
		out = wire.AppendVarint(out, uint64(len(name)))
		out = append(out, name...)
	}
	return out
}
