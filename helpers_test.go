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

	"github.com/protocolbuffers/protoscope"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/pbconform"
	"buf.build/go/pbconform/internal/schema"
)

// scope assembles a protoscope program.
func scope(t testing.TB, text string) []byte {
	t.Helper()
	b, err := protoscope.NewScanner(text).Exec()
	require.NoError(t, err, "assembling %q", text)
	return b
}

func loadSchema(t testing.TB) *schema.Schema {
	t.Helper()
	s, err := schema.Load()
	require.NoError(t, err)
	return s
}

func newCodec(t testing.TB) *schema.Codec {
	t.Helper()
	return schema.NewCodec(loadSchema(t))
}

func newEngine(t testing.TB, opts ...pbconform.EngineOption) *pbconform.Engine {
	t.Helper()
	return pbconform.NewEngine(newCodec(t), opts...)
}

// reference decodes buf as the named message type using the reference
// protobuf implementation.
func reference(t testing.TB, name string, buf []byte) protoreflect.Message {
	t.Helper()
	mt, err := loadSchema(t).FindMessage(name)
	require.NoError(t, err)

	m := mt.New()
	require.NoError(t, proto.Unmarshal(buf, m.Interface()))
	return m
}

// field returns the value of the named field of m.
func field(m protoreflect.Message, name string) protoreflect.Value {
	return m.Get(m.Descriptor().Fields().ByName(protoreflect.Name(name)))
}
