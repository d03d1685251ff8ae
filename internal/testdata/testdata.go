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

// Package testdata contains a corpus of conformance requests together with
// the responses the testee is expected to give to them.
//
// Each test case is a YAML file. A case describes one request, either as its
// fields or as a raw protoscope program for the whole request body, and the
// expected response:
//
//	request:
//	  type: protobuf_test_messages.proto3.TestAllTypesProto3
//	  output: JSON
//	  protoscope: |
//	    1: 150
//	response:
//	  kind: json_payload
//	  json: '{"optionalInt32": 150}'
package testdata

import (
	"bytes"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/protocolbuffers/protoscope"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"buf.build/go/pbconform"
	"buf.build/go/pbconform/internal/debug"
)

//go:embed *
var testdata embed.FS

// Harness is a generalization of [testing.TB] that also includes the
// [testing.T.Run] method. It must be generic because the signature of this
// function varies across [testing.T] and [testing.B].
type Harness[T any] interface {
	testing.TB
	Run(string, func(T)) bool
}

// TestCase is a test case from the corpus.
type TestCase struct {
	Name string `yaml:"-"`

	Request struct {
		Type     string `yaml:"type"`
		Output   string `yaml:"output"`
		Category string `yaml:"category"`

		// At most one payload.
		Protoscope *string `yaml:"protoscope"`
		Hex        *string `yaml:"hex"`
		JSON       *string `yaml:"json"`
		JSPB       *string `yaml:"jspb"`
		Text       *string `yaml:"text"`

		// If set, the whole request body, overriding everything above.
		Raw *string `yaml:"raw"`
	} `yaml:"request"`

	Response struct {
		Kind string `yaml:"kind"`

		// For error and skip results: the exact message, or a substring of
		// it if Contains is set.
		Message  string `yaml:"message"`
		Contains bool   `yaml:"contains"`

		// For payload results.
		Protoscope *string `yaml:"protoscope"`
		JSON       *string `yaml:"json"`
	} `yaml:"response"`

	// The encoded request body.
	Body []byte `yaml:"-"`
	// The expected binary output, if any.
	Output []byte `yaml:"-"`
}

// RunAll runs all of the test cases against the given harness.
func RunAll[T Harness[T]](t T, f func(T, *TestCase)) {
	t.Helper()

	err := fs.WalkDir(testdata, ".", func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err, "loading test %q", path)

		if d.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}

		t.Run(strings.TrimSuffix(path, ".yaml"), func(t T) {
			if t, ok := any(t).(*testing.T); ok {
				t.Parallel()
			}

			data, err := fs.ReadFile(testdata, path)
			require.NoError(t, err, "loading test %q", path)

			f(t, parseTestCase(t, path, data))
		})

		return nil
	})
	require.NoError(t, err)
}

// parseTestCase parses a single test case from the given data.
//
// This will call t.FailNow() if parsing fails.
func parseTestCase(t testing.TB, path string, file []byte) *TestCase {
	t.Helper()
	defer debug.WithTesting(t)()

	require.True(t, bytes.HasSuffix(file, []byte("\n")), "missing trailing newline in %q", path)

	test := new(TestCase)
	dec := yaml.NewDecoder(bytes.NewReader(file))
	dec.KnownFields(true)
	require.NoError(t, dec.Decode(test), "loading test %q", path)
	test.Name = strings.TrimSuffix(path, ".yaml")

	if raw := test.Request.Raw; raw != nil {
		test.Body = assemble(t, path, *raw)
	} else {
		test.Body = test.request(t, path).Marshal()
	}

	if out := test.Response.Protoscope; out != nil {
		test.Output = assemble(t, path, *out)
	}

	return test
}

// request builds the request described by this test case.
func (test *TestCase) request(t testing.TB, path string) *pbconform.Request {
	t.Helper()

	r := &test.Request
	req := &pbconform.Request{MessageType: r.Type}

	var set int
	if r.Protoscope != nil {
		req.Payload = pbconform.ProtobufPayload(assemble(t, path, *r.Protoscope))
		set++
	}
	if r.Hex != nil {
		b, err := hex.DecodeString(strings.Join(strings.Fields(*r.Hex), ""))
		require.NoError(t, err, "loading test %q", path)
		req.Payload = pbconform.ProtobufPayload(b)
		set++
	}
	if r.JSON != nil {
		req.Payload = pbconform.JSONPayload(*r.JSON)
		set++
	}
	if r.JSPB != nil {
		req.Payload = pbconform.JSPBPayload(*r.JSPB)
		set++
	}
	if r.Text != nil {
		req.Payload = pbconform.TextPayload(*r.Text)
		set++
	}
	require.LessOrEqual(t, set, 1, "more than one payload in %q", path)

	var err error
	req.OutputFormat, err = parseEnum[pbconform.WireFormat](r.Output)
	require.NoError(t, err, "loading test %q", path)
	req.Category, err = parseEnum[pbconform.TestCategory](r.Category)
	require.NoError(t, err, "loading test %q", path)

	return req
}

func assemble(t testing.TB, path, program string) []byte {
	t.Helper()
	b, err := protoscope.NewScanner(program).Exec()
	require.NoError(t, err, "loading test %q", path)
	return b
}

// parseEnum parses the name of a known enum value. The empty string is the
// zero value, and a bare number is accepted as-is.
func parseEnum[E interface {
	~int32
	fmt.Stringer
	Known() bool
}](name string) (E, error) {
	if name == "" {
		return 0, nil
	}
	for e := E(0); e.Known(); e++ {
		if e.String() == name {
			return e, nil
		}
	}

	var n int32
	if _, err := fmt.Sscan(name, &n); err == nil {
		return E(n), nil
	}
	return 0, fmt.Errorf("unknown enum value %q", name)
}
