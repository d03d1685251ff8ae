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

// Package schema compiles the conformance test schemas and provides the
// typed message codecs that the testee round-trips payloads through.
//
// The schemas are embedded as .proto sources and compiled once, at first use,
// with protocompile. Messages are represented with [dynamicpb], so no
// generated code is required.
package schema

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"

	"buf.build/go/pbconform"

	// Well-known types are resolved from the global registry.
	_ "google.golang.org/protobuf/types/known/anypb"
	_ "google.golang.org/protobuf/types/known/durationpb"
	_ "google.golang.org/protobuf/types/known/fieldmaskpb"
	_ "google.golang.org/protobuf/types/known/structpb"
	_ "google.golang.org/protobuf/types/known/timestamppb"
	_ "google.golang.org/protobuf/types/known/wrapperspb"
)

// Names of the message types the testee is asked about.
const (
	TestAllTypesProto3         = pbconform.TestAllTypesProto3
	TestAllTypesProto2         = pbconform.TestAllTypesProto2
	TestAllTypesEditionsProto3 = pbconform.TestAllTypesEditionsProto3
	TestAllTypesEditionsProto2 = pbconform.TestAllTypesEditionsProto2

	FailureSet          = pbconform.FailureSet
	ConformanceRequest  = "conformance.ConformanceRequest"
	ConformanceResponse = "conformance.ConformanceResponse"
)

//go:embed proto/*.proto
var sources embed.FS

// editions lists the test message files that are also served under the
// editions package names. The editions variants of the test messages are
// feature-for-feature equivalent to the syntax-based messages, so they are
// produced by moving a copy of each file into a different package.
var editions = map[string]struct{ from, to string }{
	"test_messages_proto3.proto": {"protobuf_test_messages.proto3", "protobuf_test_messages.editions.proto3"},
	"test_messages_proto2.proto": {"protobuf_test_messages.proto2", "protobuf_test_messages.editions.proto2"},
}

// Schema is a set of compiled conformance schemas.
type Schema struct {
	Files []protoreflect.FileDescriptor
	Types *protoregistry.Types
}

// Load returns the compiled conformance schemas.
//
// Compilation happens once per process; the result is immutable and may be
// shared between goroutines.
var Load = sync.OnceValues(func() (*Schema, error) {
	return Compile(context.Background())
})

// Compile compiles the embedded conformance schemas from scratch.
//
// Most callers want [Load].
func Compile(ctx context.Context) (*Schema, error) {
	files, err := readSources()
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}

	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			Accessor: protocompile.SourceAccessorFromMap(files),
		}),
	}
	linked, err := compiler.Compile(ctx, paths...)
	if err != nil {
		return nil, fmt.Errorf("schema: compiling conformance protos: %w", err)
	}

	s := &Schema{Types: new(protoregistry.Types)}
	for _, f := range linked {
		s.Files = append(s.Files, f)
		if err := s.register(f.Messages(), f.Enums(), f.Extensions()); err != nil {
			return nil, fmt.Errorf("schema: registering %s: %w", f.Path(), err)
		}
	}
	return s, nil
}

// FindMessage returns the message type with the given full name.
func (s *Schema) FindMessage(name string) (protoreflect.MessageType, error) {
	return s.Types.FindMessageByName(protoreflect.FullName(name))
}

// register adds dynamic types for every message, enum and extension reachable
// from the given declarations.
func (s *Schema) register(
	msgs protoreflect.MessageDescriptors,
	enums protoreflect.EnumDescriptors,
	exts protoreflect.ExtensionDescriptors,
) error {
	for i := range enums.Len() {
		if err := s.Types.RegisterEnum(dynamicpb.NewEnumType(enums.Get(i))); err != nil {
			return err
		}
	}
	for i := range exts.Len() {
		if err := s.Types.RegisterExtension(dynamicpb.NewExtensionType(exts.Get(i))); err != nil {
			return err
		}
	}
	for i := range msgs.Len() {
		md := msgs.Get(i)
		if md.IsMapEntry() {
			continue
		}
		if err := s.Types.RegisterMessage(dynamicpb.NewMessageType(md)); err != nil {
			return err
		}
		if err := s.register(md.Messages(), md.Enums(), md.Extensions()); err != nil {
			return err
		}
	}
	return nil
}

// readSources loads the embedded schema sources, keyed by import path.
func readSources() (map[string]string, error) {
	files := make(map[string]string)
	err := fs.WalkDir(sources, "proto", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		data, err := fs.ReadFile(sources, p)
		if err != nil {
			return err
		}
		name := path.Base(p)
		files[name] = string(data)

		if ed, ok := editions[name]; ok {
			from := "package " + ed.from + ";"
			if !strings.Contains(files[name], from) {
				return fmt.Errorf("schema: %s does not declare %s", name, from)
			}
			files["editions/"+name] = strings.Replace(files[name], from, "package "+ed.to+";", 1)
		}
		return nil
	})
	return files, err
}
