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

package schema

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"

	"buf.build/go/pbconform"
)

// Codec implements [pbconform.Codec] on top of a [Schema].
//
// A Codec is immutable and safe for concurrent use.
type Codec struct {
	schema   *Schema
	resolver resolver
}

var _ pbconform.Codec = (*Codec)(nil)

// NewCodec returns a codec for the types in s.
func NewCodec(s *Schema) *Codec {
	return &Codec{schema: s, resolver: resolver{s.Types}}
}

// Decode implements [pbconform.Codec].
func (c *Codec) Decode(name string, data []byte) (proto.Message, error) {
	msg, err := c.new(name)
	if err != nil {
		return nil, err
	}

	opts := proto.UnmarshalOptions{Resolver: c.resolver}
	if err := opts.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// DecodeJSON implements [pbconform.Codec].
func (c *Codec) DecodeJSON(name string, data []byte, opts pbconform.JSONOptions) (proto.Message, error) {
	msg, err := c.new(name)
	if err != nil {
		return nil, err
	}

	uopts := protojson.UnmarshalOptions{
		DiscardUnknown: opts.IgnoreUnknown,
		Resolver:       c.resolver,
	}
	if err := uopts.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode implements [pbconform.Codec].
func (c *Codec) Encode(msg proto.Message) ([]byte, error) {
	return proto.Marshal(msg)
}

// EncodeJSON implements [pbconform.Codec].
func (c *Codec) EncodeJSON(msg proto.Message, _ pbconform.JSONOptions) ([]byte, error) {
	return protojson.MarshalOptions{Resolver: c.resolver}.Marshal(msg)
}

func (c *Codec) new(name string) (proto.Message, error) {
	mt, err := c.schema.FindMessage(name)
	if err != nil {
		return nil, fmt.Errorf("schema: unknown message type %q: %w", name, err)
	}
	return mt.New().Interface(), nil
}

// resolver looks types up in the compiled schemas first, and then in the
// global registry, which is where the well-known types live.
type resolver struct {
	local *protoregistry.Types
}

func (r resolver) FindMessageByName(name protoreflect.FullName) (protoreflect.MessageType, error) {
	if mt, err := r.local.FindMessageByName(name); err == nil {
		return mt, nil
	}
	return protoregistry.GlobalTypes.FindMessageByName(name)
}

func (r resolver) FindMessageByURL(url string) (protoreflect.MessageType, error) {
	if mt, err := r.local.FindMessageByURL(url); err == nil {
		return mt, nil
	}
	return protoregistry.GlobalTypes.FindMessageByURL(url)
}

func (r resolver) FindExtensionByName(name protoreflect.FullName) (protoreflect.ExtensionType, error) {
	if xt, err := r.local.FindExtensionByName(name); err == nil {
		return xt, nil
	}
	return protoregistry.GlobalTypes.FindExtensionByName(name)
}

func (r resolver) FindExtensionByNumber(
	message protoreflect.FullName, field protoreflect.FieldNumber,
) (protoreflect.ExtensionType, error) {
	if xt, err := r.local.FindExtensionByNumber(message, field); err == nil {
		return xt, nil
	}
	return protoregistry.GlobalTypes.FindExtensionByNumber(message, field)
}
