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

// Package prototest contains helpers for comparing conformance outputs.
package prototest

import (
	"bytes"
	"cmp"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strings"
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/emptypb"

	"buf.build/go/pbconform/internal/debug"
)

// Equal validates that two Protobuf messages have the same observable value.
//
// Unlike [proto.Equal], floating-point values are compared bit-for-bit, so
// distinct NaN payloads and signed zeros are told apart, and unknown fields
// are compared after canonicalizing their encoding.
func Equal(t testing.TB, expect, got proto.Message) {
	t.Helper()
	e := &equal{TB: t}

	panicked := true
	defer func() {
		if panicked {
			t.Errorf("panicked at %s", e.formatPath())
		}
	}()

	e.message(expect.ProtoReflect(), got.ProtoReflect(), true)
	panicked = false
}

type equal struct {
	testing.TB
	path []any
}

func (e *equal) any(v1, v2 protoreflect.Value, rec bool) {
	e.Helper()

	switch a := v1.Interface().(type) {
	case string:
		b, ok := v2.Interface().(string)
		switch {
		case !ok:
			e.wrongType(a, v2.Interface())
		case a != b:
			e.fail("expected %q:`%x`, got %q:`%x`", a, a, b, b)
		}

	case []byte:
		b, ok := v2.Interface().([]byte)
		switch {
		case !ok:
			e.wrongType(a, v2.Interface())
		case !bytes.Equal(a, b):
			e.fail("expected %q:`%x`, got %q:`%x`", a, a, b, b)
		}

	case float32:
		b, ok := v2.Interface().(float32)
		switch {
		case !ok:
			e.wrongType(a, v2.Interface())
		case math.Float32bits(a) != math.Float32bits(b):
			e.fail("expected %v:%#08x, got %v:%#08x", a, math.Float32bits(a), b, math.Float32bits(b))
		}

	case float64:
		b, ok := v2.Interface().(float64)
		switch {
		case !ok:
			e.wrongType(a, v2.Interface())
		case math.Float64bits(a) != math.Float64bits(b):
			e.fail("expected %v:%#016x, got %v:%#016x", a, math.Float64bits(a), b, math.Float64bits(b))
		}

	case protoreflect.Message:
		b, ok := v2.Interface().(protoreflect.Message)
		if !ok {
			e.wrongType(a, v2.Interface())
			return
		}
		e.message(a, b, rec)

	case protoreflect.List:
		b, ok := v2.Interface().(protoreflect.List)
		if !ok {
			e.wrongType(a, v2.Interface())
			return
		}
		e.list(a, b, rec)

	case protoreflect.Map:
		b, ok := v2.Interface().(protoreflect.Map)
		if !ok {
			e.wrongType(a, v2.Interface())
			return
		}
		e.map_(a, b, rec)

	default:
		b := v2.Interface()
		if reflect.TypeOf(a) != reflect.TypeOf(b) {
			e.wrongType(a, b)
			return
		}
		if a != b {
			e.fail("expected %v, got %v (%T)", a, b, b)
		}
	}
}

func (e *equal) message(a, b protoreflect.Message, rec bool) {
	e.Helper()

	// Dynamic messages built from separately compiled files do not share
	// descriptors, so compare by name.
	if a.Descriptor().FullName() != b.Descriptor().FullName() {
		e.fail("expected %v, got %v", a.Descriptor().FullName(), b.Descriptor().FullName())
		return
	}

	if a.IsValid() != b.IsValid() {
		e.fail("unequal IsValid: want %v, got %v", a.IsValid(), b.IsValid())
	}

	if !rec && !a.IsValid() && !b.IsValid() {
		return
	}

	// Go protobuf re-encodes unknown fields minimally, which is not a change
	// in value.
	transcode := func(b []byte) []byte {
		empty := new(emptypb.Empty)
		_ = proto.Unmarshal(b, empty)
		return empty.ProtoReflect().GetUnknown()
	}

	if !bytes.Equal(transcode(a.GetUnknown()), transcode(b.GetUnknown())) {
		e.fail("unequal unknown fields: want `%x`, got `%x`", a.GetUnknown(), b.GetUnknown())
	}

	d := a.Descriptor()
	fds := d.Fields()
	for i := range fds.Len() {
		fd := fds.Get(i)
		e.push(fd.Name(), func() {
			e.Helper()
			e.field(a, fd, b, b.Descriptor().Fields().ByNumber(fd.Number()))
		})
	}

	// Extensions are only visible by ranging over the populated fields.
	exts := make(map[protoreflect.FieldNumber]protoreflect.FieldDescriptor)
	collect := func(fd protoreflect.FieldDescriptor, _ protoreflect.Value) bool {
		if fd.IsExtension() {
			exts[fd.Number()] = fd
		}
		return true
	}
	a.Range(collect)
	b.Range(collect)
	for _, n := range slices.Sorted(maps.Keys(exts)) {
		fd := exts[n]
		e.push(fd.FullName(), func() {
			e.Helper()
			ea, eb := findExtension(a, n), findExtension(b, n)
			if (ea == nil) != (eb == nil) {
				e.fail("unequal has: want %v, got %v", ea != nil, eb != nil)
				return
			}
			e.field(a, ea, b, eb)
		})
	}

	ods := d.Oneofs()
	for i := range ods.Len() {
		od := ods.Get(i)
		e.push(od.Name(), func() {
			e.Helper()
			wa, wb := a.WhichOneof(od), b.WhichOneof(od)
			if (wa == nil) != (wb == nil) || (wa != nil && wa.Number() != wb.Number()) {
				e.fail("unequal which: want %v, got %v", wa, wb)
			}
		})
	}
}

// field compares the field fa of a with the field fb of b.
func (e *equal) field(a protoreflect.Message, fa protoreflect.FieldDescriptor, b protoreflect.Message, fb protoreflect.FieldDescriptor) {
	e.Helper()
	if fb == nil {
		e.fail("missing field %v", fa.Number())
		return
	}
	if a.Has(fa) != b.Has(fb) {
		e.fail("unequal has: want %v, got %v", a.Has(fa), b.Has(fb))
	}
	e.any(a.Get(fa), b.Get(fb), a.IsValid() || b.IsValid())
}

func (e *equal) list(a, b protoreflect.List, rec bool) {
	e.Helper()
	// Compare the common prefix.
	for i := range min(a.Len(), b.Len()) {
		e.push(i, func() {
			e.Helper()
			e.any(a.Get(i), b.Get(i), rec)
		})
	}

	if a.Len() != b.Len() {
		e.fail("unequal lengths: want %d, got %d", a.Len(), b.Len())
	}
}

func (e *equal) map_(a, b protoreflect.Map, rec bool) {
	e.Helper()

	keySet := make(map[any]struct{})
	for k := range a.Range {
		keySet[k.Interface()] = struct{}{}
	}
	for k := range b.Range {
		keySet[k.Interface()] = struct{}{}
	}

	keys := make([]protoreflect.MapKey, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, protoreflect.ValueOf(k).MapKey())
	}
	slices.SortFunc(keys, compareKeys)

	for _, k := range keys {
		e.push(k.Interface(), func() {
			e.Helper()
			va, vb := a.Get(k), b.Get(k)
			if !va.IsValid() || !vb.IsValid() {
				e.fail("unequal has: want %v, got %v", va.IsValid(), vb.IsValid())
				return
			}
			e.any(va, vb, rec)
		})
	}
}

// compareKeys orders map keys of the same kind.
func compareKeys(x, y protoreflect.MapKey) int {
	switch a := x.Interface().(type) {
	case bool:
		b, _ := y.Interface().(bool)
		switch {
		case a == b:
			return 0
		case a:
			return 1
		default:
			return -1
		}
	case int32:
		return cmp.Compare(int64(a), y.Int())
	case int64:
		return cmp.Compare(a, y.Int())
	case uint32:
		return cmp.Compare(uint64(a), y.Uint())
	case uint64:
		return cmp.Compare(a, y.Uint())
	default:
		return cmp.Compare(x.String(), y.String())
	}
}

func findExtension(m protoreflect.Message, n protoreflect.FieldNumber) (fd protoreflect.FieldDescriptor) {
	m.Range(func(f protoreflect.FieldDescriptor, _ protoreflect.Value) bool {
		if f.IsExtension() && f.Number() == n {
			fd = f
			return false
		}
		return true
	})
	return fd
}

func (e *equal) push(v any, f func()) {
	e.Helper()
	e.path = append(e.path, v)
	f()
	e.path = e.path[:len(e.path)-1]
}

func (e *equal) wrongType(a, b any) {
	e.Helper()
	e.fail("expected %T, got %T", a, b)
}

func (e *equal) fail(format string, args ...any) {
	e.Helper()
	e.Errorf("failure at %s: %v", e.formatPath(), debug.Fprintf(format, args...))
}

func (e *equal) formatPath() string {
	if len(e.path) == 0 {
		return "."
	}

	buf := new(strings.Builder)
	for _, e := range e.path {
		switch e := e.(type) {
		case protoreflect.Name:
			fmt.Fprintf(buf, ".%v", e)
		case protoreflect.FullName:
			fmt.Fprintf(buf, ".[%v]", e)
		case string:
			fmt.Fprintf(buf, "[%q]", e)
		default:
			fmt.Fprintf(buf, "[%v]", e)
		}
	}

	return buf.String()
}
