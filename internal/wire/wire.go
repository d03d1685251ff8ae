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

// Package wire is a minimal, allocation-free implementation of the Protobuf
// binary wire format.
//
// It only knows about tags, varints, fixed-width values and length-delimited
// fields; it has no notion of messages or schemas. Higher layers assign
// meaning to field numbers.
//
// Every byte slice handed out by this package is a view into the caller's
// buffer. Such views are valid for exactly as long as that buffer is, and must
// not be retained past it.
package wire

import "fmt"

// Number is a Protobuf field number.
type Number uint32

const (
	MinNumber Number = 1
	MaxNumber Number = 1<<29 - 1
)

// Type is a Protobuf wire type.
type Type uint8

const (
	VarintType     Type = 0
	Fixed64Type    Type = 1
	BytesType      Type = 2
	StartGroupType Type = 3
	EndGroupType   Type = 4
	Fixed32Type    Type = 5
)

// String implements [fmt.Stringer].
func (t Type) String() string {
	switch t {
	case VarintType:
		return "varint"
	case Fixed64Type:
		return "i64"
	case BytesType:
		return "len"
	case StartGroupType:
		return "sgroup"
	case EndGroupType:
		return "egroup"
	case Fixed32Type:
		return "i32"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// EncodeTag packs a field number and a wire type into a tag value.
func EncodeTag(n Number, t Type) uint64 {
	return uint64(n)<<3 | uint64(t&7)
}

// DecodeTag splits a tag value into its field number and wire type.
//
// The field number is not validated; tags whose number does not fit in a
// [Number] are truncated.
func DecodeTag(tag uint64) (Number, Type) {
	return Number(tag >> 3), Type(tag & 7)
}

// Record is a single field occurrence in an encoded message.
type Record struct {
	Number Number
	Type   Type

	// Value holds the decoded value for varint and fixed-width records.
	// Fixed-width values are decoded little-endian.
	Value uint64

	// Bytes holds the raw value bytes for fixed-width and length-delimited
	// records. It aliases the scanned buffer.
	Bytes []byte

	// Offset is the offset of this record's tag within the scanned buffer.
	Offset int
}

// Format implements [fmt.Formatter].
func (r Record) Format(s fmt.State, verb rune) {
	switch r.Type {
	case VarintType, Fixed32Type, Fixed64Type:
		fmt.Fprintf(s, "%d:%v@%d=%d", r.Number, r.Type, r.Offset, r.Value)
	default:
		fmt.Fprintf(s, "%d:%v@%d=%q", r.Number, r.Type, r.Offset, r.Bytes)
	}
}
