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

package wire

// Encoder writes wire-format fields into a fixed-capacity buffer.
//
// An Encoder never grows its buffer. A write that does not fit fails with
// [ErrBufferTooSmall] and leaves the encoder unchanged, so a partial field is
// never emitted.
type Encoder struct {
	buf []byte
	off int
}

// NewEncoder returns an encoder that writes to buf[:len(buf)].
func NewEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf}
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return e.off }

// Available returns the number of bytes that can still be written.
func (e *Encoder) Available() int { return len(e.buf) - e.off }

// Bytes returns the bytes written so far. The result aliases the encoder's
// buffer.
func (e *Encoder) Bytes() []byte { return e.buf[:e.off] }

// Varint writes a bare varint.
func (e *Encoder) Varint(v uint64) error {
	n := PutVarint(e.buf[e.off:], v)
	if n == 0 {
		return ErrBufferTooSmall
	}
	e.off += n
	return nil
}

// Tag writes a field tag.
func (e *Encoder) Tag(n Number, t Type) error {
	return e.Varint(EncodeTag(n, t))
}

// Raw writes b verbatim.
func (e *Encoder) Raw(b []byte) error {
	if len(b) > e.Available() {
		return ErrBufferTooSmall
	}
	e.off += copy(e.buf[e.off:], b)
	return nil
}

// VarintField writes a varint-typed field.
func (e *Encoder) VarintField(n Number, v uint64) error {
	if SizeTag(n)+SizeVarint(v) > e.Available() {
		return ErrBufferTooSmall
	}
	_ = e.Tag(n, VarintType)
	return e.Varint(v)
}

// BytesField writes a length-delimited field containing b.
func (e *Encoder) BytesField(n Number, b []byte) error {
	if SizeBytesField(n, len(b)) > e.Available() {
		return ErrBufferTooSmall
	}
	_ = e.Tag(n, BytesType)
	_ = e.Varint(uint64(len(b)))
	return e.Raw(b)
}

// StringField writes a length-delimited field containing s.
func (e *Encoder) StringField(n Number, s string) error {
	if SizeBytesField(n, len(s)) > e.Available() {
		return ErrBufferTooSmall
	}
	_ = e.Tag(n, BytesType)
	_ = e.Varint(uint64(len(s)))
	e.off += copy(e.buf[e.off:], s)
	return nil
}

// SizeTag returns the encoded size of a tag for field n.
func SizeTag(n Number) int {
	return SizeVarint(EncodeTag(n, 0))
}

// SizeBytesField returns the encoded size of a length-delimited field n whose
// payload is size bytes long.
func SizeBytesField(n Number, size int) int {
	return SizeTag(n) + SizeVarint(uint64(size)) + size
}
