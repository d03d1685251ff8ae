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

import "encoding/binary"

// Scanner tokenizes an encoded message into [Record]s.
//
// A Scanner borrows its buffer: it never copies and never allocates, and the
// records it produces alias the buffer passed to [Scanner.Reset].
//
//	var s wire.Scanner
//	s.Reset(buf)
//	for s.Next() {
//		r := s.Record()
//		// ...
//	}
//	if err := s.Err(); err != nil {
//		// ...
//	}
type Scanner struct {
	buf []byte
	off int
	rec Record
	err error
}

// NewScanner returns a scanner over buf.
func NewScanner(buf []byte) *Scanner {
	s := new(Scanner)
	s.Reset(buf)
	return s
}

// Reset starts scanning buf from the beginning.
func (s *Scanner) Reset(buf []byte) {
	*s = Scanner{buf: buf}
}

// Rewind restarts scanning of the current buffer.
func (s *Scanner) Rewind() {
	s.Reset(s.buf)
}

// Offset returns the offset of the next unscanned byte.
func (s *Scanner) Offset() int {
	return s.off
}

// Record returns the record produced by the last successful call to
// [Scanner.Next].
func (s *Scanner) Record() Record {
	return s.rec
}

// Err returns the error that stopped the scan, if any.
//
// Reaching the end of the buffer is not an error.
func (s *Scanner) Err() error {
	return s.err
}

// Next advances to the next record. It returns false at the end of the buffer
// or on error; the two are told apart with [Scanner.Err].
func (s *Scanner) Next() bool {
	if s.err != nil || s.off >= len(s.buf) {
		return false
	}

	start := s.off
	tag, n, err := ReadVarint(s.buf, s.off)
	if err != nil {
		s.err = err
		return false
	}
	if tag>>3 < uint64(MinNumber) || tag>>3 > uint64(MaxNumber) {
		s.err = fail(ErrorFieldNumber, start)
		return false
	}
	s.off += n

	num, typ := DecodeTag(tag)
	rec := Record{Number: num, Type: typ, Offset: start}
	switch typ {
	case VarintType:
		v, n, err := ReadVarint(s.buf, s.off)
		if err != nil {
			s.err = err
			return false
		}
		rec.Value = v
		s.off += n

	case Fixed32Type:
		if !s.take(&rec, 4) {
			return false
		}
		rec.Value = uint64(binary.LittleEndian.Uint32(rec.Bytes))

	case Fixed64Type:
		if !s.take(&rec, 8) {
			return false
		}
		rec.Value = binary.LittleEndian.Uint64(rec.Bytes)

	case BytesType:
		size, n, err := ReadVarint(s.buf, s.off)
		if err != nil {
			s.err = err
			return false
		}
		s.off += n
		if size > uint64(len(s.buf)-s.off) {
			s.err = fail(ErrorTruncated, s.off)
			return false
		}
		if !s.take(&rec, int(size)) {
			return false
		}

	case StartGroupType, EndGroupType:
		s.err = fail(ErrorGroup, start)
		return false

	default:
		s.err = fail(ErrorReserved, start)
		return false
	}

	s.rec = rec
	return true
}

// take slices the next n bytes of the buffer into rec.
func (s *Scanner) take(rec *Record, n int) bool {
	if len(s.buf)-s.off < n {
		s.err = fail(ErrorTruncated, s.off)
		return false
	}
	rec.Bytes = s.buf[s.off : s.off+n : s.off+n]
	s.off += n
	return true
}
