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

import (
	"errors"
	"fmt"
	"io"
)

const (
	ErrorOk ErrorCode = iota
	// These match the errors in protowire.
	ErrorTruncated
	ErrorFieldNumber
	ErrorOverflow
	ErrorReserved

	ErrorGroup
)

var errs = [...]error{
	ErrorOk:          nil,
	ErrorTruncated:   io.ErrUnexpectedEOF,
	ErrorFieldNumber: errors.New("invalid field number"),
	ErrorOverflow:    errors.New("variable length integer overflow"),
	ErrorReserved:    errors.New("cannot parse reserved wire type"),
	ErrorGroup:       errors.New("group wire types are not supported"),
}

// ErrBufferTooSmall is returned by [Encoder] when its output buffer cannot
// hold the value being written. Nothing is written in that case.
var ErrBufferTooSmall = errors.New("wire: output buffer too small")

// ErrorCode is one of the possible types of errors in [ParseError].
type ErrorCode int

// ParseError is an error returned while scanning malformed input.
type ParseError struct {
	code   ErrorCode
	offset int
}

func fail(code ErrorCode, offset int) *ParseError {
	return &ParseError{code: code, offset: offset}
}

// Code returns the kind of failure.
func (e *ParseError) Code() ErrorCode {
	return e.code
}

// Offset returns the offset at which the error occurred.
func (e *ParseError) Offset() int {
	return e.offset
}

// Unwrap implements error unwrapping viz [errors.Unwrap].
func (e *ParseError) Unwrap() error {
	return errs[e.code]
}

// Error implements [error].
func (e *ParseError) Error() string {
	return fmt.Sprintf("wire: parse error at offset %d/%#x: %v", e.offset, e.offset, e.Unwrap())
}
