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
	"errors"
	"fmt"
)

// ErrFrameTooLarge is wrapped by a [FramingError] when a frame's length
// prefix exceeds the configured maximum.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// FramingError is a fatal error in the length-prefixed stream protocol, such
// as the stream ending in the middle of a frame or a failed write.
//
// The stream cannot be resynchronized after a FramingError, so [Engine.Serve]
// stops at the first one.
type FramingError struct {
	Op    string // The operation that failed, such as "read body".
	Frame int    // Zero-based index of the frame being processed.
	Err   error
}

// Unwrap implements error unwrapping viz [errors.Unwrap].
func (e *FramingError) Unwrap() error {
	return e.Err
}

// Error implements [error].
func (e *FramingError) Error() string {
	return fmt.Sprintf("pbconform: %s (frame %d): %v", e.Op, e.Frame, e.Err)
}
