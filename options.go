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

import "github.com/rs/zerolog"

// The below are not interfaces for symmetry with each other, and so that no
// option can be implemented outside of this package.

// EngineOption is a configuration setting for [NewEngine].
type EngineOption struct{ apply func(*Engine) }

// WithFailureList sets the names of the tests this testee is expected to
// fail.
//
// When the test runner asks for the expected failures (by sending a
// conformance.FailureSet), these are appended to whatever the runner sent.
func WithFailureList(names []string) EngineOption {
	return EngineOption{func(e *Engine) { e.failures = append(e.failures[:0:0], names...) }}
}

// ServeOption is a configuration setting for [Engine.Serve].
type ServeOption struct{ apply func(*serveOptions) }

type serveOptions struct {
	logger       zerolog.Logger
	maxFrameSize uint32

	// Encodes a response into a buffer of exactly resp.Size() bytes.
	marshal func(resp Response, buf []byte) (int, error)
}

func newServeOptions(opts []ServeOption) serveOptions {
	o := serveOptions{
		logger:  zerolog.Nop(),
		marshal: Response.MarshalTo,
	}
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}

// WithLogger sets the logger that per-frame outcomes and the end-of-stream
// summary are written to. The default discards everything.
func WithLogger(logger zerolog.Logger) ServeOption {
	return ServeOption{func(o *serveOptions) { o.logger = logger }}
}

// WithMaxFrameSize sets the largest request frame that will be read. A length
// prefix above the limit is a fatal [FramingError].
//
// Zero, the default, means no limit.
func WithMaxFrameSize(n uint32) ServeOption {
	return ServeOption{func(o *serveOptions) { o.maxFrameSize = n }}
}
