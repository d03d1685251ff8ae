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
	"encoding/binary"
	"errors"
	"io"
	"math"
	"time"

	"github.com/rs/zerolog"

	"buf.build/go/pbconform/internal/arena"
	"buf.build/go/pbconform/internal/stats"
	"buf.build/go/pbconform/internal/sync2"
)

// prefixLen is the size of the little-endian length prefix on every frame.
const prefixLen = 4

// Per-frame memory, recycled between streams.
var arenas = sync2.Pool[arena.Arena]{
	Reset: (*arena.Arena).Free,
}

// Stats describes a completed call to [Engine.Serve].
type Stats struct {
	// Number of requests answered.
	Frames int

	// Time spent between reading a request and writing its response.
	MeanLatency, MedianLatency time.Duration
}

// MarshalZerologObject implements [zerolog.LogObjectMarshaler].
func (s Stats) MarshalZerologObject(e *zerolog.Event) {
	e.Int("frames", s.Frames).
		Dur("mean_latency", s.MeanLatency).
		Dur("median_latency", s.MedianLatency)
}

// flusher is implemented by buffered writers such as [bufio.Writer].
type flusher interface {
	Flush() error
}

// Serve runs the conformance protocol over a pair of streams until the input
// is exhausted.
//
// Each frame read from r is a little-endian uint32 length followed by that
// many bytes of conformance.ConformanceRequest. Each is answered, in order, by
// a frame of the same shape containing a conformance.ConformanceResponse,
// written to w with a single call to Write. If w has a Flush() error method,
// it is called after every frame.
//
// Serve returns nil when r ends cleanly between frames or when it reads a
// zero-length frame. Any other failure to read or write a frame is returned as
// a [*FramingError]. Malformed request bodies are not fatal; they are answered
// with a [RuntimeError].
func (e *Engine) Serve(r io.Reader, w io.Writer, opts ...ServeOption) (Stats, error) {
	o := newServeOptions(opts)

	s := &server{
		engine:  e,
		opts:    o,
		latency: stats.NewLatency(stats.DefaultWindow),
	}
	var drop func()
	s.arena, drop = arenas.Get()
	defer drop()

	err := s.run(r, w)
	st := s.stats()
	if err != nil {
		o.logger.Error().Err(err).Object("stats", st).Msg("conformance stream failed")
		return st, err
	}

	o.logger.Info().Object("stats", st).
		Msgf("received EOF from test runner after %d tests", st.Frames)
	return st, nil
}

// server is the state of one call to [Engine.Serve].
type server struct {
	engine  *Engine
	opts    serveOptions
	arena   *arena.Arena
	latency *stats.Latency
	frames  int
}

func (s *server) stats() Stats {
	sum := s.latency.Summary()
	return Stats{
		Frames:        s.frames,
		MeanLatency:   sum.Mean,
		MedianLatency: sum.Median,
	}
}

func (s *server) run(r io.Reader, w io.Writer) error {
	var prefix [prefixLen]byte
	for {
		// Awaiting a frame.
		if _, err := io.ReadFull(r, prefix[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return s.fail("read length", err)
		}
		size := binary.LittleEndian.Uint32(prefix[:])
		if size == 0 {
			s.opts.logger.Debug().Int("frame", s.frames).Msg("zero-length frame")
			return nil
		}
		if s.opts.maxFrameSize > 0 && size > s.opts.maxFrameSize {
			return s.fail("read length", ErrFrameTooLarge)
		}

		// Reading the body.
		body := s.arena.Alloc(int(size))
		if _, err := io.ReadFull(r, body); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return s.fail("read body", err)
		}

		// Dispatching.
		start := time.Now()
		frame := s.handle(body)
		s.latency.Record(time.Since(start))

		// Writing the response.
		if _, err := w.Write(frame); err != nil {
			return s.fail("write response", err)
		}
		if f, ok := w.(flusher); ok {
			if err := f.Flush(); err != nil {
				return s.fail("flush response", err)
			}
		}

		s.frames++
		s.arena.Free()
	}
}

// handle answers a single request, returning the complete response frame.
func (s *server) handle(body []byte) []byte {
	log := s.opts.logger

	req, err := UnmarshalRequest(body)
	var resp Response
	if err != nil {
		resp = Response{Result: RuntimeError("failed to parse request: " + err.Error())}
		log.Debug().Err(err).Int("frame", s.frames).Msg("malformed request")
	} else {
		resp = s.engine.RunTest(&req)
	}

	if e := log.Debug(); e.Enabled() {
		e.Int("frame", s.frames).
			Str("type", req.MessageType).
			Stringer("output", req.OutputFormat).
			Stringer("category", req.Category).
			Str("result", resultKind(resp)).
			Msg("served")
	}

	size := resp.Size()
	if uint64(size) > math.MaxUint32-prefixLen {
		log.Warn().Int("frame", s.frames).Int("size", size).Msg("response too large, sending empty frame")
		size = 0
	}

	frame := s.arena.Alloc(prefixLen + size)
	n, err := s.opts.marshal(resp, frame[prefixLen:])
	if err != nil {
		log.Warn().Err(err).Int("frame", s.frames).Msg("failed to encode response, sending empty frame")
		n = 0
	}
	binary.LittleEndian.PutUint32(frame, uint32(n))
	return frame[:prefixLen+n]
}

func (s *server) fail(op string, err error) error {
	return &FramingError{Op: op, Frame: s.frames, Err: err}
}

func resultKind(r Response) string {
	if r.Result == nil {
		return "none"
	}
	return r.Result.Kind()
}
