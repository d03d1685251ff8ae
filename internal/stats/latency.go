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

package stats

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultWindow is the number of recent samples a [Latency] takes its median
// over.
const DefaultWindow = 512

// Latency records how long units of work take.
//
// Must be constructed with [NewLatency].
type Latency struct {
	mean   Mean
	median *Median
}

// NewLatency returns an empty latency recorder whose median covers the last
// window samples.
func NewLatency(window int) *Latency {
	return &Latency{median: NewMedian(window)}
}

// Record records one sample.
func (l *Latency) Record(d time.Duration) {
	l.mean.Record(float64(d))
	l.median.Record(float64(d))
}

// Summary returns a snapshot of the recorded samples.
func (l *Latency) Summary() Summary {
	return Summary{
		Samples: l.mean.Count(),
		Mean:    time.Duration(l.mean.Get()),
		Median:  time.Duration(l.median.Get()),
	}
}

// Summary is a point-in-time view of a [Latency].
type Summary struct {
	Samples      int
	Mean, Median time.Duration
}

// MarshalZerologObject implements [zerolog.LogObjectMarshaler].
func (s Summary) MarshalZerologObject(e *zerolog.Event) {
	e.Int("samples", s.Samples).
		Dur("mean", s.Mean).
		Dur("median", s.Median)
}
