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

// Package stats provides the counters behind the testee's per-frame
// diagnostics.
package stats

import (
	"slices"
	"sync/atomic"

	"buf.build/go/pbconform/internal/sync2"
)

// Mean tracks an average statistic.
//
// The zero value is ready to use. Concurrent writes are safe, but calling
// [Mean.Get] concurrently with other operations may result in torn reads.
type Mean struct {
	total, samples sync2.AtomicFloat64
}

// Record records a sample.
func (m *Mean) Record(sample float64) {
	m.total.Add(sample)
	m.samples.Add(1)
}

// Count returns the number of samples recorded so far.
func (m *Mean) Count() int {
	return int(m.samples.Load())
}

// Get returns the mean value of this statistic, or zero if nothing has been
// recorded.
func (m *Mean) Get() float64 {
	total, samples := m.total.Load(), m.samples.Load()
	if samples == 0 {
		return 0
	}
	return total / samples
}

// Median tracks the median of a window of recent samples.
//
// Must be constructed with [NewMedian]. [Median.Record] may be called
// concurrently, but not with [Median.Get].
type Median struct {
	window []float64 // Ring buffer.
	next   atomic.Int64
	seen   atomic.Int64
}

// NewMedian returns a median statistic over the last n samples.
func NewMedian(n int) *Median {
	return &Median{window: make([]float64, max(n, 1))}
}

// Record records a sample.
func (m *Median) Record(sample float64) {
	for {
		w := m.next.Load()
		n := w + 1
		if int(n) == len(m.window) {
			n = 0
		}
		if m.next.CompareAndSwap(w, n) {
			m.seen.Add(1)
			m.window[w] = sample
			return
		}
	}
}

// Get returns the median of the samples currently in the window, or zero if
// nothing has been recorded.
func (m *Median) Get() float64 {
	samples := slices.Clone(m.window[:min(int(m.seen.Load()), len(m.window))])
	slices.Sort(samples)

	switch n := len(samples); {
	case n == 0:
		return 0
	case n%2 == 0:
		return (samples[n/2-1] + samples[n/2]) / 2
	default:
		return samples[n/2]
	}
}
