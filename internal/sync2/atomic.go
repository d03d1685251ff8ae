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

package sync2

import (
	"math"
	"sync/atomic"
)

// AtomicFloat64 is an atomic float64 variable.
//
// The zero value holds 0.0.
type AtomicFloat64 struct {
	bits atomic.Uint64
}

// Load atomically loads the wrapped float64.
func (x *AtomicFloat64) Load() float64 {
	return math.Float64frombits(x.bits.Load())
}

// Store atomically stores val.
func (x *AtomicFloat64) Store(val float64) {
	x.bits.Store(math.Float64bits(val))
}

// Add atomically adds delta to this value and returns the result.
//
// There is no hardware instruction for this, so it is a CAS loop. The
// comparison is bitwise, not a floating-point comparison.
func (x *AtomicFloat64) Add(delta float64) (new float64) {
	for {
		old := x.bits.Load()
		new = math.Float64frombits(old) + delta
		if x.bits.CompareAndSwap(old, math.Float64bits(new)) {
			return new
		}
	}
}
