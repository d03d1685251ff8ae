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

// Package arena provides a region allocator for byte buffers whose lifetime
// is bounded by a single unit of work, such as one request frame.
//
// # Design
//
// An [Arena] carves allocations out of a small set of power-of-two blocks.
// Blocks are indexed by their size log 2 and are never returned to the Go
// allocator; [Arena.Free] merely rewinds the arena so that the next unit of
// work re-uses the same memory.
//
// Everything handed out by an arena is invalidated by [Arena.Free]. Holding on
// to a slice across a call to Free will observe it being overwritten by later
// allocations.
package arena

import (
	"math/bits"

	"buf.build/go/pbconform/internal/debug"
)

// Align is the alignment of all allocations on the arena.
const Align = 8

// minSizeLog is the log 2 of the smallest block an arena will allocate.
const minSizeLog = 6

// Arena is a bump allocator for byte buffers.
//
// A zero Arena is empty and ready to use.
type Arena struct {
	// Next and End delimit the free region of the current block.
	Next, End int
	Cap       int // Always a power of 2.

	cur []byte

	// Blocks of memory allocated by this arena. Indexed by their size log 2.
	blocks [][]byte

	// Used prefixes of blocks retired by Grow since the last Free.
	dirty [][]byte
}

// Alloc allocates size zeroed bytes.
//
// The returned slice has length and capacity size, so appending to it never
// clobbers a neighboring allocation.
func (a *Arena) Alloc(size int) []byte {
	if size < 0 {
		panic("arena: negative allocation size")
	}

	// Align size to a word boundary.
	rounded := (size + Align - 1) &^ (Align - 1)
	if a.cur == nil || a.Next+rounded > a.End {
		a.Grow(rounded)
	}

	debug.Assert(a.Next%Align == 0, "misaligned arena cursor %d", a.Next)
	p := a.cur[a.Next : a.Next+size : a.Next+size]
	a.Next += rounded
	a.log("alloc", "%d:%d, %d", a.Next-rounded, a.Next, size)
	return p
}

// Copy allocates a copy of b on the arena.
func (a *Arena) Copy(b []byte) []byte {
	p := a.Alloc(len(b))
	copy(p, b)
	return p
}

// Grow switches to a fresh block that can hold at least size bytes.
func (a *Arena) Grow(size int) {
	block := a.allocBlock(max(size, a.Cap*2))
	if a.cur != nil {
		a.dirty = append(a.dirty, a.cur[:a.Next])
	}

	a.cur = block
	a.Next, a.End, a.Cap = 0, len(block), len(block)
	a.log("grow", "%d", a.Cap)
}

// Free resets this arena to an "empty" state, allowing all memory allocated by
// it to be re-used.
//
// Any memory allocated by the arena must not be referenced after a call to
// Free.
func (a *Arena) Free() {
	// Only memory handed out since the last Free can be non-zero.
	if a.cur != nil {
		clear(a.cur[:a.Next])
	}
	for i, used := range a.dirty {
		clear(used)
		a.dirty[i] = nil
	}
	a.dirty = a.dirty[:0]

	a.Next, a.End, a.Cap = 0, 0, 0
	a.cur = nil
}

// Dirty returns the number of bytes the next call to Free will zero.
func (a *Arena) Dirty() int {
	n := a.Next
	for _, used := range a.dirty {
		n += len(used)
	}
	return n
}

// Reserved returns the total number of bytes held by this arena's blocks.
func (a *Arena) Reserved() int {
	var n int
	for _, block := range a.blocks {
		n += len(block)
	}
	return n
}

func (a *Arena) allocBlock(size int) []byte {
	log := suggestSizeLog(size)
	if int(log) >= len(a.blocks) {
		a.blocks = append(a.blocks, make([][]byte, int(log+1)-len(a.blocks))...)
	}
	if a.blocks[log] == nil {
		a.blocks[log] = make([]byte, 1<<log)
	}
	return a.blocks[log]
}

func (a *Arena) log(op, format string, args ...any) {
	debug.Log([]any{"%p %d:%d", a, a.Next, a.End}, op, format, args...)
}

func suggestSizeLog(bytes int) uint {
	// Snap to the next power of two.
	return max(minSizeLog, uint(bits.Len(uint(max(bytes, 1))-1)))
}
