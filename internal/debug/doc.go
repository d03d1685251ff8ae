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

// Package debug includes debugging helpers.
//
// Tracing and assertions are compiled in only when building with -tags debug;
// otherwise every function in this package is a no-op that the compiler
// inlines away.
package debug

// TB is the subset of [testing.TB] that debug logs can be captured by.
type TB interface {
	Helper()
	Log(args ...any)
}
