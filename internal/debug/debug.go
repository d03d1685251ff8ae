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

//go:build debug

package debug

import (
	"flag"
	"fmt"
	"os"
	"path"
	"regexp"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"github.com/timandy/routine"
)

// Enabled is true if the module is being built with the debug tag, which
// enables tracing and internal assertions.
const Enabled = true

var (
	filter  *regexp.Regexp
	capture = flag.Bool("pbconform.debug.capture", true, "send traces from a test's goroutine to its test log")

	// Test log for the current goroutine, if any.
	sinks = routine.NewThreadLocal[TB]()

	stderr = zerolog.New(zerolog.ConsoleWriter{
		Out:          os.Stderr,
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
	})
)

func init() {
	flag.Func("pbconform.debug.filter", "only print traces matching this regexp", func(s string) (err error) {
		filter, err = regexp.Compile(s)
		return err
	})
}

// WithTesting routes debug logs from the calling goroutine to t until the
// returned function is called.
func WithTesting(t TB) (reset func()) {
	sinks.Set(t)
	return sinks.Remove
}

// Log writes a trace line for operation.
//
// The line is attributed to the first caller that is not a logging helper,
// that is, a function whose name starts with "log" or contains "Log". If
// context is not empty, it is a format string and arguments identifying the
// object being operated on, such as an arena's address.
func Log(context []any, operation string, format string, args ...any) {
	frame := caller()
	pkg, _, _ := strings.Cut(path.Base(frame.Function), ".")
	at := fmt.Sprintf("%s/%s:%d", pkg, path.Base(frame.File), frame.Line)
	g := fmt.Sprintf("g%04d", routine.Goid())

	var where string
	if len(context) > 0 {
		where = fmt.Sprintf(context[0].(string), context[1:]...)
	}
	msg := fmt.Sprintf(format, args...)

	line := fmt.Sprintf("%s [%s] %s: %s", at, strings.TrimSuffix(g+", "+where, ", "), operation, msg)
	if filter != nil && !filter.MatchString(line) {
		return
	}

	if t := sinks.Get(); t != nil && *capture {
		t.Helper()
		t.Log(line)
		return
	}

	e := stderr.Debug().Str("at", at).Str("g", g).Str("op", operation)
	if where != "" {
		e = e.Str("on", where)
	}
	e.Msg(msg)
}

// caller returns the frame that called Log, skipping logging helpers.
func caller() runtime.Frame {
	var pcs [16]uintptr
	n := runtime.Callers(3, pcs[:]) // Skip Callers, caller and Log.
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		name := frame.Function[strings.LastIndex(frame.Function, ".")+1:]
		if !more || !(strings.HasPrefix(name, "log") || strings.Contains(name, "Log")) {
			return frame
		}
	}
}

// Assert panics if cond is false, but only in debug mode.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Errorf("pbconform: internal assertion failed: "+format, args...))
	}
}
