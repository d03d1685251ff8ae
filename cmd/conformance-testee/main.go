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

// conformance-testee is the testee binary driven by conformance_test_runner.
//
// It speaks the conformance protocol on stdin and stdout, and logs to stderr.
//
//	conformance_test_runner --enforce_recommended conformance-testee
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"buf.build/go/pbconform"
	"buf.build/go/pbconform/internal/flag2"
	"buf.build/go/pbconform/internal/schema"
)

// defaultMaxFrameSize bounds the memory a single request can claim.
const defaultMaxFrameSize = 64 << 20

var (
	_            = flag.String("log-level", "warn", "log level; also PBCONFORM_LOG_LEVEL")
	failureList  = flag.String("failure-list", "", "file of tests expected to fail, one per line")
	maxFrameSize = flag.Uint("max-frame-size", defaultMaxFrameSize, "largest request to accept, in bytes; 0 for no limit")
)

// readFailureList reads test names, one per line. Blank lines and text after
// a # are ignored.
func readFailureList(r io.Reader) ([]string, error) {
	var names []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, sc.Err()
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(lvl).
		With().Timestamp().Str("service", "conformance-testee").
		Logger(), nil
}

func run() error {
	flag.Parse()

	logger, err := newLogger(flag2.Env(flag.CommandLine, "log-level", "PBCONFORM_LOG_LEVEL"))
	if err != nil {
		return err
	}
	if *maxFrameSize > 1<<32-1 {
		return fmt.Errorf("-max-frame-size too large: %d", *maxFrameSize)
	}

	var opts []pbconform.EngineOption
	if *failureList != "" {
		f, err := os.Open(*failureList)
		if err != nil {
			return err
		}
		names, err := readFailureList(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", *failureList, err)
		}
		logger.Info().Int("tests", len(names)).Str("file", *failureList).Msg("loaded failure list")
		opts = append(opts, pbconform.WithFailureList(names))
	}

	s, err := schema.Load()
	if err != nil {
		return err
	}
	engine := pbconform.NewEngine(schema.NewCodec(s), opts...)

	_, err = engine.Serve(os.Stdin, bufio.NewWriter(os.Stdout),
		pbconform.WithLogger(logger),
		pbconform.WithMaxFrameSize(uint32(*maxFrameSize)),
	)
	return err
}

func main() {
	if err := run(); err != nil {
		var ferr *pbconform.FramingError
		if !errors.As(err, &ferr) {
			// Framing errors were already logged by Serve.
			fmt.Fprintf(os.Stderr, "conformance-testee: %v\n", err)
		}
		os.Exit(1)
	}
}
