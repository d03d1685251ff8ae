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

// Package report turns the output of the conformance test runner into a
// summary: failure counts by category, a markdown table, and progress badges.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Requirement levels.
const (
	Required    = "Required"
	Recommended = "Recommended"
)

// Formats a test can exercise.
const (
	WireFormat = "Wire format"
	JSON       = "JSON"
	TextFormat = "Text format"
)

// Proto versions, after folding the editions variants into their base.
const (
	Proto2 = "Proto2"
	Proto3 = "Proto3"
)

// Size of the conformance suite for edition 2023.
const (
	TotalRequired    = 4267
	TotalRecommended = 1300
)

var (
	errorLine   = regexp.MustCompile(`^ERROR, test=([^:]+):`)
	summaryLine = regexp.MustCompile(`(\d+) successes, (\d+) skipped, (\d+) expected failures, (\d+) unexpected failures`)
)

// Test is the classification of a conformance test, derived from its name.
//
// Test names look like Required.Editions_Proto3.JsonInput.Something.
type Test struct {
	Name    string
	Level   string
	Version string
	Format  string
}

// ParseTest classifies a test by name.
func ParseTest(name string) (Test, error) {
	parts := strings.Split(name, ".")
	if len(parts) < 3 {
		return Test{}, fmt.Errorf("report: expected at least 3 components in test name %q", name)
	}

	level := parts[0]
	if level != Required && level != Recommended {
		return Test{}, fmt.Errorf("report: unknown requirement level %q in test name %q", level, name)
	}

	return Test{
		Name:    name,
		Level:   level,
		Version: normalizeVersion(parts[1]),
		Format:  testFormat(parts[2]),
	}, nil
}

func normalizeVersion(v string) string {
	switch {
	case strings.Contains(v, Proto2):
		return Proto2
	case strings.Contains(v, Proto3):
		return Proto3
	default:
		return v
	}
}

func testFormat(kind string) string {
	switch {
	case strings.Contains(kind, "Json"):
		return JSON
	case strings.Contains(kind, "TextFormat"):
		return TextFormat
	default:
		return WireFormat
	}
}

// Result is the parsed output of one run of the conformance test runner.
type Result struct {
	Failed []Test

	Passed             int
	Skipped            int
	ExpectedFailures   int
	UnexpectedFailures int

	// Whether the summary line was found.
	HasSummary bool
}

// Parse parses a conformance runner log.
func Parse(r io.Reader) (*Result, error) {
	res := new(Result)
	sc := bufio.NewScanner(r)
	sc.Buffer(nil, 1<<20)

	var line int
	for sc.Scan() {
		line++
		text := sc.Text()

		if m := errorLine.FindStringSubmatch(text); m != nil {
			test, err := ParseTest(m[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			res.Failed = append(res.Failed, test)
			continue
		}

		if m := summaryLine.FindStringSubmatch(text); m != nil {
			counts := make([]int, 4)
			for i := range counts {
				// The regexp only admits digits; only overflow can fail.
				n, err := strconv.Atoi(m[i+1])
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				counts[i] = n
			}
			res.Passed, res.Skipped = counts[0], counts[1]
			res.ExpectedFailures, res.UnexpectedFailures = counts[2], counts[3]
			res.HasSummary = true
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// ParseString is like [Parse], but for a log held in memory.
func ParseString(log string) (*Result, error) {
	return Parse(strings.NewReader(log))
}

// Failures counts the failed tests in a category. An empty version counts
// both proto versions.
func (r *Result) Failures(level, version, format string) int {
	var n int
	for _, t := range r.Failed {
		if t.Level == level && t.Format == format && (version == "" || t.Version == version) {
			n++
		}
	}
	return n
}

// FailuresAt counts the failed tests at a requirement level.
func (r *Result) FailuresAt(level string) int {
	var n int
	for _, t := range r.Failed {
		if t.Level == level {
			n++
		}
	}
	return n
}

// Percentages is the share of passing tests at each requirement level, and
// over the whole run.
type Percentages struct {
	Required, Recommended, Overall float64
}

// Percentages computes pass rates against the known size of the suite.
func (r *Result) Percentages() Percentages {
	p := Percentages{
		Required:    100 * float64(TotalRequired-r.FailuresAt(Required)) / TotalRequired,
		Recommended: 100 * float64(TotalRecommended-r.FailuresAt(Recommended)) / TotalRecommended,
	}
	if run := r.Passed + len(r.Failed); run > 0 {
		p.Overall = 100 * float64(r.Passed) / float64(run)
	}
	return p
}

// ErrNoFailureList is returned by [FailureList] when a log does not contain
// a list of failing tests.
var ErrNoFailureList = errors.New("report: no failure list in log")

// FailureList extracts the list of failing tests that the runner prints
// after its "--add <file>" hint, dropping trailing "# ..." comments.
func FailureList(log string) ([]string, error) {
	_, rest, ok := strings.Cut(log, "--add ")
	if !ok {
		return nil, ErrNoFailureList
	}
	// Skip the rest of the hint line.
	if _, after, ok := strings.Cut(rest, "\n"); ok {
		rest = after
	} else {
		rest = ""
	}

	var tests []string
	for _, line := range strings.Split(rest, "\n") {
		if strings.HasPrefix(line, "Failed to open file:") || summaryLine.MatchString(line) {
			break
		}
		name, _, _ := strings.Cut(line, " # ")
		if name = strings.TrimSpace(name); name != "" {
			tests = append(tests, name)
		}
	}
	return tests, nil
}
