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

package report

import (
	"errors"
	"strings"
)

// Markers delimiting the generated table in a README.
const (
	StartMarker = "<!-- BEGIN CONFORMANCE TABLE -->"
	EndMarker   = "<!-- END CONFORMANCE TABLE -->"
)

// ErrNoMarkers is returned when a README lacks the table markers.
var ErrNoMarkers = errors.New("report: could not find conformance table markers")

// Extract returns the table currently between the markers in readme, with
// surrounding whitespace removed.
func Extract(readme string) (string, error) {
	start, end, err := markers(readme)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(readme[start:end]), nil
}

// Splice replaces the table between the markers in readme.
func Splice(readme, table string) (string, error) {
	start, end, err := markers(readme)
	if err != nil {
		return "", err
	}
	return readme[:start] + "\n" + table + "\n" + readme[end:], nil
}

// UpToDate reports whether readme already contains table.
func UpToDate(readme, table string) (bool, error) {
	got, err := Extract(readme)
	if err != nil {
		return false, err
	}
	return got == strings.TrimSpace(table), nil
}

// markers returns the span between the end of the start marker and the start
// of the end marker.
func markers(readme string) (start, end int, err error) {
	start = strings.Index(readme, StartMarker)
	end = strings.Index(readme, EndMarker)
	if start == -1 || end == -1 || end < start {
		return 0, 0, ErrNoMarkers
	}
	return start + len(StartMarker), end, nil
}
