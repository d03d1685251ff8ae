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
	"fmt"
	"strings"
	"unicode/utf8"
)

// Column is one implementation's column in a report table.
type Column struct {
	Name string
	// Nil if the implementation was not run, in which case every cell reads
	// N/A.
	Result *Result
	// Prefix for the names of this column's badges; see [Badges].
	BadgePrefix string
}

type row struct {
	label string
	cell  func(c Column) string
}

func count(level, version, format string) func(Column) string {
	return func(c Column) string {
		return fmt.Sprintf("%d failures", c.Result.Failures(level, version, format))
	}
}

func badge(name string) func(Column) string {
	return func(c Column) string {
		return fmt.Sprintf("![%s](%s/%s%s.svg)", name, BadgeDir, c.BadgePrefix, name)
	}
}

var rows = []row{
	{"**Required**", badge("required")},
	{"Wire format (proto2)", count(Required, Proto2, WireFormat)},
	{"Wire format (proto3)", count(Required, Proto3, WireFormat)},
	{"JSON (proto2)", count(Required, Proto2, JSON)},
	{"JSON (proto3)", count(Required, Proto3, JSON)},
	{"**Recommended**", badge("recommended")},
	{"Wire format", count(Recommended, "", WireFormat)},
	{"JSON", count(Recommended, "", JSON)},
	{"**Overall**", badge("overall")},
}

// Table renders a markdown table of failures by category, one column per
// implementation.
func Table(cols ...Column) string {
	cells := [][]string{{"Category"}}
	for _, c := range cols {
		cells[0] = append(cells[0], c.Name)
	}
	for _, r := range rows {
		line := []string{r.label}
		for _, c := range cols {
			if c.Result == nil {
				line = append(line, "N/A")
				continue
			}
			line = append(line, r.cell(c))
		}
		cells = append(cells, line)
	}

	// Lay out the table.
	widths := make([]int, len(cells[0]))
	for _, line := range cells {
		for i, cell := range line {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}

	out := new(strings.Builder)
	for j, line := range cells {
		for i, cell := range line {
			fmt.Fprintf(out, "| %s%*s ", cell, widths[i]-utf8.RuneCountInString(cell), "")
		}
		out.WriteString("|\n")

		if j == 0 {
			for i := range line {
				fmt.Fprintf(out, "|%s", strings.Repeat("-", widths[i]+2))
			}
			out.WriteString("|\n")
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}
