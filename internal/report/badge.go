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
	"os"
	"path/filepath"
	"strconv"
)

// BadgeDir is where badges live, relative to the README that shows them.
const BadgeDir = ".github/badges"

const (
	badgeWidth  = 120
	badgeHeight = 20
)

// Badges computes the percentage shown by each badge, keyed by the badge's
// file name without extension.
func Badges(cols ...Column) map[string]float64 {
	out := make(map[string]float64)
	for _, c := range cols {
		if c.Result == nil {
			continue
		}
		p := c.Result.Percentages()
		out[c.BadgePrefix+"required"] = p.Required
		out[c.BadgePrefix+"recommended"] = p.Recommended
		out[c.BadgePrefix+"overall"] = p.Overall
	}
	return out
}

// WriteBadges writes the SVG badges for cols into dir, creating it if
// necessary.
func WriteBadges(dir string, cols ...Column) error {
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return err
	}
	for name, pct := range Badges(cols...) {
		path := filepath.Join(dir, name+".svg")
		if err := os.WriteFile(path, []byte(SVG(pct)), 0o666); err != nil {
			return err
		}
	}
	return nil
}

// Color returns the fill color of a progress bar at pct percent. It runs from
// red at 0% through orange at 60% to green at 100%.
func Color(pct float64) string {
	pct = max(0, min(100, pct))

	var r, g, b float64
	if pct < 60 {
		t := pct / 60
		r, g, b = lerp(180, 200, t), lerp(60, 140, t), 55
	} else {
		t := (pct - 60) / 40
		r, g, b = lerp(200, 68, t), lerp(140, 148, t), lerp(55, 68, t)
	}
	return fmt.Sprintf("#%02x%02x%02x", int(r), int(g), int(b))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// SVG renders a progress bar badge with the percentage centered on it.
func SVG(pct float64) string {
	bar := strconv.FormatFloat(badgeWidth*max(0, min(100, pct))/100, 'f', -1, 64)
	text := fmt.Sprintf("%.1f%%", pct)

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%[1]d" height="%[2]d">
  <rect width="%[1]d" height="%[2]d" rx="3" fill="#555"/>
  <rect width="%[3]s" height="%[2]d" rx="3" fill="%[4]s"/>
  <rect width="%[1]d" height="%[2]d" rx="3" fill="url(#g)"/>
  <defs>
    <linearGradient id="g" x2="0" y2="100%%">
      <stop offset="0" stop-color="#bbb" stop-opacity=".1"/>
      <stop offset="1" stop-opacity=".1"/>
    </linearGradient>
  </defs>
  <g fill="#fff" text-anchor="middle" font-family="DejaVu Sans,Verdana,Geneva,sans-serif" font-size="11">
    <text x="%[6]d" y="15" fill="#010101" fill-opacity=".3">%[5]s</text>
    <text x="%[6]d" y="14">%[5]s</text>
  </g>
</svg>
`, badgeWidth, badgeHeight, bar, Color(pct), text, badgeWidth/2)
}
