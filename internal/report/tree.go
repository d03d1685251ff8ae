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

	"github.com/tiendc/go-deepcopy"
)

// Tree is a hierarchy of test results, split on the dots in test names.
//
// A baseline tree is built from the failure list of a testee that fails
// every test, which makes it a list of every test in the suite. Applying an
// implementation's failures to a copy of the baseline gives its pass rate in
// every section of the suite.
type Tree struct {
	Children map[string]*Tree

	// Whether this node is itself a test, and if so, whether it passed.
	Leaf bool
	Pass bool
}

// NewBaseline builds a tree in which every named test passes.
func NewBaseline(tests []string) *Tree {
	t := new(Tree)
	for _, name := range tests {
		node := t
		for _, part := range strings.Split(name, ".") {
			node = node.child(part)
		}
		node.Leaf, node.Pass = true, true
	}
	return t
}

func (t *Tree) child(name string) *Tree {
	if t.Children == nil {
		t.Children = make(map[string]*Tree)
	}
	c := t.Children[name]
	if c == nil {
		c = new(Tree)
		t.Children[name] = c
	}
	return c
}

// Clone returns a deep copy of t.
func (t *Tree) Clone() (*Tree, error) {
	out := new(Tree)
	if err := deepcopy.Copy(out, t); err != nil {
		return nil, fmt.Errorf("report: copying tree: %w", err)
	}
	return out, nil
}

// Apply marks the named tests as failing. Every test must already be in the
// tree.
func (t *Tree) Apply(failures []string) error {
	for _, name := range failures {
		node, err := t.Lookup(strings.Split(name, ".")...)
		if err != nil {
			return err
		}
		if !node.Leaf {
			return fmt.Errorf("report: %q is a section, not a test", name)
		}
		node.Pass = false
	}
	return nil
}

// Lookup returns the subtree at path.
func (t *Tree) Lookup(path ...string) (*Tree, error) {
	node := t
	for i, part := range path {
		next := node.Children[part]
		if next == nil {
			return nil, fmt.Errorf("report: missing %q under %q", part, strings.Join(path[:i], "."))
		}
		node = next
	}
	return node, nil
}

// Section is the pass rate of part of a [Tree].
type Section struct {
	Passing, Total int
}

// Count tallies the tests in t.
func (t *Tree) Count() Section {
	var s Section
	if t.Leaf {
		s.Total++
		if t.Pass {
			s.Passing++
		}
	}
	for _, c := range t.Children {
		cs := c.Count()
		s.Passing += cs.Passing
		s.Total += cs.Total
	}
	return s
}

// Percent returns the share of passing tests.
func (s Section) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return 100 * float64(s.Passing) / float64(s.Total)
}

// String implements [fmt.Stringer].
func (s Section) String() string {
	return fmt.Sprintf("%.1f%% (%d/%d)", s.Percent(), s.Passing, s.Total)
}

// Sections are the rows of a [SectionTable].
var Sections = [][]string{
	{},
	{Required},
	{Required, "Proto2"},
	{Required, "Proto3"},
	{Required, "Editions_Proto2"},
	{Required, "Editions_Proto3"},
	{Recommended},
	{Recommended, "Proto2"},
	{Recommended, "Proto3"},
	{Recommended, "Editions_Proto2"},
	{Recommended, "Editions_Proto3"},
}

// SectionTable renders the pass rates of each tree in each of [Sections] as
// a markdown table. Sections missing from a tree are reported as N/A.
func SectionTable(names []string, trees []*Tree) string {
	out := new(strings.Builder)
	out.WriteString("| Category |")
	for _, n := range names {
		fmt.Fprintf(out, " %s |", n)
	}
	out.WriteString("\n|---|")
	for range names {
		out.WriteString("---|")
	}

	for _, path := range Sections {
		label := strings.Join(path, " ")
		if label == "" {
			label = "Overall"
		}
		fmt.Fprintf(out, "\n| %s |", label)
		for _, t := range trees {
			sub, err := t.Lookup(path...)
			if err != nil {
				out.WriteString(" N/A |")
				continue
			}
			fmt.Fprintf(out, " %v |", sub.Count())
		}
	}
	return out.String()
}
