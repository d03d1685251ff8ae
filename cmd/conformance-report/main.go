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

// conformance-report summarizes conformance runner logs.
//
// By default it reads a runner log on stdin, writes progress badges next to
// the README, and replaces the table between the README's conformance
// markers:
//
//	conformance_test_runner ... 2>&1 | conformance-report -readme README.md
//
// With -check, it instead exits non-zero if the README is out of date. With
// -all-fail, it prints per-section pass rates computed against the log of a
// testee that fails every test.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"buf.build/go/pbconform/internal/report"
)

var errOutOfDate = errors.New("README conformance table is out of date; rerun conformance-report without -check")

type config struct {
	log, readme string
	name        string
	compare     string
	compareName string
	check       bool
	badges      bool
	allFail     string
}

func parseFlags(args []string) (*config, error) {
	c := new(config)
	fs := flag.NewFlagSet("conformance-report", flag.ContinueOnError)
	fs.StringVar(&c.log, "log", "-", "runner log to read; defaults to stdin")
	fs.StringVar(&c.readme, "readme", "README.md", "README to update or check")
	fs.StringVar(&c.name, "name", "pbconform", "name of the implementation in the table")
	fs.StringVar(&c.compare, "compare", "", "runner log of a second implementation to compare against")
	fs.StringVar(&c.compareName, "compare-name", "reference", "name of the second implementation")
	fs.BoolVar(&c.check, "check", false, "only check that the README is up to date")
	fs.BoolVar(&c.badges, "badges", true, "write badges next to the README")
	fs.StringVar(&c.allFail, "all-fail", "", "runner log of a testee that fails every test; prints a section table")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func readFile(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	c, err := parseFlags(args)
	if err != nil {
		return err
	}

	log, err := readFile(c.log, stdin)
	if err != nil {
		return err
	}
	res, err := report.ParseString(log)
	if err != nil {
		return err
	}

	cols := []report.Column{{Name: c.name, Result: res}}
	var compareLog string
	if c.compare != "" {
		compareLog, err = readFile(c.compare, stdin)
		if err != nil {
			return err
		}
		other, err := report.ParseString(compareLog)
		if err != nil {
			return err
		}
		cols = append(cols, report.Column{
			Name:        c.compareName,
			Result:      other,
			BadgePrefix: badgePrefix(c.compareName),
		})
	}

	if c.allFail != "" {
		return sectionTable(c, log, compareLog, stdin, stdout)
	}

	table := report.Table(cols...)
	readme, err := os.ReadFile(c.readme)
	if err != nil {
		return err
	}

	if c.check {
		ok, err := report.UpToDate(string(readme), table)
		if err != nil {
			return err
		}
		if !ok {
			return errOutOfDate
		}
		fmt.Fprintln(stdout, "README conformance table is up to date.")
		return nil
	}

	if c.badges {
		dir := filepath.Join(filepath.Dir(c.readme), report.BadgeDir)
		if err := report.WriteBadges(dir, cols...); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "generated badges in %s\n", dir)
	}

	updated, err := report.Splice(string(readme), table)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.readme, []byte(updated), 0o666); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "updated %s with new conformance table\n", c.readme)
	return nil
}

// sectionTable prints per-section pass rates of each log against the
// all-fail baseline.
func sectionTable(c *config, log, compareLog string, stdin io.Reader, stdout io.Writer) error {
	allLog, err := readFile(c.allFail, stdin)
	if err != nil {
		return err
	}
	all, err := report.FailureList(allLog)
	if err != nil {
		return fmt.Errorf("%s: %w", c.allFail, err)
	}
	baseline := report.NewBaseline(all)

	names := []string{c.name}
	logs := []string{log}
	if c.compare != "" {
		names = append(names, c.compareName)
		logs = append(logs, compareLog)
	}

	var trees []*report.Tree
	for _, text := range logs {
		tree, err := baseline.Clone()
		if err != nil {
			return err
		}
		failures, err := report.FailureList(text)
		if err != nil && !errors.Is(err, report.ErrNoFailureList) {
			return err
		}
		if err := tree.Apply(failures); err != nil {
			return err
		}
		trees = append(trees, tree)
	}

	names = append(names, "All Pass")
	trees = append(trees, baseline)
	fmt.Fprintln(stdout, report.SectionTable(names, trees))
	return nil
}

// badgePrefix turns an implementation name into a badge file prefix.
func badgePrefix(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r - 'A' + 'a'
		default:
			return '_'
		}
	}, name) + "_"
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
