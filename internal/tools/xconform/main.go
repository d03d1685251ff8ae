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

// xconform builds the conformance testee, runs the conformance suite against
// it, and summarizes the results.
//
// Settings come from an optional TOML file (see config.go), overridden by
// flags:
//
//	go run ./internal/tools/xconform -config xconform.toml -remote me@box
//
// Runs can happen locally or on a remote host over SSH; in the latter case
// the testee is uploaded and the runner must already be installed remotely.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"buf.build/go/pbconform/internal/report"
)

var (
	configPath = flag.String("config", "", "TOML config file")
	runnerPath = flag.String("runner", "", "path to conformance_test_runner")
	output     = flag.String("o", "", "output directory for the testee and logs")
	remote     = flag.String("remote", "", "SSH remote to run tests at")
	failures   = flag.String("failure-list", "", "file of tests expected to fail")
	readme     = flag.String("readme", "", "README whose conformance table to update")
	check      = flag.Bool("check", false, "check the README table instead of updating it")
	skipBuild  = flag.Bool("skip-build", false, "reuse a previously built testee")
)

// applyFlags overrides c with any flags that were set.
func applyFlags(c *config, fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "runner":
			c.Runner = v
		case "o":
			c.Output = v
		case "remote":
			c.Remote = v
		case "failure-list":
			c.FailureList = v
		case "readme":
			c.Report.Readme = v
		}
	})
}

func run() error {
	flag.Parse()

	c, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	applyFlags(c, flag.CommandLine)
	if err := c.validate(); err != nil {
		return err
	}

	r := newRunner(c, os.Stdout)
	if !*skipBuild {
		if err := r.build(); err != nil {
			return err
		}
	}

	var log string
	if c.Remote == "" {
		log, err = r.runLocally()
	} else {
		log, err = r.runOverSSH()
	}
	if err != nil && !errors.Is(err, errFailed) {
		return err
	}
	// A failing suite still gets a report.
	runErr := err

	if err := summarize(c, log, os.Stdout); err != nil {
		return err
	}
	return runErr
}

// summarize prints the failure table for log, and updates or checks the
// README if one is configured.
func summarize(c *config, log string, stdout io.Writer) error {
	res, err := report.ParseString(log)
	if err != nil {
		return err
	}
	cols := []report.Column{{Name: c.Report.Name, Result: res}}
	if c.Report.Compare != "" {
		data, err := os.ReadFile(c.Report.Compare)
		if err != nil {
			return err
		}
		other, err := report.ParseString(string(data))
		if err != nil {
			return err
		}
		cols = append(cols, report.Column{Name: c.Report.CompareName, Result: other, BadgePrefix: "compare_"})
	}

	table := report.Table(cols...)
	fmt.Fprintf(stdout, "%s\n", table)
	if !res.HasSummary {
		fmt.Fprintln(stdout, "warning: no summary line in runner output")
	}

	if c.Report.Readme == "" {
		return nil
	}
	data, err := os.ReadFile(c.Report.Readme)
	if err != nil {
		return err
	}

	if *check {
		ok, err := report.UpToDate(string(data), table)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s: conformance table is out of date", c.Report.Readme)
		}
		return nil
	}

	dir := filepath.Join(filepath.Dir(c.Report.Readme), report.BadgeDir)
	if err := report.WriteBadges(dir, cols...); err != nil {
		return err
	}
	updated, err := report.Splice(string(data), table)
	if err != nil {
		return err
	}
	return os.WriteFile(c.Report.Readme, []byte(updated), 0o666)
}

func main() {
	if err := run(); err != nil {
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			fmt.Printf("%s\n", exit.Stderr)
			os.Exit(exit.ExitCode())
		}
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}
