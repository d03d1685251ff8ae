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

package main

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// config is the contents of an xconform.toml file. Flags override it.
type config struct {
	// Path to the conformance_test_runner binary. For remote runs, this is a
	// path on the remote host.
	Runner string `toml:"runner"`
	// Extra arguments for the runner, placed before the testee.
	RunnerArgs []string `toml:"runner_args"`
	// Whether recommended tests count as failures.
	EnforceRecommended bool `toml:"enforce_recommended"`

	GoTool string `toml:"go_tool"`
	// Package of the testee binary.
	Testee string `toml:"testee"`
	// Tests the testee is expected to fail.
	FailureList string `toml:"failure_list"`
	// Directory for the testee binary and the run log.
	Output string `toml:"output"`

	// SSH remote to run at, as [user@]host[:port].
	Remote string `toml:"remote"`

	Report reportConfig `toml:"report"`
}

type reportConfig struct {
	Readme      string `toml:"readme"`
	Name        string `toml:"name"`
	Compare     string `toml:"compare"`
	CompareName string `toml:"compare_name"`
}

func defaultConfig() *config {
	return &config{
		Runner: "conformance_test_runner",
		GoTool: "go",
		Testee: "./cmd/conformance-testee",
		Output: "_build/conformance",
		Report: reportConfig{
			Name:        "pbconform",
			CompareName: "reference",
		},
	}
}

// loadConfig reads a config file over the defaults. Unknown keys are an
// error. The result is not validated, since flags may still fill it in.
func loadConfig(path string) (*config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}

	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("loading %s: unknown keys %q", path, undecoded)
	}
	return c, nil
}

func (c *config) validate() error {
	var errs []error
	if c.Runner == "" {
		errs = append(errs, errors.New("runner must be set"))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output must be set"))
	}
	if c.Report.Compare != "" && c.Report.Readme == "" {
		errs = append(errs, errors.New("report.compare requires report.readme"))
	}
	return errors.Join(errs...)
}
