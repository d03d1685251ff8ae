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
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buf.build/go/pbconform/internal/report"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "xconform.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
runner = "/opt/protobuf/conformance_test_runner"
runner_args = ["--maximum_edition", "2023"]
enforce_recommended = true
remote = "ci@bench:2222"

[report]
readme = "README.md"
compare = "go.log"
`), 0o666))

	c, err := loadConfig(path)
	require.NoError(t, err)
	require.NoError(t, c.validate())

	assert.Equal(t, "/opt/protobuf/conformance_test_runner", c.Runner)
	assert.Equal(t, []string{"--maximum_edition", "2023"}, c.RunnerArgs)
	assert.True(t, c.EnforceRecommended)
	assert.Equal(t, "ci@bench:2222", c.Remote)
	assert.Equal(t, "README.md", c.Report.Readme)
	assert.Equal(t, "go.log", c.Report.Compare)

	// Defaults survive.
	assert.Equal(t, "go", c.GoTool)
	assert.Equal(t, "./cmd/conformance-testee", c.Testee)
	assert.Equal(t, "pbconform", c.Report.Name)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "xconform.toml")
	require.NoError(t, os.WriteFile(path, []byte("runer = \"typo\"\n"), 0o666))
	_, err := loadConfig(path)
	assert.ErrorContains(t, err, "unknown keys")

	_, err = loadConfig(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	c := defaultConfig()
	c.Runner = ""
	c.Report.Compare = "go.log"
	err = c.validate()
	assert.ErrorContains(t, err, "runner must be set")
	assert.ErrorContains(t, err, "report.compare requires report.readme")
}

func TestApplyFlags(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("xconform", flag.ContinueOnError)
	fs.String("runner", "", "")
	fs.String("o", "", "")
	fs.String("remote", "", "")
	fs.String("readme", "", "")
	require.NoError(t, fs.Parse([]string{"-o", "out", "-readme", "README.md"}))

	c := defaultConfig()
	c.Remote = "from-file"
	applyFlags(c, fs)
	assert.Equal(t, "out", c.Output)
	assert.Equal(t, "README.md", c.Report.Readme)
	assert.Equal(t, "from-file", c.Remote)
	assert.Equal(t, "conformance_test_runner", c.Runner)
}

func TestRunnerArgs(t *testing.T) {
	t.Parallel()

	c := defaultConfig()
	r := newRunner(c, new(strings.Builder))
	assert.Equal(t, []string{"/tmp/x/conformance-testee"}, r.runnerArgs("/tmp/x/conformance-testee", ""))

	c.EnforceRecommended = true
	c.RunnerArgs = []string{"--maximum_edition", "2023"}
	assert.Equal(t, []string{
		"--enforce_recommended",
		"--failure_list", "failures.txt",
		"--maximum_edition", "2023",
		"testee",
	}, r.runnerArgs("testee", "failures.txt"))

	assert.NotEqual(t, r.id, newRunner(c, nil).id)
	assert.Equal(t, filepath.Join(c.Output, "conformance-"+r.id+".log"), r.logPath())
}

func TestSplitRemote(t *testing.T) {
	t.Parallel()

	user, addr, port, err := splitRemote("ci@bench:2222")
	require.NoError(t, err)
	assert.Equal(t, "ci", user)
	assert.Equal(t, "bench", addr)
	assert.Equal(t, uint(2222), port)

	user, addr, port, err = splitRemote("ci@bench")
	require.NoError(t, err)
	assert.Equal(t, "ci", user)
	assert.Equal(t, "bench", addr)
	assert.Equal(t, uint(22), port)

	_, _, _, err = splitRemote("ci@bench:ssh")
	assert.Error(t, err)
}

func TestRemoteCommand(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rm -r /tmp/pbconform-1", remoteCommand("rm", "-r", "/tmp/pbconform-1"))
	assert.Equal(t,
		`runner --failure_list '/tmp/my failures.txt' 'it'"'"'s'`,
		remoteCommand("runner", "--failure_list", "/tmp/my failures.txt", "it's"))
}

func TestRunLocally(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	dir := t.TempDir()
	runner := filepath.Join(dir, "runner.sh")
	require.NoError(t, os.WriteFile(runner, []byte(`#!/bin/sh
echo "ERROR, test=Required.Proto3.JsonInput.A: $*"
echo "CONFORMANCE SUITE FAILED: 1 successes, 0 skipped, 0 expected failures, 1 unexpected failures." >&2
exit 1
`), 0o777))

	c := defaultConfig()
	c.Runner = runner
	c.Output = dir
	out := new(strings.Builder)
	r := newRunner(c, out)

	log, err := r.runLocally()
	require.ErrorIs(t, err, errFailed)
	assert.Contains(t, log, "ERROR, test=Required.Proto3.JsonInput.A: "+r.testee(""))
	assert.Contains(t, out.String(), "FAILED\tconformance")

	saved, err := os.ReadFile(r.logPath())
	require.NoError(t, err)
	assert.Equal(t, log, string(saved))

	res, err := report.ParseString(log)
	require.NoError(t, err)
	assert.Equal(t, 1, res.UnexpectedFailures)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	readme := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(readme,
		[]byte(report.StartMarker+"\n"+report.EndMarker+"\n"), 0o666))

	c := defaultConfig()
	c.Report.Readme = readme
	out := new(strings.Builder)
	require.NoError(t, summarize(c,
		"CONFORMANCE SUITE PASSED: 5 successes, 0 skipped, 0 expected failures, 0 unexpected failures.\n", out))

	assert.Contains(t, out.String(), "| Category")
	assert.NotContains(t, out.String(), "warning")
	assert.FileExists(t, filepath.Join(dir, report.BadgeDir, "overall.svg"))

	data, err := os.ReadFile(readme)
	require.NoError(t, err)
	ok, err := report.UpToDate(string(data), report.Table(report.Column{
		Name:   "pbconform",
		Result: &report.Result{Passed: 5, HasSummary: true},
	}))
	require.NoError(t, err)
	assert.True(t, ok)
}
