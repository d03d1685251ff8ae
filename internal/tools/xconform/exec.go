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
	"io"
	"os"
	"os/exec"
	osuser "os/user"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/google/uuid"
	"github.com/melbahja/goph"
	"golang.org/x/crypto/ssh"
	"golang.org/x/term"
)

var errFailed = errors.New("conformance tests failed")

const testeeName = "conformance-testee"

// runner is all the information necessary to build the testee and run the
// conformance suite against it.
type runner struct {
	*config
	id     string // Unique id for this run.
	stdout io.Writer
}

func newRunner(c *config, stdout io.Writer) *runner {
	return &runner{config: c, id: uuid.NewString(), stdout: stdout}
}

func (r *runner) testee(dir string) string {
	if dir == "" {
		dir = r.Output
	}
	return filepath.Join(dir, testeeName)
}

func (r *runner) logPath() string {
	return filepath.Join(r.Output, "conformance-"+r.id+".log")
}

// build runs go build to build the testee.
func (r *runner) build() error {
	if err := os.MkdirAll(r.Output, 0o777); err != nil {
		return err
	}

	cmd := exec.Command(r.GoTool, "build", "-o", r.testee(""), r.Testee)
	cmd.Env = os.Environ()
	fmt.Fprintf(r.stdout, "running: %s\n", strings.Join(cmd.Args, " "))
	if out, err := cmd.CombinedOutput(); err != nil {
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			exit.Stderr = out
		}
		return err
	}
	return nil
}

// runnerArgs returns the arguments for the conformance runner, which will
// find the testee at testee and the failure list at failures.
func (r *runner) runnerArgs(testee, failures string) []string {
	var args []string
	if r.EnforceRecommended {
		args = append(args, "--enforce_recommended")
	}
	if failures != "" {
		args = append(args, "--failure_list", failures)
	}
	args = append(args, r.RunnerArgs...)
	return append(args, testee)
}

// runLocally runs the suite on this machine and returns its log. The runner
// exiting non-zero is reported as errFailed, along with the log.
func (r *runner) runLocally() (string, error) {
	cmd := exec.Command(r.Runner, r.runnerArgs(r.testee(""), r.FailureList)...)
	return r.capture(cmd.Run, &cmd.Stdout, &cmd.Stderr)
}

// capture runs a command whose output streams are set through stdout and
// stderr, teeing both to the run log and to r.stdout.
func (r *runner) capture(run func() error, stdout, stderr *io.Writer) (string, error) {
	log, err := os.Create(r.logPath())
	if err != nil {
		return "", err
	}
	defer log.Close()

	var buf strings.Builder
	w := io.MultiWriter(r.stdout, log, &buf)
	*stdout, *stderr = w, w

	start := time.Now()
	err = run()
	elapsed := time.Since(start)

	what := "ok"
	if err != nil {
		var exit interface{ ExitStatus() int }
		var local *exec.ExitError
		switch {
		case errors.As(err, &local) && local.ExitCode() != 0,
			errors.As(err, &exit) && exit.ExitStatus() != 0:
			what, err = "FAILED", errFailed
		default:
			return "", err
		}
	}

	fmt.Fprintf(r.stdout, "%s\tconformance\t%.3vs\tlog: %s\n", what, elapsed.Seconds(), r.logPath())
	return buf.String(), err
}

// splitRemote splits a remote into a user and an address, defaulting to the
// current user and port 22.
func splitRemote(remote string) (user, addr string, port uint, err error) {
	user, addr, hasUser := strings.Cut(remote, "@")
	if !hasUser {
		addr = user
		u, err := osuser.Current()
		if err != nil {
			return "", "", 0, err
		}
		user = u.Username
	}

	port = 22
	if host, p, ok := strings.Cut(addr, ":"); ok {
		if _, err := fmt.Sscan(p, &port); err != nil {
			return "", "", 0, fmt.Errorf("invalid port in %q: %w", remote, err)
		}
		addr = host
	}
	return user, addr, port, nil
}

// remoteCommand quotes a command line for a remote shell. goph passes its
// arguments to the shell unquoted.
func remoteCommand(name string, args ...string) string {
	return shellescape.QuoteCommand(append([]string{name}, args...))
}

func (r *runner) runOverSSH() (string, error) {
	user, addr, port, err := splitRemote(r.Remote)
	if err != nil {
		return "", err
	}
	auth, _ := goph.UseAgent()
	auth = append(auth, ssh.KeyboardInteractive(askStdin))

	// We're cool with not checking known_hosts; remote execution is only used
	// for development.
	client, err := goph.NewConn(&goph.Config{
		User:     user,
		Addr:     addr,
		Port:     port,
		Auth:     auth,
		Timeout:  20 * time.Second,
		Callback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
	})
	if err != nil {
		return "", fmt.Errorf("could not dial remote host: %w", err)
	}
	defer client.Close()
	fmt.Fprintf(r.stdout, "dialed ssh://%s@%s:%d\n", user, addr, port)

	// Create a directory to stick the testee in.
	tmpdir := path.Join("/tmp", "pbconform-"+r.id)
	mkdir, err := client.Command(remoteCommand("mkdir", "-p", tmpdir))
	if err != nil {
		return "", fmt.Errorf("could not create tempdir: %w", err)
	}
	if err := mkdir.Run(); err != nil {
		return "", fmt.Errorf("could not create tempdir: %w", err)
	}
	defer func() {
		rmdir, err := client.Command(remoteCommand("rm", "-r", tmpdir))
		if err == nil {
			err = rmdir.Run()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not clean tempdir: %v\n", err)
		}
	}()
	fmt.Fprintf(r.stdout, "created remote tempdir: %s\n", tmpdir)

	sftp, err := client.NewSftp()
	if err != nil {
		return "", err
	}
	defer sftp.Close()

	upload := func(local, remote string, mode os.FileMode) error {
		start := time.Now()
		src, err := os.Open(local)
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := sftp.Create(remote)
		if err != nil {
			return err
		}
		defer dst.Close()

		if err := dst.Chmod(mode); err != nil {
			return err
		}
		if _, err := io.Copy(dst, src); err != nil {
			return err
		}
		fmt.Fprintf(r.stdout, "uploaded %s in %.3vs\n", local, time.Since(start).Seconds())
		return nil
	}

	testee := path.Join(tmpdir, testeeName)
	if err := upload(r.testee(""), testee, 0o777); err != nil {
		return "", err
	}
	var failures string
	if r.FailureList != "" {
		failures = path.Join(tmpdir, filepath.Base(r.FailureList))
		if err := upload(r.FailureList, failures, 0o666); err != nil {
			return "", err
		}
	}

	cmd, err := client.Command(remoteCommand(r.Runner, r.runnerArgs(testee, failures)...))
	if err != nil {
		return "", err
	}
	return r.capture(cmd.Run, &cmd.Stdout, &cmd.Stderr)
}

func askStdin(name, instruction string, questions []string, echos []bool) (answers []string, err error) {
	if len(questions) == 0 && name != "" {
		fmt.Printf("%s: %s\n", name, instruction)
	}

	answers = make([]string, len(questions))
	for i, q := range questions {
		fmt.Printf("%s ", q)
		if echos[i] {
			if _, err := fmt.Scanln(&answers[i]); err != nil {
				return nil, err
			}
			continue
		}

		answer, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return nil, err
		}
		answers[i] = string(answer)
	}

	return answers, nil
}
