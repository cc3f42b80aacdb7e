// Package procexec runs the external image tools with a bounded timeout.
package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrTimedOut is returned when a command exceeds its timeout.
var ErrTimedOut = errors.New("command timed out")

// waitDelay bounds how long Run waits for output pipes after the process is
// killed, so a tool that forked children cannot hold Run open.
const waitDelay = 5 * time.Second

// Command is one tool invocation.
type Command struct {
	Path    string
	Args    []string
	Timeout time.Duration // zero means no timeout
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Result is the outcome of a command that ran to completion.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Success reports whether the command exited with status 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Executor runs commands. Run returns a nil error whenever the process
// started and exited, whatever its exit code; the error is non-nil only when
// the process could not be spawned or ErrTimedOut when it was killed.
type Executor interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// OS runs commands as child processes.
type OS struct{}

// Run implements Executor.
func (OS) Run(ctx context.Context, c Command) (Result, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if ctx.Err() != nil {
		res.ExitCode = -1
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return res, fmt.Errorf("%s after %s: %w", c.Path, c.Timeout, ErrTimedOut)
		}
		return res, fmt.Errorf("%s: %w", c.Path, ctx.Err())
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, fmt.Errorf("start %s: %w", c.Path, err)
	}

	return res, nil
}

// Truncate shortens tool output for log lines and error messages, keeping
// the first max bytes and marking the cut.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
