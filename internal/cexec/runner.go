// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/matt-FFFFFF/batchtask/internal/ctxlog"
)

const defaultMaxOutput = 8 * 1024 * 1024 // 8MB

var (
	// ErrEmptyCommand is returned when no command is given.
	ErrEmptyCommand = errors.New("empty command")
	// ErrCommandNotFound is returned when the executable cannot be resolved.
	ErrCommandNotFound = errors.New("command not found")
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrFailedToReadBuffer is returned when the output of the process could not be read.
	ErrFailedToReadBuffer = errors.New("failed to read buffer")
	// ErrBufferOverflow is returned when the output exceeds the configured maximum size.
	ErrBufferOverflow = errors.New("output exceeds max size")
	// ErrTimeoutExceeded is returned when the context is done before the command finishes.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
	// ErrNonZeroExit is matched by every ExitError.
	ErrNonZeroExit = errors.New("command exited with non-zero status")
)

// Runner executes a command in dir and returns its stdout.
// A non-zero exit status is reported as an error.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, dir string, args ...string) (string, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, dir string, args ...string) (string, error) {
	return f(ctx, dir, args...)
}

// ExitError describes a command that ran but exited with a non-zero status.
type ExitError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%q exited with code %d", strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}

	return msg
}

// Unwrap lets errors.Is match ErrNonZeroExit.
func (e *ExitError) Unwrap() error {
	return ErrNonZeroExit
}

var _ Runner = (*OSRunner)(nil)

// OSRunner runs commands as child processes of the current process.
// The zero value is ready to use.
type OSRunner struct {
	Env       map[string]string // Added to the inherited environment.
	MaxOutput int64             // Per-stream capture limit, defaults to 8MB.
}

// Run implements Runner. The process is killed if ctx is done before it exits.
func (r *OSRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	if len(args) == 0 {
		return "", ErrEmptyCommand
	}

	logger := ctxlog.Logger(ctx).With("runner", "OSRunner")
	logger.Debug("command info", "args", args, "cwd", dir)

	path, err := LookPath(args[0])
	if err != nil {
		return "", err
	}

	maxOutput := r.MaxOutput
	if maxOutput <= 0 {
		maxOutput = defaultMaxOutput
	}

	env := os.Environ()
	for k, v := range r.Env {
		env = append(env, k+"="+v)
	}

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return "", errors.Join(ErrCouldNotStartProcess, err)
	}
	defer devNull.Close() //nolint:errcheck

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return "", errors.Join(ErrFailedToCreatePipe, err)
	}
	defer rOut.Close() //nolint:errcheck

	rErr, wErr, err := os.Pipe()
	if err != nil {
		_ = wOut.Close()
		return "", errors.Join(ErrFailedToCreatePipe, err)
	}
	defer rErr.Close() //nolint:errcheck

	ps, err := os.StartProcess(path, args, &os.ProcAttr{
		Dir:   dir,
		Env:   env,
		Files: []*os.File{devNull, wOut, wErr},
	})

	// The child holds its own copies; closing ours lets the readers see EOF.
	_ = wOut.Close()
	_ = wErr.Close()

	if err != nil {
		return "", errors.Join(ErrCouldNotStartProcess, err)
	}

	logger.Debug("process started", "pid", ps.Pid)

	var (
		stdout, stderr       []byte
		stdoutErr, stderrErr error
		readers              sync.WaitGroup
	)

	readers.Add(2) //nolint:mnd

	go func() {
		defer readers.Done()

		stdout, stdoutErr = readAllUpToMax(ctx, rOut, maxOutput)
	}()

	go func() {
		defer readers.Done()

		stderr, stderrErr = readAllUpToMax(ctx, rErr, maxOutput)
	}()

	done := make(chan struct{})
	watchdog := make(chan struct{})

	go func() {
		defer close(watchdog)

		select {
		case <-ctx.Done():
			logger.Debug("context done, killing process", "pid", ps.Pid)
			killPs(ctx, ps)
		case <-done:
		}
	}()

	state, waitErr := ps.Wait()
	close(done)
	<-watchdog
	readers.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return string(stdout), errors.Join(ErrTimeoutExceeded, ctxErr)
	}

	if waitErr != nil {
		return string(stdout), waitErr
	}

	if err := errors.Join(stdoutErr, stderrErr); err != nil {
		return string(stdout), err
	}

	logger.Debug("process finished", "pid", ps.Pid, "exitCode", state.ExitCode())

	if state.ExitCode() != 0 {
		return string(stdout), &ExitError{
			Args:     args,
			ExitCode: state.ExitCode(),
			Stderr:   string(stderr),
		}
	}

	return string(stdout), nil
}

func readAllUpToMax(ctx context.Context, r io.Reader, maxBufferSize int64) ([]byte, error) {
	var buf bytes.Buffer

	n, err := io.CopyN(&buf, r, maxBufferSize+1)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrFailedToReadBuffer, err)
	}

	if n > maxBufferSize {
		ctxlog.Debug(ctx, "buffer overflow in readAllUpToMax", "bytesRead", n, "maxBytes", maxBufferSize)

		// Drain so the child is not blocked on a full pipe.
		_, _ = io.Copy(io.Discard, r)

		return buf.Bytes()[:maxBufferSize], fmt.Errorf("%w of %d bytes", ErrBufferOverflow, maxBufferSize)
	}

	return buf.Bytes(), nil
}

// KillProcess forcibly terminates ps, treating an already finished process as success.
func KillProcess(ps *os.Process) error {
	if err := ps.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err //nolint:wrapcheck
	}

	return nil
}

func killPs(ctx context.Context, ps *os.Process) {
	if err := KillProcess(ps); err != nil {
		ctxlog.Error(ctx, "process kill error", "pid", ps.Pid, "error", err)
		return
	}

	ctxlog.Info(ctx, "process killed", "pid", ps.Pid)
}
