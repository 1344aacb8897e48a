// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/batchtask/internal/ctxlog"
	"github.com/matt-FFFFFF/batchtask/internal/progress"
	"github.com/matt-FFFFFF/batchtask/internal/task"
)

var _ progress.Reporter = (*Reporter)(nil)

// Reporter forwards progress events to a running program.
type Reporter struct {
	program *tea.Program
	closed  bool
	mutex   sync.RWMutex
}

// NewReporter creates a reporter sending to program.
func NewReporter(program *tea.Program) *Reporter {
	return &Reporter{program: program}
}

// Report implements progress.Reporter.
func (r *Reporter) Report(event progress.Event) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.closed || r.program == nil {
		return
	}

	// Sent in order. Send returns once the program has read it or has exited.
	r.program.Send(ProgressEventMsg{Event: event})
}

// Close implements progress.Reporter.
func (r *Reporter) Close() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.closed = true
}

// Runner drives a Model for one task.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *Reporter
}

// NewRunner creates a runner for a batch of scripts. Pass Reporter() to the backend before Run.
func NewRunner(ctx context.Context, title string, scripts []string, opts ...tea.ProgramOption) *Runner {
	model := NewModel(title, scripts)
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	program := tea.NewProgram(model, opts...)

	return &Runner{
		model:    model,
		program:  program,
		reporter: NewReporter(program),
	}
}

// Reporter returns the progress reporter feeding this runner.
func (r *Runner) Reporter() progress.Reporter {
	return r.reporter
}

// Model returns the model, for inspection after Run.
func (r *Runner) Model() *Model {
	return r.model
}

// Run shows the monitor while waiting for t, which must already be running.
// If the user quits before the batch ends, t is killed.
// The returned error is the one Wait returned, joined with any terminal error.
func (r *Runner) Run(ctx context.Context, t task.Task) error {
	ctx = ctxlog.NewForTUI(ctx, io.Discard)

	waitDone := make(chan error, 1)

	go func() {
		err := t.Wait(ctx)
		waitDone <- err
		r.program.Send(BatchDoneMsg{Err: err})
	}()

	_, tuiErr := r.program.Run()
	if errors.Is(tuiErr, tea.ErrProgramKilled) {
		tuiErr = nil
	}

	r.reporter.Close()

	var waitErr error

	select {
	case waitErr = <-waitDone:
	default:
		ctxlog.Info(ctx, "monitor closed, killing batch", "pid", t.Pid())

		if err := t.Kill(ctx); err != nil {
			return errors.Join(err, tuiErr)
		}

		waitErr = <-waitDone
	}

	return errors.Join(waitErr, tuiErr)
}
