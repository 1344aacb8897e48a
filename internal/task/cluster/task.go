// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cluster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matt-FFFFFF/batchtask/internal/ctxlog"
	"github.com/matt-FFFFFF/batchtask/internal/script"
	"github.com/matt-FFFFFF/batchtask/internal/task"
	"github.com/spf13/afero"
)

const (
	// RunscriptSuffix is the extension of generated submission scripts.
	RunscriptSuffix = ".script"
	// JobsSuffix is the extension of the array index file.
	JobsSuffix = ".jobs"

	jobsFileMode = 0o644
)

var _ task.Task = (*Task)(nil)

// Task is a batch submitted to a scheduler as one job or one job array.
type Task struct {
	task.Lifecycle

	cfg       Config
	runscript string
}

// New validates cfg and returns an idle task.
func New(cfg Config) (*Task, error) {
	cfg, err := cfg.normalise(false)
	if err != nil {
		return nil, err
	}

	return &Task{cfg: cfg}, nil
}

// Attach returns a running task bound to an existing job, so that it can be queried or cancelled.
func Attach(cfg Config, jobID int) (*Task, error) {
	if jobID <= 0 {
		return nil, fmt.Errorf("%w: invalid job id %d", task.ErrInvalidConfig, jobID)
	}

	cfg, err := cfg.normalise(true)
	if err != nil {
		return nil, err
	}

	t := &Task{cfg: cfg}
	if err := t.Dispatch(func() (int, error) { return jobID, nil }); err != nil {
		return nil, err
	}

	return t, nil
}

// Config returns the resolved configuration.
func (t *Task) Config() Config {
	return t.cfg
}

// Runscript returns the path of the generated submission script, empty before Run.
func (t *Task) Runscript() string {
	return t.runscript
}

// Directives reads the submitted runscript back and returns its scheduler directive lines.
func (t *Task) Directives() ([]string, error) {
	if t.runscript == "" {
		return nil, nil
	}

	rs, err := script.Read(t.cfg.Fs, t.runscript)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	var lines []string

	for _, l := range rs.Lines {
		if strings.HasPrefix(l, "#") {
			lines = append(lines, l)
		}
	}

	return lines, nil
}

// Build returns the submission script and, for arrays, the index file content.
// Nothing is written.
func (t *Task) Build() (*script.Script, string) {
	sched := t.cfg.Scheduler
	rs := script.New(
		script.WithDirectory(t.cfg.Directory),
		script.WithPrefix(sched.Name()+"_"),
		script.WithSuffix(RunscriptSuffix),
	)

	d := DirectiveSet{
		Export:     true,
		Name:       t.cfg.Name,
		Dependency: t.cfg.Dependency,
		Queue:      t.cfg.Queue,
		Processes:  t.cfg.Processes,
		Directory:  t.cfg.Directory,
		Runtime:    t.cfg.Runtime,
		Priority:   t.cfg.Priority,
	}

	n := len(t.cfg.Scripts)
	if n == 1 {
		d.Output = script.LogPath(t.cfg.Scripts[0])
		rs.Append(sched.Directives(d)...)
		rs.Append(shellQuote(t.cfg.Scripts[0]))

		return rs, ""
	}

	limit := t.cfg.MaxArraySize
	if limit == 0 || limit > n {
		limit = n
	}

	jobsPath := jobsPathFor(rs.Path())
	d.Array = &ArrayBounds{Lower: 1, Upper: n, Cap: limit}
	d.Output = rs.LogPath()

	rs.Append(sched.Directives(d)...)
	rs.Append(
		fmt.Sprintf(`script=$(awk "NR==$%s" %s)`, sched.ArrayIndexVar(), shellQuote(jobsPath)),
		script.LogPathShell("log", "script"),
		`"$script" > "$log" 2>&1`,
	)

	return rs, strings.Join(t.cfg.Scripts, "\n") + "\n"
}

func (t *Task) write(fs afero.Fs) (*script.Script, error) {
	rs, jobs := t.Build()

	if jobs != "" {
		if err := fs.MkdirAll(rs.Directory, 0o755); err != nil { //nolint:mnd
			return nil, err //nolint:wrapcheck
		}

		if err := afero.WriteFile(fs, jobsPathFor(rs.Path()), []byte(jobs), jobsFileMode); err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	if err := rs.Write(fs); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return rs, nil
}

// Run writes the runscript, and the index file for arrays, then submits it from the working directory.
func (t *Task) Run(ctx context.Context) error {
	return t.Dispatch(func() (int, error) {
		rs, err := t.write(t.cfg.Fs)
		if err != nil {
			return 0, errors.Join(task.ErrSubmission, err)
		}

		out, err := t.cfg.Runner.Run(ctx, t.cfg.Directory, t.cfg.Scheduler.SubmitArgs(rs.Path())...)
		if err != nil {
			return 0, errors.Join(task.ErrSubmission, err)
		}

		id, err := ParseJobID(out)
		if err != nil {
			return 0, err
		}

		t.runscript = rs.Path()

		ctxlog.Info(ctx, "batch submitted",
			"backend", t.cfg.Scheduler.Name(),
			"name", t.cfg.Name,
			"pid", id,
			"scripts", len(t.cfg.Scripts),
			"runscript", rs.Path(),
		)

		return id, nil
	})
}

// Info queries the scheduler. Any failure to query, or a job no longer listed, is an empty status.
func (t *Task) Info(ctx context.Context) task.Status {
	pid := t.Pid()
	if pid == 0 {
		return task.Status{}
	}

	out, err := t.cfg.Runner.Run(ctx, t.cfg.Directory, t.cfg.Scheduler.QueryArgs(pid)...)
	if err != nil {
		ctxlog.Debug(ctx, "status query failed",
			"backend", t.cfg.Scheduler.Name(),
			"pid", pid,
			"error", errors.Join(task.ErrQueryUnavailable, err),
		)

		return task.Status{}
	}

	if !t.cfg.Scheduler.Running(pid, out) {
		return task.Status{}
	}

	return task.Status{JobNumber: pid, Status: task.StatusRunning}
}

// Wait polls Info every PollInterval until the job is no longer listed.
func (t *Task) Wait(ctx context.Context) error {
	switch t.State() {
	case task.StateIdle:
		return task.ErrNotStarted
	case task.StateFinished, task.StateKilled:
		return nil
	}

	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if t.Info(ctx).IsEmpty() {
			if t.MarkFinished() {
				ctxlog.Info(ctx, "batch finished", "backend", t.cfg.Scheduler.Name(), "pid", t.Pid())
			}

			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err() //nolint:wrapcheck
		case <-ticker.C:
		}
	}
}

// Kill runs the cancel command. A failing command is returned wrapped in ErrCancellation
// and leaves the task running.
func (t *Task) Kill(ctx context.Context) error {
	switch t.State() {
	case task.StateIdle:
		return task.ErrNotStarted
	case task.StateFinished, task.StateKilled:
		return nil
	}

	pid := t.Pid()
	if _, err := t.cfg.Runner.Run(ctx, t.cfg.Directory, t.cfg.Scheduler.CancelArgs(pid)...); err != nil {
		return errors.Join(task.ErrCancellation, err)
	}

	if t.MarkKilled() {
		ctxlog.Info(ctx, "batch cancelled", "backend", t.cfg.Scheduler.Name(), "pid", pid)
	}

	return nil
}

// Close waits for the job to leave the queue. Generated files are kept next to the logs.
func (t *Task) Close(ctx context.Context) error {
	if t.State() == task.StateIdle {
		return t.Release(func() error { return nil })
	}

	if err := t.Wait(ctx); err != nil {
		return err
	}

	return t.Release(func() error {
		ctxlog.Debug(ctx, "task closed", "backend", t.cfg.Scheduler.Name(), "pid", t.Pid())
		return nil
	})
}

func jobsPathFor(runscript string) string {
	return strings.TrimSuffix(runscript, RunscriptSuffix) + JobsSuffix
}

// shellQuote single-quotes s for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
