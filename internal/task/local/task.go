// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package local

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/matt-FFFFFF/batchtask/internal/cexec"
	"github.com/matt-FFFFFF/batchtask/internal/ctxlog"
	"github.com/matt-FFFFFF/batchtask/internal/progress"
	"github.com/matt-FFFFFF/batchtask/internal/script"
	"github.com/matt-FFFFFF/batchtask/internal/task"
)

const logFileMode = 0o644

// ErrLogFile is recorded on an element whose log file could not be created.
var ErrLogFile = errors.New("could not create log file")

var _ task.Task = (*Task)(nil)

// Task is a batch executed by a pool of local worker goroutines, each owning one child at a time.
type Task struct {
	task.Lifecycle

	cfg Config

	mu       sync.Mutex
	procs    map[int]*os.Process
	elements []Element
	killed   bool

	killedCh chan struct{}
	killOnce sync.Once

	cancel     context.CancelFunc
	results    chan int
	workers    sync.WaitGroup
	closerDone chan struct{}
}

// New validates cfg and returns an idle task.
// A zero Processes is resolved to the host CPU count here.
func New(cfg Config) (*Task, error) {
	cfg, err := cfg.normalise()
	if err != nil {
		return nil, err
	}

	elements := make([]Element, len(cfg.Scripts))
	for i, s := range cfg.Scripts {
		elements[i] = Element{
			Index:    i,
			Script:   s,
			Log:      script.LogPath(s),
			ExitCode: -1,
		}
	}

	return &Task{
		cfg:      cfg,
		procs:    make(map[int]*os.Process, cfg.Processes),
		elements: elements,
		killedCh: make(chan struct{}),
	}, nil
}

// Config returns the resolved configuration.
func (t *Task) Config() Config {
	return t.cfg
}

// Run starts the worker pool and returns immediately. The pid is the id of this process.
// The pool stops dispatching when ctx is done.
func (t *Task) Run(ctx context.Context) error {
	return t.Dispatch(func() (int, error) {
		poolCtx, cancel := context.WithCancel(ctx)
		t.cancel = cancel
		t.results = make(chan int, len(t.cfg.Scripts))
		t.closerDone = make(chan struct{})

		jobs := make(chan int)

		t.workers.Add(1)

		go t.feed(poolCtx, jobs)

		for w := range t.cfg.Processes {
			t.workers.Add(1)

			go t.work(ctxlog.New(poolCtx, ctxlog.Logger(poolCtx).With("worker", w)), jobs)
		}

		go func() {
			defer close(t.closerDone)

			t.workers.Wait()
			close(t.results)
		}()

		ctxlog.Info(ctx, "batch started",
			"backend", Backend,
			"name", t.cfg.Name,
			"scripts", len(t.cfg.Scripts),
			"processes", t.cfg.Processes,
		)

		return os.Getpid(), nil
	})
}

func (t *Task) feed(ctx context.Context, jobs chan<- int) {
	defer t.workers.Done()
	defer close(jobs)

	for i := range t.cfg.Scripts {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(t.cfg.Scripts); j++ {
				t.report(j, progress.EventSkipped, "batch cancelled", progress.EventData{})
			}

			return
		}
	}
}

func (t *Task) work(ctx context.Context, jobs <-chan int) {
	defer t.workers.Done()

	for i := range jobs {
		t.runElement(ctx, i)
	}
}

func (t *Task) runElement(ctx context.Context, i int) {
	el := t.elements[i]
	logger := ctxlog.Logger(ctx).With("index", i, "script", el.Script)

	t.mu.Lock()

	if t.killed || ctx.Err() != nil {
		t.mu.Unlock()
		logger.Debug("element skipped")
		t.report(i, progress.EventSkipped, "batch cancelled", progress.EventData{})

		return
	}

	ps, err := t.start(el)
	if err != nil {
		t.elements[i].Done = true
		t.elements[i].Err = err
		t.mu.Unlock()

		logger.Warn("element could not be started", "error", err)
		t.report(i, progress.EventFailed, err.Error(), progress.EventData{ExitCode: -1, Error: err, LogPath: el.Log})
		t.results <- i

		return
	}

	t.procs[i] = ps
	t.elements[i].Started = true
	t.mu.Unlock()

	logger.Debug("element started", "pid", ps.Pid)
	t.report(i, progress.EventStarted, "started", progress.EventData{LogPath: el.Log})

	done := make(chan struct{})
	watchdog := make(chan struct{})

	go func() {
		defer close(watchdog)

		select {
		case <-ctx.Done():
			_ = cexec.KillProcess(ps)
		case <-done:
		}
	}()

	state, waitErr := ps.Wait()
	close(done)
	<-watchdog

	exitCode := -1
	if state != nil {
		exitCode = state.ExitCode()
	}

	t.mu.Lock()
	delete(t.procs, i)
	t.elements[i].Done = true
	t.elements[i].ExitCode = exitCode
	t.elements[i].Err = waitErr
	t.mu.Unlock()

	logger.Debug("element finished", "exitCode", exitCode)

	data := progress.EventData{ExitCode: exitCode, Error: waitErr, LogPath: el.Log}
	if exitCode == 0 && waitErr == nil {
		t.report(i, progress.EventCompleted, "completed", data)
	} else {
		t.report(i, progress.EventFailed, "exited non-zero", data)
	}

	t.results <- i
}

// start launches el with its output redirected to its log file. Callers hold t.mu.
func (t *Task) start(el Element) (*os.Process, error) {
	logFile, err := os.OpenFile(el.Log, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, logFileMode)
	if err != nil {
		return nil, errors.Join(ErrLogFile, err)
	}
	defer logFile.Close() //nolint:errcheck

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return nil, errors.Join(cexec.ErrCouldNotStartProcess, err)
	}
	defer devNull.Close() //nolint:errcheck

	env := os.Environ()
	for k, v := range t.cfg.Env {
		env = append(env, k+"="+v)
	}

	ps, err := os.StartProcess(el.Script, []string{el.Script}, &os.ProcAttr{
		Dir:   t.cfg.Directory,
		Env:   env,
		Files: []*os.File{devNull, logFile, logFile},
	})
	if err != nil {
		return nil, errors.Join(cexec.ErrCouldNotStartProcess, err)
	}

	return ps, nil
}

func (t *Task) report(i int, typ progress.EventType, msg string, data progress.EventData) {
	t.cfg.Reporter.Report(progress.Event{
		Batch:     t.cfg.Name,
		Index:     i,
		Script:    t.cfg.Scripts[i],
		Type:      typ,
		Message:   msg,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// Wait blocks until every element has completed, the task is killed, or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	switch t.State() {
	case task.StateIdle:
		return task.ErrNotStarted
	case task.StateFinished, task.StateKilled:
		return nil
	}

	for {
		select {
		case i, ok := <-t.results:
			if !ok {
				if t.MarkFinished() {
					ctxlog.Info(ctx, "batch finished", "backend", Backend, "name", t.cfg.Name)
				}

				return nil
			}

			ctxlog.Debug(ctx, "element completed", "backend", Backend, "index", i)
		case <-t.killedCh:
			return nil
		case <-ctx.Done():
			return ctx.Err() //nolint:wrapcheck
		}
	}
}

// Kill sends SIGKILL to every running child, stops dispatch and returns without waiting.
// Killing a finished or killed task is a no-op.
func (t *Task) Kill(ctx context.Context) error {
	switch t.State() {
	case task.StateIdle:
		return task.ErrNotStarted
	case task.StateFinished, task.StateKilled:
		return nil
	}

	t.mu.Lock()
	t.killed = true

	for i, ps := range t.procs {
		if err := cexec.KillProcess(ps); err != nil {
			ctxlog.Warn(ctx, "could not kill element", "backend", Backend, "index", i, "pid", ps.Pid, "error", err)
		}
	}

	t.mu.Unlock()

	t.cancel()
	t.killOnce.Do(func() { close(t.killedCh) })

	if t.MarkKilled() {
		ctxlog.Info(ctx, "batch killed", "backend", Backend, "name", t.cfg.Name)
	}

	return nil
}

// Close waits for the batch and then stops and joins the pool. Only the first call releases.
// A task closed before Run releases nothing and can no longer be run.
func (t *Task) Close(ctx context.Context) error {
	if t.State() != task.StateIdle {
		if err := t.Wait(ctx); err != nil {
			return err
		}
	}

	return t.Release(func() error {
		// Dispatch is closed now, so a nil cancel means the pool never started.
		if t.cancel == nil {
			return nil
		}

		t.cancel()
		<-t.closerDone
		ctxlog.Debug(ctx, "pool released", "backend", Backend, "name", t.cfg.Name)

		return nil
	})
}

// Info reports Running until the pool has drained: every element has exited,
// failed to start or been skipped. A killed or finished task is empty.
func (t *Task) Info(_ context.Context) task.Status {
	if t.State() != task.StateRunning {
		return task.Status{}
	}

	select {
	case <-t.closerDone:
		return task.Status{}
	default:
	}

	return task.Status{JobNumber: t.Pid(), Status: task.StatusRunning}
}

// Elements returns a copy of the per-element outcome records.
func (t *Task) Elements() []Element {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Element, len(t.elements))
	copy(out, t.elements)

	return out
}
