// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package task

import (
	"fmt"
	"sync"
)

// Lifecycle is the state machine embedded by backends.
// The zero value is an idle task.
type Lifecycle struct {
	dispatchMu sync.Mutex
	mu         sync.RWMutex
	state      State
	pid        int
	release    sync.Once
	released   bool // guarded by dispatchMu
}

// Pid returns the identifier recorded by Dispatch, or 0.
func (l *Lifecycle) Pid() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.pid
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.state
}

// Dispatch moves an idle task to RUNNING, recording the identifier returned by fn.
// Concurrent calls are serialised and only the first can succeed.
// A task that has been released cannot be dispatched.
// A non-positive identifier is reported as ErrSubmission.
func (l *Lifecycle) Dispatch(fn func() (int, error)) error {
	l.dispatchMu.Lock()
	defer l.dispatchMu.Unlock()

	if l.released {
		return fmt.Errorf("%w: task is closed", ErrAlreadyStarted)
	}

	if s := l.State(); s != StateIdle {
		return fmt.Errorf("%w: state is %s", ErrAlreadyStarted, s)
	}

	pid, err := fn()
	if err != nil {
		return err
	}

	if pid <= 0 {
		return fmt.Errorf("%w: invalid identifier %d", ErrSubmission, pid)
	}

	l.mu.Lock()
	l.pid = pid
	l.state = StateRunning
	l.mu.Unlock()

	return nil
}

// MarkFinished moves a running task to FINISHED and reports whether it did.
func (l *Lifecycle) MarkFinished() bool {
	return l.transition(StateRunning, StateFinished)
}

// MarkKilled moves a running task to KILLED and reports whether it did.
func (l *Lifecycle) MarkKilled() bool {
	return l.transition(StateRunning, StateKilled)
}

func (l *Lifecycle) transition(from, to State) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != from {
		return false
	}

	l.state = to

	return true
}

// Release runs fn the first time it is called and returns its error.
// Later calls do nothing and return nil. Once Release is called Dispatch fails,
// so fn sees whether the task was ever dispatched.
func (l *Lifecycle) Release(fn func() error) error {
	var err error

	l.release.Do(func() {
		l.dispatchMu.Lock()
		l.released = true
		l.dispatchMu.Unlock()

		err = fn()
	})

	return err
}
