// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package task

// State is the lifecycle position of a Task.
type State int32

const (
	// StateIdle is a task holding only configuration.
	StateIdle State = iota
	// StateRunning is a task that has been dispatched.
	StateRunning
	// StateFinished is a task whose completion has been observed.
	StateFinished
	// StateKilled is a task that has been cancelled.
	StateKilled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateFinished:
		return "FINISHED"
	case StateKilled:
		return "KILLED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the state is FINISHED or KILLED.
func (s State) Terminal() bool {
	return s == StateFinished || s == StateKilled
}
