// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package task

import "errors"

var (
	// ErrSubmission is returned when dispatch could not produce a job identifier.
	ErrSubmission = errors.New("submission failed")
	// ErrCancellation is returned when the backend refused or failed to cancel.
	ErrCancellation = errors.New("cancellation failed")
	// ErrQueryUnavailable is returned by backends when a status query fails.
	// Info converts it to an empty Status.
	ErrQueryUnavailable = errors.New("status query unavailable")
	// ErrEmptyBatch is returned when a task is configured without scripts.
	ErrEmptyBatch = errors.New("batch contains no scripts")
	// ErrInvalidConfig is returned for malformed task configuration.
	ErrInvalidConfig = errors.New("invalid task configuration")
	// ErrNotStarted is returned when an operation requires a task that has been run.
	ErrNotStarted = errors.New("task not started")
	// ErrAlreadyStarted is returned when Run is called more than once.
	ErrAlreadyStarted = errors.New("task already started")
)
