// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package task

import (
	"context"
	"errors"
)

// Task is the lifecycle every backend implements.
type Task interface {
	// Run dispatches the batch and records the pid. It may be called once.
	Run(ctx context.Context) error
	// Wait blocks until the backend reports completion or ctx is done.
	Wait(ctx context.Context) error
	// Kill asynchronously cancels the batch. It does not wait for acknowledgement.
	Kill(ctx context.Context) error
	// Close waits for completion then releases backend resources. Repeated calls are no-ops.
	Close(ctx context.Context) error
	// Info returns a status snapshot without blocking on the batch.
	Info(ctx context.Context) Status
	// Pid returns the backend identifier, or 0 before Run succeeds.
	Pid() int
	// State returns the lifecycle state.
	State() State
}

// With calls fn with t and always closes t afterwards, including when fn panics.
// An error from Close is joined to the error returned by fn.
func With(ctx context.Context, t Task, fn func(context.Context, Task) error) (err error) {
	defer func() {
		if cerr := t.Close(ctx); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	return fn(ctx, t)
}
