// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package task defines the lifecycle shared by every batch backend.
//
// A Task is created idle, holding only configuration. Run dispatches the batch and assigns a pid,
// which is the owning OS process id for the local backend and the scheduler job number for a
// cluster backend. Wait blocks until the backend reports completion, Kill cancels, and Close waits
// and then releases backend resources exactly once. Info is a non-blocking status snapshot that
// is empty whenever the backend cannot be queried.
//
// Backends embed Lifecycle to get the state machine and once-only release. Use With to scope a
// task so that Close always runs.
package task
