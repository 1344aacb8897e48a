// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package local

// Element is the outcome record of one script in the batch.
type Element struct {
	Index    int    // Position in the batch
	Script   string // Absolute script path
	Log      string // Combined output log path
	Started  bool   // Whether a child process was started
	Done     bool   // Whether the child exited or failed to start
	ExitCode int    // Exit code, -1 when killed by a signal or never run
	Err      error  // Start error, if any
}
