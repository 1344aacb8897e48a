// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cluster

import "time"

// ArrayBounds is a 1-based inclusive job array range with a concurrency cap.
type ArrayBounds struct {
	Lower int
	Upper int
	Cap   int
}

// DirectiveSet holds the submission options rendered into a runscript header.
// Zero-valued fields are omitted.
type DirectiveSet struct {
	Export     bool          // Propagate the submitting environment
	Name       string        // Job name
	Dependency []int         // Jobs that must complete successfully first
	Queue      string        // Queue or partition
	Processes  int           // Number of processes
	Directory  string        // Working directory of the job
	Runtime    time.Duration // Wall clock limit
	Priority   *int          // Scheduling priority adjustment
	Array      *ArrayBounds  // Present only for batches of two or more scripts
	Output     string        // Scheduler output log
}
