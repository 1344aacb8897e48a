// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package task

import "fmt"

// StatusRunning is the Status value reported while a unit is known to be running.
const StatusRunning = "Running"

// Status is a point-in-time snapshot of a running unit.
// The zero value means the unit is not currently queryable: finished, purged or unknown.
type Status struct {
	JobNumber int    `json:"job_number,omitempty" yaml:"job_number,omitempty"`
	Status    string `json:"status,omitempty"     yaml:"status,omitempty"`
}

// IsEmpty reports whether s is the zero Status.
func (s Status) IsEmpty() bool {
	return s == Status{}
}

// String renders the snapshot for humans.
func (s Status) String() string {
	if s.IsEmpty() {
		return "not running"
	}

	return fmt.Sprintf("job %d: %s", s.JobNumber, s.Status)
}
