// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cluster

// Scheduler is the command-line dialect of a batch scheduler.
type Scheduler interface {
	// Name is the platform name, also used as the runscript prefix.
	Name() string
	// ArrayIndexVar is the environment variable holding the 1-based array element index.
	ArrayIndexVar() string
	// Directives renders d as runscript header lines, in a stable order.
	Directives(d DirectiveSet) []string
	// SubmitArgs is the argv submitting runscript.
	SubmitArgs(runscript string) []string
	// QueryArgs is the argv querying jobID.
	QueryArgs(jobID int) []string
	// CancelArgs is the argv cancelling jobID.
	CancelArgs(jobID int) []string
	// Running reports whether the query output lists jobID.
	Running(jobID int, stdout string) bool
}
