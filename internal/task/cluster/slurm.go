// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cluster

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// SlurmBackend is the platform name of the Slurm scheduler.
	SlurmBackend = "slurm"

	slurmDirective = "#SBATCH"
	slurmArrayVar  = "SLURM_ARRAY_TASK_ID"
	hoursPerDay    = 24
)

var _ Scheduler = Slurm{}

// Slurm drives sbatch, squeue and scancel.
type Slurm struct{}

// Name implements Scheduler.
func (Slurm) Name() string { return SlurmBackend }

// ArrayIndexVar implements Scheduler.
func (Slurm) ArrayIndexVar() string { return slurmArrayVar }

// SubmitArgs implements Scheduler.
func (Slurm) SubmitArgs(runscript string) []string {
	return []string{"sbatch", runscript}
}

// QueryArgs implements Scheduler.
func (Slurm) QueryArgs(jobID int) []string {
	return []string{"squeue", "-h", "-j", strconv.Itoa(jobID)}
}

// CancelArgs implements Scheduler.
func (Slurm) CancelArgs(jobID int) []string {
	return []string{"scancel", strconv.Itoa(jobID)}
}

// Running implements Scheduler. Array elements are listed as "<id>_<index>" or "<id>_[range]".
func (Slurm) Running(jobID int, stdout string) bool {
	id := strconv.Itoa(jobID)

	for _, line := range strings.Split(stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		first := fields[0]
		if first == id || strings.HasPrefix(first, id+"_") {
			return true
		}
	}

	return false
}

// Directives implements Scheduler.
func (Slurm) Directives(d DirectiveSet) []string {
	var opts []string

	if d.Export {
		opts = append(opts, "--export=ALL")
	}

	if d.Name != "" {
		opts = append(opts, "--job-name="+d.Name)
	}

	if len(d.Dependency) > 0 {
		ids := make([]string, len(d.Dependency))
		for i, dep := range d.Dependency {
			ids[i] = strconv.Itoa(dep)
		}

		opts = append(opts, "--dependency=afterok:"+strings.Join(ids, ":"))
	}

	if d.Queue != "" {
		opts = append(opts, "-p "+d.Queue)
	}

	if d.Processes > 0 {
		opts = append(opts, "-n "+strconv.Itoa(d.Processes))
	}

	if d.Directory != "" {
		opts = append(opts, "--chdir="+d.Directory)
	}

	if d.Runtime > 0 {
		opts = append(opts, "--time="+slurmTime(d.Runtime))
	}

	if d.Priority != nil {
		opts = append(opts, "--nice="+strconv.Itoa(*d.Priority))
	}

	if d.Array != nil {
		opts = append(opts, fmt.Sprintf("--array=%d-%d%%%d", d.Array.Lower, d.Array.Upper, d.Array.Cap))
	}

	if d.Output != "" {
		opts = append(opts, "-o "+d.Output)
	}

	var lines []string
	for _, o := range opts {
		lines = append(lines, slurmDirective+" "+o)
	}

	return lines
}

// slurmTime renders d as [days-]hours:minutes:seconds, rounding up to whole seconds.
func slurmTime(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	days := secs / (hoursPerDay * 3600)
	secs -= days * hoursPerDay * 3600
	h, m, s := secs/3600, (secs%3600)/60, secs%60

	if days > 0 {
		return fmt.Sprintf("%d-%02d:%02d:%02d", days, h, m, s)
	}

	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
