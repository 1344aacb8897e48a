// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cluster submits a batch of scripts to a batch scheduler as a single unit,
// driving the scheduler only through its submit, query and cancel commands.
//
// A single script is submitted directly. Two or more scripts become a job array: the
// script paths are written, one per line, to an index file next to the generated
// runscript, and each array element looks up its own line by the scheduler's array
// index variable at run time:
//
//	script=$(awk "NR==$SLURM_ARRAY_TASK_ID" '/work/slurm_01J...jobs')
//	log="$(dirname "$script")/$(basename "$script" | sed 's/\.[^.]*$//').log"
//	"$script" > "$log" 2>&1
//
// Scheduler dialects implement Scheduler; Slurm is provided.
package cluster
