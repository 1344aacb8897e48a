// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cluster

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matt-FFFFFF/batchtask/internal/task"
)

// ParseJobID returns the job number printed by a submit command: the last whitespace-separated token of stdout.
func ParseJobID(stdout string) (int, error) {
	fields := strings.Fields(stdout)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: no job id in submit output", task.ErrSubmission)
	}

	last := fields[len(fields)-1]

	id, err := strconv.Atoi(last)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: cannot parse job id from %q", task.ErrSubmission, last)
	}

	return id, nil
}
