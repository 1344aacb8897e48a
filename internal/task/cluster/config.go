// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cluster

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/matt-FFFFFF/batchtask/internal/cexec"
	"github.com/matt-FFFFFF/batchtask/internal/task"
	"github.com/spf13/afero"
)

const (
	// DefaultName is the job name used when none is configured.
	DefaultName = "batchtask"
	// DefaultPollInterval is the interval between status queries in Wait.
	DefaultPollInterval = 30 * time.Second
)

// Config describes a cluster batch.
type Config struct {
	Name         string        // Job name
	Scripts      []string      // Executable script paths, element i+1 of the array is Scripts[i]
	Directory    string        // Where the runscript is written and the job runs, defaults to "."
	Processes    int           // Processes per job, defaults to 1
	Queue        string        // Queue or partition
	Dependency   []int         // Job ids that must complete successfully first
	MaxArraySize int           // Concurrently running array elements, 0 means all
	Runtime      time.Duration // Wall clock limit, 0 means the scheduler default
	Priority     *int          // Priority adjustment, nil means the scheduler default
	PollInterval time.Duration // Interval between status queries in Wait

	Scheduler Scheduler    // Defaults to Slurm
	Runner    cexec.Runner // Defaults to cexec.OSRunner
	Fs        afero.Fs     // Defaults to the OS filesystem
}

// normalise validates c and fills defaults. Scripts may be empty only when attaching.
func (c Config) normalise(attach bool) (Config, error) {
	if len(c.Scripts) == 0 && !attach {
		return c, task.ErrEmptyBatch
	}

	if c.Processes < 0 {
		return c, fmt.Errorf("%w: processes must not be negative, got %d", task.ErrInvalidConfig, c.Processes)
	}

	if c.MaxArraySize < 0 {
		return c, fmt.Errorf("%w: max array size must not be negative, got %d", task.ErrInvalidConfig, c.MaxArraySize)
	}

	if c.Runtime < 0 {
		return c, fmt.Errorf("%w: runtime must not be negative, got %s", task.ErrInvalidConfig, c.Runtime)
	}

	for _, dep := range c.Dependency {
		if dep <= 0 {
			return c, fmt.Errorf("%w: invalid dependency job id %d", task.ErrInvalidConfig, dep)
		}
	}

	if c.Name == "" {
		c.Name = DefaultName
	}

	if c.Processes == 0 {
		c.Processes = 1
	}

	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}

	if c.Scheduler == nil {
		c.Scheduler = Slurm{}
	}

	if c.Runner == nil {
		c.Runner = &cexec.OSRunner{}
	}

	if c.Fs == nil {
		c.Fs = afero.NewOsFs()
	}

	if c.Directory == "" {
		c.Directory = "."
	}

	dir, err := filepath.Abs(c.Directory)
	if err != nil {
		return c, fmt.Errorf("%w: directory: %w", task.ErrInvalidConfig, err)
	}

	c.Directory = dir

	scripts := make([]string, len(c.Scripts))

	for i, s := range c.Scripts {
		if s == "" {
			return c, fmt.Errorf("%w: script %d has an empty path", task.ErrInvalidConfig, i)
		}

		if scripts[i], err = filepath.Abs(s); err != nil {
			return c, fmt.Errorf("%w: script %d: %w", task.ErrInvalidConfig, i, err)
		}
	}

	c.Scripts = scripts

	if !attach {
		if err := c.checkDirectiveValues(); err != nil {
			return c, err
		}
	}

	return c, nil
}

// checkDirectiveValues rejects whitespace in values written unquoted into directive lines,
// which the scheduler splits on whitespace.
func (c Config) checkDirectiveValues() error {
	values := []struct{ field, v string }{
		{"name", c.Name},
		{"queue", c.Queue},
		{"directory", c.Directory},
	}

	// A single script's log path is the output directive.
	if len(c.Scripts) == 1 {
		values = append(values, struct{ field, v string }{"script", c.Scripts[0]})
	}

	for _, v := range values {
		if strings.ContainsFunc(v.v, unicode.IsSpace) {
			return fmt.Errorf("%w: %s must not contain whitespace, got %q", task.ErrInvalidConfig, v.field, v.v)
		}
	}

	return nil
}
