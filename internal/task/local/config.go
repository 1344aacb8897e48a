// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package local

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/matt-FFFFFF/batchtask/internal/progress"
	"github.com/matt-FFFFFF/batchtask/internal/task"
)

// Backend is the platform name of the local backend.
const Backend = "local"

// Config describes a local batch.
type Config struct {
	Name      string            // Label used in logs and progress events
	Scripts   []string          // Executable script paths, in dispatch order
	Processes int               // Maximum concurrent children, 0 means runtime.NumCPU()
	Directory string            // Working directory of the children, empty for the current directory
	Env       map[string]string // Added to the inherited environment of every child
	Reporter  progress.Reporter // Receives per-element events, may be nil
}

// normalise validates c and resolves defaults: worker count and absolute script paths.
func (c Config) normalise() (Config, error) {
	if len(c.Scripts) == 0 {
		return c, task.ErrEmptyBatch
	}

	if c.Processes < 0 {
		return c, fmt.Errorf("%w: processes must not be negative, got %d", task.ErrInvalidConfig, c.Processes)
	}

	if c.Processes == 0 {
		c.Processes = runtime.NumCPU()
	}

	if c.Name == "" {
		c.Name = Backend
	}

	if c.Reporter == nil {
		c.Reporter = progress.NewNullReporter()
	}

	scripts := make([]string, len(c.Scripts))

	for i, s := range c.Scripts {
		if s == "" {
			return c, fmt.Errorf("%w: script %d has an empty path", task.ErrInvalidConfig, i)
		}

		abs, err := filepath.Abs(s)
		if err != nil {
			return c, fmt.Errorf("%w: script %d: %w", task.ErrInvalidConfig, i, err)
		}

		scripts[i] = abs
	}

	c.Scripts = scripts

	return c, nil
}
