// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Definition describes one batch.
type Definition struct {
	Platform     string            `yaml:"platform"                 hcl:"platform"`
	Name         string            `yaml:"name,omitempty"           hcl:"name,optional"`
	Scripts      []string          `yaml:"scripts"                  hcl:"scripts"`
	Directory    string            `yaml:"directory,omitempty"      hcl:"directory,optional"`
	Processes    int               `yaml:"processes,omitempty"      hcl:"processes,optional"`
	Queue        string            `yaml:"queue,omitempty"          hcl:"queue,optional"`
	Dependency   []int             `yaml:"dependency,omitempty"     hcl:"dependency,optional"`
	MaxArraySize int               `yaml:"max_array_size,omitempty" hcl:"max_array_size,optional"`
	Runtime      string            `yaml:"runtime,omitempty"        hcl:"runtime,optional"`
	Priority     *int              `yaml:"priority,omitempty"       hcl:"priority,optional"`
	Env          map[string]string `yaml:"env,omitempty"            hcl:"env,optional"`
	PollInterval string            `yaml:"poll_interval,omitempty"  hcl:"poll_interval,optional"`
}

// Validate reports every problem with the definition.
func (d *Definition) Validate() error {
	var result error

	if d.Platform == "" {
		result = multierror.Append(result, fmt.Errorf("%w: platform", ErrMissingField))
	}

	if len(d.Scripts) == 0 {
		result = multierror.Append(result, fmt.Errorf("%w: scripts", ErrMissingField))
	}

	for i, s := range d.Scripts {
		if s == "" {
			result = multierror.Append(result, fmt.Errorf("%w: scripts[%d] is empty", ErrInvalidValue, i))
		}
	}

	if d.Processes < 0 {
		result = multierror.Append(result, fmt.Errorf("%w: processes must not be negative", ErrInvalidValue))
	}

	if d.MaxArraySize < 0 {
		result = multierror.Append(result, fmt.Errorf("%w: max_array_size must not be negative", ErrInvalidValue))
	}

	for i, dep := range d.Dependency {
		if dep <= 0 {
			result = multierror.Append(result, fmt.Errorf("%w: dependency[%d] must be a positive job id", ErrInvalidValue, i))
		}
	}

	if _, err := parseDuration(d.Runtime); err != nil {
		result = multierror.Append(result, fmt.Errorf("%w: runtime: %w", ErrInvalidValue, err))
	}

	if _, err := parseDuration(d.PollInterval); err != nil {
		result = multierror.Append(result, fmt.Errorf("%w: poll_interval: %w", ErrInvalidValue, err))
	}

	return result
}

// RuntimeDuration returns the parsed runtime, 0 when unset or invalid.
func (d *Definition) RuntimeDuration() time.Duration {
	v, _ := parseDuration(d.Runtime)
	return v
}

// PollIntervalDuration returns the parsed poll interval, 0 when unset or invalid.
func (d *Definition) PollIntervalDuration() time.Duration {
	v, _ := parseDuration(d.PollInterval)
	return v
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, err //nolint:wrapcheck
	}

	if v < 0 {
		return 0, fmt.Errorf("negative duration %s", s) //nolint:err113
	}

	return v, nil
}
