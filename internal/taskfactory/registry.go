// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package taskfactory

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/matt-FFFFFF/batchtask/internal/cexec"
	"github.com/matt-FFFFFF/batchtask/internal/config"
	"github.com/matt-FFFFFF/batchtask/internal/progress"
	"github.com/matt-FFFFFF/batchtask/internal/task"
	"github.com/spf13/afero"
)

var (
	// ErrUnknownPlatform is returned when a platform is not registered.
	ErrUnknownPlatform = errors.New("unknown platform")
	// ErrAttachUnsupported is returned when a platform cannot bind to an existing job.
	ErrAttachUnsupported = errors.New("platform does not support attaching to a job")
	// ErrTaskCreation is returned when a backend rejects its configuration.
	ErrTaskCreation = errors.New("failed to create task")
)

// Deps are the collaborators handed to every backend. Zero fields take backend defaults.
type Deps struct {
	Fs       afero.Fs
	Runner   cexec.Runner
	Reporter progress.Reporter
}

// Platform describes one backend.
type Platform struct {
	Name        string
	Description string
	New         func(def *config.Definition, deps Deps) (task.Task, error)
	Attach      func(jobID int, deps Deps) (task.Task, error) // nil when the backend has no job ids
}

// Registry holds the mapping between platform names and backends.
type Registry map[string]Platform

// DefaultRegistry holds every built-in platform.
var DefaultRegistry = New(Local(), Slurm())

// New returns a registry holding platforms.
func New(platforms ...Platform) Registry {
	r := make(Registry, len(platforms))
	for _, p := range platforms {
		r.Register(p)
	}

	return r
}

// Register adds or replaces a platform. Names are case-insensitive.
func (r Registry) Register(p Platform) {
	r[strings.ToLower(p.Name)] = p
}

// Names returns the registered platform names in order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}

	slices.Sort(names)

	return names
}

// Lookup returns the platform registered under name.
func (r Registry) Lookup(name string) (Platform, error) {
	p, ok := r[strings.ToLower(name)]
	if !ok {
		return Platform{}, fmt.Errorf("%w: %q, known platforms are %s", ErrUnknownPlatform, name, strings.Join(r.Names(), ", "))
	}

	return p, nil
}

// Create builds an idle task for def on the platform it names.
func (r Registry) Create(def *config.Definition, deps Deps) (task.Task, error) {
	p, err := r.Lookup(def.Platform)
	if err != nil {
		return nil, err
	}

	t, err := p.New(def, deps)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTaskCreation, p.Name, err)
	}

	return t, nil
}

// Attach binds a running task to an existing job on the named platform.
func (r Registry) Attach(name string, jobID int, deps Deps) (task.Task, error) {
	p, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}

	if p.Attach == nil {
		return nil, fmt.Errorf("%w: %s", ErrAttachUnsupported, p.Name)
	}

	t, err := p.Attach(jobID, deps)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTaskCreation, p.Name, err)
	}

	return t, nil
}
