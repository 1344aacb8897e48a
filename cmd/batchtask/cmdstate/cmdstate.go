// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdstate carries the platform registry and backend collaborators from main to the subcommands.
package cmdstate

import (
	"context"

	"github.com/matt-FFFFFF/batchtask/internal/taskfactory"
)

type registryKey struct{}

type depsKey struct{}

// WithRegistry returns a context carrying r.
func WithRegistry(ctx context.Context, r taskfactory.Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, r)
}

// Registry returns the registry on ctx, or taskfactory.DefaultRegistry.
func Registry(ctx context.Context) taskfactory.Registry {
	if r, ok := ctx.Value(registryKey{}).(taskfactory.Registry); ok {
		return r
	}

	return taskfactory.DefaultRegistry
}

// WithDeps returns a context carrying deps.
func WithDeps(ctx context.Context, deps taskfactory.Deps) context.Context {
	return context.WithValue(ctx, depsKey{}, deps)
}

// Deps returns the collaborators on ctx, or the zero Deps.
func Deps(ctx context.Context) taskfactory.Deps {
	deps, _ := ctx.Value(depsKey{}).(taskfactory.Deps)
	return deps
}
