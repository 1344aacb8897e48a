// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrUnknownFormat is returned for a definition file with an unsupported extension.
	ErrUnknownFormat = errors.New("unknown definition format, expected .yaml, .yml or .hcl")
	// ErrParse is returned when a definition cannot be decoded.
	ErrParse = errors.New("failed to parse batch definition")
	// ErrRead is returned when a definition file cannot be read.
	ErrRead = errors.New("failed to read batch definition")
	// ErrInvalid is returned when a definition fails validation.
	ErrInvalid = errors.New("invalid batch definition")
	// ErrMissingField is returned for a required field that is not set.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidValue is returned for a field with an unusable value.
	ErrInvalidValue = errors.New("invalid value")
)

// Parse decodes a definition, choosing the syntax by the extension of filename.
// It neither validates nor resolves paths.
func Parse(filename string, data []byte) (*Definition, error) {
	def := &Definition{}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalWithOptions(data, def, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParse, filename, err)
		}
	case ".hcl":
		if err := hclsimple.Decode(filename, data, evalContext(), def); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParse, filename, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, filename)
	}

	return def, nil
}

// Load reads, parses and validates the definition at path using FsFactory,
// then resolves the directory and scripts against the directory holding path.
func Load(path string) (*Definition, error) {
	data, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return nil, errors.Join(ErrRead, err)
	}

	def, err := Parse(path, data)
	if err != nil {
		return nil, err
	}

	if err := def.Validate(); err != nil {
		return nil, errors.Join(ErrInvalid, err)
	}

	def.Resolve(filepath.Dir(path))

	return def, nil
}

// Resolve makes relative paths absolute against base.
// An empty directory becomes base.
func (d *Definition) Resolve(base string) {
	d.Directory = resolve(base, d.Directory)

	for i, s := range d.Scripts {
		d.Scripts[i] = resolve(base, s)
	}
}

func resolve(base, p string) string {
	if p == "" {
		return filepath.Clean(base)
	}

	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}

	return filepath.Join(base, p)
}

// evalContext exposes the process environment to HCL expressions as env.NAME.
func evalContext() *hcl.EvalContext {
	vars := map[string]cty.Value{}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}

		vars[k] = cty.StringVal(v)
	}

	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}
