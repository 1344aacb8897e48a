// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads batch definition files.
//
// A definition is YAML (.yaml, .yml) or HCL (.hcl). HCL expressions may read the
// environment through the env object, e.g. directory = "${env.SCRATCH}/run".
// Relative paths are resolved against the directory holding the definition.
package config
