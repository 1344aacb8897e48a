// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cexec runs external commands and captures their output.
// Backends depend on the Runner interface so tests can substitute RunnerFunc for a real process.
package cexec
