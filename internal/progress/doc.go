// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries per-element progress events from a running batch to a listener,
// typically the terminal UI. Reporting never blocks the executor.
package progress
