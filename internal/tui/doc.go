// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a terminal monitor for a running batch. It shows one row per
// element with its status and elapsed time, an overall progress bar, and counts of
// running, succeeded and failed elements. Rows are driven by progress events.
package tui
