// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color wraps strings in ANSI escape codes for log and status output.
// Colour is enabled when stderr is a terminal, unless NO_COLOR is set; FORCE_COLOR
// enables it for non-terminals.
package color
