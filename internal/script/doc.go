// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package script models an executable script on disk: a shebang, ordered lines and a path.
//
// It also owns the log path rule shared by every backend. LogPath applies the rule in Go and
// LogPathShell renders the same rule as a POSIX shell assignment for scripts that must derive
// a log path at run time.
package script
