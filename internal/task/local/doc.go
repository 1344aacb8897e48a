// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package local runs a batch of scripts as child processes of the current process,
// at most Processes at a time, in batch order.
//
// Each script writes its combined stdout and stderr to script.LogPath of its path.
// A failing script never stops its siblings; exit codes are available from Elements.
// Kill sends SIGKILL to every running child and stops dispatch without waiting.
package local
