// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog provides a context-aware logger for batch tasks.
// The logger travels on the context.Context handed to every task operation,
// so backends never resolve a logger globally.
//
// The default is a pretty console handler writing to stderr, keeping stdout free for command output.
package ctxlog
