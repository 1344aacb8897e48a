// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package script

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LogExt is the extension substituted for a script's extension to form its log path.
const LogExt = ".log"

// LogPath returns the log file for a script: the extension of the final path element
// is replaced by LogExt, or LogExt is appended when there is no extension.
func LogPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + LogExt
}

// LogPathShell returns a shell statement assigning to logVar the LogPath of the path held in scriptVar.
// Keep it in step with LogPath.
func LogPathShell(logVar, scriptVar string) string {
	return fmt.Sprintf(
		`%s="$(dirname "$%s")/$(basename "$%s" | sed 's/\.[^.]*$//')%s"`,
		logVar, scriptVar, scriptVar, LogExt,
	)
}
