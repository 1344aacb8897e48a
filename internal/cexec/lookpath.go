// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cexec

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const goosWindows = "windows"

// LookPath resolves name to an executable file.
// Names containing a path separator are checked as given; bare names are searched for in PATH.
func LookPath(name string) (string, error) {
	if name == "" {
		return "", ErrEmptyCommand
	}

	if strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		if isExecutable(name) {
			return name, nil
		}

		return "", fmt.Errorf("%w: %s", ErrCommandNotFound, name)
	}

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			dir = "."
		}

		candidate := filepath.Join(dir, name)
		if runtime.GOOS == goosWindows && filepath.Ext(candidate) == "" {
			candidate += ".exe"
		}

		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrCommandNotFound, name)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	if runtime.GOOS == goosWindows {
		return true
	}

	return info.Mode()&0o111 != 0
}
