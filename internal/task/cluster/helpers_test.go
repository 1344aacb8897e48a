// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cluster

import (
	"context"
	"sync"

	"github.com/matt-FFFFFF/batchtask/internal/cexec"
)

// fakeScheduler records every command and answers by command name.
type fakeScheduler struct {
	mu      sync.Mutex
	calls   [][]string
	dirs    []string
	respond map[string]func(args []string) (string, error)
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{respond: map[string]func([]string) (string, error){}}
}

func (f *fakeScheduler) on(cmd string, fn func(args []string) (string, error)) *fakeScheduler {
	f.respond[cmd] = fn
	return f
}

func (f *fakeScheduler) runner() cexec.Runner {
	return cexec.RunnerFunc(func(_ context.Context, dir string, args ...string) (string, error) {
		f.mu.Lock()
		f.calls = append(f.calls, args)
		f.dirs = append(f.dirs, dir)
		fn := f.respond[args[0]]
		f.mu.Unlock()

		if fn == nil {
			return "", &cexec.ExitError{Args: args, ExitCode: 127, Stderr: "command not found"}
		}

		return fn(args)
	})
}

func (f *fakeScheduler) count(cmd string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0

	for _, c := range f.calls {
		if c[0] == cmd {
			n++
		}
	}

	return n
}

func submitted(id string) func([]string) (string, error) {
	return func([]string) (string, error) { return "Submitted batch job " + id + "\n", nil }
}

func failing(code int, stderr string) func([]string) (string, error) {
	return func(args []string) (string, error) {
		return "", &cexec.ExitError{Args: args, ExitCode: code, Stderr: stderr}
	}
}
