// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/batchtask/internal/ctxlog"
)

// Watch monitors the signal channel until it is closed or ctx is done.
// The first signal of a given type calls onFirst (if not nil); the second of the same type cancels.
func Watch(ctx context.Context, sigCh <-chan os.Signal, onFirst func(os.Signal), cancel context.CancelFunc) {
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				ctxlog.Info(ctx, "watchdog", "detail", "received second signal of type, cancelling", "signal", sig.String())
				cancel()

				return
			}

			seen[sig] = struct{}{}

			ctxlog.Info(ctx, "watchdog", "detail", "received first signal of type, stopping batch", "signal", sig.String())

			if onFirst != nil {
				onFirst(sig)
			}
		}
	}
}
