// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"sync"
	"sync/atomic"
)

var _ Reporter = (*ChannelReporter)(nil)

// ChannelReporter delivers events through a buffered channel.
// When the buffer is full the event is dropped and counted.
type ChannelReporter struct {
	ctx       context.Context //nolint:containedctx
	events    chan Event
	mu        sync.RWMutex
	closed    bool
	dropped   atomic.Int64
	listeners sync.WaitGroup
}

// NewChannelReporter creates a reporter with the given buffer size.
func NewChannelReporter(ctx context.Context, bufferSize int) *ChannelReporter {
	return &ChannelReporter{
		ctx:    ctx,
		events: make(chan Event, bufferSize),
	}
}

// Report implements Reporter.
func (r *ChannelReporter) Report(event Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	select {
	case r.events <- event:
	default:
		r.dropped.Add(1)
	}
}

// Events returns the channel events are delivered on. It is closed by Close.
// Use either Events or Listen, not both.
func (r *ChannelReporter) Events() <-chan Event {
	return r.events
}

// Dropped returns the number of events discarded because the buffer was full.
func (r *ChannelReporter) Dropped() int64 {
	return r.dropped.Load()
}

// Listen forwards events to l on a new goroutine until the reporter is closed or its context is done.
func (r *ChannelReporter) Listen(l Listener) {
	r.listeners.Add(1)

	go func() {
		defer r.listeners.Done()

		for {
			select {
			case ev, ok := <-r.events:
				if !ok {
					return
				}

				l.OnEvent(ev)
			case <-r.ctx.Done():
				return
			}
		}
	}()
}

// Close stops delivery and waits for listeners to consume the buffered events. Safe to call more than once.
func (r *ChannelReporter) Close() {
	r.mu.Lock()

	if !r.closed {
		r.closed = true
		close(r.events)
	}

	r.mu.Unlock()
	r.listeners.Wait()
}
