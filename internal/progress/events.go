// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is a point-in-time update about one element of a batch.
type Event struct {
	Batch     string    // Batch label, e.g. the task name
	Index     int       // Zero-based position of the element in the batch
	Script    string    // Script path of the element
	Type      EventType // What happened
	Message   string    // Human-readable status message
	Timestamp time.Time // When the event occurred
	Data      EventData // Type-specific data
}

// EventType represents the type of progress event.
type EventType int

const (
	// EventStarted indicates an element has begun execution.
	EventStarted EventType = iota
	// EventCompleted indicates an element exited with status zero.
	EventCompleted
	// EventFailed indicates an element exited non-zero or could not be started.
	EventFailed
	// EventSkipped indicates an element was never started because the batch was killed.
	EventSkipped
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "started"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further events follow for the element.
func (et EventType) Terminal() bool {
	return et == EventCompleted || et == EventFailed || et == EventSkipped
}

// EventData contains type-specific data for events.
type EventData struct {
	// For EventCompleted/EventFailed
	ExitCode int   // Process exit code, -1 when killed by a signal
	Error    error // Error if the element could not be run
	LogPath  string
}

// Reporter receives progress events.
type Reporter interface {
	// Report sends a progress event. Implementations must not block.
	Report(event Event)
	// Close signals that no more events will be sent and cleans up resources.
	Close()
}

// Listener consumes progress events.
type Listener interface {
	// OnEvent is called for each event, in order, from a single goroutine.
	OnEvent(event Event)
}

// NullReporter discards every event.
type NullReporter struct{}

// Report implements Reporter.
func (nr *NullReporter) Report(_ Event) {}

// Close implements Reporter.
func (nr *NullReporter) Close() {}

// NewNullReporter returns a Reporter that discards events.
func NewNullReporter() Reporter {
	return &NullReporter{}
}
