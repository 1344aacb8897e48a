// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"path/filepath"
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/batchtask/internal/progress"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	barWidth      = 40
)

// ElementStatus represents the current state of an element in the TUI.
type ElementStatus int

const (
	// StatusPending is an element not yet started.
	StatusPending ElementStatus = iota
	// StatusRunning is an element whose process is alive.
	StatusRunning
	// StatusSuccess is an element that exited zero.
	StatusSuccess
	// StatusFailed is an element that exited non-zero or could not start.
	StatusFailed
	// StatusSkipped is an element never started because the batch was killed.
	StatusSkipped
)

// String returns a string representation of the element status.
func (s ElementStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Done reports whether the element will receive no further updates.
func (s ElementStatus) Done() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusSkipped
}

// Element is one row of the monitor.
type Element struct {
	Index     int
	Name      string
	Log       string
	Status    ElementStatus
	StartTime *time.Time
	EndTime   *time.Time
	ExitCode  int
	ErrorMsg  string
}

// UpdateStatus sets the status, recording start and end times on first transition.
func (e *Element) UpdateStatus(status ElementStatus, at time.Time) {
	e.Status = status

	switch {
	case status == StatusRunning:
		if e.StartTime == nil {
			e.StartTime = &at
		}
	case status.Done():
		if e.EndTime == nil {
			e.EndTime = &at
		}
	}
}

// Elapsed returns the running time, or 0 before start.
func (e *Element) Elapsed(now time.Time) time.Duration {
	if e.StartTime == nil {
		return 0
	}

	if e.EndTime != nil {
		return e.EndTime.Sub(*e.StartTime)
	}

	return now.Sub(*e.StartTime)
}

// Model represents the TUI application state.
type Model struct {
	title     string
	elements  []*Element
	width     int
	height    int
	quitting  bool
	completed bool
	err       error

	spinner  spinner.Model
	bar      bprogress.Model
	viewport viewport.Model
	styles   *Styles
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title   lipgloss.Style
	Pending lipgloss.Style
	Running lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Skipped lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
	Border  lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Skipped: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Strikethrough(true),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
	}
}

// NewModel creates a model with one pending row per script.
func NewModel(title string, scripts []string) *Model {
	elements := make([]*Element, len(scripts))
	for i, s := range scripts {
		elements[i] = &Element{Index: i, Name: filepath.Base(s), ExitCode: -1}
	}

	m := &Model{
		title:    title,
		elements: elements,
		width:    defaultWidth,
		height:   defaultHeight,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:      bprogress.New(bprogress.WithDefaultGradient(), bprogress.WithWidth(barWidth)),
		styles:   NewStyles(),
	}
	m.viewport = viewport.New(m.width, m.viewportHeight())

	return m
}

// Elements returns the rows in batch order.
func (m *Model) Elements() []*Element {
	return m.elements
}

// Counts returns the number of elements in each status.
func (m *Model) Counts() map[ElementStatus]int {
	c := make(map[ElementStatus]int, len(m.elements))
	for _, e := range m.elements {
		c[e.Status]++
	}

	return c
}

// Fraction returns the share of elements that are done.
func (m *Model) Fraction() float64 {
	if len(m.elements) == 0 {
		return 1
	}

	done := 0

	for _, e := range m.elements {
		if e.Status.Done() {
			done++
		}
	}

	return float64(done) / float64(len(m.elements))
}

// Completed reports whether the batch has ended.
func (m *Model) Completed() bool {
	return m.completed
}

// Err returns the error the batch ended with, if any.
func (m *Model) Err() error {
	return m.err
}

// viewportHeight reserves space for title, bar, border, status bar and help.
func (m *Model) viewportHeight() int {
	const reservedLines = 9
	if m.height <= reservedLines {
		return 1
	}

	return m.height - reservedLines
}

// processProgressEvent applies an event to its row. Events for unknown indices are ignored.
func (m *Model) processProgressEvent(event progress.Event) {
	if event.Index < 0 || event.Index >= len(m.elements) {
		return
	}

	e := m.elements[event.Index]

	// A late start must not reopen a finished element.
	if event.Type == progress.EventStarted && e.Status.Done() {
		return
	}

	at := event.Timestamp

	if at.IsZero() {
		at = time.Now()
	}

	if event.Data.LogPath != "" {
		e.Log = event.Data.LogPath
	}

	switch event.Type {
	case progress.EventStarted:
		e.UpdateStatus(StatusRunning, at)
	case progress.EventCompleted:
		e.ExitCode = event.Data.ExitCode
		e.UpdateStatus(StatusSuccess, at)
	case progress.EventFailed:
		e.ExitCode = event.Data.ExitCode
		if event.Data.Error != nil {
			e.ErrorMsg = event.Data.Error.Error()
		}

		e.UpdateStatus(StatusFailed, at)
	case progress.EventSkipped:
		e.UpdateStatus(StatusSkipped, at)
	}
}
