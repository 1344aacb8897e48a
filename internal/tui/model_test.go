// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"errors"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/batchtask/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementStatus_String(t *testing.T) {
	tests := []struct {
		status ElementStatus
		want   string
		done   bool
	}{
		{status: StatusPending, want: "pending"},
		{status: StatusRunning, want: "running"},
		{status: StatusSuccess, want: "success", done: true},
		{status: StatusFailed, want: "failed", done: true},
		{status: StatusSkipped, want: "skipped", done: true},
		{status: ElementStatus(99), want: "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.status.String())
			assert.Equal(t, tc.done, tc.status.Done())
		})
	}
}

func TestElement_UpdateStatus(t *testing.T) {
	e := &Element{}
	start := time.Now()

	e.UpdateStatus(StatusRunning, start)
	require.NotNil(t, e.StartTime)
	assert.Nil(t, e.EndTime)

	e.UpdateStatus(StatusRunning, start.Add(time.Second))
	assert.Equal(t, start, *e.StartTime, "start time is recorded once")

	e.UpdateStatus(StatusSuccess, start.Add(2*time.Second))
	require.NotNil(t, e.EndTime)
	assert.Equal(t, 2*time.Second, e.Elapsed(time.Now()))
}

func TestNewModel(t *testing.T) {
	m := NewModel("demo", []string{"/w/a.sh", "/w/b.sh"})

	require.Len(t, m.Elements(), 2)
	assert.Equal(t, "a.sh", m.Elements()[0].Name)
	assert.Equal(t, StatusPending, m.Elements()[1].Status)
	assert.InDelta(t, 0.0, m.Fraction(), 0.0001)
	assert.False(t, m.Completed())
	assert.NotNil(t, m.Init())
}

func TestModel_ProgressEvents(t *testing.T) {
	m := NewModel("demo", []string{"/w/a.sh", "/w/b.sh", "/w/c.sh", "/w/d.sh"})
	now := time.Now()

	events := []progress.Event{
		{Index: 0, Type: progress.EventStarted, Timestamp: now, Data: progress.EventData{LogPath: "/w/a.log"}},
		{Index: 1, Type: progress.EventStarted, Timestamp: now},
		{Index: 0, Type: progress.EventCompleted, Timestamp: now.Add(time.Second)},
		{Index: 1, Type: progress.EventFailed, Timestamp: now.Add(time.Second), Data: progress.EventData{ExitCode: 2}},
		{Index: 2, Type: progress.EventSkipped},
		{Index: 42, Type: progress.EventStarted},
	}

	for _, ev := range events {
		_, cmd := m.Update(ProgressEventMsg{Event: ev})
		assert.Nil(t, cmd)
	}

	els := m.Elements()
	assert.Equal(t, StatusSuccess, els[0].Status)
	assert.Equal(t, "/w/a.log", els[0].Log)
	assert.Equal(t, StatusFailed, els[1].Status)
	assert.Equal(t, 2, els[1].ExitCode)
	assert.Equal(t, StatusSkipped, els[2].Status)
	assert.Equal(t, StatusPending, els[3].Status)

	counts := m.Counts()
	assert.Equal(t, 1, counts[StatusSuccess])
	assert.Equal(t, 1, counts[StatusFailed])
	assert.Equal(t, 1, counts[StatusSkipped])
	assert.Equal(t, 1, counts[StatusPending])
	assert.InDelta(t, 0.75, m.Fraction(), 0.0001)

	view := m.View()
	assert.Contains(t, view, "a.sh")
	assert.Contains(t, view, "exit 2")
	assert.Contains(t, view, "demo")
}

func TestModel_FailedStartShowsError(t *testing.T) {
	m := NewModel("demo", []string{"/w/a.sh"})
	m.Update(ProgressEventMsg{Event: progress.Event{
		Index: 0,
		Type:  progress.EventFailed,
		Data:  progress.EventData{ExitCode: -1, Error: errors.New("permission denied")},
	}})

	assert.Equal(t, "permission denied", m.Elements()[0].ErrorMsg)
	assert.Contains(t, m.View(), "permission denied")
}

func TestModel_BatchDone(t *testing.T) {
	m := NewModel("demo", []string{"/w/a.sh"})

	m.Update(BatchDoneMsg{})
	assert.True(t, m.Completed())
	require.NoError(t, m.Err())
	assert.Contains(t, m.View(), "batch complete")

	boom := errors.New("boom")
	m.Update(BatchDoneMsg{Err: boom})
	require.ErrorIs(t, m.Err(), boom)
	assert.Contains(t, m.View(), "batch ended: boom")
}

func TestModel_WindowSize(t *testing.T) {
	m := NewModel("demo", []string{"/w/a.sh"})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, 118, m.viewport.Width)
	assert.Equal(t, 31, m.viewport.Height)
}

func TestModel_Quit(t *testing.T) {
	m := NewModel("demo", []string{"/w/a.sh"})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "Shutting down...\n", m.View())
}

func TestReporter_ClosedDropsEvents(t *testing.T) {
	r := NewReporter(nil)
	r.Report(progress.Event{Type: progress.EventStarted})
	r.Close()
	r.Report(progress.Event{Type: progress.EventStarted})
}

func TestModel_LateStartDoesNotReopen(t *testing.T) {
	m := NewModel("demo", []string{"/w/a.sh", "/w/b.sh"})
	now := time.Now()

	m.Update(ProgressEventMsg{Event: progress.Event{Index: 0, Type: progress.EventCompleted, Timestamp: now}})
	m.Update(ProgressEventMsg{Event: progress.Event{Index: 0, Type: progress.EventStarted, Timestamp: now}})

	assert.Equal(t, StatusSuccess, m.Elements()[0].Status)
	assert.InDelta(t, 0.5, m.Fraction(), 0.0001)
}

// recorder is a model that records the order of element events and quits after want of them.
type recorder struct {
	want int
	got  []int
}

func (r *recorder) Init() tea.Cmd { return nil }

func (r *recorder) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ev, ok := msg.(ProgressEventMsg); ok {
		r.got = append(r.got, ev.Event.Index)
		if len(r.got) == r.want {
			return r, tea.Quit
		}
	}

	return r, nil
}

func (r *recorder) View() string { return "" }

func TestReporter_DeliversInOrder(t *testing.T) {
	const n = 100

	rec := &recorder{want: n}
	program := tea.NewProgram(rec,
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
	r := NewReporter(program)

	go func() {
		for i := range n {
			r.Report(progress.Event{Index: i, Type: progress.EventStarted})
		}
	}()

	_, err := program.Run()
	require.NoError(t, err)
	r.Close()

	want := make([]int, n)
	for i := range want {
		want[i] = i
	}

	assert.Equal(t, want, rec.got)
}
