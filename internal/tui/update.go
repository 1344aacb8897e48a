// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/batchtask/internal/progress"
)

const (
	minStatusBarAvailableHeight = 10
	durationRounding            = 100 * time.Millisecond
)

// ProgressEventMsg wraps a progress event for the tea framework.
type ProgressEventMsg struct {
	Event progress.Event
}

// BatchDoneMsg indicates that the batch has ended, with the error Wait returned.
type BatchDoneMsg struct {
	Err error
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)

		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-2, 1) //nolint:mnd
		m.viewport.Height = m.viewportHeight()

		return m, nil

	case ProgressEventMsg:
		m.processProgressEvent(msg.Event)
		return m, nil

	case BatchDoneMsg:
		m.completed = true
		m.err = msg.Err

		return m, nil

	case spinner.TickMsg:
		if m.completed {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var content strings.Builder

	now := time.Now()
	for _, e := range m.elements {
		m.renderElement(&content, e, now)
	}

	m.viewport.SetContent(content.String())

	var view strings.Builder

	title := m.styles.Title.Render(m.spinnerGlyph() + " " + m.title)
	view.WriteString(title)
	view.WriteString("\n")
	view.WriteString(m.bar.ViewAs(m.Fraction()))
	view.WriteString("\n")
	view.WriteString(m.styles.Border.Render(m.viewport.View()))

	if m.height > minStatusBarAvailableHeight {
		view.WriteString("\n")
		view.WriteString(m.renderStatusBar())
		view.WriteString("\n")

		helpText := "↑/↓ to scroll, 'q' to quit and kill the batch"
		if m.completed {
			helpText = "↑/↓ to scroll, 'q' to quit"
		}

		view.WriteString(m.styles.Help.Render(helpText))
	}

	return view.String()
}

func (m *Model) spinnerGlyph() string {
	if !m.completed {
		return m.spinner.View()
	}

	if m.err != nil || m.Counts()[StatusFailed] > 0 {
		return m.styles.Failed.Render("✗")
	}

	return m.styles.Success.Render("✓")
}

func (m *Model) styleFor(s ElementStatus) lipgloss.Style {
	switch s {
	case StatusRunning:
		return m.styles.Running
	case StatusSuccess:
		return m.styles.Success
	case StatusFailed:
		return m.styles.Failed
	case StatusSkipped:
		return m.styles.Skipped
	default:
		return m.styles.Pending
	}
}

func statusIcon(s ElementStatus) string {
	switch s {
	case StatusRunning:
		return "⚡"
	case StatusSuccess:
		return "✅"
	case StatusFailed:
		return "❌"
	case StatusSkipped:
		return "⏭ "
	default:
		return "⏳"
	}
}

// renderElement writes one row: index, icon, name, elapsed time and, for failures, the exit code or error.
func (m *Model) renderElement(b *strings.Builder, e *Element, now time.Time) {
	fmt.Fprintf(b, "%4d %s %s", e.Index+1, statusIcon(e.Status), m.styleFor(e.Status).Render(e.Name))

	if d := e.Elapsed(now); d > 0 {
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf(" (%v)", d.Round(durationRounding))))
	}

	if e.Status == StatusFailed {
		msg := fmt.Sprintf(" exit %d", e.ExitCode)
		if e.ErrorMsg != "" {
			msg = " " + e.ErrorMsg
		}

		b.WriteString(m.styles.Error.Render(msg))
	}

	b.WriteString("\n")
}

func (m *Model) renderStatusBar() string {
	c := m.Counts()

	parts := []string{
		m.styles.Pending.Render(fmt.Sprintf("pending %d", c[StatusPending])),
		m.styles.Running.Render(fmt.Sprintf("running %d", c[StatusRunning])),
		m.styles.Success.Render(fmt.Sprintf("ok %d", c[StatusSuccess])),
		m.styles.Failed.Render(fmt.Sprintf("failed %d", c[StatusFailed])),
	}

	if n := c[StatusSkipped]; n > 0 {
		parts = append(parts, m.styles.Skipped.Render(fmt.Sprintf("skipped %d", n)))
	}

	bar := strings.Join(parts, "  ")

	if m.completed {
		if m.err != nil {
			bar += "  " + m.styles.Error.Render("batch ended: "+m.err.Error())
		} else {
			bar += "  " + m.styles.Success.Render("batch complete")
		}
	}

	return bar
}
