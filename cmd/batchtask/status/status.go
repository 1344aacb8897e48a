// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package status prints the status snapshot of a submitted job.
package status

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/batchtask/cmd/batchtask/cmdstate"
	"github.com/matt-FFFFFF/batchtask/internal/ctxlog"
	"github.com/matt-FFFFFF/batchtask/internal/task"
	"github.com/matt-FFFFFF/batchtask/internal/task/cluster"
	"github.com/urfave/cli/v3"
)

const (
	platformFlag = "platform"
	jobFlag      = "job"
	outputFlag   = "output"

	outputText = "text"
	outputYAML = "yaml"
)

var (
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// NewCmd returns the status command.
func NewCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show whether a submitted job is still queued or running",
		Description: `Queries the scheduler for the job. A job that has finished, been purged
or is unknown to the scheduler is reported as not running.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    platformFlag,
				Aliases: []string{"p"},
				Usage:   "Platform the job was submitted to",
				Value:   cluster.SlurmBackend,
			},
			&cli.IntFlag{
				Name:     jobFlag,
				Aliases:  []string{"j"},
				Usage:    "Job id printed by run",
				Required: true,
			},
			&cli.StringFlag{
				Name:    outputFlag,
				Aliases: []string{"o"},
				Usage:   "Output format, text or yaml",
				Value:   outputText,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	t, err := cmdstate.Registry(ctx).Attach(cmd.String(platformFlag), cmd.Int(jobFlag), cmdstate.Deps(ctx))
	if err != nil {
		logger.Error("cannot attach to job", "error", err)
		return cli.Exit(err.Error(), 1)
	}

	st := t.Info(ctx)
	logger.Debug("status queried", "pid", t.Pid(), "empty", st.IsEmpty())

	if err := Write(cmd.Root().Writer, cmd.String(outputFlag), t.Pid(), st); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

// Write renders st for job in the given format.
func Write(w io.Writer, format string, job int, st task.Status) error {
	switch format {
	case outputYAML:
		b, err := yaml.Marshal(st)
		if err != nil {
			return err //nolint:wrapcheck
		}

		_, err = w.Write(b)

		return err //nolint:wrapcheck
	case outputText, "":
		line := emptyStyle.Render(fmt.Sprintf("job %d: not running", job))
		if !st.IsEmpty() {
			line = runningStyle.Render(st.String())
		}

		_, err := fmt.Fprintln(w, line)

		return err //nolint:wrapcheck
	default:
		return fmt.Errorf("unknown output format %q", format) //nolint:err113
	}
}
