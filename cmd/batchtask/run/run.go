// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run submits a batch of scripts described by a definition file.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/matt-FFFFFF/batchtask/cmd/batchtask/cmdstate"
	"github.com/matt-FFFFFF/batchtask/internal/config"
	"github.com/matt-FFFFFF/batchtask/internal/ctxlog"
	"github.com/matt-FFFFFF/batchtask/internal/signalbroker"
	"github.com/matt-FFFFFF/batchtask/internal/task"
	"github.com/matt-FFFFFF/batchtask/internal/task/cluster"
	"github.com/matt-FFFFFF/batchtask/internal/task/local"
	"github.com/matt-FFFFFF/batchtask/internal/tui"
	"github.com/oklog/run"
	"github.com/urfave/cli/v3"
)

const (
	fileFlag      = "file"
	platformFlag  = "platform"
	processesFlag = "processes"
	noWaitFlag    = "no-wait"
	tuiFlag       = "tui"
	cliExitStr    = ""
)

var (
	// ErrBuildDefinition is returned when the definition cannot be parsed or validated.
	ErrBuildDefinition = errors.New("failed to build batch definition")
	// ErrInterrupted is returned when a second signal abandons the batch.
	ErrInterrupted = errors.New("interrupted")
	// ErrScriptsFailed is returned when one or more local scripts did not exit zero.
	ErrScriptsFailed = errors.New("scripts failed")
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// NewCmd returns the run command.
func NewCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run a batch of scripts defined in a YAML or HCL file",
		Description: `Runs every script listed in the definition file on the selected platform.
The local platform runs scripts as child processes with bounded parallelism and writes
one log per script next to it. The slurm platform writes a runscript and submits it
with sbatch, as a job array when there is more than one script.

Definition URLs use Hashicorp's go-getter syntax, which allows for fetching files from various sources.
See https://github.com/hashicorp/go-getter.

The first interrupt kills the batch, a second one abandons it.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     fileFlag,
				Aliases:  []string{"f"},
				Usage:    "URL of the definition file. Supports Hashicorp's go-getter syntax.",
				Required: true,
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:    platformFlag,
				Aliases: []string{"p"},
				Usage:   "Override the platform named in the definition",
			},
			&cli.IntFlag{
				Name:    processesFlag,
				Aliases: []string{"n"},
				Usage:   "Override the number of processes. For local runs 0 means the number of CPU cores.",
			},
			&cli.BoolFlag{
				Name:        noWaitFlag,
				Usage:       "Return once the job is submitted. Not supported on the local platform.",
				Value:       false,
				DefaultText: "false",
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:        tuiFlag,
				Aliases:     []string{"t", "interactive"},
				Usage:       "Show real-time progress in a terminal UI. Local platform only.",
				Value:       false,
				DefaultText: "false",
				OnlyOnce:    true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("running run command")

	def, err := loadDefinition(ctx, cmd)
	if err != nil {
		logger.Error("cannot load definition", "file", cmd.String(fileFlag), "error", err)
		return cli.Exit(err.Error(), 1)
	}

	isLocal := strings.EqualFold(def.Platform, local.Backend)

	if cmd.Bool(noWaitFlag) && isLocal {
		return cli.Exit("--no-wait is not supported on the local platform", 1)
	}

	if cmd.Bool(tuiFlag) && !isLocal {
		return cli.Exit("--tui is only supported on the local platform", 1)
	}

	deps := cmdstate.Deps(ctx)

	var monitor *tui.Runner

	if cmd.Bool(tuiFlag) {
		monitor = tui.NewRunner(ctx, def.Name, def.Scripts)
		deps.Reporter = monitor.Reporter()
	}

	t, err := cmdstate.Registry(ctx).Create(def, deps)
	if err != nil {
		logger.Error("cannot create task", "platform", def.Platform, "error", err)
		return cli.Exit(err.Error(), 1)
	}

	if cmd.Bool(noWaitFlag) {
		if err := t.Run(ctx); err != nil {
			return cli.Exit(err.Error(), 1)
		}

		return writeSubmitted(cmd.Root().Writer, t)
	}

	// Logs go to a buffer while the monitor owns the terminal.
	var logBuf bytes.Buffer

	batchCtx := ctx
	if monitor != nil {
		batchCtx = ctxlog.NewForTUI(ctx, &logBuf)
	}

	execErr := execute(ctx, batchCtx, t, monitor)

	logBuf.WriteTo(cmd.Root().ErrWriter) //nolint:errcheck

	if err := writeSummary(cmd.Root().Writer, t); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if execErr != nil {
		logger.Error("batch did not complete", "error", execErr)
		return cli.Exit(cliExitStr, 1)
	}

	if lt, ok := t.(*local.Task); ok {
		if n := failed(lt.Elements()); n > 0 {
			logger.Error(fmt.Sprintf("%d of %d scripts failed, see the logs for details", n, len(def.Scripts)),
				"error", ErrScriptsFailed)
			return cli.Exit(cliExitStr, 1)
		}
	}

	return nil
}

// loadDefinition fetches, parses and validates the definition, applying flag overrides.
func loadDefinition(ctx context.Context, cmd *cli.Command) (*config.Definition, error) {
	f, err := getURL(ctx, cmd.String(fileFlag))
	if err != nil {
		return nil, err
	}

	def, err := config.Parse(f.Name, f.Data)
	if err != nil {
		return nil, errors.Join(ErrBuildDefinition, err)
	}

	if cmd.IsSet(platformFlag) {
		def.Platform = cmd.String(platformFlag)
	}

	if cmd.IsSet(processesFlag) {
		def.Processes = cmd.Int(processesFlag)
	}

	if err := def.Validate(); err != nil {
		return nil, errors.Join(ErrBuildDefinition, err)
	}

	def.Resolve(f.Base)

	return def, nil
}

// execute runs t to completion alongside a signal watcher.
// The first signal kills the task, a second cancels batchCtx and abandons it.
func execute(ctx, batchCtx context.Context, t task.Task, monitor *tui.Runner) error {
	batchCtx, batchCancel := context.WithCancel(batchCtx)
	defer batchCancel()

	var g run.Group

	// Batch.
	{
		g.Add(
			func() error {
				return task.With(batchCtx, t, func(ctx context.Context, t task.Task) error {
					if err := t.Run(ctx); err != nil {
						return err //nolint:wrapcheck
					}

					if monitor != nil {
						return monitor.Run(ctx, t) //nolint:wrapcheck
					}

					return t.Wait(ctx) //nolint:wrapcheck
				})
			},
			func(_ error) {
				batchCancel()
			},
		)
	}

	// OS signals.
	{
		sigCtx, sigCancel := context.WithCancel(ctx)
		defer sigCancel()

		sigCh := signalbroker.New(ctx)

		g.Add(
			func() error {
				signalbroker.Watch(sigCtx, sigCh, func(os.Signal) {
					if err := t.Kill(ctx); err != nil {
						ctxlog.Warn(ctx, "cannot kill batch", "pid", t.Pid(), "error", err)
					}
				}, batchCancel)

				if sigCtx.Err() != nil {
					return nil
				}

				return ErrInterrupted
			},
			func(_ error) {
				sigCancel()
				signalbroker.Stop(sigCh)
			},
		)
	}

	return g.Run() //nolint:wrapcheck
}

func writeSubmitted(w io.Writer, t task.Task) error {
	if _, err := fmt.Fprintf(w, "submitted job %d\n", t.Pid()); err != nil {
		return err //nolint:wrapcheck
	}

	if ct, ok := t.(*cluster.Task); ok {
		if _, err := fmt.Fprintf(w, "runscript: %s\n", ct.Runscript()); err != nil {
			return err //nolint:wrapcheck
		}

		directives, err := ct.Directives()
		if err != nil {
			return err //nolint:wrapcheck
		}

		for _, d := range directives {
			if _, err := fmt.Fprintln(w, "  "+d); err != nil {
				return err //nolint:wrapcheck
			}
		}
	}

	return nil
}

// writeSummary prints a per-script table for local tasks and the job id for cluster tasks.
func writeSummary(w io.Writer, t task.Task) error {
	switch tt := t.(type) {
	case *local.Task:
		_, err := fmt.Fprintln(w, summaryTable(tt.Elements()).String())
		return err //nolint:wrapcheck
	case *cluster.Task:
		if t.Pid() == 0 {
			return nil
		}

		if err := writeSubmitted(w, t); err != nil {
			return err
		}

		_, err := fmt.Fprintf(w, "job %d: %s\n", t.Pid(), t.State())

		return err //nolint:wrapcheck
	default:
		return nil
	}
}

func summaryTable(elements []local.Element) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "SCRIPT", "RESULT", "LOG")

	for _, el := range elements {
		t.Row(strconv.Itoa(el.Index), el.Script, result(el), el.Log)
	}

	return t
}

func result(el local.Element) string {
	switch {
	case !el.Started && el.Err != nil:
		return failStyle.Render(el.Err.Error())
	case !el.Done:
		return skipStyle.Render("skipped")
	case el.ExitCode == 0:
		return okStyle.Render("ok")
	case el.ExitCode < 0:
		return failStyle.Render("killed")
	default:
		return failStyle.Render("exit " + strconv.Itoa(el.ExitCode))
	}
}

func failed(elements []local.Element) int {
	n := 0

	for _, el := range elements {
		if !el.Done || el.ExitCode != 0 {
			n++
		}
	}

	return n
}
