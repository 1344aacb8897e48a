// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the batchtask command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/batchtask"
	"github.com/matt-FFFFFF/batchtask/cmd/batchtask/cancel"
	"github.com/matt-FFFFFF/batchtask/cmd/batchtask/cmdstate"
	"github.com/matt-FFFFFF/batchtask/cmd/batchtask/console"
	"github.com/matt-FFFFFF/batchtask/cmd/batchtask/platforms"
	"github.com/matt-FFFFFF/batchtask/cmd/batchtask/run"
	"github.com/matt-FFFFFF/batchtask/cmd/batchtask/status"
	"github.com/matt-FFFFFF/batchtask/internal/ctxlog"
	"github.com/matt-FFFFFF/batchtask/internal/taskfactory"
	"github.com/urfave/cli/v3"
)

const (
	logLevelFlag = "log-level"
	logJSONFlag  = "log-json"
)

func newRootCmd() *cli.Command {
	return &cli.Command{
		Commands: []*cli.Command{
			run.NewCmd(),
			status.NewCmd(),
			cancel.NewCmd(),
			platforms.NewCmd(),
			console.NewCmd(),
		},
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Name:      "batchtask",
		Description: `batchtask runs batches of scripts and tracks them as a single task.
Batches run either as a bounded pool of child processes on this host,
or as a Slurm job array submitted with sbatch and tracked with squeue.`,
		Usage:     "batchtask run -f batch.yaml",
		Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
		Authors: []any{
			"Matt White (matt-FFFFFF)",
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    logLevelFlag,
				Usage:   "Log level: debug, info, warn or error",
				Sources: cli.EnvVars(ctxlog.LevelEnvVar()),
			},
			&cli.BoolFlag{
				Name:        logJSONFlag,
				Usage:       "Write logs as JSON",
				Value:       false,
				DefaultText: "false",
			},
		},
		Before:                before,
		EnableShellCompletion: true,
	}
}

// before applies the global logging flags.
func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if s := cmd.String(logLevelFlag); s != "" {
		lvl, err := ctxlog.ParseLevel(s)
		if err != nil {
			return ctx, cli.Exit(err.Error(), 1)
		}

		ctxlog.LevelVar.Set(lvl)
	}

	if cmd.Bool(logJSONFlag) {
		ctx = ctxlog.New(ctx, ctxlog.JSONLogger)
	}

	return ctx, nil
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	ctx = cmdstate.WithRegistry(ctx, taskfactory.DefaultRegistry)

	defer cancel()

	rootCmd := newRootCmd()
	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", batchtask.Version, batchtask.Commit)

	err := rootCmd.Run(ctx, os.Args) // Err is handled by cli framework

	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1) //nolint:gocritic
	}

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	ctxlog.Logger(ctx).Debug("command completed successfully")
}
