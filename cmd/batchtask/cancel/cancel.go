// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cancel cancels a submitted job.
package cancel

import (
	"context"
	"fmt"

	"github.com/matt-FFFFFF/batchtask/cmd/batchtask/cmdstate"
	"github.com/matt-FFFFFF/batchtask/internal/ctxlog"
	"github.com/matt-FFFFFF/batchtask/internal/task/cluster"
	"github.com/urfave/cli/v3"
)

const (
	platformFlag = "platform"
	jobFlag      = "job"
)

// NewCmd returns the cancel command.
func NewCmd() *cli.Command {
	return &cli.Command{
		Name:  "cancel",
		Usage: "Cancel a submitted job, including every element of a job array",
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

	if err := t.Kill(ctx); err != nil {
		logger.Error("cancel failed", "pid", t.Pid(), "error", err)
		return cli.Exit(err.Error(), 1)
	}

	_, err = fmt.Fprintf(cmd.Root().Writer, "cancelled job %d\n", t.Pid())

	return err //nolint:wrapcheck
}
