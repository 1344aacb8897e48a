// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package console provides an interactive prompt for evaluating definition expressions.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/matt-FFFFFF/batchtask/internal/config"
	"github.com/matt-FFFFFF/batchtask/internal/ctxlog"
	"github.com/peterh/liner"
	"github.com/urfave/cli/v3"
)

const (
	fileFlag = "file"
	prompt   = "batchtask> "
)

// NewCmd returns the console command.
func NewCmd() *cli.Command {
	return &cli.Command{
		Name:  "console",
		Usage: "Evaluate HCL expressions against the variables a definition can use",
		Description: `Starts an interactive prompt. Expressions can refer to env.NAME and,
when a definition file is given, to batch.name, batch.platform, batch.scripts and so on.
Type quit or exit, or press Ctrl+C, to leave.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      fileFlag,
				Aliases:   []string{"f"},
				Usage:     "Local definition file to expose as batch",
				TakesFile: true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	var def *config.Definition

	if path := cmd.String(fileFlag); path != "" {
		d, err := config.Load(path)
		if err != nil {
			ctxlog.Error(ctx, "cannot load definition", "file", path, "error", err)
			return cli.Exit(err.Error(), 1)
		}

		def = d
	}

	line := liner.NewLiner()
	defer line.Close() //nolint:errcheck

	line.SetCtrlCAborts(true)

	return Loop(cmd.Root().Writer, line, config.NewEvaluator(def))
}

// Prompter reads one line of input.
type Prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// Loop reads expressions from p and writes each result, or error, to w until quit, exit or EOF.
func Loop(w io.Writer, p Prompter, e *config.Evaluator) error {
	fmt.Fprintln(w, "Entering console, type `quit` or `exit` or press Ctrl+C to leave.") //nolint:errcheck

	for {
		input, err := p.Prompt(prompt)

		switch {
		case errors.Is(err, liner.ErrPromptAborted), errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)

		switch input {
		case "":
			continue
		case "quit", "exit":
			return nil
		}

		p.AppendHistory(input)

		out, err := e.Eval(input)
		if err != nil {
			fmt.Fprintln(w, err.Error()) //nolint:errcheck
			continue
		}

		fmt.Fprintln(w, out) //nolint:errcheck
	}
}
