// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package platforms lists the registered backends.
package platforms

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/matt-FFFFFF/batchtask/cmd/batchtask/cmdstate"
	"github.com/urfave/cli/v3"
)

// NewCmd returns the platforms command.
func NewCmd() *cli.Command {
	return &cli.Command{
		Name:   "platforms",
		Usage:  "List the platforms a batch can run on",
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	reg := cmdstate.Registry(ctx)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PLATFORM", "ATTACH", "DESCRIPTION")

	for _, name := range reg.Names() {
		p := reg[name]

		attach := "no"
		if p.Attach != nil {
			attach = "yes"
		}

		t.Row(name, attach, p.Description)
	}

	_, err := fmt.Fprintln(cmd.Root().Writer, t.String())

	return err //nolint:wrapcheck
}
