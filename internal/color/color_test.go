// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsColorCapable(t *testing.T) {
	t.Setenv(NoColor, "1")
	assert.False(t, isColorCapable(), "Expected color output to be disabled")

	t.Setenv(ForceColor, "1")
	assert.False(t, isColorCapable(), "Expected color output to be disabled as NO_COLOR is still set")

	t.Setenv(NoColor, "")
	assert.True(t, isColorCapable(), "Expected color output to be enabled as FORCE_COLOR is set and NO_COLOR is unset")
}

func TestPaint(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		codes []Code
		want  string
	}{
		{name: "no codes", in: "plain", want: "plain"},
		{name: "single code", in: "red", codes: []Code{FgRed}, want: "\033[31mred\033[0m"},
		{name: "multiple codes", in: "bold", codes: []Code{Bold, FgHiGreen}, want: "\033[1;92mbold\033[0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paint(tt.in, tt.codes...))
		})
	}
}

func TestColorize_Disabled(t *testing.T) {
	old := enabled
	enabled = false

	t.Cleanup(func() { enabled = old })

	assert.Equal(t, "text", Colorize("text", FgRed))
}
