// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"

	"github.com/Azure/golden"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// ErrEval is returned when an expression cannot be evaluated.
var ErrEval = errors.New("failed to evaluate expression")

const evalFilename = "console.hcl"

// Evaluator evaluates HCL expressions against the variables a definition file can see,
// plus a batch object describing a loaded definition.
type Evaluator struct {
	ctx *hcl.EvalContext
}

// NewEvaluator returns an evaluator. If def is nil, only env is available.
func NewEvaluator(def *Definition) *Evaluator {
	ctx := evalContext()
	if def != nil {
		ctx.Variables["batch"] = def.ctyValue()
	}

	return &Evaluator{ctx: ctx}
}

// Eval parses and evaluates expr, returning the value rendered as HCL.
func (e *Evaluator) Eval(expr string) (string, error) {
	x, diags := hclsyntax.ParseExpression([]byte(expr), evalFilename, hcl.InitialPos)
	if diags.HasErrors() {
		return "", fmt.Errorf("%w: %s", ErrParse, diags.Error())
	}

	v, diags := x.Value(e.ctx)
	if diags.HasErrors() {
		return "", fmt.Errorf("%w: %s", ErrEval, diags.Error())
	}

	return golden.CtyValueToString(v), nil
}

func (d *Definition) ctyValue() cty.Value {
	scripts := cty.ListValEmpty(cty.String)
	if len(d.Scripts) > 0 {
		vals := make([]cty.Value, len(d.Scripts))
		for i, s := range d.Scripts {
			vals[i] = cty.StringVal(s)
		}

		scripts = cty.ListVal(vals)
	}

	return cty.ObjectVal(map[string]cty.Value{
		"platform":  cty.StringVal(d.Platform),
		"name":      cty.StringVal(d.Name),
		"directory": cty.StringVal(d.Directory),
		"processes": cty.NumberIntVal(int64(d.Processes)),
		"queue":     cty.StringVal(d.Queue),
		"scripts":   scripts,
	})
}
