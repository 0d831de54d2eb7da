//  Copyright (c) 2023 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package arkanalyzer implements the top-level analysis: it runs the batch driver over a program
// and renders the reports it accumulated as diagnostics or as an exported report file.
package arkanalyzer

import (
	"context"
	"fmt"
	"io"
	"regexp"

	"github.com/ForgottenField/ArkAnalyzer/accumulation"
	"github.com/ForgottenField/ArkAnalyzer/callgraph"
	"github.com/ForgottenField/ArkAnalyzer/config"
	"github.com/ForgottenField/ArkAnalyzer/diagnostic"
	"github.com/ForgottenField/ArkAnalyzer/export"
	"github.com/ForgottenField/ArkAnalyzer/ir"
	"github.com/ForgottenField/ArkAnalyzer/ir/irload"
	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
)

// Analysis is the outcome of analyzing a program.
type Analysis struct {
	*accumulation.Result
	// Diagnostics are the rendered reports followed by one diagnostic per failed method.
	Diagnostics []diagnostic.Diagnostic
}

// AnalyzeFile loads the program description at path and analyzes it.
func AnalyzeFile(ctx context.Context, path string, conf *config.Config, logger hclog.Logger) (*Analysis, error) {
	scene, prog, err := irload.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Analyze(ctx, scene, prog.Comments(), conf, logger)
}

// Analyze analyzes every entry method of scene, resolving calls by class hierarchy. Statements
// carrying a nolint comment among comments are not reported.
func Analyze(ctx context.Context, scene *ir.Scene, comments []irload.LineComment, conf *config.Config, logger hclog.Logger) (*Analysis, error) {
	res, err := accumulation.Run(ctx, scene, callgraph.NewCHA(scene), conf, logger)
	if err != nil {
		return nil, err
	}

	engine := diagnostic.NewEngine()
	for _, c := range comments {
		if r, ok := diagnostic.NoLintRange(c.Pos, c.Text); ok {
			engine.Suppress(r)
		}
	}
	engine.AddStore(res.Store)

	diagnostics := engine.Diagnostics(conf.GroupReports)
	for _, f := range res.Failures {
		msg := "INTERNAL ERROR: " + f.Error()
		if f.Stack != nil {
			msg += "\n" + string(f.Stack)
		}
		diagnostics = append(diagnostics, diagnostic.Diagnostic{Signature: f.Method, Message: msg})
	}
	return &Analysis{Result: res, Diagnostics: diagnostics}, nil
}

// Write writes the analysis to w in the format selected by conf.
func (a *Analysis) Write(w io.Writer, conf *config.Config) error {
	switch conf.Format {
	case config.FormatJSON:
		return export.WriteJSON(w, a.Store)
	case config.FormatSARIF:
		return export.WriteSARIF(w, a.Store)
	case config.FormatConsole, "":
		return a.writeConsole(w, conf.PrettyPrint)
	default:
		return fmt.Errorf("unknown output format %q", conf.Format)
	}
}

func (a *Analysis) writeConsole(w io.Writer, pretty bool) error {
	for _, d := range a.Diagnostics {
		msg := d.Message
		if pretty {
			msg = prettyPrintErrorMessage(msg)
		}
		pos := d.Signature
		if d.Pos.IsValid() {
			pos = fmt.Sprintf("%s:%d", d.Pos.File, d.Pos.Line)
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", pos, msg); err != nil {
			return err
		}
	}
	return nil
}

var codeReferencePattern = regexp.MustCompile("\\`(.*?)\\`")
var pathPattern = regexp.MustCompile(`"(.*?)"`)
var variablePattern = regexp.MustCompile(`'(.*?)'`)

var (
	errorColor    = color.New(color.FgRed)
	codeColor     = color.New(color.FgHiMagenta)
	pathColor     = color.New(color.FgCyan)
	variableColor = color.New(color.Bold)
)

// prettyPrintErrorMessage is used in error reporting to post process and pretty print the output
// with colors. Colors are dropped when the output is not a terminal.
func prettyPrintErrorMessage(msg string) string {
	paint := func(c *color.Color) func(string) string {
		return func(s string) string { return c.Sprint(s) }
	}
	msg = variablePattern.ReplaceAllStringFunc(msg, paint(variableColor))
	msg = codeReferencePattern.ReplaceAllStringFunc(msg, paint(codeColor))
	msg = pathPattern.ReplaceAllStringFunc(msg, paint(pathColor))
	return errorColor.Sprint("error: ") + msg
}
