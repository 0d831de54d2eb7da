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

// Package diagnostic hosts the diagnostic engine, which is responsible for collecting the
// reports of the undefined-value analysis and generating user-friendly diagnostics from them.
package diagnostic

import (
	"cmp"
	"slices"

	"github.com/ForgottenField/ArkAnalyzer/ir"
	"github.com/ForgottenField/ArkAnalyzer/report"
)

// Diagnostic is a single message positioned at the statement that uses an undefined value.
type Diagnostic struct {
	Pos ir.Position
	// Signature is the signature of the method the report was stored under.
	Signature string
	Message   string
}

// Engine is the main engine for generating diagnostics from reports.
type Engine struct {
	conflicts []conflict
	// seen holds the keys of the added conflicts. The same report may be stored under several
	// entry methods when a callee is analyzed both on its own and through its callers.
	seen    map[string]bool
	nolints []Range
}

// NewEngine creates a new diagnostic engine.
func NewEngine() *Engine {
	return &Engine{seen: make(map[string]bool)}
}

// AddStore adds every report held by store to the engine.
func (e *Engine) AddStore(store *report.Store) {
	store.Range(func(sig string, reports []*report.Report) bool {
		for _, r := range reports {
			e.AddReport(sig, r)
		}
		return true
	})
}

// AddReport adds a single report stored under signature sig. Duplicates of an already added
// report are ignored.
func (e *Engine) AddReport(sig string, r *report.Report) {
	c := newConflict(sig, r)
	key := c.position.String() + "\x00" + c.String()
	if e.seen[key] {
		return
	}
	e.seen[key] = true
	e.conflicts = append(e.conflicts, c)
}

// Suppress drops every diagnostic positioned inside one of the given ranges.
func (e *Engine) Suppress(ranges ...Range) {
	e.nolints = append(e.nolints, ranges...)
}

// Len returns the number of distinct reports added so far, suppressed ones included.
func (e *Engine) Len() int {
	return len(e.conflicts)
}

// Diagnostics generates diagnostics from the internally-stored conflicts. The grouping parameter
// controls whether the conflicts flowing from the same undefined source are grouped together
// (under the first diagnostic) for concise reporting. The returned slice of diagnostics is sorted
// by file names and then lines in the file.
func (e *Engine) Diagnostics(grouping bool) []Diagnostic {
	conflicts := slices.DeleteFunc(slices.Clone(e.conflicts), func(c conflict) bool {
		return e.suppressed(c.position)
	})

	// First sort the conflicts by position such that similar conflicts are grouped under the
	// first diagnostic.
	slices.SortStableFunc(conflicts, func(a, b conflict) int {
		if n := cmp.Compare(a.position.File, b.position.File); n != 0 {
			return n
		}
		if n := cmp.Compare(a.position.Line, b.position.Line); n != 0 {
			return n
		}
		return cmp.Compare(a.position.Col, b.position.Col)
	})

	if grouping {
		conflicts = groupConflicts(conflicts)
	}

	diagnostics := make([]Diagnostic, 0, len(conflicts))
	for _, c := range conflicts {
		diagnostics = append(diagnostics, Diagnostic{
			Pos:       c.position,
			Signature: c.signature,
			Message:   c.String(),
		})
	}
	return diagnostics
}

func (e *Engine) suppressed(pos ir.Position) bool {
	return slices.ContainsFunc(e.nolints, func(r Range) bool { return r.Contains(pos) })
}
