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

// Package report holds the findings of the undefined-value analysis. A Report is created once
// per offending fact and collected in a Store keyed by the enclosing method's signature. The
// Store is the handle given to later stages (filters, serializers); the analysis never reads it
// back.
package report

import (
	"github.com/ForgottenField/ArkAnalyzer/ir"
)

// Report is a single finding: fact may be undefined when it is dereferenced at node.
type Report struct {
	Fact   ir.Value
	Node   ir.Stmt
	Reason string
	Line   int
	Method *ir.Method
	// Path lists the statements the fact flowed through, in recording order.
	Path []ir.Stmt
}

// New creates a report for fact triggered at node. Line and method are taken from node.
func New(fact ir.Value, node ir.Stmt, reason string) *Report {
	r := &Report{Fact: fact, Node: node, Reason: reason, Line: node.Position().Line}
	if cfg := node.CFG(); cfg != nil {
		r.Method = cfg.Method()
	}
	return r
}

// AddPathPoint appends stmt to the propagation path.
func (r *Report) AddPathPoint(stmt ir.Stmt) {
	r.Path = append(r.Path, stmt)
}

// File returns the file the triggering statement belongs to, if known.
func (r *Report) File() string {
	return r.Node.Position().File
}

// Record is the logical, format-independent shape of a report.
type Record struct {
	Fact   string     `json:"fact"`
	Node   string     `json:"node"`
	Line   int        `json:"line"`
	Method string     `json:"method"`
	Reason string     `json:"reason"`
	Path   []PathStep `json:"path"`
}

// PathStep is one statement of a record's propagation path. Steps are numbered from 1.
type PathStep struct {
	Step      int    `json:"step"`
	Statement string `json:"statement"`
	Line      int    `json:"line"`
	Method    string `json:"method"`
}

// Record converts r to its logical shape. A local fact is rendered by name, any other fact by
// its type.
func (r *Report) Record() Record {
	rec := Record{
		Node:   r.Node.String(),
		Line:   r.Line,
		Method: methodString(r.Method),
		Reason: r.Reason,
		Path:   make([]PathStep, 0, len(r.Path)),
	}
	if l, ok := r.Fact.(*ir.Local); ok {
		rec.Fact = l.Name()
	} else {
		rec.Fact = r.Fact.Type().String()
	}
	for i, stmt := range r.Path {
		step := PathStep{Step: i + 1, Statement: stmt.String(), Line: stmt.Position().Line}
		if cfg := stmt.CFG(); cfg != nil {
			step.Method = methodString(cfg.Method())
		}
		rec.Path = append(rec.Path, step)
	}
	return rec
}

func methodString(m *ir.Method) string {
	if m == nil {
		return ""
	}
	return m.String()
}
