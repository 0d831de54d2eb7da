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

package nullcheck

import (
	"fmt"

	"github.com/ForgottenField/ArkAnalyzer/dataflow"
	"github.com/ForgottenField/ArkAnalyzer/ir"
	"github.com/ForgottenField/ArkAnalyzer/report"
	"github.com/ForgottenField/ArkAnalyzer/util/orderedmap"
)

// Reason returns the message of a report on fact.
func Reason(fact ir.Value) string {
	return fmt.Sprintf("Variable '%s' used before being defined (undefined)", fact)
}

// ExtractReports turns the path edges of a solved problem into reports. Edges are grouped by
// the fact holding at their end, in the order facts first appear, and each group is scanned in
// edge order: the first statement dereferencing the fact yields the only report for it.
func ExtractReports(problem dataflow.Problem[ir.Value], edges *dataflow.PathEdgeSet[ir.Value]) []*report.Report {
	zero := problem.Key(problem.Zero())
	byFact := orderedmap.New[string, []dataflow.PathEdge[ir.Value]]()
	edges.OrderedRange(func(_ int, e dataflow.PathEdge[ir.Value]) bool {
		k := problem.Key(e.End.Fact)
		if k == "" || k == zero {
			return true
		}
		byFact.Store(k, append(byFact.Value(k), e))
		return true
	})

	var reports []*report.Report
	byFact.OrderedRange(func(_ string, group []dataflow.PathEdge[ir.Value]) bool {
		for _, e := range group {
			stmt, fact := e.End.Stmt, e.End.Fact
			if stmt == nil || !Triggers(stmt, fact) {
				continue
			}
			r := report.New(fact, stmt, Reason(fact))
			addPathPoints(r, fact)
			reports = append(reports, r)
			break
		}
		return true
	})
	return reports
}

// ExtractInto extracts the reports of a solved problem into store, under the signature of the
// problem's entry method, and returns how many were added.
func ExtractInto(store *report.Store, problem dataflow.Problem[ir.Value], edges *dataflow.PathEdgeSet[ir.Value]) int {
	sig := problem.EntryMethod().String()
	reports := ExtractReports(problem, edges)
	for _, r := range reports {
		store.Add(sig, r)
	}
	return len(reports)
}

// Triggers reports whether stmt dereferences fact: it invokes a method on it, reads or writes
// one of its fields, or reads or writes one of its elements.
func Triggers(stmt ir.Stmt, fact ir.Value) bool {
	if e, ok := stmt.InvokeExpr().(*ir.InstanceInvokeExpr); ok && Equal(e.Base, fact) {
		return true
	}
	assign, ok := stmt.(*ir.AssignStmt)
	if !ok {
		return false
	}
	for _, v := range []ir.Value{assign.Right, assign.Left} {
		switch r := v.(type) {
		case *ir.InstanceFieldRef:
			if Equal(r.Base, fact) {
				return true
			}
		case *ir.ArrayRef:
			if Equal(r.Base, fact) {
				return true
			}
		}
	}
	return false
}

// addPathPoints records where a local fact is declared and read. This is not a slice through
// the path edges: it may list uses the fact never reaches.
func addPathPoints(r *report.Report, fact ir.Value) {
	l, ok := fact.(*ir.Local)
	if !ok {
		return
	}
	if decl := l.DeclaringStmt(); decl != nil {
		r.AddPathPoint(decl)
	}
	for _, use := range l.UsedStmts() {
		r.AddPathPoint(use)
	}
}
