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

package dataflow_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ForgottenField/ArkAnalyzer/callgraph"
	"github.com/ForgottenField/ArkAnalyzer/dataflow"
	"github.com/ForgottenField/ArkAnalyzer/ir"
	"github.com/ForgottenField/ArkAnalyzer/irtest"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// assigned tracks the names of the variables assigned so far, through parameters and return
// values. Facts are variable names and "0" is the zero fact.
type assigned struct {
	entry  ir.Stmt
	method *ir.Method
}

func (p *assigned) EntryPoint() ir.Stmt      { return p.entry }
func (p *assigned) EntryMethod() *ir.Method  { return p.method }
func (p *assigned) Zero() string             { return "0" }
func (p *assigned) Equal(a, b string) bool   { return a == b }
func (p *assigned) Key(d string) string      { return d }

func (p *assigned) NormalFlow(src, _ ir.Stmt, d string) []string {
	a, ok := src.(*ir.AssignStmt)
	if !ok {
		return []string{d}
	}
	lhs := a.Left.String()
	switch {
	case d == "0":
		return []string{d, lhs}
	case d == lhs:
		return nil
	case a.Right.String() == d:
		return []string{d, lhs}
	}
	return []string{d}
}

func (p *assigned) CallFlow(callStmt ir.Stmt, callee *ir.Method, d string) []string {
	if d == "0" {
		return []string{d}
	}
	var out []string
	for i, arg := range callStmt.InvokeExpr().Args() {
		if i < len(callee.Parameters()) && arg.String() == d {
			out = append(out, callee.Parameters()[i].Name())
		}
	}
	return out
}

func (p *assigned) CallToReturnFlow(callStmt, _ ir.Stmt, d string) []string {
	if def := callStmt.Def(); def != nil && def.String() == d {
		return nil
	}
	return []string{d}
}

func (p *assigned) ExitToReturnFlow(exitStmt, _, callStmt ir.Stmt, d string) []string {
	if d == "0" {
		return []string{d}
	}
	ret, ok := exitStmt.(*ir.ReturnStmt)
	if ok && ret.Op.String() == d && callStmt.Def() != nil {
		return []string{callStmt.Def().String()}
	}
	return nil
}

const program = `
scopes:
  - name: main.ts
    functions:
      - name: id
        params: [p]
        body:
          - return p
      - name: one
        params: [p]
        body:
          - return 1
      - name: main
        body:
          - x = 1
          - y = id(x)
          - z = one(x)
          - w = id(z)
          - undeclared(y)
          - return
`

func newProblem(t *testing.T, src, method string) (*assigned, callgraph.Resolver) {
	t.Helper()
	scene, _ := irtest.Load(t, src)
	m := irtest.FindMethod(t, scene, method)
	return &assigned{entry: m.CFG().StartingStmt(), method: m}, callgraph.NewCHA(scene)
}

func render(edges []dataflow.PathEdge[string]) []string {
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = fmt.Sprintf("%s/%s -> %s/%s", e.Start.Stmt, e.Start.Fact, e.End.Stmt, e.End.Fact)
	}
	return out
}

func TestSolve_CallAndReturn(t *testing.T) {
	t.Parallel()

	problem, resolver := newProblem(t, program, "%dflt.main")
	edges, err := dataflow.NewSolver[string](problem, resolver).Solve()
	require.NoError(t, err)

	main := problem.method
	undeclared := irtest.FindStmt(t, main, "%dflt.undeclared(y)")
	ret := irtest.FindStmt(t, main, "return")

	// x flows into id and comes back as y.
	require.Equal(t, []string{"0", "x", "y"}, edges.EndFacts(undeclared))
	require.Equal(t, []string{"0", "x", "y"}, edges.EndFacts(ret))

	// The callee is analyzed from its own first statement, once per entry fact.
	id := irtest.FindMethod(t, main.DeclaringClass().Scene(), "%dflt.id")
	retP := irtest.FindStmt(t, id, "return p")
	require.True(t, edges.Contains(dataflow.PathEdge[string]{
		Start: dataflow.Node[string]{Stmt: retP, Fact: "p"},
		End:   dataflow.Node[string]{Stmt: retP, Fact: "p"},
	}))
	require.False(t, edges.Contains(dataflow.PathEdge[string]{
		Start: dataflow.Node[string]{Stmt: main.CFG().StartingStmt(), Fact: "0"},
		End:   dataflow.Node[string]{Stmt: retP, Fact: "p"},
	}))
}

func TestSolve_UntaintedReturn(t *testing.T) {
	t.Parallel()

	problem, resolver := newProblem(t, program, "%dflt.main")
	edges, err := dataflow.NewSolver[string](problem, resolver).Solve()
	require.NoError(t, err)

	// one() returns a constant, so x does not come back as z, and z never reaches id.
	w := irtest.FindStmt(t, problem.method, "w = %dflt.id(z)")
	require.NotContains(t, edges.EndFacts(w), "z")
	ret := irtest.FindStmt(t, problem.method, "return")
	require.NotContains(t, edges.EndFacts(ret), "w")
}

func TestSolve_Idempotent(t *testing.T) {
	t.Parallel()

	problem, resolver := newProblem(t, program, "%dflt.main")
	solver := dataflow.NewSolver[string](problem, resolver)

	first, err := solver.Solve()
	require.NoError(t, err)
	firstStats := solver.Stats()
	second, err := solver.Solve()
	require.NoError(t, err)

	if diff := cmp.Diff(render(first.Edges()), render(second.Edges())); diff != "" {
		t.Errorf("solving twice gave different edges (-first +second):\n%s", diff)
	}
	require.Equal(t, firstStats, solver.Stats())
}

func TestSolve_MonotonicAndUnique(t *testing.T) {
	t.Parallel()

	problem, resolver := newProblem(t, program, "%dflt.main")
	solver := dataflow.NewSolver[string](problem, resolver)

	var ids []int
	solver.OnEdge(func(id int, _ dataflow.PathEdge[string]) {
		ids = append(ids, id)
	})
	edges, err := solver.Solve()
	require.NoError(t, err)

	require.Len(t, ids, edges.Len())
	for i, id := range ids {
		require.Equal(t, i, id, "edge ids must be dense and increasing")
	}

	seen := make(map[string]bool)
	for _, e := range render(edges.Edges()) {
		require.False(t, seen[e], "duplicate edge %s", e)
		seen[e] = true
	}

	stats := solver.Stats()
	require.Equal(t, edges.Len(), stats.PathEdges)
	require.Equal(t, edges.Len(), stats.Iterations, "every edge is processed exactly once")
	require.Positive(t, stats.CallEdges)
	require.Positive(t, stats.EndSummaries)
}

func TestSolve_Recursion(t *testing.T) {
	t.Parallel()

	const src = `
scopes:
  - name: rec.ts
    functions:
      - name: loop
        params: [p]
        blocks:
          - stmts: [if p == 0]
            succs: [1, 2]
          - stmts: [q = loop(p), return q]
          - stmts: [return p]
`
	problem, resolver := newProblem(t, src, "%dflt.loop")
	edges, err := dataflow.NewSolver[string](problem, resolver).Solve()
	require.NoError(t, err)
	require.Positive(t, edges.Len())

	// The recursive call reuses the summary of the method being analyzed.
	retQ := irtest.FindStmt(t, problem.method, "return q")
	require.Equal(t, []string{"0"}, edges.EndFacts(retQ))
}

func TestSolve_UnresolvedCallIsNormal(t *testing.T) {
	t.Parallel()

	problem, _ := newProblem(t, program, "%dflt.main")
	edges, err := dataflow.NewSolver[string](problem, nil).Solve()
	require.NoError(t, err)

	// Without a resolver nothing is entered: every edge stays in main.
	edges.OrderedRange(func(_ int, e dataflow.PathEdge[string]) bool {
		require.Same(t, problem.method, e.End.Stmt.CFG().Method())
		return true
	})
	ret := irtest.FindStmt(t, problem.method, "return")
	require.NotContains(t, edges.EndFacts(ret), "p")
}

func TestSolve_ConfigError(t *testing.T) {
	t.Parallel()

	scene, _ := irtest.Load(t, program)
	main := irtest.FindMethod(t, scene, "%dflt.main")
	id := irtest.FindMethod(t, scene, "%dflt.id")

	tests := []struct {
		name    string
		problem *assigned
	}{
		{name: "no entry statement", problem: &assigned{method: main}},
		{name: "no entry method", problem: &assigned{entry: main.CFG().StartingStmt()}},
		{name: "entry in another method", problem: &assigned{entry: id.CFG().StartingStmt(), method: main}},
		{name: "detached statement", problem: &assigned{entry: ir.NewNop(), method: main}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			edges, err := dataflow.NewSolver[string](tt.problem, callgraph.NewCHA(scene)).Solve()
			require.Nil(t, edges)
			var cerr *dataflow.ConfigError
			require.True(t, errors.As(err, &cerr), "got %v", err)
			require.Contains(t, err.Error(), "invalid problem configuration")
		})
	}
}

func TestPathEdgeSet_Dump(t *testing.T) {
	t.Parallel()

	const src = `
scopes:
  - name: main.ts
    functions:
      - name: f
        body:
          - x = 1
          - return
`
	problem, resolver := newProblem(t, src, "%dflt.f")
	edges, err := dataflow.NewSolver[string](problem, resolver).Solve()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, edges.Dump(&buf))
	blocks := strings.Split(strings.TrimSuffix(buf.String(), "\n\n"), "\n\n")
	require.Len(t, blocks, edges.Len())
	require.Equal(t,
		"[node: {Stmt: {x = 1} method: {%dflt.f()}}, fact: 0]\n ----->\n[node: {Stmt: {x = 1} method: {%dflt.f()}}, fact: 0]",
		blocks[0])
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
