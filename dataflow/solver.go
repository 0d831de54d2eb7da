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

package dataflow

import (
	"github.com/ForgottenField/ArkAnalyzer/ir"
	"github.com/ForgottenField/ArkAnalyzer/util/orderedmap"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/tools/container/intsets"
)

// Stats summarizes one solve.
type Stats struct {
	// PathEdges is the number of distinct path edges.
	PathEdges int
	// Iterations is the number of edges popped from the worklist.
	Iterations int
	// CallEdges is the number of (call node, callee start node) pairs registered.
	CallEdges int
	// EndSummaries is the number of (callee start node, exit node) summaries recorded.
	EndSummaries int
}

// Option configures a Solver.
type Option func(*options)

type options struct {
	logger hclog.Logger
}

// WithLogger makes the solver log its progress to logger.
func WithLogger(logger hclog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Solver computes the path edges of a Problem with the tabulation algorithm of Reps, Horwitz
// and Sagiv. A solver is not safe for concurrent use, but independent solvers may run in
// parallel over the same read-only program.
type Solver[D any] struct {
	problem  Problem[D]
	resolver CallResolver
	logger   hclog.Logger
	onEdge   func(id int, e PathEdge[D])

	edges    *PathEdgeSet[D]
	worklist intsets.Sparse
	// incoming maps a callee start node to the caller nodes that entered the callee with it.
	incoming map[nodeKey]*orderedmap.OrderedMap[nodeKey, Node[D]]
	// endSummary maps a callee start node to the exit nodes reachable from it.
	endSummary map[nodeKey]*orderedmap.OrderedMap[nodeKey, Node[D]]
	// startsOf maps an end node to the start nodes of the path edges reaching it.
	startsOf map[nodeKey]*orderedmap.OrderedMap[nodeKey, Node[D]]
	stats    Stats
}

// NewSolver returns a solver for problem resolving calls with resolver.
func NewSolver[D any](problem Problem[D], resolver CallResolver, opts ...Option) *Solver[D] {
	o := options{logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Solver[D]{problem: problem, resolver: resolver, logger: o.logger}
}

// OnEdge registers a hook called every time a new path edge is added, with its id.
func (s *Solver[D]) OnEdge(f func(id int, e PathEdge[D])) {
	s.onEdge = f
}

// Stats returns the statistics of the last solve.
func (s *Solver[D]) Stats() Stats { return s.stats }

// Solve runs the fixpoint from the problem's entry point and returns the path edges. Every call
// starts from scratch, so solving an unchanged program twice yields identical edge sets.
func (s *Solver[D]) Solve() (*PathEdgeSet[D], error) {
	if err := s.checkEntry(); err != nil {
		return nil, err
	}

	s.edges = newPathEdgeSet(s.problem.Key)
	s.worklist.Clear()
	s.incoming = make(map[nodeKey]*orderedmap.OrderedMap[nodeKey, Node[D]])
	s.endSummary = make(map[nodeKey]*orderedmap.OrderedMap[nodeKey, Node[D]])
	s.startsOf = make(map[nodeKey]*orderedmap.OrderedMap[nodeKey, Node[D]])
	s.stats = Stats{}

	entry := Node[D]{Stmt: s.problem.EntryPoint(), Fact: s.problem.Zero()}
	s.propagate(PathEdge[D]{Start: entry, End: entry})

	var id int
	for s.worklist.TakeMin(&id) {
		s.stats.Iterations++
		e := s.edges.at(id)
		n := e.End.Stmt
		if callees := s.callees(n); len(callees) > 0 {
			s.processCall(e, callees)
		} else if s.isExit(n) {
			s.processExit(e)
		} else {
			s.processNormal(e)
		}
	}

	s.stats.PathEdges = s.edges.Len()
	s.logger.Debug("solved dataflow problem",
		"method", s.problem.EntryMethod().String(),
		"path_edges", s.stats.PathEdges,
		"iterations", s.stats.Iterations,
		"call_edges", s.stats.CallEdges,
		"end_summaries", s.stats.EndSummaries,
	)
	return s.edges, nil
}

func (s *Solver[D]) checkEntry() error {
	method := s.problem.EntryMethod()
	if method == nil {
		return &ConfigError{Reason: "no entry method"}
	}
	entry := s.problem.EntryPoint()
	switch {
	case entry == nil:
		return &ConfigError{Method: method.String(), Reason: "no entry statement"}
	case method.CFG() == nil:
		return &ConfigError{Method: method.String(), Reason: "entry method has no body"}
	case entry.CFG() != method.CFG() || !method.CFG().Contains(entry):
		return &ConfigError{
			Method: method.String(),
			Reason: "entry statement " + entry.String() + " is not part of the entry method",
		}
	}
	return nil
}

// callees returns the resolved callees of n that have a body. A call without such a callee is
// handled as a normal statement.
func (s *Solver[D]) callees(n ir.Stmt) []*ir.Method {
	if !ir.ContainsInvokeExpr(n) || s.resolver == nil {
		return nil
	}
	var callees []*ir.Method
	for _, m := range s.resolver.Callees(n) {
		if m != nil && m.HasBody() {
			callees = append(callees, m)
		}
	}
	return callees
}

func (s *Solver[D]) isExit(n ir.Stmt) bool {
	if ir.IsExitStmt(n) {
		return true
	}
	cfg := n.CFG()
	return cfg != nil && len(cfg.Successors(n)) == 0
}

// returnSite returns the statement control returns to after the call n, or nil.
func returnSite(n ir.Stmt) ir.Stmt {
	cfg := n.CFG()
	if cfg == nil {
		return nil
	}
	if succs := cfg.Successors(n); len(succs) > 0 {
		return succs[0]
	}
	return nil
}

func (s *Solver[D]) processNormal(e PathEdge[D]) {
	n := e.End.Stmt
	cfg := n.CFG()
	if cfg == nil {
		return
	}
	for _, succ := range cfg.Successors(n) {
		for _, d := range s.problem.NormalFlow(n, succ, e.End.Fact) {
			s.propagate(PathEdge[D]{Start: e.Start, End: Node[D]{Stmt: succ, Fact: d}})
		}
	}
}

func (s *Solver[D]) processCall(e PathEdge[D], callees []*ir.Method) {
	callNode := e.End
	ret := returnSite(callNode.Stmt)

	for _, callee := range callees {
		start := callee.CFG().StartingStmt()
		for _, d := range s.problem.CallFlow(callNode.Stmt, callee, callNode.Fact) {
			startNode := Node[D]{Stmt: start, Fact: d}
			sk := s.edges.nodeKey(startNode)
			if addNode(s.incoming, sk, s.edges.nodeKey(callNode), callNode) {
				s.stats.CallEdges++
			}
			s.propagate(PathEdge[D]{Start: startNode, End: startNode})

			// Reuse the summaries already known for this callee start node.
			if exits, ok := s.endSummary[sk]; ok {
				exits.OrderedRange(func(_ nodeKey, exit Node[D]) bool {
					s.returnTo(e.Start, callNode, exit)
					return true
				})
			}
		}
	}

	for _, d := range s.problem.CallToReturnFlow(callNode.Stmt, ret, callNode.Fact) {
		if ret == nil {
			// The call ends its method: what survives it leaves the method.
			s.processExit(PathEdge[D]{Start: e.Start, End: Node[D]{Stmt: callNode.Stmt, Fact: d}})
			continue
		}
		s.propagate(PathEdge[D]{Start: e.Start, End: Node[D]{Stmt: ret, Fact: d}})
	}
}

func (s *Solver[D]) processExit(e PathEdge[D]) {
	sk := s.edges.nodeKey(e.Start)
	exit := e.End
	if !addNode(s.endSummary, sk, s.edges.nodeKey(exit), exit) {
		return
	}
	s.stats.EndSummaries++

	callers, ok := s.incoming[sk]
	if !ok {
		return
	}
	callers.OrderedRange(func(ck nodeKey, callNode Node[D]) bool {
		starts, ok := s.startsOf[ck]
		if !ok {
			return true
		}
		starts.OrderedRange(func(_ nodeKey, callerStart Node[D]) bool {
			s.returnTo(callerStart, callNode, exit)
			return true
		})
		return true
	})
}

// returnTo maps the facts leaving a callee at exit back to the caller path edge from
// callerStart to callNode. When the call has no return site the mapped facts are exit facts of
// the caller.
func (s *Solver[D]) returnTo(callerStart, callNode, exit Node[D]) {
	ret := returnSite(callNode.Stmt)
	for _, r := range s.problem.ExitToReturnFlow(exit.Stmt, ret, callNode.Stmt, exit.Fact) {
		if ret == nil {
			s.processExit(PathEdge[D]{Start: callerStart, End: Node[D]{Stmt: callNode.Stmt, Fact: r}})
			continue
		}
		s.propagate(PathEdge[D]{Start: callerStart, End: Node[D]{Stmt: ret, Fact: r}})
	}
}

// propagate adds e to the path edges and schedules it, unless it is already known.
func (s *Solver[D]) propagate(e PathEdge[D]) {
	id, added := s.edges.add(e)
	if !added {
		return
	}
	s.worklist.Insert(id)
	addNode(s.startsOf, s.edges.nodeKey(e.End), s.edges.nodeKey(e.Start), e.Start)
	if s.onEdge != nil {
		s.onEdge(id, e)
	}
	s.logger.Trace("new path edge", "id", id, "stmt", e.End.Stmt.String(), "fact", s.problem.Key(e.End.Fact))
}

// addNode adds n under key k of m and reports whether it was absent.
func addNode[D any](m map[nodeKey]*orderedmap.OrderedMap[nodeKey, Node[D]], k, nk nodeKey, n Node[D]) bool {
	set, ok := m[k]
	if !ok {
		set = orderedmap.New[nodeKey, Node[D]]()
		m[k] = set
	}
	if _, ok := set.Load(nk); ok {
		return false
	}
	set.Store(nk, n)
	return true
}
