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
	"fmt"
	"io"
	"slices"

	"github.com/ForgottenField/ArkAnalyzer/ir"
)

// Node is a node of the exploded supergraph: a fact holding before a statement.
type Node[D any] struct {
	Stmt ir.Stmt
	Fact D
}

// PathEdge states that End is reachable from Start, where Start.Stmt is the entry statement of
// the procedure containing End.Stmt.
type PathEdge[D any] struct {
	Start Node[D]
	End   Node[D]
}

type nodeKey struct {
	stmt ir.Stmt
	fact string
}

type edgeKey struct {
	start, end nodeKey
}

// PathEdgeSet is the insertion-ordered, duplicate-free set of path edges computed by a solve.
// Edge ids are dense and follow insertion order.
type PathEdgeSet[D any] struct {
	key   func(D) string
	edges []PathEdge[D]
	index map[edgeKey]int
}

func newPathEdgeSet[D any](key func(D) string) *PathEdgeSet[D] {
	return &PathEdgeSet[D]{key: key, index: make(map[edgeKey]int)}
}

func (s *PathEdgeSet[D]) nodeKey(n Node[D]) nodeKey {
	return nodeKey{stmt: n.Stmt, fact: s.key(n.Fact)}
}

func (s *PathEdgeSet[D]) edgeKey(e PathEdge[D]) edgeKey {
	return edgeKey{start: s.nodeKey(e.Start), end: s.nodeKey(e.End)}
}

// add inserts e unless a structurally equal edge is present, and returns the id of the stored
// edge along with whether it was new.
func (s *PathEdgeSet[D]) add(e PathEdge[D]) (int, bool) {
	k := s.edgeKey(e)
	if id, ok := s.index[k]; ok {
		return id, false
	}
	id := len(s.edges)
	s.edges = append(s.edges, e)
	s.index[k] = id
	return id, true
}

func (s *PathEdgeSet[D]) at(id int) PathEdge[D] { return s.edges[id] }

// Len returns the number of edges.
func (s *PathEdgeSet[D]) Len() int { return len(s.edges) }

// Contains reports whether an edge structurally equal to e is in the set.
func (s *PathEdgeSet[D]) Contains(e PathEdge[D]) bool {
	_, ok := s.index[s.edgeKey(e)]
	return ok
}

// Edges returns a copy of the edges in insertion order.
func (s *PathEdgeSet[D]) Edges() []PathEdge[D] { return slices.Clone(s.edges) }

// OrderedRange calls f with every edge and its id in insertion order until f returns false.
func (s *PathEdgeSet[D]) OrderedRange(f func(id int, e PathEdge[D]) bool) {
	for id, e := range s.edges {
		if !f(id, e) {
			return
		}
	}
}

// EndFacts returns the facts holding before stmt, deduplicated, in insertion order.
func (s *PathEdgeSet[D]) EndFacts(stmt ir.Stmt) []D {
	seen := make(map[string]bool)
	var facts []D
	for _, e := range s.edges {
		if e.End.Stmt != stmt {
			continue
		}
		if k := s.key(e.End.Fact); !seen[k] {
			seen[k] = true
			facts = append(facts, e.End.Fact)
		}
	}
	return facts
}

// Dump writes every edge in a human-readable form, one block per edge.
func (s *PathEdgeSet[D]) Dump(w io.Writer) error {
	for _, e := range s.edges {
		if _, err := fmt.Fprintf(w, "%s\n ----->\n%s\n\n", dumpNode(e.Start), dumpNode(e.End)); err != nil {
			return err
		}
	}
	return nil
}

func dumpNode[D any](n Node[D]) string {
	method := "<unknown>"
	if cfg := n.Stmt.CFG(); cfg != nil && cfg.Method() != nil {
		method = cfg.Method().String()
	}
	return fmt.Sprintf("[node: {Stmt: {%s} method: {%s}}, fact: %v]", n.Stmt, method, n.Fact)
}
