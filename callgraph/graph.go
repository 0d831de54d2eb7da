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

package callgraph

import (
	"slices"

	"github.com/ForgottenField/ArkAnalyzer/ir"
	"github.com/yourbasic/graph"
)

// Graph is the call graph restricted to methods with a body. Vertices are numbered in scene
// declaration order.
type Graph struct {
	methods []*ir.Method
	index   map[*ir.Method]int
	g       *graph.Mutable
	sccs    [][]int
	sccOf   []int
}

// Build resolves every call statement of every method with a body in scene.
func Build(scene *ir.Scene, resolver Resolver) *Graph {
	cg := &Graph{index: make(map[*ir.Method]int)}
	for _, m := range scene.Methods() {
		if !m.HasBody() {
			continue
		}
		cg.index[m] = len(cg.methods)
		cg.methods = append(cg.methods, m)
	}

	cg.g = graph.New(len(cg.methods))
	for i, m := range cg.methods {
		for _, stmt := range m.CFG().Stmts() {
			for _, callee := range resolver.Callees(stmt) {
				if j, ok := cg.index[callee]; ok {
					cg.g.Add(i, j)
				}
			}
		}
	}

	cg.sccs = graph.StrongComponents(cg.g)
	cg.sccOf = make([]int, len(cg.methods))
	for c, comp := range cg.sccs {
		slices.Sort(comp)
		for _, v := range comp {
			cg.sccOf[v] = c
		}
	}
	return cg
}

// Methods returns the vertices of the graph.
func (cg *Graph) Methods() []*ir.Method { return cg.methods }

// Callees returns the methods directly called by m, in vertex order.
func (cg *Graph) Callees(m *ir.Method) []*ir.Method {
	i, ok := cg.index[m]
	if !ok {
		return nil
	}
	var callees []int
	cg.g.Visit(i, func(w int, _ int64) bool {
		callees = append(callees, w)
		return false
	})
	slices.Sort(callees)
	methods := make([]*ir.Method, len(callees))
	for k, w := range callees {
		methods[k] = cg.methods[w]
	}
	return methods
}

// IsRecursive reports whether m may call itself, directly or through other methods.
func (cg *Graph) IsRecursive(m *ir.Method) bool {
	i, ok := cg.index[m]
	if !ok {
		return false
	}
	if len(cg.sccs[cg.sccOf[i]]) > 1 {
		return true
	}
	return cg.g.Edge(i, i)
}

// BottomUp returns the methods ordered so that callees come before their callers. Methods of
// the same strongly connected component are kept in vertex order.
func (cg *Graph) BottomUp() []*ir.Method {
	condensed := graph.New(len(cg.sccs))
	for v := range cg.methods {
		cg.g.Visit(v, func(w int, _ int64) bool {
			if cg.sccOf[v] != cg.sccOf[w] {
				condensed.Add(cg.sccOf[v], cg.sccOf[w])
			}
			return false
		})
	}

	// The condensation is acyclic, so the sort cannot fail.
	order, _ := graph.TopSort(condensed)
	methods := make([]*ir.Method, 0, len(cg.methods))
	for k := len(order) - 1; k >= 0; k-- {
		for _, v := range cg.sccs[order[k]] {
			methods = append(methods, cg.methods[v])
		}
	}
	return methods
}
