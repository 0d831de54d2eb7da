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

// Package dataflow implements a generic IFDS solver: the tabulation fixpoint over the exploded
// supergraph whose nodes are (statement, fact) pairs. A concrete analysis plugs in through the
// Problem interface, which defines the fact domain and the four flow functions.
package dataflow

import (
	"github.com/ForgottenField/ArkAnalyzer/ir"
)

// Problem is an IFDS problem over facts of type D.
//
// Flow functions must be pure and total: they never mutate the program model or the problem,
// and an input they cannot represent simply yields no output. Returning an empty slice kills the
// incoming fact.
type Problem[D any] interface {
	// EntryPoint is the statement the analysis starts from; it must belong to EntryMethod.
	EntryPoint() ir.Stmt
	EntryMethod() *ir.Method

	// Zero returns the distinguished fact that holds everywhere.
	Zero() D
	// Equal reports whether two facts denote the same dataflow value. Facts of incompatible
	// kinds are simply not equal.
	Equal(a, b D) bool
	// Key returns the canonical form of a fact: Key(a) == Key(b) iff Equal(a, b).
	Key(d D) string

	// NormalFlow maps a fact over the intraprocedural edge src → tgt.
	NormalFlow(src, tgt ir.Stmt, d D) []D
	// CallFlow maps a caller fact at callStmt to the facts holding at the callee's entry.
	CallFlow(callStmt ir.Stmt, callee *ir.Method, d D) []D
	// CallToReturnFlow maps a caller fact around the call, from callStmt to returnSite.
	CallToReturnFlow(callStmt, returnSite ir.Stmt, d D) []D
	// ExitToReturnFlow maps a callee fact at exitStmt back to returnSite, the statement
	// following callStmt in the caller.
	ExitToReturnFlow(exitStmt, returnSite, callStmt ir.Stmt, d D) []D
}

// CallResolver resolves a call statement to its candidate callees.
type CallResolver interface {
	Callees(stmt ir.Stmt) []*ir.Method
}
