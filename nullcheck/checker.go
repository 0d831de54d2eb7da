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

// Package nullcheck instantiates the dataflow engine for undefined and null values: facts are
// the locals, fields and array slots that may hold undefined, and a report is raised when such
// a fact is dereferenced.
package nullcheck

import (
	"github.com/ForgottenField/ArkAnalyzer/dataflow"
	"github.com/ForgottenField/ArkAnalyzer/ir"
)

// Checker is the undefined-variable problem for one entry method. It holds no solver state, so
// one checker may be solved any number of times.
type Checker struct {
	entry  ir.Stmt
	method *ir.Method
	scene  *ir.Scene
	zero   *ir.Constant
}

var _ dataflow.Problem[ir.Value] = (*Checker)(nil)

// NewChecker creates the problem starting at entry, which must be a statement of method.
func NewChecker(entry ir.Stmt, method *ir.Method) *Checker {
	c := &Checker{entry: entry, method: method, zero: ir.NewUndefined()}
	if method != nil && method.DeclaringClass() != nil {
		c.scene = method.DeclaringClass().Scene()
	}
	return c
}

// NewCheckerForMethod creates the problem starting at the first statement of m.
func NewCheckerForMethod(m *ir.Method) *Checker {
	var entry ir.Stmt
	if m != nil && m.CFG() != nil {
		entry = m.CFG().StartingStmt()
	}
	return NewChecker(entry, m)
}

func (c *Checker) EntryPoint() ir.Stmt      { return c.entry }
func (c *Checker) EntryMethod() *ir.Method  { return c.method }
func (c *Checker) Zero() ir.Value           { return c.zero }
func (c *Checker) Equal(a, b ir.Value) bool { return Equal(a, b) }
func (c *Checker) Key(d ir.Value) string    { return Key(d) }

func (c *Checker) isZero(d ir.Value) bool {
	z, ok := d.(*ir.Constant)
	return ok && z == c.zero
}
