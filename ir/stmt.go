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

package ir

import "fmt"

// Position is the source position of a statement.
type Position struct {
	File string
	Line int
	Col  int
}

func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Stmt is a node of a method's control-flow graph.
type Stmt interface {
	fmt.Stringer
	// Def returns the value assigned by the statement, or nil.
	Def() Value
	// Uses returns every value read by the statement.
	Uses() []Value
	// InvokeExpr returns the invocation performed by the statement, or nil.
	InvokeExpr() InvokeExpr
	// CFG returns the enclosing control-flow graph, nil until the statement is appended to one.
	CFG() *CFG
	Position() Position

	base() *stmtBase
}

type stmtBase struct {
	cfg *CFG
	pos Position
}

func (b *stmtBase) CFG() *CFG          { return b.cfg }
func (b *stmtBase) Position() Position { return b.pos }
func (b *stmtBase) base() *stmtBase    { return b }

// At sets the source line of s and returns it.
func At[S Stmt](line int, s S) S {
	s.base().pos.Line = line
	return s
}

// Located sets the source position of s and returns it.
func Located[S Stmt](pos Position, s S) S {
	s.base().pos = pos
	return s
}

// ContainsInvokeExpr reports whether s performs an invocation.
func ContainsInvokeExpr(s Stmt) bool {
	return s.InvokeExpr() != nil
}

// IsExitStmt reports whether s leaves its method.
func IsExitStmt(s Stmt) bool {
	switch s.(type) {
	case *ReturnStmt, *ReturnVoidStmt:
		return true
	}
	return false
}

// AssignStmt is `left = right`.
type AssignStmt struct {
	stmtBase
	Left  Value
	Right Value
}

func NewAssign(left, right Value) *AssignStmt {
	return &AssignStmt{Left: left, Right: right}
}

func (s *AssignStmt) Def() Value { return s.Left }

func (s *AssignStmt) Uses() []Value {
	return append(usesOf(s.Right), lhsUses(s.Left)...)
}

func (s *AssignStmt) InvokeExpr() InvokeExpr {
	if e, ok := s.Right.(InvokeExpr); ok {
		return e
	}
	return nil
}

func (s *AssignStmt) String() string { return s.Left.String() + " = " + s.Right.String() }

// InvokeStmt is an invocation whose result is discarded.
type InvokeStmt struct {
	stmtBase
	Invoke InvokeExpr
}

func NewInvoke(e InvokeExpr) *InvokeStmt { return &InvokeStmt{Invoke: e} }

func (s *InvokeStmt) Def() Value             { return nil }
func (s *InvokeStmt) Uses() []Value          { return usesOf(s.Invoke) }
func (s *InvokeStmt) InvokeExpr() InvokeExpr { return s.Invoke }
func (s *InvokeStmt) String() string         { return s.Invoke.String() }

// IfStmt branches on a condition. Its CFG successors are the fall-through and target blocks.
type IfStmt struct {
	stmtBase
	Cond Value
}

func NewIf(cond Value) *IfStmt { return &IfStmt{Cond: cond} }

func (s *IfStmt) Def() Value             { return nil }
func (s *IfStmt) Uses() []Value          { return usesOf(s.Cond) }
func (s *IfStmt) InvokeExpr() InvokeExpr { return nil }
func (s *IfStmt) String() string         { return "if " + s.Cond.String() }

// ReturnStmt is `return op`.
type ReturnStmt struct {
	stmtBase
	Op Value
}

func NewReturn(op Value) *ReturnStmt { return &ReturnStmt{Op: op} }

func (s *ReturnStmt) Def() Value             { return nil }
func (s *ReturnStmt) Uses() []Value          { return usesOf(s.Op) }
func (s *ReturnStmt) InvokeExpr() InvokeExpr { return nil }
func (s *ReturnStmt) String() string         { return "return " + s.Op.String() }

// ReturnVoidStmt is `return` without a value.
type ReturnVoidStmt struct {
	stmtBase
}

func NewReturnVoid() *ReturnVoidStmt { return &ReturnVoidStmt{} }

func (s *ReturnVoidStmt) Def() Value             { return nil }
func (s *ReturnVoidStmt) Uses() []Value          { return nil }
func (s *ReturnVoidStmt) InvokeExpr() InvokeExpr { return nil }
func (s *ReturnVoidStmt) String() string         { return "return" }

// NopStmt does nothing; front ends use it for labels and block placeholders.
type NopStmt struct {
	stmtBase
}

func NewNop() *NopStmt { return &NopStmt{} }

func (s *NopStmt) Def() Value             { return nil }
func (s *NopStmt) Uses() []Value          { return nil }
func (s *NopStmt) InvokeExpr() InvokeExpr { return nil }
func (s *NopStmt) String() string         { return "nop" }
