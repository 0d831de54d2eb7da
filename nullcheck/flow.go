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
	"github.com/ForgottenField/ArkAnalyzer/ir"
)

// NormalFlow propagates d over an intraprocedural edge. Only assignments change facts; every
// other statement passes d through unchanged.
func (c *Checker) NormalFlow(src, _ ir.Stmt, d ir.Value) []ir.Value {
	assign, ok := src.(*ir.AssignStmt)
	if !ok {
		return []ir.Value{d}
	}
	var out facts
	if c.isZero(d) || !killedBy(assign, d) {
		out.add(d)
	}
	c.assignFlow(&out, assign, d)
	return out.values
}

// killedBy reports whether the assignment overwrites the storage location d.
func killedBy(s *ir.AssignStmt, d ir.Value) bool {
	if Equal(s.Left, d) {
		return true
	}
	l, ok := d.(*ir.Local)
	return ok && l.Name() == s.Left.String()
}

func (c *Checker) assignFlow(out *facts, s *ir.AssignStmt, d ir.Value) {
	lhs, rhs := s.Left, s.Right

	if c.isZero(d) {
		if ir.IsUndefinedOrNullLiteral(rhs) {
			out.add(lhs)
		}
		if na, ok := rhs.(*ir.NewArrayExpr); ok {
			if l, ok := lhs.(*ir.Local); ok {
				out.add(ir.NewArrayRef(l, na.Size))
			}
		}
		return
	}

	if Equal(rhs, d) || ir.IsUndefinedOrNull(rhs.Type()) {
		out.add(lhs)
		return
	}
	if _, ok := rhs.(*ir.InstanceFieldRef); ok {
		// Reading a field of d is a dereference, reported during extraction.
		return
	}
	if f, ok := d.(*ir.InstanceFieldRef); ok && Equal(rhs, f.Base) {
		if l, ok := lhs.(*ir.Local); ok {
			out.add(ir.NewInstanceFieldRef(l, f.Field).WithType(f.Type()))
		}
		return
	}
	if r, ok := rhs.(*ir.Local); ok && ir.IsArray(r.Type()) {
		if a, ok := d.(*ir.ArrayRef); ok {
			if l, ok := lhs.(*ir.Local); ok && Equal(a.Base, r) {
				out.add(ir.NewArrayRef(l, a.Index))
			}
			return
		}
	}
	if r, ok := rhs.(*ir.ArrayRef); ok {
		if a, ok := d.(*ir.ArrayRef); ok && Equal(r.Base, a.Base) && subsumes(a.Index, r.Index) {
			out.add(lhs)
		}
	}
}

// CallFlow maps a caller fact to the facts holding at the entry of callee.
func (c *Checker) CallFlow(callStmt ir.Stmt, callee *ir.Method, d ir.Value) []ir.Value {
	invoke := callStmt.InvokeExpr()
	if invoke == nil || callee == nil {
		return nil
	}

	var out facts
	if c.isZero(d) {
		c.seedCallee(&out, callee)
	} else {
		switch e := invoke.(type) {
		case *ir.InstanceInvokeExpr:
			switch f := d.(type) {
			case *ir.InstanceFieldRef:
				if f.Base.Name() == ir.ThisName {
					out.add(f)
				}
				if e.Base.Name() == f.Base.Name() {
					out.add(ir.NewInstanceFieldRef(callee.This(), f.Field).WithType(f.Type()))
				}
			case *ir.StaticFieldRef:
				out.add(f)
			}
		case *ir.StaticInvokeExpr:
			if f, ok := d.(*ir.StaticFieldRef); ok && f.Field.Class == e.Method.Class {
				out.add(f)
			}
		}
	}
	c.mapArguments(&out, invoke, callee, d)
	return out.values
}

// seedCallee adds the facts a callee starts with: the zero fact, the uninitialized static
// fields and globals of its scope, and, for the instance or static initializer of a class, the
// fields of that kind it leaves unset.
func (c *Checker) seedCallee(out *facts, callee *ir.Method) {
	out.add(c.zero)
	class := callee.DeclaringClass()
	if c.scene != nil {
		for _, f := range c.scene.StaticFields(class.Scope()) {
			if !f.HasInitializer() {
				out.add(ir.NewStaticFieldRef(f.Signature()))
			}
		}
		for _, g := range c.scene.Globals(class.Scope()) {
			if g.Initializer == nil {
				out.add(g.Local)
			}
		}
	}

	name := callee.Name()
	if name != ir.InstanceInitMethodName && name != ir.StaticInitMethodName {
		return
	}
	static := name == ir.StaticInitMethodName
	for _, f := range class.Fields() {
		if f.IsStatic() != static || writesField(callee, f.Signature()) {
			continue
		}
		if static {
			out.add(ir.NewStaticFieldRef(f.Signature()))
		} else {
			out.add(ir.NewInstanceFieldRef(callee.This(), f.Signature()).WithType(f.Type()))
		}
	}
}

func writesField(m *ir.Method, field ir.FieldSignature) bool {
	if m.CFG() == nil {
		return false
	}
	for _, s := range m.CFG().Stmts() {
		switch def := s.Def().(type) {
		case *ir.InstanceFieldRef:
			if def.Field == field {
				return true
			}
		case *ir.StaticFieldRef:
			if def.Field == field {
				return true
			}
		}
	}
	return false
}

// mapArguments maps facts about actual arguments to the callee's formal parameters.
func (c *Checker) mapArguments(out *facts, invoke ir.InvokeExpr, callee *ir.Method, d ir.Value) {
	params := callee.Parameters()
	for i, arg := range invoke.Args() {
		if i >= len(params) {
			break
		}
		param := params[i]
		switch {
		case Equal(arg, d) || (isUndefinedLiteral(arg) && c.isZero(d)):
			out.add(param)
		default:
			switch f := d.(type) {
			case *ir.InstanceFieldRef:
				if f.Base.Name() == arg.String() {
					out.add(ir.NewInstanceFieldRef(param, f.Field).WithType(f.Type()))
				}
			case *ir.ArrayRef:
				if f.Base.Name() == arg.String() {
					out.add(ir.NewArrayRef(param, f.Index))
				}
			}
		}
	}
}

// CallToReturnFlow passes every fact around the call except the one its result overwrites.
func (c *Checker) CallToReturnFlow(callStmt, _ ir.Stmt, d ir.Value) []ir.Value {
	if c.isZero(d) {
		return []ir.Value{d}
	}
	if def := callStmt.Def(); def != nil && Equal(def, d) {
		return nil
	}
	return []ir.Value{d}
}

// ExitToReturnFlow maps a callee fact at exitStmt back into the caller. Facts on fields of
// `this` survive; the call result is undefined when the callee returns an undefined literal or
// a value aliasing d.
func (c *Checker) ExitToReturnFlow(exitStmt, _, callStmt ir.Stmt, d ir.Value) []ir.Value {
	var out facts
	if c.isZero(d) {
		out.add(d)
	}
	if f, ok := d.(*ir.InstanceFieldRef); ok && f.Base.Name() == ir.ThisName {
		out.add(f)
	}
	if ret, ok := exitStmt.(*ir.ReturnStmt); ok {
		if ir.IsUndefinedOrNullLiteral(ret.Op) || Equal(ret.Op, d) {
			if l, ok := callStmt.Def().(*ir.Local); ok {
				out.add(l)
			}
		}
	}
	return out.values
}
