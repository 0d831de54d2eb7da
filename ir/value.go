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

import (
	"fmt"
	"strings"
)

// Value is anything that may appear as an operand of a statement: locals, constants, references
// and expressions.
type Value interface {
	fmt.Stringer
	Type() Type
}

// Local is a named variable. Locals belong to a method, except globals which have none.
type Local struct {
	name   string
	typ    Type
	method *Method

	declaringStmt Stmt
	usedStmts     []Stmt
}

// NewLocal returns a local that is not owned by any method, e.g. a global variable.
func NewLocal(name string, typ Type) *Local {
	if typ == nil {
		typ = UnknownType{}
	}
	return &Local{name: name, typ: typ}
}

func (l *Local) Name() string    { return l.name }
func (l *Local) Type() Type      { return l.typ }
func (l *Local) String() string  { return l.name }
func (l *Local) Method() *Method { return l.method }

// DeclaringStmt returns the first statement defining the local, or nil.
func (l *Local) DeclaringStmt() Stmt { return l.declaringStmt }

// UsedStmts returns the statements reading the local, in CFG insertion order.
func (l *Local) UsedStmts() []Stmt { return l.usedStmts }

// Constant is a literal. Constants compare by identity: two `undefined` literals at different
// statements are different values.
type Constant struct {
	value string
	typ   Type
}

func NewConstant(value string, typ Type) *Constant {
	return &Constant{value: value, typ: typ}
}

// NewUndefined returns a fresh `undefined` literal.
func NewUndefined() *Constant { return NewConstant("undefined", UndefinedType{}) }

// NewNull returns a fresh `null` literal.
func NewNull() *Constant { return NewConstant("null", NullType{}) }

// NewNumber returns a numeric literal.
func NewNumber(v string) *Constant { return NewConstant(v, NumberType{}) }

func (c *Constant) Value() string  { return c.value }
func (c *Constant) Type() Type     { return c.typ }
func (c *Constant) String() string { return c.value }

// IsUndefinedOrNullLiteral reports whether v is an undefined or null constant.
func IsUndefinedOrNullLiteral(v Value) bool {
	c, ok := v.(*Constant)
	return ok && IsUndefinedOrNull(c.typ)
}

// InstanceFieldRef is `base.field`.
type InstanceFieldRef struct {
	Base  *Local
	Field FieldSignature
	typ   Type
}

func NewInstanceFieldRef(base *Local, field FieldSignature) *InstanceFieldRef {
	return &InstanceFieldRef{Base: base, Field: field, typ: UnknownType{}}
}

func (r *InstanceFieldRef) Type() Type     { return r.typ }
func (r *InstanceFieldRef) String() string { return r.Base.String() + "." + r.Field.Name }

// WithType sets the declared type of the referenced field and returns r.
func (r *InstanceFieldRef) WithType(t Type) *InstanceFieldRef {
	r.typ = t
	return r
}

// StaticFieldRef is `Class.field`.
type StaticFieldRef struct {
	Field FieldSignature
	typ   Type
}

func NewStaticFieldRef(field FieldSignature) *StaticFieldRef {
	return &StaticFieldRef{Field: field, typ: UnknownType{}}
}

func (r *StaticFieldRef) Type() Type     { return r.typ }
func (r *StaticFieldRef) String() string { return r.Field.String() }

// ArrayRef is `base[index]`. A nil Index stands for an index that is not statically known.
type ArrayRef struct {
	Base  *Local
	Index Value
}

func NewArrayRef(base *Local, index Value) *ArrayRef {
	return &ArrayRef{Base: base, Index: index}
}

func (r *ArrayRef) Type() Type {
	if t, ok := r.Base.Type().(ArrayType); ok && t.Elem != nil {
		return t.Elem
	}
	return UnknownType{}
}

func (r *ArrayRef) String() string {
	if r.Index == nil {
		return r.Base.String() + "[]"
	}
	return r.Base.String() + "[" + r.Index.String() + "]"
}

// NewArrayExpr is `new Array<elem>(size)`.
type NewArrayExpr struct {
	Elem Type
	Size Value
}

func (e *NewArrayExpr) Type() Type { return ArrayType{Elem: e.Elem} }

func (e *NewArrayExpr) String() string {
	if e.Size == nil {
		return "new Array()"
	}
	return "new Array(" + e.Size.String() + ")"
}

// ConditionExpr is a binary comparison used by if statements.
type ConditionExpr struct {
	Op          string
	Left, Right Value
}

func (e *ConditionExpr) Type() Type { return BooleanType{} }

func (e *ConditionExpr) String() string {
	return e.Left.String() + " " + e.Op + " " + e.Right.String()
}

// InvokeExpr is a method invocation.
type InvokeExpr interface {
	Value
	Callee() MethodSignature
	Args() []Value
}

// InstanceInvokeExpr is `base.method(args)`.
type InstanceInvokeExpr struct {
	Base      *Local
	Method    MethodSignature
	Arguments []Value
	ret       Type
}

func NewInstanceInvoke(base *Local, method MethodSignature, args ...Value) *InstanceInvokeExpr {
	return &InstanceInvokeExpr{Base: base, Method: method, Arguments: args, ret: UnknownType{}}
}

func (e *InstanceInvokeExpr) Type() Type              { return e.ret }
func (e *InstanceInvokeExpr) Callee() MethodSignature { return e.Method }
func (e *InstanceInvokeExpr) Args() []Value           { return e.Arguments }

func (e *InstanceInvokeExpr) String() string {
	return e.Base.String() + "." + e.Method.Name + "(" + joinValues(e.Arguments) + ")"
}

// StaticInvokeExpr is `Class.method(args)`, also used for plain function calls.
type StaticInvokeExpr struct {
	Method    MethodSignature
	Arguments []Value
	ret       Type
}

func NewStaticInvoke(method MethodSignature, args ...Value) *StaticInvokeExpr {
	return &StaticInvokeExpr{Method: method, Arguments: args, ret: UnknownType{}}
}

func (e *StaticInvokeExpr) Type() Type              { return e.ret }
func (e *StaticInvokeExpr) Callee() MethodSignature { return e.Method }
func (e *StaticInvokeExpr) Args() []Value           { return e.Arguments }

func (e *StaticInvokeExpr) String() string {
	return e.Method.String() + "(" + joinValues(e.Arguments) + ")"
}

func joinValues(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

// usesOf returns the values read when evaluating v, including v itself when it is a local
// or a reference.
func usesOf(v Value) []Value {
	switch v := v.(type) {
	case nil:
		return nil
	case *Local, *StaticFieldRef:
		return []Value{v}
	case *InstanceFieldRef:
		return []Value{v, v.Base}
	case *ArrayRef:
		uses := []Value{v, v.Base}
		return append(uses, usesOf(v.Index)...)
	case *NewArrayExpr:
		return usesOf(v.Size)
	case *ConditionExpr:
		return append(usesOf(v.Left), usesOf(v.Right)...)
	case *InstanceInvokeExpr:
		uses := []Value{v.Base}
		for _, a := range v.Arguments {
			uses = append(uses, usesOf(a)...)
		}
		return uses
	case *StaticInvokeExpr:
		var uses []Value
		for _, a := range v.Arguments {
			uses = append(uses, usesOf(a)...)
		}
		return uses
	}
	return nil
}

// lhsUses returns the values read when v is the target of an assignment: `a.f = ...` reads a
// and `a[i] = ...` reads a and i.
func lhsUses(v Value) []Value {
	switch v := v.(type) {
	case *InstanceFieldRef:
		return []Value{v.Base}
	case *ArrayRef:
		return append([]Value{v.Base}, usesOf(v.Index)...)
	}
	return nil
}
