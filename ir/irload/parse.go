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

package irload

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ForgottenField/ArkAnalyzer/ir"
)

var errEmpty = errors.New("empty operand")

// builder translates statement text in the context of one method.
type builder struct {
	scene  *ir.Scene
	method *ir.Method
	locals map[string]string
}

func (b *builder) scope() string { return b.method.DeclaringClass().Scope() }

func (b *builder) stmt(code string) (ir.Stmt, error) {
	switch {
	case code == "nop":
		return ir.NewNop(), nil
	case code == "return":
		return ir.NewReturnVoid(), nil
	case strings.HasPrefix(code, "return "):
		v, err := b.operand(strings.TrimPrefix(code, "return "))
		if err != nil {
			return nil, err
		}
		return ir.NewReturn(v), nil
	case strings.HasPrefix(code, "if "):
		cond, err := b.condition(strings.TrimPrefix(code, "if "))
		if err != nil {
			return nil, err
		}
		return ir.NewIf(cond), nil
	case code == "let" || strings.HasPrefix(code, "let "):
		decl := strings.TrimSpace(strings.TrimPrefix(code, "let"))
		if decl == "" {
			return nil, fmt.Errorf("missing variable name")
		}
		if !strings.Contains(decl, " = ") {
			decl += " = undefined"
		}
		return b.stmt(decl)
	}

	if lhsText, rhsText, ok := strings.Cut(code, " = "); ok {
		rhs, err := b.rhs(strings.TrimSpace(rhsText))
		if err != nil {
			return nil, err
		}
		lhs, err := b.lhs(strings.TrimSpace(lhsText), rhs)
		if err != nil {
			return nil, err
		}
		return ir.NewAssign(lhs, rhs), nil
	}

	if isCall(code) {
		call, err := b.call(code)
		if err != nil {
			return nil, err
		}
		return ir.NewInvoke(call), nil
	}
	return nil, fmt.Errorf("unrecognized statement")
}

var comparisons = []string{"===", "!==", "==", "!=", "<=", ">=", "<", ">"}

func (b *builder) condition(text string) (ir.Value, error) {
	for _, op := range comparisons {
		if l, r, ok := strings.Cut(text, " "+op+" "); ok {
			left, err := b.operand(l)
			if err != nil {
				return nil, err
			}
			right, err := b.operand(r)
			if err != nil {
				return nil, err
			}
			return &ir.ConditionExpr{Op: op, Left: left, Right: right}, nil
		}
	}
	v, err := b.operand(text)
	if err != nil {
		return nil, err
	}
	return &ir.ConditionExpr{Op: "!=", Left: v, Right: ir.NewConstant("false", ir.BooleanType{})}, nil
}

func (b *builder) rhs(text string) (ir.Value, error) {
	if size, ok := strings.CutPrefix(text, "new Array("); ok {
		size, ok = strings.CutSuffix(size, ")")
		if !ok {
			return nil, fmt.Errorf("unterminated array allocation")
		}
		e := &ir.NewArrayExpr{Elem: ir.UnknownType{}}
		if size = strings.TrimSpace(size); size != "" {
			v, err := b.operand(size)
			if err != nil {
				return nil, err
			}
			e.Size = v
		}
		return e, nil
	}
	if isCall(text) {
		return b.call(text)
	}
	return b.operand(text)
}

// lhs resolves an assignment target. A local assigned an array allocation for the first time
// gets the array type.
func (b *builder) lhs(text string, rhs ir.Value) (ir.Value, error) {
	if isName(text) {
		if _, ok := b.locals[text]; !ok {
			if _, ok := rhs.(*ir.NewArrayExpr); ok {
				return b.local(text, rhs.Type()), nil
			}
		}
	}
	v, err := b.operand(text)
	if err != nil {
		return nil, err
	}
	if _, ok := v.(*ir.Constant); ok {
		return nil, fmt.Errorf("cannot assign to constant %s", text)
	}
	return v, nil
}

func isCall(text string) bool {
	open := strings.IndexByte(text, '(')
	return open > 0 && strings.HasSuffix(text, ")") && !strings.HasPrefix(text, "new ")
}

func (b *builder) call(text string) (ir.InvokeExpr, error) {
	open := strings.IndexByte(text, '(')
	head := strings.TrimSpace(text[:open])
	inner := strings.TrimSpace(text[open+1 : len(text)-1])

	var args []ir.Value
	if inner != "" {
		for _, a := range strings.Split(inner, ",") {
			v, err := b.operand(a)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
	}

	if class, name, ok := strings.Cut(head, "::"); ok {
		sig := ir.MethodSignature{Class: ir.ClassSignature{Scope: b.scope(), Name: class}, Name: name}
		return ir.NewStaticInvoke(sig, args...), nil
	}
	if i := strings.LastIndexByte(head, '.'); i >= 0 {
		base, name := head[:i], head[i+1:]
		if !isName(base) {
			return nil, fmt.Errorf("receiver %q is not a variable", base)
		}
		recv := b.local(base, nil)
		sig := ir.MethodSignature{Name: name}
		if t, ok := recv.Type().(ir.ClassType); ok {
			sig.Class = t.Class
		}
		return ir.NewInstanceInvoke(recv, sig, args...), nil
	}
	sig := ir.MethodSignature{Class: ir.ClassSignature{Scope: b.scope(), Name: ir.DefaultClassName}, Name: head}
	return ir.NewStaticInvoke(sig, args...), nil
}

func (b *builder) operand(text string) (ir.Value, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errEmpty
	}
	if c := parseLiteral(text); c != nil {
		return c, nil
	}

	if class, name, ok := strings.Cut(text, "::"); ok {
		cs := ir.ClassSignature{Scope: b.scope(), Name: class}
		sig := ir.FieldSignature{Class: cs, Name: name, Static: true}
		if c, ok := b.scene.Class(cs); ok {
			if f, ok := c.Field(name); ok {
				sig = f.Signature()
			}
		}
		return ir.NewStaticFieldRef(sig), nil
	}
	if open := strings.IndexByte(text, '['); open > 0 && strings.HasSuffix(text, "]") {
		base := text[:open]
		if !isName(base) {
			return nil, fmt.Errorf("array base %q is not a variable", base)
		}
		ref := ir.NewArrayRef(b.local(base, nil), nil)
		if idx := strings.TrimSpace(text[open+1 : len(text)-1]); idx != "" {
			v, err := b.operand(idx)
			if err != nil {
				return nil, err
			}
			ref.Index = v
		}
		return ref, nil
	}
	if base, name, ok := strings.Cut(text, "."); ok {
		if !isName(base) || !isName(name) {
			return nil, fmt.Errorf("malformed field reference %q", text)
		}
		return b.fieldRef(b.local(base, nil), name), nil
	}
	if !isName(text) {
		return nil, fmt.Errorf("malformed operand %q", text)
	}
	return b.local(text, nil), nil
}

// fieldRef resolves base.name against the class of base when it is known.
func (b *builder) fieldRef(base *ir.Local, name string) *ir.InstanceFieldRef {
	sig := ir.FieldSignature{Name: name}
	var typ ir.Type = ir.UnknownType{}
	if t, ok := base.Type().(ir.ClassType); ok {
		sig.Class = t.Class
		if class, ok := b.scene.Class(t.Class); ok {
			if f, ok := class.Field(name); ok {
				sig = f.Signature()
				typ = f.Type()
			}
		}
	}
	return ir.NewInstanceFieldRef(base, sig).WithType(typ)
}

// local resolves a variable: a method local or parameter, then a global of the scope, and
// otherwise a new local with its declared type, or typ when undeclared.
func (b *builder) local(name string, typ ir.Type) *ir.Local {
	if l, ok := b.method.Local(name); ok {
		return l
	}
	for _, g := range b.scene.Globals(b.scope()) {
		if g.Local.Name() == name {
			return g.Local
		}
	}
	if decl, ok := b.locals[name]; ok {
		typ = parseType(b.scope(), decl)
	}
	return b.method.NewLocal(name, typ)
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || r == '%':
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case i > 0 && '0' <= r && r <= '9':
		default:
			return false
		}
	}
	return true
}
