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
	"slices"
	"strings"
)

const (
	// ThisName is the name of the receiver local.
	ThisName = "this"
	// InstanceInitMethodName is the synthesized method initializing instance fields.
	InstanceInitMethodName = "%instInit"
	// StaticInitMethodName is the synthesized method initializing static fields.
	StaticInitMethodName = "%statInit"
	// DefaultClassName is the synthesized class holding top-level code of a file.
	DefaultClassName = "%dflt"
	// DefaultMethodName is the synthesized method holding top-level statements of a file.
	DefaultMethodName = "%dflt"
)

// Method is a method or function. Its body is nil for declarations without code.
type Method struct {
	name   string
	class  *Class
	static bool
	params []*Local
	locals map[string]*Local
	this   *Local
	cfg    *CFG
	line   int
}

func (m *Method) Name() string          { return m.name }
func (m *Method) DeclaringClass() *Class { return m.class }
func (m *Method) IsStatic() bool         { return m.static }
func (m *Method) Parameters() []*Local   { return m.params }
func (m *Method) Line() int              { return m.line }

// CFG returns the method body, or nil for a declaration without body.
func (m *Method) CFG() *CFG { return m.cfg }

// HasBody reports whether the method has a non-empty body.
func (m *Method) HasBody() bool { return m.cfg != nil && m.cfg.StartingStmt() != nil }

func (m *Method) Signature() MethodSignature {
	return MethodSignature{Class: m.class.sig, Name: m.name}
}

// String renders the method as `Class.method(p1, p2)`, the key reports are grouped by.
func (m *Method) String() string {
	names := make([]string, len(m.params))
	for i, p := range m.params {
		names[i] = p.name
	}
	return m.class.sig.Name + "." + m.name + "(" + strings.Join(names, ", ") + ")"
}

// SetLine records the source line of the method declaration.
func (m *Method) SetLine(line int) { m.line = line }

// AddParam appends a formal parameter.
func (m *Method) AddParam(name string, typ Type) *Local {
	l := m.NewLocal(name, typ)
	m.params = append(m.params, l)
	return l
}

// NewLocal returns the method local with the given name, creating it on first use. The type is
// only taken into account on creation.
func (m *Method) NewLocal(name string, typ Type) *Local {
	if name == ThisName {
		return m.This()
	}
	if l, ok := m.locals[name]; ok {
		return l
	}
	l := NewLocal(name, typ)
	l.method = m
	m.locals[name] = l
	return l
}

// Local returns the method local with the given name, if any.
func (m *Method) Local(name string) (*Local, bool) {
	if name == ThisName {
		return m.This(), true
	}
	l, ok := m.locals[name]
	return l, ok
}

// This returns the receiver local, typed with the declaring class.
func (m *Method) This() *Local { return m.this }

// Field is a class field. A nil initializer means the field starts out undefined.
type Field struct {
	sig         FieldSignature
	typ         Type
	initializer Value
}

func (f *Field) Signature() FieldSignature { return f.sig }
func (f *Field) Name() string              { return f.sig.Name }
func (f *Field) Type() Type                { return f.typ }
func (f *Field) IsStatic() bool            { return f.sig.Static }
func (f *Field) Initializer() Value        { return f.initializer }
func (f *Field) HasInitializer() bool      { return f.initializer != nil }

// Class is a class declared in a file or namespace scope.
type Class struct {
	sig     ClassSignature
	scene   *Scene
	fields  []*Field
	methods []*Method
}

func (c *Class) Signature() ClassSignature { return c.sig }
func (c *Class) Name() string              { return c.sig.Name }
func (c *Class) Scope() string             { return c.sig.Scope }
func (c *Class) Scene() *Scene             { return c.scene }
func (c *Class) Fields() []*Field          { return c.fields }
func (c *Class) Methods() []*Method        { return c.methods }

// AddField declares a field; initializer may be nil.
func (c *Class) AddField(name string, typ Type, static bool, initializer Value) *Field {
	if typ == nil {
		typ = UnknownType{}
	}
	f := &Field{
		sig:         FieldSignature{Class: c.sig, Name: name, Static: static},
		typ:         typ,
		initializer: initializer,
	}
	c.fields = append(c.fields, f)
	return f
}

// Field returns the field with the given name.
func (c *Class) Field(name string) (*Field, bool) {
	for _, f := range c.fields {
		if f.sig.Name == name {
			return f, true
		}
	}
	return nil, false
}

// NewMethod declares a method without body; use NewCFG to give it one.
func (c *Class) NewMethod(name string, static bool) *Method {
	m := &Method{name: name, class: c, static: static, locals: make(map[string]*Local)}
	// The receiver is created here: the model is read-only during analysis.
	m.this = NewLocal(ThisName, ClassType{Class: c.sig})
	m.this.method = m
	c.methods = append(c.methods, m)
	c.scene.methods[m.Signature()] = m
	return m
}

// Method returns the method with the given name.
func (c *Class) Method(name string) (*Method, bool) {
	m, ok := c.scene.methods[MethodSignature{Class: c.sig, Name: name}]
	return m, ok
}

// Global is a variable declared at file or namespace level.
type Global struct {
	Local       *Local
	Initializer Value
}

// Scene is the whole program: every class grouped by scope, plus scope-level globals.
type Scene struct {
	classes []*Class
	scopes  map[string][]*Class
	globals map[string][]*Global
	methods map[MethodSignature]*Method
}

func NewScene() *Scene {
	return &Scene{
		scopes:  make(map[string][]*Class),
		globals: make(map[string][]*Global),
		methods: make(map[MethodSignature]*Method),
	}
}

// NewClass declares a class in scope. Declaring the same class twice returns the first one.
func (s *Scene) NewClass(scope, name string) *Class {
	sig := ClassSignature{Scope: scope, Name: name}
	if c, ok := s.Class(sig); ok {
		return c
	}
	c := &Class{sig: sig, scene: s}
	s.classes = append(s.classes, c)
	s.scopes[scope] = append(s.scopes[scope], c)
	return c
}

// Class looks a class up by signature.
func (s *Scene) Class(sig ClassSignature) (*Class, bool) {
	for _, c := range s.scopes[sig.Scope] {
		if c.sig.Name == sig.Name {
			return c, true
		}
	}
	return nil, false
}

// Classes returns every class in declaration order.
func (s *Scene) Classes() []*Class { return s.classes }

// ClassesInScope returns the classes declared in a file or namespace.
func (s *Scene) ClassesInScope(scope string) []*Class { return s.scopes[scope] }

// StaticFields returns the static fields of every class declared in scope.
func (s *Scene) StaticFields(scope string) []*Field {
	var fields []*Field
	for _, c := range s.scopes[scope] {
		for _, f := range c.fields {
			if f.IsStatic() {
				fields = append(fields, f)
			}
		}
	}
	return fields
}

// AddGlobal declares a scope-level variable; initializer may be nil.
func (s *Scene) AddGlobal(scope, name string, typ Type, initializer Value) *Local {
	l := NewLocal(name, typ)
	s.globals[scope] = append(s.globals[scope], &Global{Local: l, Initializer: initializer})
	return l
}

// Globals returns the variables declared in scope.
func (s *Scene) Globals(scope string) []*Global { return s.globals[scope] }

// Method looks a method up by signature.
func (s *Scene) Method(sig MethodSignature) (*Method, bool) {
	m, ok := s.methods[sig]
	return m, ok
}

// Methods returns every method in class declaration order.
func (s *Scene) Methods() []*Method {
	var methods []*Method
	for _, c := range s.classes {
		methods = append(methods, c.methods...)
	}
	return methods
}

// MethodsNamed returns every method with the given name, in declaration order.
func (s *Scene) MethodsNamed(name string) []*Method {
	return slices.DeleteFunc(s.Methods(), func(m *Method) bool { return m.name != name })
}
