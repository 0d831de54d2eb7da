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

package nullcheck_test

import (
	"testing"

	"github.com/ForgottenField/ArkAnalyzer/ir"
	"github.com/ForgottenField/ArkAnalyzer/irtest"
	"github.com/ForgottenField/ArkAnalyzer/nullcheck"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const flowProgram = `
scopes:
  - name: main.ts
    globals:
      - {name: g}
      - {name: h, init: "1"}
    classes:
      - name: Foo
        fields:
          - {name: a}
          - {name: b}
          - {name: s, static: true}
          - {name: t, static: true, init: "2"}
        methods:
          - name: "%instInit"
            body:
              - this.b = 1
              - return
          - name: "%statInit"
            static: true
            body:
              - Foo::t = 2
              - return
          - name: use
            params: [q]
            body:
              - return q
          - name: none
            body:
              - return null
    functions:
      - name: main
        locals: {o: Foo, arr: "number[]"}
        body:
          - let x
          - y = x
          - z = o.a
          - w = o
          - arr2 = arr
          - e = arr[1]
          - o.%instInit()
          - Foo::%statInit()
          - r = o.use(x)
          - n = o.none()
          - if x == 0
          - return
`

type FlowTestSuite struct {
	suite.Suite

	scene   *ir.Scene
	main    *ir.Method
	checker *nullcheck.Checker
}

func (s *FlowTestSuite) SetupTest() {
	s.scene, _ = irtest.Load(s.T(), flowProgram)
	s.main = irtest.FindMethod(s.T(), s.scene, "%dflt.main")
	s.checker = nullcheck.NewCheckerForMethod(s.main)
}

func (s *FlowTestSuite) local(name string) *ir.Local {
	l, ok := s.main.Local(name)
	s.Require().True(ok, "no local %q", name)
	return l
}

func (s *FlowTestSuite) stmt(code string) ir.Stmt {
	return irtest.FindStmt(s.T(), s.main, code)
}

func (s *FlowTestSuite) field(class, name string) ir.FieldSignature {
	c, ok := s.scene.Class(ir.ClassSignature{Scope: "main.ts", Name: class})
	s.Require().True(ok)
	f, ok := c.Field(name)
	s.Require().True(ok)
	return f.Signature()
}

func (s *FlowTestSuite) method(sig string) *ir.Method {
	return irtest.FindMethod(s.T(), s.scene, sig)
}

func (s *FlowTestSuite) normal(code string, d ir.Value) []string {
	src := s.stmt(code)
	return names(s.checker.NormalFlow(src, nil, d))
}

func names(vs []ir.Value) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}

func (s *FlowTestSuite) TestNormal_UndefinedLiteral() {
	s.Equal([]string{"undefined", "x"}, s.normal("x = undefined", s.checker.Zero()))
}

func (s *FlowTestSuite) TestNormal_Alias() {
	s.Equal([]string{"x", "y"}, s.normal("y = x", s.local("x")))
}

func (s *FlowTestSuite) TestNormal_Kill() {
	s.Empty(s.normal("y = x", s.local("y")))
	// The zero fact survives every assignment.
	s.Equal([]string{"undefined"}, s.normal("y = x", s.checker.Zero()))
}

func (s *FlowTestSuite) TestNormal_FieldRead() {
	o := s.local("o")
	// Reading o.a dereferences o: the fact is kept and nothing is derived.
	s.Equal([]string{"o"}, s.normal("z = o.a", o))
	s.Equal([]string{"o.a", "z"}, s.normal("z = o.a", ir.NewInstanceFieldRef(o, s.field("Foo", "a"))))
}

func (s *FlowTestSuite) TestNormal_FieldRebase() {
	fact := ir.NewInstanceFieldRef(s.local("o"), s.field("Foo", "a"))
	s.Equal([]string{"o.a", "w.a"}, s.normal("w = o", fact))
}

func (s *FlowTestSuite) TestNormal_ArrayRebase() {
	fact := ir.NewArrayRef(s.local("arr"), ir.NewNumber("5"))
	s.Equal([]string{"arr[5]", "arr2[5]"}, s.normal("arr2 = arr", fact))
}

func (s *FlowTestSuite) TestNormal_ArrayWidening() {
	arr := s.local("arr")
	tests := []struct {
		name  string
		index ir.Value
		want  []string
	}{
		{name: "larger bound", index: ir.NewNumber("5"), want: []string{"arr[5]", "e"}},
		{name: "smaller bound", index: ir.NewNumber("0"), want: []string{"arr[0]"}},
		{name: "unbounded", index: nil, want: []string{"arr[]", "e"}},
		{name: "unknown bound", index: ir.NewLocal("i", ir.NumberType{}), want: []string{"arr[i]"}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Equal(tt.want, s.normal("e = arr[1]", ir.NewArrayRef(arr, tt.index)))
		})
	}
}

func (s *FlowTestSuite) TestNormal_Identity() {
	x := s.local("x")
	for _, code := range []string{"if x == 0", "o.%instInit()", "return"} {
		s.Equal([]string{"x"}, s.normal(code, x), code)
	}
}

func (s *FlowTestSuite) TestCall_SeedsInstanceInitializer() {
	got := s.checker.CallFlow(s.stmt("o.%instInit()"), s.method("Foo.%instInit"), s.checker.Zero())
	// b is written by the initializer, t has an initializer and h is initialized.
	s.Equal([]string{"undefined", "Foo.s", "g", "this.a"}, names(got))
}

func (s *FlowTestSuite) TestCall_SeedsStaticInitializer() {
	got := s.checker.CallFlow(s.stmt("Foo.%statInit()"), s.method("Foo.%statInit"), s.checker.Zero())
	s.Equal([]string{"undefined", "Foo.s", "g"}, names(got))
}

func (s *FlowTestSuite) TestCall_NonZero() {
	call := s.stmt("r = o.use(x)")
	use := s.method("Foo.use")
	x := s.local("x")
	sfield := ir.NewStaticFieldRef(s.field("Foo", "s"))

	tests := []struct {
		name string
		fact ir.Value
		want []string
	}{
		{name: "receiver field", fact: ir.NewInstanceFieldRef(s.local("o"), s.field("Foo", "a")), want: []string{"this.a"}},
		{name: "this field", fact: ir.NewInstanceFieldRef(s.main.This(), s.field("Foo", "b")), want: []string{"this.b"}},
		{name: "argument", fact: x, want: []string{"q"}},
		{name: "argument field", fact: ir.NewInstanceFieldRef(x, ir.FieldSignature{Name: "f"}), want: []string{"q.f"}},
		{name: "argument element", fact: ir.NewArrayRef(x, ir.NewNumber("2")), want: []string{"q[2]"}},
		{name: "static field", fact: sfield, want: []string{"Foo.s"}},
		{name: "unrelated", fact: s.local("y"), want: []string{}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Equal(tt.want, names(s.checker.CallFlow(call, use, tt.fact)))
		})
	}

	// A static invocation only carries the static fields of its own class.
	static := s.stmt("Foo.%statInit()")
	s.Equal([]string{"Foo.s"}, names(s.checker.CallFlow(static, s.method("Foo.%statInit"), sfield)))
}

func (s *FlowTestSuite) TestCallToReturn() {
	call := s.stmt("r = o.use(x)")
	s.Empty(s.checker.CallToReturnFlow(call, nil, s.local("r")))
	s.Equal([]string{"x"}, names(s.checker.CallToReturnFlow(call, nil, s.local("x"))))
	s.Equal([]string{"undefined"}, names(s.checker.CallToReturnFlow(call, nil, s.checker.Zero())))
}

func (s *FlowTestSuite) TestExitToReturn() {
	use := s.method("Foo.use")
	q, ok := use.Local("q")
	s.Require().True(ok)
	retQ := irtest.FindStmt(s.T(), use, "return q")
	call := s.stmt("r = o.use(x)")

	s.Equal([]string{"r"}, names(s.checker.ExitToReturnFlow(retQ, nil, call, q)))
	s.Equal([]string{"undefined"}, names(s.checker.ExitToReturnFlow(retQ, nil, call, s.checker.Zero())))
	s.Equal([]string{"this.a"}, names(s.checker.ExitToReturnFlow(retQ, nil, call,
		ir.NewInstanceFieldRef(use.This(), s.field("Foo", "a")))))

	none := s.method("Foo.none")
	retNull := irtest.FindStmt(s.T(), none, "return null")
	s.Equal([]string{"undefined", "n"}, names(s.checker.ExitToReturnFlow(retNull, nil, s.stmt("n = o.none()"), s.checker.Zero())))
}

func TestFlowSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(FlowTestSuite))
}

func TestKeyAndEqual(t *testing.T) {
	t.Parallel()

	scene, _ := irtest.Load(t, flowProgram)
	main := irtest.FindMethod(t, scene, "%dflt.main")
	use := irtest.FindMethod(t, scene, "Foo.use")
	x, _ := main.Local("x")
	arr, _ := main.Local("arr")

	u1, u2 := ir.NewUndefined(), ir.NewUndefined()
	require.True(t, nullcheck.Equal(u1, u1))
	require.False(t, nullcheck.Equal(u1, u2), "constants compare by identity")

	require.True(t, nullcheck.Equal(ir.NewArrayRef(arr, ir.NewNumber("3")), ir.NewArrayRef(arr, ir.NewNumber("3"))))
	require.False(t, nullcheck.Equal(ir.NewArrayRef(arr, ir.NewNumber("3")), ir.NewArrayRef(arr, nil)))

	require.True(t, nullcheck.Equal(main.This(), use.This()), "this is shared between methods")
	q, _ := use.Local("q")
	require.False(t, nullcheck.Equal(x, q))
	require.False(t, nullcheck.Equal(x, ir.NewInstanceFieldRef(x, ir.FieldSignature{Name: "f"})))

	call := irtest.FindStmt(t, main, "r = o.use(x)").InvokeExpr()
	require.Empty(t, nullcheck.Key(call))
	require.False(t, nullcheck.Equal(call, call), "non-fact values are never equal")
}
