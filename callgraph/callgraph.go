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

// Package callgraph resolves call statements to their candidate callees and orders methods along
// the resulting call graph. The dataflow solver only sees the Resolver capability, so any
// pointer-analysis based call graph can be plugged in instead of the class-hierarchy resolver
// provided here.
package callgraph

import (
	"github.com/ForgottenField/ArkAnalyzer/ir"
)

// Resolver maps a call statement to the methods it may invoke. Implementations must be safe
// for concurrent use once constructed.
type Resolver interface {
	Callees(stmt ir.Stmt) []*ir.Method
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(stmt ir.Stmt) []*ir.Method

func (f ResolverFunc) Callees(stmt ir.Stmt) []*ir.Method { return f(stmt) }

// CHA is a class-hierarchy style resolver over a scene. Static invocations resolve to the exact
// signature. Instance invocations resolve to the method of the receiver's class when the
// receiver has a class type, and to every method of that name otherwise.
type CHA struct {
	scene *ir.Scene
}

// NewCHA builds a resolver for scene. The scene must not change afterwards.
func NewCHA(scene *ir.Scene) *CHA {
	return &CHA{scene: scene}
}

func (c *CHA) Callees(stmt ir.Stmt) []*ir.Method {
	invoke := stmt.InvokeExpr()
	if invoke == nil {
		return nil
	}

	switch e := invoke.(type) {
	case *ir.StaticInvokeExpr:
		if m, ok := c.scene.Method(e.Method); ok {
			return []*ir.Method{m}
		}
	case *ir.InstanceInvokeExpr:
		if t, ok := e.Base.Type().(ir.ClassType); ok {
			if m, ok := c.scene.Method(ir.MethodSignature{Class: t.Class, Name: e.Method.Name}); ok {
				return []*ir.Method{m}
			}
		}
		if m, ok := c.scene.Method(e.Method); ok {
			return []*ir.Method{m}
		}
		return c.scene.MethodsNamed(e.Method.Name)
	}
	return nil
}
