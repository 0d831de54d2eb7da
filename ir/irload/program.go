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

// Package irload builds an ir.Scene from a YAML program description. It is the front end used by
// the command line tool and by tests; real front ends construct the scene directly.
//
// A program lists scopes (files or namespaces). Each scope declares globals, classes with fields
// and methods, and top-level functions, which belong to the scope's default class:
//
//	scopes:
//	  - name: main.ts
//	    globals:
//	      - {name: g, type: number}
//	    classes:
//	      - name: Foo
//	        fields:
//	          - {name: a, type: Foo}
//	        methods:
//	          - name: bar
//	            params: [p]
//	            locals: {arr: "number[]"}
//	            body:
//	              - let x
//	              - {line: 7, stmt: x.foo()}
//	              - return
//	expect:
//	  Foo.bar(p): [x]
//
// Methods either have a straight-line body or a list of blocks with explicit successors.
// Statements use a small three-address syntax:
//
//	nop | return [v] | if v [op v] | let x [= rhs] | lhs = rhs | call
//	rhs  := call | new Array([v]) | v
//	call := x.m(args) | Class::m(args) | f(args)
//	v    := undefined | null | true | false | number | "string" | x | x.f | Class::f | x[v] | x[]
package irload

import (
	"fmt"
	"strings"

	"github.com/ForgottenField/ArkAnalyzer/ir"
	"gopkg.in/yaml.v3"
)

// Program is the YAML description of a scene.
type Program struct {
	Scopes []Scope `yaml:"scopes"`
	// Expect maps method signatures to the facts expected to be reported in them.
	Expect map[string][]string `yaml:"expect,omitempty"`

	comments []LineComment
}

// Scope is a file or namespace.
type Scope struct {
	Name      string   `yaml:"name"`
	Globals   []Var    `yaml:"globals,omitempty"`
	Classes   []Class  `yaml:"classes,omitempty"`
	Functions []Method `yaml:"functions,omitempty"`
}

// Var declares a global or a field. An empty Init leaves it undefined.
type Var struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type,omitempty"`
	Static bool   `yaml:"static,omitempty"`
	Init   string `yaml:"init,omitempty"`
}

// Class declares a class.
type Class struct {
	Name    string   `yaml:"name"`
	Fields  []Var    `yaml:"fields,omitempty"`
	Methods []Method `yaml:"methods,omitempty"`
}

// Method declares a method. Body and Blocks are mutually exclusive; a method with neither has
// no body.
type Method struct {
	Name   string            `yaml:"name"`
	Static bool              `yaml:"static,omitempty"`
	Line   int               `yaml:"line,omitempty"`
	Params []string          `yaml:"params,omitempty"`
	Locals map[string]string `yaml:"locals,omitempty"`
	Body   []Stmt            `yaml:"body,omitempty"`
	Blocks []Block           `yaml:"blocks,omitempty"`
}

// Block is a basic block; Succs are indices into the method's blocks.
type Block struct {
	Stmts []Stmt `yaml:"stmts"`
	Succs []int  `yaml:"succs,omitempty"`
}

// Stmt is a statement and its optional line. Without a line, a statement is placed on the line
// following the previous one.
type Stmt struct {
	Line int    `yaml:"line,omitempty"`
	Code string `yaml:"stmt"`
	// Comment is the trailing YAML comment of the statement, without the leading "#".
	Comment string `yaml:"-"`
}

// UnmarshalYAML accepts both a bare string and a {line, stmt} mapping.
func (s *Stmt) UnmarshalYAML(node *yaml.Node) error {
	comment := strings.TrimSpace(strings.TrimPrefix(node.LineComment, "#"))
	if node.Kind == yaml.ScalarNode {
		s.Code = node.Value
		s.Comment = comment
		return nil
	}
	type plain Stmt
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = Stmt(p)
	s.Comment = comment
	return nil
}

// LineComment is a statement comment together with the position the statement was built at.
type LineComment struct {
	Pos  ir.Position
	Text string
}

// Comments returns the statement comments recorded by Build, in program order.
func (p *Program) Comments() []LineComment {
	return p.comments
}

// Parse decodes a program description.
func Parse(data []byte) (*Program, error) {
	var p Program
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	return &p, nil
}
