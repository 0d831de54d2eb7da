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
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ForgottenField/ArkAnalyzer/ir"
)

// LoadFile reads and builds the program description at path.
func LoadFile(path string) (*ir.Scene, *Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read program %q: %w", path, err)
	}
	return Load(data)
}

// Load parses and builds a program description.
func Load(data []byte) (*ir.Scene, *Program, error) {
	p, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}
	scene, err := Build(p)
	if err != nil {
		return nil, nil, err
	}
	return scene, p, nil
}

// Build creates the scene described by p. Declarations are created first so that bodies may
// refer to any class, field, global or method of the program. Statements are positioned in the
// file named after their scope, and their comments are recorded on p.
func Build(p *Program) (*ir.Scene, error) {
	scene := ir.NewScene()
	p.comments = nil

	type pending struct {
		method *ir.Method
		decl   Method
	}
	var bodies []pending

	for _, scope := range p.Scopes {
		for _, c := range scope.Classes {
			scene.NewClass(scope.Name, c.Name)
		}
	}
	for _, scope := range p.Scopes {
		for _, g := range scope.Globals {
			scene.AddGlobal(scope.Name, g.Name, parseType(scope.Name, g.Type), parseInit(g.Init))
		}
		for _, c := range scope.Classes {
			class := scene.NewClass(scope.Name, c.Name)
			for _, f := range c.Fields {
				class.AddField(f.Name, parseType(scope.Name, f.Type), f.Static, parseInit(f.Init))
			}
			for _, md := range c.Methods {
				bodies = append(bodies, pending{declareMethod(class, md, md.Static), md})
			}
		}
		if len(scope.Functions) > 0 {
			class := scene.NewClass(scope.Name, ir.DefaultClassName)
			for _, md := range scope.Functions {
				bodies = append(bodies, pending{declareMethod(class, md, true), md})
			}
		}
	}

	for _, b := range bodies {
		if err := p.buildBody(scene, b.method, b.decl); err != nil {
			return nil, fmt.Errorf("method %s: %w", b.method, err)
		}
	}
	return scene, nil
}

func declareMethod(class *ir.Class, md Method, static bool) *ir.Method {
	m := class.NewMethod(md.Name, static)
	m.SetLine(md.Line)
	for _, name := range md.Params {
		m.AddParam(name, parseType(class.Scope(), md.Locals[name]))
	}
	return m
}

func (p *Program) buildBody(scene *ir.Scene, m *ir.Method, md Method) error {
	if len(md.Body) > 0 && len(md.Blocks) > 0 {
		return fmt.Errorf("both body and blocks given")
	}
	blocks := md.Blocks
	if len(md.Body) > 0 {
		blocks = []Block{{Stmts: md.Body}}
	}
	if len(blocks) == 0 {
		return nil
	}

	b := &builder{scene: scene, method: m, locals: md.Locals}
	cfg := ir.NewCFG(m)
	irBlocks := make([]*ir.BasicBlock, len(blocks))
	for i := range blocks {
		irBlocks[i] = cfg.NewBlock()
	}

	line := md.Line
	for i, block := range blocks {
		for _, s := range block.Stmts {
			if s.Line > 0 {
				line = s.Line
			} else {
				line++
			}
			stmt, err := b.stmt(strings.TrimSpace(s.Code))
			if err != nil {
				return fmt.Errorf("line %d: %q: %w", line, s.Code, err)
			}
			pos := ir.Position{File: m.DeclaringClass().Scope(), Line: line}
			cfg.Append(irBlocks[i], ir.Located(pos, stmt))
			if s.Comment != "" {
				p.comments = append(p.comments, LineComment{Pos: pos, Text: s.Comment})
			}
		}
		for _, succ := range block.Succs {
			if succ < 0 || succ >= len(irBlocks) {
				return fmt.Errorf("block %d: successor %d out of range", i, succ)
			}
			cfg.Connect(irBlocks[i], irBlocks[succ])
		}
	}
	return nil
}

// parseType resolves a type name; unknown names are classes of scope.
func parseType(scope, name string) ir.Type {
	name = strings.TrimSpace(name)
	if elem, ok := strings.CutSuffix(name, "[]"); ok {
		return ir.ArrayType{Elem: parseType(scope, elem)}
	}
	switch name {
	case "", "unknown", "any":
		return ir.UnknownType{}
	case "undefined":
		return ir.UndefinedType{}
	case "null":
		return ir.NullType{}
	case "number":
		return ir.NumberType{}
	case "string":
		return ir.StringType{}
	case "boolean":
		return ir.BooleanType{}
	}
	return ir.ClassType{Class: ir.ClassSignature{Scope: scope, Name: name}}
}

func parseInit(s string) ir.Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if c := parseLiteral(s); c != nil {
		return c
	}
	return ir.NewConstant(s, ir.UnknownType{})
}

// parseLiteral returns the constant spelled by s, or nil.
func parseLiteral(s string) *ir.Constant {
	switch s {
	case "undefined":
		return ir.NewUndefined()
	case "null":
		return ir.NewNull()
	case "true", "false":
		return ir.NewConstant(s, ir.BooleanType{})
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return ir.NewNumber(s)
	}
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return ir.NewConstant(s, ir.StringType{})
	}
	return nil
}
