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

import "slices"

// BasicBlock is a straight-line sequence of statements.
type BasicBlock struct {
	id    int
	stmts []Stmt
	succs []*BasicBlock
	preds []*BasicBlock
}

func (b *BasicBlock) ID() int                    { return b.id }
func (b *BasicBlock) Stmts() []Stmt              { return b.stmts }
func (b *BasicBlock) Successors() []*BasicBlock   { return b.succs }
func (b *BasicBlock) Predecessors() []*BasicBlock { return b.preds }

// CFG is the control-flow graph of a method body. The first block created is the starting
// block.
type CFG struct {
	method  *Method
	blocks  []*BasicBlock
	blockOf map[Stmt]*BasicBlock
	indexOf map[Stmt]int
}

// NewCFG creates an empty control-flow graph and installs it as the body of m.
func NewCFG(m *Method) *CFG {
	cfg := &CFG{
		method:  m,
		blockOf: make(map[Stmt]*BasicBlock),
		indexOf: make(map[Stmt]int),
	}
	m.cfg = cfg
	return cfg
}

// Method returns the declaring method.
func (c *CFG) Method() *Method { return c.method }

// Blocks returns the blocks in creation order.
func (c *CFG) Blocks() []*BasicBlock { return c.blocks }

// NewBlock appends a new empty block.
func (c *CFG) NewBlock() *BasicBlock {
	b := &BasicBlock{id: len(c.blocks)}
	c.blocks = append(c.blocks, b)
	return b
}

// Connect adds a control-flow edge between two blocks of the graph.
func (c *CFG) Connect(from, to *BasicBlock) {
	if slices.Contains(from.succs, to) {
		return
	}
	from.succs = append(from.succs, to)
	to.preds = append(to.preds, from)
}

// Append adds statements at the end of block b. The first definition of a method local becomes
// its declaring statement, and every statement reading a local is recorded as one of its uses.
func (c *CFG) Append(b *BasicBlock, stmts ...Stmt) {
	for _, s := range stmts {
		base := s.base()
		base.cfg = c
		if c.method != nil && c.method.class != nil {
			base.pos.File = c.method.class.sig.Scope
		}
		b.stmts = append(b.stmts, s)
		c.blockOf[s] = b
		c.indexOf[s] = len(b.stmts) - 1

		if l, ok := s.Def().(*Local); ok && l.declaringStmt == nil {
			l.declaringStmt = s
		}
		seen := make(map[*Local]bool)
		for _, u := range s.Uses() {
			if l, ok := u.(*Local); ok && !seen[l] {
				seen[l] = true
				l.usedStmts = append(l.usedStmts, s)
			}
		}
	}
}

// StartingBlock returns the first block, or nil for an empty graph.
func (c *CFG) StartingBlock() *BasicBlock {
	if len(c.blocks) == 0 {
		return nil
	}
	return c.blocks[0]
}

// StartingStmt returns the first statement reachable from the starting block, or nil.
func (c *CFG) StartingStmt() Stmt {
	b := c.StartingBlock()
	if b == nil {
		return nil
	}
	if len(b.stmts) > 0 {
		return b.stmts[0]
	}
	succs := c.firstStmts(b.succs, map[*BasicBlock]bool{b: true})
	if len(succs) == 0 {
		return nil
	}
	return succs[0]
}

// Contains reports whether s belongs to this graph.
func (c *CFG) Contains(s Stmt) bool {
	_, ok := c.blockOf[s]
	return ok
}

// Stmts returns every statement, block by block.
func (c *CFG) Stmts() []Stmt {
	var stmts []Stmt
	for _, b := range c.blocks {
		stmts = append(stmts, b.stmts...)
	}
	return stmts
}

// Successors returns the statements that may execute right after s. Empty blocks are skipped.
func (c *CFG) Successors(s Stmt) []Stmt {
	b, ok := c.blockOf[s]
	if !ok {
		return nil
	}
	if i := c.indexOf[s]; i+1 < len(b.stmts) {
		return []Stmt{b.stmts[i+1]}
	}
	return c.firstStmts(b.succs, map[*BasicBlock]bool{})
}

func (c *CFG) firstStmts(blocks []*BasicBlock, visited map[*BasicBlock]bool) []Stmt {
	var stmts []Stmt
	for _, b := range blocks {
		if visited[b] {
			continue
		}
		visited[b] = true
		if len(b.stmts) > 0 {
			stmts = append(stmts, b.stmts[0])
			continue
		}
		stmts = append(stmts, c.firstStmts(b.succs, visited)...)
	}
	return stmts
}
