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

package diagnostic

import (
	"fmt"
	"strings"

	"github.com/ForgottenField/ArkAnalyzer/config"
	"github.com/ForgottenField/ArkAnalyzer/ir"
)

// flow is the propagation of an undefined value from its source to the point where it is used.
type flow struct {
	sourcePath []node // statements the value flowed through before the use, in recording order
	use        node   // statement dereferencing the value
	reachedUse bool
}

// addSourceNode appends a statement to the source path. Statements recorded after the use point
// are dropped.
func (f *flow) addSourceNode(stmt ir.Stmt) {
	if f.reachedUse {
		return
	}
	n := newNode(stmt, "")
	if n.position == f.use.position && n.stmtRepr == f.use.stmtRepr {
		f.reachedUse = true
		return
	}
	f.sourcePath = append(f.sourcePath, n)
}

// String converts a flow to a string representation, where each entry is of the form:
// `<pos>: <reason>`.
func (f *flow) String() string {
	lines := make([]string, 0, len(f.sourcePath)+1)
	for _, n := range f.sourcePath {
		lines = append(lines, n.String())
	}
	lines = append(lines, f.use.String())
	return "\n" + strings.Join(lines, "\n")
}

type node struct {
	position ir.Position
	stmtRepr string
	useRepr  string
}

func newNode(stmt ir.Stmt, use string) node {
	return node{position: stmt.Position(), stmtRepr: stmt.String(), useRepr: use}
}

func (n node) String() string {
	reason := "`" + n.stmtRepr + "`"
	if n.useRepr != "" {
		reason += " " + n.useRepr
	}
	return fmt.Sprintf("\t- %s: %s", positionString(n.position), reason)
}

func pathString(nodes []node) string {
	var path strings.Builder
	for _, n := range nodes {
		path.WriteString(n.String())
	}
	return path.String()
}

// positionString prints pos with its file name truncated to the last enclosing directories.
func positionString(pos ir.Position) string {
	if !pos.IsValid() {
		return "<no pos info>"
	}
	file := truncateFile(pos.File)
	switch {
	case file == "":
		return fmt.Sprintf("%d", pos.Line)
	case pos.Col == 0:
		return fmt.Sprintf("%s:%d", file, pos.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", file, pos.Line, pos.Col)
	}
}

// truncateFile keeps the base name of file and at most config.DirLevelsToPrintForTriggers
// enclosing directories.
func truncateFile(file string) string {
	parts := strings.Split(file, "/")
	if n := config.DirLevelsToPrintForTriggers + 1; len(parts) > n {
		parts = parts[len(parts)-n:]
	}
	return strings.Join(parts, "/")
}
