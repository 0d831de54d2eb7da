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

// Package irtest implements utility functions for tests that build programs from YAML
// descriptions.
package irtest

import (
	"slices"
	"strings"
	"testing"

	"github.com/ForgottenField/ArkAnalyzer/ir"
	"github.com/ForgottenField/ArkAnalyzer/ir/irload"
	"github.com/stretchr/testify/require"
)

// Load builds the program described by src, which may be indented as a Go raw string.
func Load(t testing.TB, src string) (*ir.Scene, *irload.Program) {
	t.Helper()
	scene, prog, err := irload.Load([]byte(Dedent(src)))
	require.NoError(t, err)
	return scene, prog
}

// Dedent removes the indentation shared by every non-blank line of s, and converts tabs used as
// indentation to spaces so that YAML written inside Go code stays valid.
func Dedent(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\t", "  "), "\n")
	prefix := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " "))
		if prefix < 0 || n < prefix {
			prefix = n
		}
	}
	if prefix <= 0 {
		return strings.Join(lines, "\n")
	}
	for i, l := range lines {
		if len(l) >= prefix {
			lines[i] = l[prefix:]
		} else {
			// Only blank lines can be shorter than the shared indentation.
			lines[i] = strings.TrimLeft(l, " ")
		}
	}
	return strings.Join(lines, "\n")
}

// FindMethod returns the method whose signature is sig, written either `Class.m(p1, p2)` or
// `Class.m`.
func FindMethod(t testing.TB, scene *ir.Scene, sig string) *ir.Method {
	t.Helper()
	for _, m := range scene.Methods() {
		if m.String() == sig || m.Signature().String() == sig {
			return m
		}
	}
	require.FailNowf(t, "method not found", "no method %q in scene", sig)
	return nil
}

// FindStmt returns the first statement of m rendered as code.
func FindStmt(t testing.TB, m *ir.Method, code string) ir.Stmt {
	t.Helper()
	require.NotNil(t, m.CFG(), "method %s has no body", m)
	for _, s := range m.CFG().Stmts() {
		if s.String() == code {
			return s
		}
	}
	require.FailNowf(t, "statement not found", "no statement %q in %s", code, m)
	return nil
}

// Stmts renders statements as code.
func Stmts(stmts []ir.Stmt) []string {
	codes := make([]string, len(stmts))
	for i, s := range stmts {
		codes[i] = s.String()
	}
	return codes
}

// ExpectedFacts returns the facts each method is expected to report, as declared under the
// program's `expect` key, with the facts of each method sorted.
func ExpectedFacts(prog *irload.Program) map[string][]string {
	results := make(map[string][]string, len(prog.Expect))
	for sig, facts := range prog.Expect {
		facts = slices.Clone(facts)
		slices.Sort(facts)
		results[sig] = facts
	}
	return results
}
