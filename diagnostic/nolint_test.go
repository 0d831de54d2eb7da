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
	"testing"

	"github.com/ForgottenField/ArkAnalyzer/ir"
	"github.com/stretchr/testify/require"
)

func TestNolintContainsArkcheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want bool
	}{
		{"nolint", true},
		{"# nolint", true},
		{"//nolint:arkcheck", true},
		{"nolint:all", true},
		{"nolint: errcheck, ArkCheck", true},
		{"nolint:arkcheck // initialized by the framework", true},
		{"nolint // generated code", true},
		{"nolint:errcheck", false},
		{"nolintfoo", false},
		{"nolintfoo:arkcheck", false},
		{"line 5", false},
		{"", false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, nolintContainsArkcheck(tt.text), "text %q", tt.text)
	}
}

func TestRange_Contains(t *testing.T) {
	t.Parallel()

	r, ok := NoLintRange(ir.Position{File: "main.ts", Line: 3}, "nolint:arkcheck")
	require.True(t, ok)
	require.True(t, r.Contains(ir.Position{File: "main.ts", Line: 3}))
	require.False(t, r.Contains(ir.Position{File: "main.ts", Line: 4}))
	require.False(t, r.Contains(ir.Position{File: "lib.ts", Line: 3}))

	_, ok = NoLintRange(ir.Position{File: "main.ts", Line: 3}, "explains the code")
	require.False(t, ok)
}

func TestTruncateFile(t *testing.T) {
	t.Parallel()

	require.Equal(t, "main.ts", truncateFile("main.ts"))
	require.Equal(t, "app/main.ts", truncateFile("app/main.ts"))
	require.Equal(t, "app/main.ts", truncateFile("/home/user/src/app/main.ts"))
	require.Equal(t, "<no pos info>", positionString(ir.Position{File: "main.ts"}))
	require.Equal(t, "12", positionString(ir.Position{Line: 12}))
	require.Equal(t, "app/main.ts:12:4", positionString(ir.Position{File: "src/app/main.ts", Line: 12, Col: 4}))
}
