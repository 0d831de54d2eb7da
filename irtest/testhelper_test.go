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

package irtest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestDedent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "column zero",
			src:  "\nscopes:\n  - name: a.ts\n    functions:\n      - name: main\n",
			want: "\nscopes:\n  - name: a.ts\n    functions:\n      - name: main\n",
		},
		{
			name: "indented with spaces",
			src:  "\n    scopes:\n      - name: a.ts\n\n    expect: {}\n  ",
			want: "\nscopes:\n  - name: a.ts\n\nexpect: {}\n",
		},
		{
			name: "indented with tabs",
			src:  "\n\t\tscopes:\n\t\t  - name: a.ts\n\t",
			want: "\nscopes:\n  - name: a.ts\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Dedent(tt.src))
		})
	}
}

func TestLoad_ColumnZero(t *testing.T) {
	t.Parallel()

	scene, _ := Load(t, `
scopes:
  - name: main.ts
    functions:
      - name: main
        body:
          - return
`)
	require.True(t, FindMethod(t, scene, "%dflt.main").HasBody())
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
