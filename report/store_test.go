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

package report_test

import (
	"sync"
	"testing"
	"time"

	"github.com/ForgottenField/ArkAnalyzer/ir"
	"github.com/ForgottenField/ArkAnalyzer/irtest"
	"github.com/ForgottenField/ArkAnalyzer/report"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const program = `
scopes:
  - name: main.ts
    classes:
      - name: Foo
        fields:
          - {name: a}
        methods:
          - name: bar
            line: 4
            params: [p]
            body:
              - let x
              - x.foo()
              - t = this.a
              - return
`

func newReports(t *testing.T) (*ir.Method, *report.Report, *report.Report) {
	t.Helper()
	scene, _ := irtest.Load(t, program)
	m := irtest.FindMethod(t, scene, "Foo.bar")
	x, ok := m.Local("x")
	require.True(t, ok)

	call := irtest.FindStmt(t, m, "x.foo()")
	local := report.New(x, call, "Variable 'x' used before being defined (undefined)")
	local.AddPathPoint(x.DeclaringStmt())
	local.AddPathPoint(call)

	a, _ := m.DeclaringClass().Field("a")
	field := ir.NewInstanceFieldRef(m.This(), a.Signature())
	read := irtest.FindStmt(t, m, "t = this.a")
	return m, local, report.New(field, read, "Variable 'this.a' used before being defined (undefined)")
}

func TestRecord(t *testing.T) {
	t.Parallel()

	_, local, field := newReports(t)
	want := report.Record{
		Fact:   "x",
		Node:   "x.foo()",
		Line:   6,
		Method: "Foo.bar(p)",
		Reason: "Variable 'x' used before being defined (undefined)",
		Path: []report.PathStep{
			{Step: 1, Statement: "x = undefined", Line: 5, Method: "Foo.bar(p)"},
			{Step: 2, Statement: "x.foo()", Line: 6, Method: "Foo.bar(p)"},
		},
	}
	if diff := cmp.Diff(want, local.Record()); diff != "" {
		t.Errorf("unexpected record (-want +got):\n%s", diff)
	}
	require.Equal(t, "main.ts", local.File())

	// Facts other than locals are rendered by type, and an empty path stays an empty list.
	rec := field.Record()
	require.Equal(t, "unknown", rec.Fact)
	require.NotNil(t, rec.Path)
	require.Empty(t, rec.Path)
}

func TestStore(t *testing.T) {
	t.Parallel()

	m, local, field := newReports(t)
	sig := m.String()

	store := report.NewStore()
	store.Add(sig, local)
	store.Add(sig, field)
	store.Add("Foo.baz()", field)

	require.Equal(t, 3, store.Len())
	require.Equal(t, []string{sig, "Foo.baz()"}, store.Signatures())
	require.Equal(t, []*report.Report{local, field}, store.Reports(sig))

	require.True(t, store.Delete("Foo.baz()", field))
	require.False(t, store.Delete("Foo.baz()", field))
	require.False(t, store.Delete("Foo.qux()", field))
	require.Equal(t, 2, store.Len())

	// A signature without reports is left out of the records.
	records := store.Records()
	require.Equal(t, []string{sig}, records.Keys())
	require.Len(t, records.Value(sig), 2)

	var visited []string
	store.Range(func(s string, reports []*report.Report) bool {
		visited = append(visited, s)
		return true
	})
	require.Equal(t, []string{sig, "Foo.baz()"}, visited)
}

func TestStore_ReportsAreCopies(t *testing.T) {
	t.Parallel()

	m, local, field := newReports(t)
	store := report.NewStore()
	store.Add(m.String(), local)

	reports := store.Reports(m.String())
	reports[0] = field
	require.Same(t, local, store.Reports(m.String())[0])
}

func TestStore_Summary(t *testing.T) {
	t.Parallel()

	m, local, field := newReports(t)
	store := report.NewStore()
	store.Add(m.String(), local)
	store.Add(m.String(), field)
	store.SetElapsed(1500 * time.Millisecond)

	require.Equal(t, report.Summary{
		TotalReports:       2,
		ReportCountMessage: "Total NullPointer reports exported: 2",
		ExecutionTime:      "Total elapsed time(ms): 1500",
	}, store.Summary())
}

func TestStore_Concurrent(t *testing.T) {
	t.Parallel()

	m, local, _ := newReports(t)
	store := report.NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.Add(m.String(), local)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 800, store.Len())
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	m, local, field := newReports(t)
	store := report.NewStore()
	store.Add(m.String(), local)
	store.Add("%dflt.%dflt()", field)
	store.SetElapsed(42 * time.Millisecond)

	b, err := store.Snapshot()
	require.NoError(t, err)

	snap, err := report.RestoreSnapshot(b)
	require.NoError(t, err)
	require.Equal(t, 42*time.Millisecond, snap.Elapsed)
	require.Equal(t, []string{m.String(), "%dflt.%dflt()"}, snap.Records.Keys())
	if diff := cmp.Diff(local.Record(), snap.Records.Value(m.String())[0]); diff != "" {
		t.Errorf("record changed by snapshot (-want +got):\n%s", diff)
	}
	// Gob does not distinguish empty and nil slices.
	require.Empty(t, snap.Records.Value("%dflt.%dflt()")[0].Path)

	_, err = report.RestoreSnapshot([]byte("not a snapshot"))
	require.Error(t, err)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
