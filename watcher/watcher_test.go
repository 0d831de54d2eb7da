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

package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// runWatcher starts w and returns the channel receiving handler calls and a function stopping
// the watcher and returning the result of Run.
func runWatcher(t *testing.T, w *Watcher) (<-chan []string, func() error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan []string, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) error {
			changes <- changed
			return nil
		})
	}()
	return changes, func() error {
		cancel()
		return <-done
	}
}

func receive(t *testing.T, changes <-chan []string) []string {
	t.Helper()
	select {
	case got := <-changes:
		return got
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no change delivered")
		return nil
	}
}

func TestWatcher_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	prog := filepath.Join(dir, "main.yaml")
	require.NoError(t, os.WriteFile(prog, []byte("scopes: []\n"), 0o644))

	w, err := New(20*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Add(prog))
	require.Equal(t, []string{dir}, w.WatchedDirs())
	changes, stop := runWatcher(t, w)

	// Only the named file is of interest, even though its directory is watched.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("scopes: []\n"), 0o644))
	require.NoError(t, os.WriteFile(prog, []byte("scopes: [{name: main.ts}]\n"), 0o644))
	require.Equal(t, []string{prog}, receive(t, changes))

	require.ErrorIs(t, stop(), context.Canceled)
}

func TestWatcher_Dir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755))

	w, err := New(50*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Add(dir))
	require.Equal(t, []string{dir, sub}, w.WatchedDirs())
	changes, stop := runWatcher(t, w)

	// A burst of writes is delivered at once; files that are not programs are ignored.
	a, b := filepath.Join(dir, "a.yml"), filepath.Join(sub, "b.yaml")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("scopes: []\n"), 0o644))
	require.NoError(t, os.WriteFile(a, []byte("scopes: []\n"), 0o644))
	// Slow machines may split the burst.
	seen := make(map[string]bool)
	for !seen[a] || !seen[b] {
		for _, p := range receive(t, changes) {
			seen[p] = true
		}
	}
	require.Len(t, seen, 2)

	require.ErrorIs(t, stop(), context.Canceled)
}

func TestWatcher_AddMissing(t *testing.T) {
	t.Parallel()

	w, err := New(DefaultDelay, nil)
	require.NoError(t, err)
	require.Error(t, w.Add(filepath.Join(t.TempDir(), "missing.yaml")))

	// Run releases the watcher on cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, w.Run(ctx, func(context.Context, []string) error { return nil }), context.Canceled)
}

func TestIsProgramFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"main.yaml", true},
		{"dir/main.yml", true},
		{"dir/.main.yaml.swp", false},
		{"dir/.hidden.yaml", false},
		{"main.yaml~", false},
		{"main.ts", false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, IsProgramFile(tt.path), "path %q", tt.path)
	}
	require.True(t, SkipDir("a/node_modules"))
	require.False(t, SkipDir("a/src"))
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
