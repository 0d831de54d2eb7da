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

// Package watcher re-runs a handler when program files change on disk. Bursts of events are
// coalesced so that an editor saving several files triggers a single run.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// DefaultDelay is the quiet period after the last change before the handler runs.
const DefaultDelay = 500 * time.Millisecond

// Handler is called with the sorted paths that changed since its previous call.
type Handler func(ctx context.Context, changed []string) error

// Watcher watches program files and the directories holding them.
type Watcher struct {
	fsw       *fsnotify.Watcher
	debouncer *debouncer
	logger    hclog.Logger
	// files holds the individually watched files. Their parent directories are watched so that
	// files replaced by editors are still seen.
	files map[string]bool
	// dirs holds the directories whose program files are all watched.
	dirs        map[string]bool
	watchedDirs map[string]bool
}

// New creates a watcher coalescing events over delay.
func New(delay time.Duration, logger hclog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{
		fsw:         fsw,
		debouncer:   newDebouncer(delay, logger),
		logger:      logger,
		files:       make(map[string]bool),
		dirs:        make(map[string]bool),
		watchedDirs: make(map[string]bool),
	}, nil
}

// Add watches the given program files and directories. Directories are watched recursively.
func (w *Watcher) Add(paths ...string) error {
	for _, path := range paths {
		path = filepath.Clean(path)
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		if !info.IsDir() {
			w.files[path] = true
			if err := w.addDir(filepath.Dir(path)); err != nil {
				return err
			}
			continue
		}
		if err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if p != path && SkipDir(p) {
				return filepath.SkipDir
			}
			w.dirs[p] = true
			return w.addDir(p)
		}); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
	return nil
}

func (w *Watcher) addDir(dir string) error {
	if w.watchedDirs[dir] {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("add directory %s to watcher: %w", dir, err)
	}
	w.watchedDirs[dir] = true
	return nil
}

// WatchedDirs returns the watched directories, sorted.
func (w *Watcher) WatchedDirs() []string {
	dirs := make([]string, 0, len(w.watchedDirs))
	for dir := range w.watchedDirs {
		dirs = append(dirs, dir)
	}
	slices.Sort(dirs)
	return dirs
}

// Run delivers changes to handler until ctx is done, then releases the watcher. It returns
// ctx.Err() on cancellation.
func (w *Watcher) Run(ctx context.Context, handler Handler) error {
	defer w.fsw.Close()
	defer w.debouncer.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				w.logger.Trace("program file changed", "path", event.Name, "op", event.Op.String())
				w.debouncer.add(ctx, filepath.Clean(event.Name), handler)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	path := filepath.Clean(event.Name)
	return w.files[path] || (w.dirs[filepath.Dir(path)] && IsProgramFile(path))
}

// IsProgramFile reports whether path names a program description, skipping hidden, backup and
// swap files.
func IsProgramFile(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
		return false
	}
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// SkipDir reports whether the directory at path is never searched for programs.
func SkipDir(path string) bool {
	switch filepath.Base(path) {
	case "vendor", ".git", "node_modules", ".vscode", ".idea", "build", "dist", "tmp", "temp":
		return true
	}
	return false
}
