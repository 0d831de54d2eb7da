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
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// debouncer collects changed paths and flushes them to the handler once no change arrived for
// delay.
type debouncer struct {
	delay   time.Duration
	logger  hclog.Logger
	mutex   sync.Mutex
	changed map[string]bool
	timer   *time.Timer
	stopped bool
	// inflight counts the scheduled or running flushes.
	inflight sync.WaitGroup
}

func newDebouncer(delay time.Duration, logger hclog.Logger) *debouncer {
	return &debouncer{delay: delay, logger: logger, changed: make(map[string]bool)}
}

func (d *debouncer) add(ctx context.Context, path string, handler Handler) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.stopped {
		return
	}
	d.changed[path] = true
	if d.timer != nil && d.timer.Stop() {
		d.inflight.Done()
	}
	d.inflight.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.inflight.Done()
		d.flush(ctx, handler)
	})
}

func (d *debouncer) flush(ctx context.Context, handler Handler) {
	d.mutex.Lock()
	if d.stopped || len(d.changed) == 0 {
		d.mutex.Unlock()
		return
	}
	changed := make([]string, 0, len(d.changed))
	for path := range d.changed {
		changed = append(changed, path)
	}
	d.changed = make(map[string]bool)
	d.mutex.Unlock()

	slices.Sort(changed)
	if err := handler(ctx, changed); err != nil {
		d.logger.Error("handling changed files failed", "files", changed, "error", err)
	}
}

// stop cancels a pending flush and waits for a running one to return.
func (d *debouncer) stop() {
	d.mutex.Lock()
	d.stopped = true
	if d.timer != nil && d.timer.Stop() {
		d.inflight.Done()
	}
	d.mutex.Unlock()
	d.inflight.Wait()
}
