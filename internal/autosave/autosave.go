/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package autosave provides the debounced save scheduler: edits schedule a
// delayed save after a fixed idle window, and a subsequent edit within that
// window cancels and reschedules the pending save (last-edit-wins, not a
// queue).
package autosave

import (
	"sync"
	"time"
)

// Debouncer is an explicit cancellable scheduled-task primitive. The pending
// task can be superseded any number of times before it fires; once fired it
// runs to completion independently of further edits. Safe for concurrent use.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// New creates a debouncer that runs fn after delay of idle time following the
// last Trigger. A non-positive delay falls back to a conservative default.
func New(delay time.Duration, fn func()) *Debouncer {
	if delay <= 0 {
		delay = 1500 * time.Millisecond
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger schedules the task, superseding any pending schedule.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	// Run outside the lock: the task may take a while and must not block
	// further Triggers, which simply schedule the next run.
	d.fn()
}

// Pending reports whether a task is currently scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Flush runs a pending task immediately instead of waiting out the window.
// No-op when nothing is scheduled.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil && d.timer.Stop() {
		d.timer = nil
		d.mu.Unlock()
		d.fn()
		return
	}
	d.mu.Unlock()
}

// Stop cancels any pending task and prevents future scheduling. Used on
// shutdown, typically after a final Flush.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
