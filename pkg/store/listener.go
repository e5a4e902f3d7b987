/*
 * Copyright 2026 The BotsCode Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package store

import (
	"sync"
)

// Listener delivers snapshots to a callback on its own goroutine, one at a
// time and in order. Snapshots arriving while the callback runs replace each
// other; the latest one is always delivered.
type Listener struct {
	fn Callback

	mu      sync.Mutex
	pending *Snapshot
	running bool
	closed  bool
}

// NewListener creates a new Listener of the given callback.
func NewListener(fn Callback) *Listener {
	return &Listener{fn: fn}
}

// Notify schedules the delivery of the given snapshot.
func (l *Listener) Notify(snapshot Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	l.pending = &snapshot
	if !l.running {
		l.running = true
		go l.drain()
	}
}

// Close stops deliveries. A callback already running is not interrupted.
func (l *Listener) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	l.pending = nil
}

func (l *Listener) drain() {
	for {
		l.mu.Lock()
		if l.closed || l.pending == nil {
			l.running = false
			l.mu.Unlock()
			return
		}
		snapshot := *l.pending
		l.pending = nil
		l.mu.Unlock()

		l.fn(snapshot)
	}
}
