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

// Package debounce provides a trailing-edge debouncer keyed by the field
// being written.
package debounce

import (
	"sync"
	"time"
)

// Scheduler runs the callback with the latest payload scheduled for a key
// once no other payload was scheduled for that key during the delay.
type Scheduler[K comparable, V any] struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(key K, payload V)
	seq     uint64
	pending map[K]*entry
	stopped bool
}

// entry is a scheduled run. seq identifies it so that a timer which already
// fired while being replaced does not run.
type entry struct {
	timer *time.Timer
	seq   uint64
}

// New creates a new Scheduler that runs fn after the given delay.
func New[K comparable, V any](delay time.Duration, fn func(key K, payload V)) *Scheduler[K, V] {
	return &Scheduler[K, V]{
		delay:   delay,
		fn:      fn,
		pending: make(map[K]*entry),
	}
}

// Schedule replaces the pending payload of the key, if any, and restarts the
// delay. It does nothing after Stop.
func (s *Scheduler[K, V]) Schedule(key K, payload V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if e, ok := s.pending[key]; ok {
		e.timer.Stop()
	}

	s.seq++
	seq := s.seq
	s.pending[key] = &entry{
		seq: seq,
		timer: time.AfterFunc(s.delay, func() {
			s.fire(key, seq, payload)
		}),
	}
}

// Cancel drops the pending payload of the key. It returns false if nothing
// was pending.
func (s *Scheduler[K, V]) Cancel(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.pending[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.pending, key)
	return true
}

// Pending returns whether a payload is scheduled for the key.
func (s *Scheduler[K, V]) Pending(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.pending[key]
	return ok
}

// Stop drops every pending payload. Later calls to Schedule are ignored.
func (s *Scheduler[K, V]) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for key, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, key)
	}
}

func (s *Scheduler[K, V]) fire(key K, seq uint64, payload V) {
	s.mu.Lock()
	e, ok := s.pending[key]
	if !ok || e.seq != seq || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	s.mu.Unlock()

	s.fn(key, payload)
}
