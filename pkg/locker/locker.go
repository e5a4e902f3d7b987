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
 *
 * This file was written with reference to moby/locker.
 *   https://github.com/moby/locker
 */

/*
Package locker provides keyed mutexes. The store serializes the writes of each
top-level path segment with it, so writes to "presence" never wait for writes
to "documents".

A lock entry is created on the first Lock of its key and removed on the last
Unlock while nobody else is waiting for it.
*/
package locker

import (
	"sync"

	"github.com/botscode-team/botscode/pkg/errors"
)

// ErrNoSuchLock is returned when the requested lock does not exist.
var ErrNoSuchLock = errors.FailedPrecond("no such lock").WithCode("ErrNoSuchLock")

// Locker provides a locking mechanism based on the passed in key.
type Locker[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*entry
}

// entry is a mutex with the number of goroutines holding or waiting for it.
type entry struct {
	mu   sync.Mutex
	refs int
}

// New creates a new Locker.
func New[K comparable]() *Locker[K] {
	return &Locker[K]{
		locks: make(map[K]*entry),
	}
}

func (l *Locker[K]) acquire(key K) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[key]
	if !ok {
		e = &entry{}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *Locker[K]) release(key K, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// Lock locks the mutex of the given key, creating it if needed.
func (l *Locker[K]) Lock(key K) {
	e := l.acquire(key)
	e.mu.Lock()
}

// TryLock locks the mutex of the given key only if nobody holds it.
func (l *Locker[K]) TryLock(key K) bool {
	e := l.acquire(key)
	if e.mu.TryLock() {
		return true
	}

	l.release(key, e)
	return false
}

// Unlock unlocks the mutex of the given key.
func (l *Locker[K]) Unlock(key K) error {
	l.mu.Lock()
	e, ok := l.locks[key]
	l.mu.Unlock()
	if !ok {
		return ErrNoSuchLock
	}

	e.mu.Unlock()
	l.release(key, e)
	return nil
}

// Locked runs fn while holding the mutex of the given key.
func (l *Locker[K]) Locked(key K, fn func() error) error {
	l.Lock(key)
	defer func() {
		_ = l.Unlock(key)
	}()

	return fn()
}

// Len returns the number of live lock entries.
func (l *Locker[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
