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

package locker_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/botscode-team/botscode/pkg/locker"
)

func TestLockerLock(t *testing.T) {
	l := locker.New[string]()
	l.Lock("presence")

	chDone := make(chan struct{})
	go func() {
		l.Lock("presence")
		close(chDone)
	}()

	select {
	case <-chDone:
		t.Fatal("lock should not have returned while it was still held")
	case <-time.After(20 * time.Millisecond):
	}

	assert.NoError(t, l.Unlock("presence"))

	select {
	case <-chDone:
	case <-time.After(3 * time.Second):
		t.Fatal("lock should have completed")
	}
	assert.NoError(t, l.Unlock("presence"))
	assert.Equal(t, 0, l.Len())
}

func TestLockerKeysAreIndependent(t *testing.T) {
	l := locker.New[string]()
	l.Lock("presence")
	defer func() {
		assert.NoError(t, l.Unlock("presence"))
	}()

	assert.True(t, l.TryLock("documents"))
	assert.NoError(t, l.Unlock("documents"))
}

func TestLockerUnlockUnknown(t *testing.T) {
	l := locker.New[string]()
	assert.ErrorIs(t, l.Unlock("members"), locker.ErrNoSuchLock)
}

func TestLockerConcurrency(t *testing.T) {
	l := locker.New[string]()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 1000; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Locked("events", func() error {
				counter++
				return nil
			}))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, counter)
	assert.Equal(t, 0, l.Len())
}

func TestTryLock(t *testing.T) {
	l := locker.New[string]()

	for i := 0; i < 2; i++ {
		assert.True(t, l.TryLock("members"))
		assert.False(t, l.TryLock("members"))
		assert.NoError(t, l.Unlock("members"))
	}
	assert.Equal(t, 0, l.Len())
}
