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

package debounce_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/botscode-team/botscode/pkg/debounce"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(key string, payload string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, key+"="+payload)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestScheduler(t *testing.T) {
	const delay = 50 * time.Millisecond

	t.Run("trailing edge test", func(t *testing.T) {
		r := &recorder{}
		s := debounce.New[string, string](delay, r.record)
		defer s.Stop()

		s.Schedule("text", "x")
		time.Sleep(delay / 5)
		s.Schedule("text", "xy")
		assert.True(t, s.Pending("text"))

		assert.Eventually(t, func() bool {
			return len(r.snapshot()) == 1
		}, time.Second, 5*time.Millisecond)
		time.Sleep(2 * delay)
		assert.Equal(t, []string{"text=xy"}, r.snapshot())
		assert.False(t, s.Pending("text"))
	})

	t.Run("keys are independent test", func(t *testing.T) {
		r := &recorder{}
		s := debounce.New[string, string](delay, r.record)
		defer s.Stop()

		s.Schedule("text", "a")
		s.Schedule("language", "go")

		assert.Eventually(t, func() bool {
			return len(r.snapshot()) == 2
		}, time.Second, 5*time.Millisecond)
		assert.ElementsMatch(t, []string{"text=a", "language=go"}, r.snapshot())
	})

	t.Run("cancel test", func(t *testing.T) {
		r := &recorder{}
		s := debounce.New[string, string](delay, r.record)
		defer s.Stop()

		s.Schedule("text", "a")
		assert.True(t, s.Cancel("text"))
		assert.False(t, s.Cancel("text"))

		time.Sleep(2 * delay)
		assert.Empty(t, r.snapshot())
	})

	t.Run("stop test", func(t *testing.T) {
		r := &recorder{}
		s := debounce.New[string, string](delay, r.record)

		s.Schedule("text", "a")
		s.Stop()
		s.Schedule("text", "b")
		assert.False(t, s.Pending("text"))

		time.Sleep(2 * delay)
		assert.Empty(t, r.snapshot())
	})
}
