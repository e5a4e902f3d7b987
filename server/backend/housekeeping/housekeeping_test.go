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

package housekeeping_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botscode-team/botscode/server/backend/housekeeping"
)

type fakeSweeper struct {
	calls   int32
	pending int32
}

func (s *fakeSweeper) ExpireConnections(_ context.Context, limit int) (int, error) {
	atomic.AddInt32(&s.calls, 1)

	pending := atomic.LoadInt32(&s.pending)
	expired := int(pending)
	if expired > limit {
		expired = limit
	}
	atomic.AddInt32(&s.pending, -int32(expired))
	return expired, nil
}

func TestHousekeeping(t *testing.T) {
	t.Run("sweeps until no candidate is left test", func(t *testing.T) {
		sweeper := &fakeSweeper{pending: 5}
		h, err := housekeeping.Start(&housekeeping.Config{
			Interval:        "10ms",
			CandidatesLimit: 2,
		}, sweeper)
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			return atomic.LoadInt32(&sweeper.pending) == 0
		}, time.Second, 5*time.Millisecond)
		assert.NoError(t, h.Stop())

		calls := atomic.LoadInt32(&sweeper.calls)
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, calls, atomic.LoadInt32(&sweeper.calls))
	})

	t.Run("invalid interval test", func(t *testing.T) {
		_, err := housekeeping.New(&housekeeping.Config{Interval: "soon", CandidatesLimit: 1}, &fakeSweeper{})
		assert.Error(t, err)
	})
}
