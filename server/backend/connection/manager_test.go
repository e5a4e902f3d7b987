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

package connection_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botscode-team/botscode/server/backend/connection"
)

type fakeClock struct {
	mu  sync.Mutex
	now gotime.Time
}

func (c *fakeClock) Now() gotime.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d gotime.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	t.Run("attach and detach test", func(t *testing.T) {
		manager := connection.NewManager(gotime.Minute)
		conn := manager.Attach(ctx, "u1")
		assert.Equal(t, 1, manager.Len())

		require.NoError(t, manager.AddHook(ctx, conn.ID, connection.Hook{Path: "presence/u1"}))
		require.NoError(t, manager.AddHook(ctx, conn.ID, connection.Hook{
			Path:  "events/e1",
			Value: json.RawMessage(`{"type":"exit"}`),
		}))

		detached, err := manager.Detach(ctx, conn.ID)
		require.NoError(t, err)
		require.Len(t, detached.Hooks, 2)
		assert.True(t, detached.Hooks[0].IsRemove())
		assert.False(t, detached.Hooks[1].IsRemove())

		_, err = manager.Detach(ctx, conn.ID)
		assert.ErrorIs(t, err, connection.ErrConnectionNotFound)
		assert.ErrorIs(t, manager.Refresh(ctx, conn.ID), connection.ErrConnectionNotFound)
		assert.Equal(t, 0, manager.Len())
	})

	t.Run("cleanup expired test", func(t *testing.T) {
		clock := &fakeClock{now: gotime.Now()}
		manager := connection.NewManager(10 * gotime.Second)
		connection.SetClock(manager, clock.Now)

		idle := manager.Attach(ctx, "u1")
		active := manager.Attach(ctx, "u2")

		clock.Advance(8 * gotime.Second)
		require.NoError(t, manager.Refresh(ctx, active.ID))
		clock.Advance(5 * gotime.Second)

		expired := manager.CleanupExpired(ctx, 0)
		require.Len(t, expired, 1)
		assert.Equal(t, idle.ID, expired[0].ID)
		assert.Equal(t, []string{"u2"}, manager.Users())

		assert.Empty(t, manager.CleanupExpired(ctx, 0))
	})

	t.Run("cleanup respects limit test", func(t *testing.T) {
		clock := &fakeClock{now: gotime.Now()}
		manager := connection.NewManager(gotime.Second)
		connection.SetClock(manager, clock.Now)

		first := manager.Attach(ctx, "u1")
		clock.Advance(gotime.Millisecond)
		manager.Attach(ctx, "u2")
		clock.Advance(2 * gotime.Second)

		expired := manager.CleanupExpired(ctx, 1)
		require.Len(t, expired, 1)
		assert.Equal(t, first.ID, expired[0].ID)
		assert.Equal(t, 1, manager.Len())
	})
}
