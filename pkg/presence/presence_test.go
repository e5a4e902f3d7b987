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

package presence_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/attachable"
	"github.com/botscode-team/botscode/pkg/presence"
	"github.com/botscode-team/botscode/testhelper"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

func TestTracker(t *testing.T) {
	ctx := context.Background()

	t.Run("online users test", func(t *testing.T) {
		s := testhelper.TestStore(t)
		alice := presence.New(s.Connect(ctx, "alice"), "alice")
		bob := presence.New(s.Connect(ctx, "bob"), "bob")
		defer alice.Stop()
		defer bob.Stop()

		assert.Equal(t, []string{}, alice.Online())

		require.NoError(t, alice.Start(ctx))
		assert.Equal(t, attachable.StatusAttached, alice.Status())
		assert.Eventually(t, func() bool {
			return assert.ObjectsAreEqual([]string{"alice"}, alice.Online())
		}, waitFor, tick)

		require.NoError(t, bob.Start(ctx))
		assert.Eventually(t, func() bool {
			return assert.ObjectsAreEqual([]string{"alice", "bob"}, alice.Online())
		}, waitFor, tick)

		require.NoError(t, bob.Leave(ctx))
		assert.Eventually(t, func() bool {
			return assert.ObjectsAreEqual([]string{"alice"}, alice.Online())
		}, waitFor, tick)
	})

	t.Run("disconnect removes the user test", func(t *testing.T) {
		s := testhelper.TestStore(t)
		alice := presence.New(s.Connect(ctx, "alice"), "alice")
		defer alice.Stop()
		bobConn := s.Connect(ctx, "bob")
		bob := presence.New(bobConn, "bob")

		require.NoError(t, alice.Start(ctx))
		require.NoError(t, bob.Start(ctx))
		assert.Eventually(t, func() bool {
			return len(alice.Online()) == 2
		}, waitFor, tick)

		require.NoError(t, bobConn.Close(ctx))
		assert.Eventually(t, func() bool {
			return assert.ObjectsAreEqual([]string{"alice"}, alice.Online())
		}, waitFor, tick)

		snapshot, err := s.Read(ctx, types.PresencePath("bob"))
		require.NoError(t, err)
		assert.False(t, snapshot.Exists())
	})

	t.Run("stopped tracker ignores changes test", func(t *testing.T) {
		s := testhelper.TestStore(t)
		alice := presence.New(s.Connect(ctx, "alice"), "alice")
		bob := presence.New(s.Connect(ctx, "bob"), "bob")

		var mu sync.Mutex
		var changes []string
		alice.OnChange(func(online []string) {
			mu.Lock()
			defer mu.Unlock()
			changes = online
		})
		require.NoError(t, alice.Start(ctx))
		assert.Eventually(t, func() bool {
			return len(alice.Online()) == 1
		}, waitFor, tick)

		alice.Stop()
		assert.Equal(t, attachable.StatusRemoved, alice.Status())
		require.NoError(t, bob.Announce(ctx))
		time.Sleep(50 * time.Millisecond)

		assert.Equal(t, []string{"alice"}, alice.Online())
		mu.Lock()
		assert.Equal(t, []string{"alice"}, changes)
		mu.Unlock()

		// a stopped tracker is not attached again
		require.NoError(t, alice.Watch(ctx))
		assert.Equal(t, attachable.StatusRemoved, alice.Status())
	})
}
