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

package nodes_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botscode-team/botscode/pkg/store"
	"github.com/botscode-team/botscode/server/backend/connection"
	"github.com/botscode-team/botscode/server/backend/database/memory"
	"github.com/botscode-team/botscode/server/backend/nodes"
	"github.com/botscode-team/botscode/server/backend/pubsub"
	"github.com/botscode-team/botscode/server/profiling/prometheus"
)

func newStore(t *testing.T, ttl time.Duration) *nodes.Store {
	db, err := memory.New()
	require.NoError(t, err)
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)

	return nodes.New(db, pubsub.New(0), connection.NewManager(ttl), metrics)
}

// recorder collects the values delivered to a subscription.
type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) callback(snapshot store.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, snapshot.String())
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		return ""
	}
	return r.values[len(r.values)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("write read remove test", func(t *testing.T) {
		s := newStore(t, time.Minute)
		conn := s.Connect(ctx, "u1")

		require.NoError(t, conn.Write(ctx, "documents/u1/text", "print(1)"))
		require.NoError(t, conn.Write(ctx, "documents/u1/language", "python"))

		snapshot, err := conn.Read(ctx, "documents/u1/text")
		require.NoError(t, err)
		assert.Equal(t, `"print(1)"`, snapshot.String())

		snapshot, err = conn.Read(ctx, "documents/u1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"text":"print(1)","language":"python"}`, snapshot.String())

		require.NoError(t, conn.Remove(ctx, "documents/u1"))
		snapshot, err = conn.Read(ctx, "documents/u1/text")
		require.NoError(t, err)
		assert.False(t, snapshot.Exists())
	})

	t.Run("write replaces subtree test", func(t *testing.T) {
		s := newStore(t, time.Minute)
		conn := s.Connect(ctx, "u1")

		require.NoError(t, conn.Write(ctx, "workspaces/w1/files", map[string]any{
			"name":     "root",
			"type":     "folder",
			"children": []any{map[string]any{"name": "main.go", "type": "file"}},
		}))
		require.NoError(t, conn.Write(ctx, "workspaces/w1/files", map[string]any{
			"name": "root",
			"type": "folder",
		}))

		snapshot, err := conn.Read(ctx, "workspaces/w1/files")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"root","type":"folder"}`, snapshot.String())

		// a leaf written above existing children replaces them
		require.NoError(t, conn.Write(ctx, "workspaces/w1", "archived"))
		snapshot, err = conn.Read(ctx, "workspaces/w1/files")
		require.NoError(t, err)
		assert.False(t, snapshot.Exists())

		// a child written below a leaf replaces the leaf
		require.NoError(t, conn.Write(ctx, "workspaces/w1/files/name", "root"))
		snapshot, err = conn.Read(ctx, "workspaces/w1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"files":{"name":"root"}}`, snapshot.String())
	})

	t.Run("invalid input test", func(t *testing.T) {
		s := newStore(t, time.Minute)
		conn := s.Connect(ctx, "u1")

		assert.ErrorIs(t, conn.Write(ctx, "presence/u.1", true), store.ErrInvalidPath)
		assert.ErrorIs(t, conn.Write(ctx, "members", map[string]bool{"a/b": true}), store.ErrInvalidPath)
		assert.ErrorIs(t, s.Write(ctx, "members/u1", json.RawMessage(`{`)), nodes.ErrInvalidValue)
		_, err := conn.Subscribe(ctx, "", func(store.Snapshot) {})
		assert.ErrorIs(t, err, store.ErrRootNotAllowed)
	})

	t.Run("push test", func(t *testing.T) {
		s := newStore(t, time.Minute)
		conn := s.Connect(ctx, "u1")

		first, err := conn.Push(ctx, "events")
		require.NoError(t, err)
		second, err := conn.Push(ctx, "events")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
		assert.Less(t, first, second)
		assert.True(t, store.IsDescendant(first, "events"))

		snapshot, err := conn.Read(ctx, first)
		require.NoError(t, err)
		assert.False(t, snapshot.Exists())
	})

	t.Run("subscribe delivers current value then changes test", func(t *testing.T) {
		s := newStore(t, time.Minute)
		conn := s.Connect(ctx, "u1")
		require.NoError(t, conn.Write(ctx, "presence/u1", true))

		rec := &recorder{}
		unsubscribe, err := conn.Subscribe(ctx, "presence", rec.callback)
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			return rec.last() == `{"u1":true}`
		}, time.Second, 5*time.Millisecond)

		require.NoError(t, conn.Write(ctx, "presence/u2", true))
		assert.Eventually(t, func() bool {
			return rec.last() == `{"u1":true,"u2":true}`
		}, time.Second, 5*time.Millisecond)

		require.NoError(t, conn.Remove(ctx, "presence/u1"))
		require.NoError(t, conn.Remove(ctx, "presence/u2"))
		assert.Eventually(t, func() bool {
			return rec.last() == `null`
		}, time.Second, 5*time.Millisecond)

		unsubscribe()
		unsubscribe()
		count := rec.count()
		require.NoError(t, conn.Write(ctx, "presence/u3", true))
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, count, rec.count())
	})

	t.Run("notifies descendant subscribers test", func(t *testing.T) {
		s := newStore(t, time.Minute)
		conn := s.Connect(ctx, "u1")

		rec := &recorder{}
		_, err := conn.Subscribe(ctx, "documents/u1/text", rec.callback)
		require.NoError(t, err)
		assert.Eventually(t, func() bool { return rec.last() == "null" }, time.Second, 5*time.Millisecond)

		require.NoError(t, conn.Write(ctx, "documents/u1", map[string]string{"text": "x = 1"}))
		assert.Eventually(t, func() bool { return rec.last() == `"x = 1"` }, time.Second, 5*time.Millisecond)

		// unrelated writes do not notify
		count := rec.count()
		require.NoError(t, conn.Write(ctx, "documents/u1/language", "python"))
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, count, rec.count())
	})

	t.Run("disconnect hooks run once in order test", func(t *testing.T) {
		s := newStore(t, time.Minute)
		observer := s.Connect(ctx, "observer")
		conn := s.Connect(ctx, "u1")

		require.NoError(t, conn.Write(ctx, "presence/u1", true))
		require.NoError(t, conn.OnDisconnect("presence/u1").Remove(ctx))
		exitPath, err := conn.Push(ctx, "events")
		require.NoError(t, err)
		require.NoError(t, conn.OnDisconnect(exitPath).Set(ctx, map[string]any{
			"userId":    "u1",
			"type":      "exit",
			"timestamp": store.ServerTimestamp,
		}))
		// a later hook on the same path wins
		require.NoError(t, conn.OnDisconnect("members/u1").Set(ctx, true))
		require.NoError(t, conn.OnDisconnect("members/u1").Remove(ctx))

		before := time.Now().UnixMilli()
		require.NoError(t, conn.Close(ctx))
		assert.ErrorIs(t, conn.Close(ctx), nodes.ErrConnectionClosed)
		assert.ErrorIs(t, conn.Write(ctx, "presence/u1", true), nodes.ErrConnectionClosed)

		snapshot, err := observer.Read(ctx, "presence/u1")
		require.NoError(t, err)
		assert.False(t, snapshot.Exists())

		snapshot, err = observer.Read(ctx, "members/u1")
		require.NoError(t, err)
		assert.False(t, snapshot.Exists())

		var exit struct {
			UserID    string `json:"userId"`
			Type      string `json:"type"`
			Timestamp int64  `json:"timestamp"`
		}
		snapshot, err = observer.Read(ctx, exitPath)
		require.NoError(t, err)
		require.NoError(t, snapshot.Decode(&exit))
		assert.Equal(t, "exit", exit.Type)
		assert.GreaterOrEqual(t, exit.Timestamp, before)
		assert.Equal(t, 1, s.Connections())
	})

	t.Run("expired connections run hooks test", func(t *testing.T) {
		s := newStore(t, 30*time.Millisecond)
		observer := s.Connect(ctx, "observer")
		conn := s.Connect(ctx, "u1")

		require.NoError(t, conn.Write(ctx, "presence/u1", true))
		require.NoError(t, conn.OnDisconnect("presence/u1").Remove(ctx))

		rec := &recorder{}
		_, err := observer.Subscribe(ctx, "presence", rec.callback)
		require.NoError(t, err)
		assert.Eventually(t, func() bool { return rec.last() == `{"u1":true}` }, time.Second, 5*time.Millisecond)

		time.Sleep(50 * time.Millisecond)
		// the observer stays alive
		require.NoError(t, s.Refresh(ctx, observer.ID()))

		expired, err := s.ExpireConnections(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, expired)
		assert.Eventually(t, func() bool { return rec.last() == `null` }, time.Second, 5*time.Millisecond)

		assert.ErrorIs(t, conn.Close(ctx), nodes.ErrConnectionClosed)
	})

	t.Run("read during concurrent writes sees whole values test", func(t *testing.T) {
		s := newStore(t, time.Minute)
		writer := s.Connect(ctx, "writer")
		reader := s.Connect(ctx, "reader")

		value := map[string]any{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5}
		require.NoError(t, writer.Write(ctx, "workspaces/w1/files", value))

		done := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				assert.NoError(t, writer.Write(ctx, "workspaces/w1/files", value))
			}
		}()

		for i := 0; i < 500; i++ {
			snapshot, err := reader.Read(ctx, "workspaces/w1/files")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, snapshot.Keys())
		}
		close(done)
		wg.Wait()
	})
}
