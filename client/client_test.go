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

package client_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/client"
	"github.com/botscode-team/botscode/pkg/errors"
	"github.com/botscode-team/botscode/pkg/session"
	"github.com/botscode-team/botscode/pkg/store"
	"github.com/botscode-team/botscode/server"
	"github.com/botscode-team/botscode/server/rpc/auth"
	"github.com/botscode-team/botscode/testhelper"
)

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

func dial(t *testing.T, svr *server.BotsCode, userID string) *client.Client {
	token, err := auth.NewTokenManager(testhelper.SecretKey, time.Hour).Generate(userID, "")
	require.NoError(t, err)

	cli, err := client.Dial(context.Background(), svr.RPCAddr(), client.WithToken(token))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, cli.Close())
	})
	return cli
}

// values collects the values delivered to a subscription.
type values struct {
	mu   sync.Mutex
	last store.Snapshot
	n    int
}

func (v *values) callback(snapshot store.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.last = snapshot
	v.n++
}

func (v *values) String() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last.String()
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	svr := testhelper.TestServer(t, testhelper.TestConfig())

	t.Run("store round trip test", func(t *testing.T) {
		cli := dial(t, svr, "alice")

		require.NoError(t, cli.Write(ctx, "documents/alice/text", "hello"))
		snapshot, err := cli.Read(ctx, "documents/alice/text")
		require.NoError(t, err)
		assert.Equal(t, `"hello"`, snapshot.String())

		path, err := cli.Push(ctx, "events")
		require.NoError(t, err)
		assert.Contains(t, path, "events/")

		require.NoError(t, cli.Remove(ctx, "documents/alice"))
		snapshot, err = cli.Read(ctx, "documents/alice/text")
		require.NoError(t, err)
		assert.False(t, snapshot.Exists())
	})

	t.Run("subscribe test", func(t *testing.T) {
		alice := dial(t, svr, "alice")
		bob := dial(t, svr, "bob")

		v := &values{}
		unsubscribe, err := alice.Subscribe(ctx, "workspaces/w1", v.callback)
		require.NoError(t, err)
		assert.Eventually(t, func() bool { return v.String() == "null" }, waitFor, tick)

		require.NoError(t, bob.Write(ctx, "workspaces/w1/files/type", "folder"))
		assert.Eventually(t, func() bool {
			return v.String() == `{"files":{"type":"folder"}}`
		}, waitFor, tick)

		unsubscribe()
		unsubscribe()
		require.NoError(t, bob.Remove(ctx, "workspaces/w1"))
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, `{"files":{"type":"folder"}}`, v.String())
	})

	t.Run("error test", func(t *testing.T) {
		cli := dial(t, svr, "alice")

		err := cli.Write(ctx, "presence/a.b", true)
		assert.ErrorIs(t, err, store.ErrInvalidPath)

		_, err = cli.Subscribe(ctx, "/", func(store.Snapshot) {})
		assert.ErrorIs(t, err, store.ErrRootNotAllowed)
		assert.True(t, errors.IsStatus(err, errors.ErrCodeInvalidArgument))
	})

	t.Run("unauthenticated test", func(t *testing.T) {
		_, err := client.Dial(ctx, svr.RPCAddr(), client.WithToken("invalid"))
		assert.ErrorIs(t, err, client.ErrUnauthenticated)

		_, err = client.Dial(ctx, svr.RPCAddr())
		assert.ErrorIs(t, err, client.ErrUnauthenticated)
	})

	t.Run("closed client test", func(t *testing.T) {
		cli := dial(t, svr, "alice")
		require.NoError(t, cli.Close())
		<-cli.Done()

		assert.ErrorIs(t, cli.Write(ctx, "presence/alice", true), client.ErrClientClosed)
		_, err := cli.Subscribe(ctx, "presence", func(store.Snapshot) {})
		assert.ErrorIs(t, err, client.ErrClientClosed)
	})

	t.Run("disconnect hooks test", func(t *testing.T) {
		watcher := dial(t, svr, "watcher")
		token, err := auth.NewTokenManager(testhelper.SecretKey, time.Hour).Generate("carol", "")
		require.NoError(t, err)
		carol, err := client.Dial(ctx, svr.RPCAddr(), client.WithToken(token))
		require.NoError(t, err)

		require.NoError(t, carol.Write(ctx, "presence/carol", true))
		require.NoError(t, carol.OnDisconnect("presence/carol").Remove(ctx))
		require.NoError(t, carol.OnDisconnect("members/carol").Set(ctx, store.ServerTimestamp))
		require.NoError(t, carol.Close())

		assert.Eventually(t, func() bool {
			presence, err := watcher.Read(ctx, "presence/carol")
			if err != nil || presence.Exists() {
				return false
			}
			member, err := watcher.Read(ctx, "members/carol")
			var at int64
			return err == nil && member.Decode(&at) == nil && at > 0
		}, waitFor, tick)
	})
}

func TestSessionOverClient(t *testing.T) {
	ctx := context.Background()
	svr := testhelper.TestServer(t, testhelper.TestConfig())

	alice := session.New(dial(t, svr, "alice"), "alice")
	bob := session.New(dial(t, svr, "bob"), "bob")

	require.NoError(t, alice.Start(ctx))
	require.NoError(t, bob.Start(ctx))
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"alice", "bob"}, alice.Presence.Online())
	}, waitFor, tick)

	require.NoError(t, bob.End(ctx))
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"alice"}, alice.Presence.Online()) &&
			assert.ObjectsAreEqual([]string{"alice"}, alice.Members.Members())
	}, waitFor, tick)

	assert.Eventually(t, func() bool {
		var joins, exits int
		for _, event := range alice.Events.Events() {
			if event.UserID != "bob" {
				continue
			}
			switch event.Type {
			case types.JoinEvent:
				joins++
			case types.ExitEvent:
				exits++
			}
		}
		return joins == 1 && exits == 1
	}, waitFor, tick)

	require.NoError(t, alice.End(ctx))
}
