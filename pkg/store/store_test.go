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

package store_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botscode-team/botscode/pkg/store"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path string
		err  error
	}{
		{"presence/u1", nil},
		{"events/c9m2q1", nil},
		{"", store.ErrRootNotAllowed},
		{"/", store.ErrRootNotAllowed},
		{"presence//u1", store.ErrInvalidPath},
		{"presence/u.1", store.ErrInvalidPath},
		{"members/$uid", store.ErrInvalidPath},
		{"events/[0]", store.ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := store.ValidatePath(tt.path)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestPathRelations(t *testing.T) {
	assert.True(t, store.IsRelated("presence", "presence/u1"))
	assert.True(t, store.IsRelated("presence/u1", "presence"))
	assert.True(t, store.IsRelated("presence/u1", "presence/u1"))
	assert.False(t, store.IsRelated("presence/u1", "presence/u10"))
	assert.False(t, store.IsRelated("members", "presence"))

	assert.Equal(t, "documents", store.TopLevel("documents/u1/text"))
	assert.Equal(t, []string{"documents", "documents/u1"}, store.Ancestors("documents/u1/text"))
	assert.Nil(t, store.Ancestors("documents"))
}

func TestSnapshot(t *testing.T) {
	t.Run("null value has no keys", func(t *testing.T) {
		snapshot := store.Snapshot{Path: "presence", Raw: json.RawMessage("null")}
		assert.False(t, snapshot.Exists())
		assert.Empty(t, snapshot.Keys())
		assert.Empty(t, snapshot.Values())

		var empty store.Snapshot
		assert.Empty(t, empty.Keys())
		assert.Equal(t, "null", empty.String())
	})

	t.Run("object value", func(t *testing.T) {
		snapshot, err := store.NewSnapshot("presence", map[string]bool{"u2": true, "u1": true})
		require.NoError(t, err)
		assert.True(t, snapshot.Exists())
		assert.Equal(t, []string{"u1", "u2"}, snapshot.Keys())

		values := snapshot.Values()
		require.Len(t, values, 2)
		assert.Equal(t, "presence/u1", values[0].Path)

		var online bool
		require.NoError(t, snapshot.Child("u2").Decode(&online))
		assert.True(t, online)
		assert.False(t, snapshot.Child("u3").Exists())
	})

	t.Run("non object value has no keys", func(t *testing.T) {
		snapshot, err := store.NewSnapshot("documents/u1/text", "print(1)")
		require.NoError(t, err)
		assert.Empty(t, snapshot.Keys())

		var text string
		require.NoError(t, snapshot.Decode(&text))
		assert.Equal(t, "print(1)", text)
	})
}

func TestResolveServerValues(t *testing.T) {
	raw, err := json.Marshal(map[string]any{
		"userId":    "u1",
		"type":      "exit",
		"timestamp": store.ServerTimestamp,
	})
	require.NoError(t, err)

	resolved, err := store.ResolveServerValues(raw, 1700000000000)
	require.NoError(t, err)
	assert.JSONEq(t, `{"userId":"u1","type":"exit","timestamp":1700000000000}`, string(resolved))

	plain := json.RawMessage(`{"userId":"u1"}`)
	resolved, err = store.ResolveServerValues(plain, 1)
	require.NoError(t, err)
	assert.Equal(t, plain, resolved)
}

func TestListener(t *testing.T) {
	t.Run("delivers latest value in order", func(t *testing.T) {
		var mu sync.Mutex
		var received []string
		release := make(chan struct{})

		listener := store.NewListener(func(snapshot store.Snapshot) {
			if snapshot.String() == `"first"` {
				<-release
			}
			mu.Lock()
			received = append(received, snapshot.String())
			mu.Unlock()
		})

		listener.Notify(store.Snapshot{Raw: json.RawMessage(`"first"`)})
		time.Sleep(10 * time.Millisecond)
		listener.Notify(store.Snapshot{Raw: json.RawMessage(`"second"`)})
		listener.Notify(store.Snapshot{Raw: json.RawMessage(`"third"`)})
		close(release)

		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(received) == 2
		}, time.Second, 5*time.Millisecond)

		mu.Lock()
		assert.Equal(t, []string{`"first"`, `"third"`}, received)
		mu.Unlock()
	})

	t.Run("close drops pending values", func(t *testing.T) {
		called := make(chan struct{}, 1)
		listener := store.NewListener(func(store.Snapshot) { called <- struct{}{} })
		listener.Close()
		listener.Notify(store.Snapshot{Raw: json.RawMessage(`1`)})

		select {
		case <-called:
			t.Fatal("callback invoked after close")
		case <-time.After(20 * time.Millisecond):
		}
	})
}

func TestEscapeKey(t *testing.T) {
	for _, name := range []string{"main.go", "a#b$c[d]", "100%", "%2E", "plain"} {
		key := store.EscapeKey(name)
		assert.NoError(t, store.ValidateKey(key), name)
		assert.Equal(t, name, store.UnescapeKey(key))
	}
	assert.Equal(t, "main%2Ego", store.EscapeKey("main.go"))
}
