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

package filetree_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/filetree"
	"github.com/botscode-team/botscode/pkg/store"
	"github.com/botscode-team/botscode/testhelper"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// countingStore counts the writes issued through it.
type countingStore struct {
	store.Store
	writes atomic.Int32
}

func (c *countingStore) Write(ctx context.Context, path string, value any) error {
	c.writes.Add(1)
	return c.Store.Write(ctx, path, value)
}

// silentStore never delivers the values of its subscriptions.
type silentStore struct {
	countingStore
}

func (s *silentStore) Subscribe(context.Context, string, store.Callback) (store.Unsubscribe, error) {
	return func() {}, nil
}

func openLoaded(t *testing.T, s store.Store, workspaceID string) *filetree.Tree {
	tree, err := filetree.Open(context.Background(), s, workspaceID)
	require.NoError(t, err)
	t.Cleanup(tree.Close)

	assert.Eventually(t, tree.Loaded, waitFor, tick)
	return tree
}

func folder(children map[string]*types.FileNode) *types.FileNode {
	if children == nil {
		children = map[string]*types.FileNode{}
	}
	return &types.FileNode{Type: types.FileNodeFolder, Children: children}
}

func file() *types.FileNode {
	return &types.FileNode{Type: types.FileNodeFile}
}

func TestTree(t *testing.T) {
	ctx := context.Background()

	t.Run("empty tree test", func(t *testing.T) {
		s := testhelper.TestStore(t)
		tree := openLoaded(t, s.Connect(ctx, "alice"), "w1")
		assert.Equal(t, folder(nil), tree.Root())
	})

	t.Run("add rename delete test", func(t *testing.T) {
		s := testhelper.TestStore(t)
		tree := openLoaded(t, s.Connect(ctx, "alice"), "w1")

		require.NoError(t, tree.Add(ctx, nil, "src", types.FileNodeFolder))
		require.NoError(t, tree.Add(ctx, []string{"src"}, "main.go", types.FileNodeFile))
		require.NoError(t, tree.Add(ctx, nil, "README.md", types.FileNodeFile))
		assert.Eventually(t, func() bool {
			return assert.ObjectsAreEqual(folder(map[string]*types.FileNode{
				"src":       folder(map[string]*types.FileNode{"main.go": file()}),
				"README.md": file(),
			}), tree.Root())
		}, waitFor, tick)

		require.NoError(t, tree.Rename(ctx, []string{"src", "main.go"}, "app.go"))
		require.NoError(t, tree.Delete(ctx, []string{"README.md"}))

		expected := folder(map[string]*types.FileNode{
			"src": folder(map[string]*types.FileNode{"app.go": file()}),
		})
		assert.Eventually(t, func() bool {
			return assert.ObjectsAreEqual(expected, tree.Root())
		}, waitFor, tick)

		raw, err := s.Read(ctx, types.FileTreePath("w1"))
		require.NoError(t, err)
		assert.Contains(t, raw.String(), "app%2Ego")

		// another client sees the same tree
		other := openLoaded(t, s.Connect(ctx, "bob"), "w1")
		assert.Eventually(t, func() bool {
			return assert.ObjectsAreEqual(expected, other.Root())
		}, waitFor, tick)
	})

	t.Run("name collision test", func(t *testing.T) {
		s := testhelper.TestStore(t)
		counter := &countingStore{Store: s.Connect(ctx, "alice")}
		tree := openLoaded(t, counter, "w1")

		require.NoError(t, tree.Add(ctx, nil, "a.js", types.FileNodeFile))
		require.NoError(t, tree.Add(ctx, nil, "b.js", types.FileNodeFile))
		assert.Eventually(t, func() bool {
			return len(tree.Root().Children) == 2
		}, waitFor, tick)
		before := tree.Root()
		writes := counter.writes.Load()

		assert.ErrorIs(t, tree.Add(ctx, nil, "a.js", types.FileNodeFolder), filetree.ErrNameAlreadyExists)
		assert.ErrorIs(t, tree.Rename(ctx, []string{"b.js"}, "a.js"), filetree.ErrNameAlreadyExists)
		assert.Equal(t, before, tree.Root())
		assert.Equal(t, writes, counter.writes.Load())
	})

	t.Run("invalid path test", func(t *testing.T) {
		s := testhelper.TestStore(t)
		tree := openLoaded(t, s.Connect(ctx, "alice"), "w1")
		require.NoError(t, tree.Add(ctx, nil, "main.py", types.FileNodeFile))

		assert.ErrorIs(t, tree.Delete(ctx, nil), filetree.ErrInvalidPath)
		assert.ErrorIs(t, tree.Rename(ctx, nil, "root"), filetree.ErrInvalidPath)
		assert.ErrorIs(t, tree.Delete(ctx, []string{"missing"}), filetree.ErrNodeNotFound)
		assert.ErrorIs(t, tree.Rename(ctx, []string{"missing", "x"}, "y"), filetree.ErrNodeNotFound)
		assert.ErrorIs(t, tree.Add(ctx, []string{"main.py"}, "x", types.FileNodeFile), filetree.ErrNotFolder)
		assert.ErrorIs(t, tree.Add(ctx, nil, "a/b", types.FileNodeFile), filetree.ErrInvalidName)
		assert.ErrorIs(t, tree.Add(ctx, nil, "", types.FileNodeFile), filetree.ErrInvalidName)
		assert.ErrorIs(t, tree.Add(ctx, nil, "x", "link"), filetree.ErrInvalidNodeType)

		_, err := filetree.Open(ctx, s.Connect(ctx, "bob"), "w.1")
		assert.ErrorIs(t, err, filetree.ErrInvalidWorkspaceID)
	})

	t.Run("not loaded test", func(t *testing.T) {
		s := testhelper.TestStore(t)
		silent := &silentStore{countingStore: countingStore{Store: s.Connect(ctx, "alice")}}
		tree, err := filetree.Open(ctx, silent, "w1")
		require.NoError(t, err)
		defer tree.Close()

		assert.False(t, tree.Loaded())
		assert.Nil(t, tree.Root())
		assert.NoError(t, tree.Add(ctx, nil, "main.go", types.FileNodeFile))
		assert.Equal(t, int32(0), silent.writes.Load())
	})

	t.Run("closed tree test", func(t *testing.T) {
		s := testhelper.TestStore(t)
		counter := &countingStore{Store: s.Connect(ctx, "alice")}
		tree := openLoaded(t, counter, "w1")
		tree.Close()

		assert.NoError(t, tree.Add(ctx, nil, "main.go", types.FileNodeFile))
		assert.Equal(t, int32(0), counter.writes.Load())
	})

	t.Run("last writer wins test", func(t *testing.T) {
		s := testhelper.TestStore(t)
		alice := openLoaded(t, s.Connect(ctx, "alice"), "w1")
		bob := openLoaded(t, s.Connect(ctx, "bob"), "w1")

		require.NoError(t, alice.Add(ctx, nil, "alice.txt", types.FileNodeFile))
		assert.Eventually(t, func() bool {
			return len(bob.Root().Children) == 1
		}, waitFor, tick)

		require.NoError(t, bob.Add(ctx, nil, "bob.txt", types.FileNodeFile))
		assert.Eventually(t, func() bool {
			return assert.ObjectsAreEqual([]string{"alice.txt", "bob.txt"}, alice.Root().Names())
		}, waitFor, tick)
	})

	t.Run("concurrent mutations keep untouched nodes test", func(t *testing.T) {
		s := testhelper.TestStore(t)
		alice := openLoaded(t, s.Connect(ctx, "alice"), "w1")
		bob := openLoaded(t, s.Connect(ctx, "bob"), "w1")

		keep := []string{"keep0", "keep1", "keep2", "keep3", "keep4"}
		for _, name := range keep {
			require.NoError(t, alice.Add(ctx, nil, name, types.FileNodeFile))
		}

		var wg sync.WaitGroup
		wg.Add(2)
		for prefix, writer := range map[string]*filetree.Tree{"alice": alice, "bob": bob} {
			go func(prefix string, writer *filetree.Tree) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					assert.NoError(t, writer.Add(ctx, nil, fmt.Sprintf("%s%d", prefix, i), types.FileNodeFile))
				}
			}(prefix, writer)
		}
		wg.Wait()

		snapshot, err := s.Connect(ctx, "carol").Read(ctx, types.FileTreePath("w1"))
		require.NoError(t, err)
		names := snapshot.Keys()
		for _, name := range keep {
			assert.Contains(t, names, name)
		}
	})
}
