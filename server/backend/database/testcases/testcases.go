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

// Package testcases contains testcases for database. It is used by database
// implementations to test their own implementations with the same testcases.
package testcases

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botscode-team/botscode/server/backend/database"
)

// RunFindNodeTest runs the FindNode test for the given db.
func RunFindNodeTest(t *testing.T, db database.Database, root string) {
	t.Run("find node test", func(t *testing.T) {
		ctx := context.Background()
		path := root + "/presence/u1"

		_, err := db.FindNode(ctx, path)
		assert.ErrorIs(t, err, database.ErrNodeNotFound)

		require.NoError(t, db.PutNode(ctx, database.NewNodeInfo(path, json.RawMessage(`true`), time.Now())))
		info, err := db.FindNode(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, path, info.Path)
		assert.JSONEq(t, `true`, string(info.Value))

		require.NoError(t, db.PutNode(ctx, database.NewNodeInfo(path, json.RawMessage(`false`), time.Now())))
		info, err = db.FindNode(ctx, path)
		require.NoError(t, err)
		assert.JSONEq(t, `false`, string(info.Value))

		require.NoError(t, db.DeleteNode(ctx, path))
		require.NoError(t, db.DeleteNode(ctx, path))
		_, err = db.FindNode(ctx, path)
		assert.ErrorIs(t, err, database.ErrNodeNotFound)
	})
}

// RunFindNodesByPrefixTest runs the FindNodesByPrefix test for the given db.
func RunFindNodesByPrefixTest(t *testing.T, db database.Database, root string) {
	t.Run("find nodes by prefix test", func(t *testing.T) {
		ctx := context.Background()
		prefix := root + "/events"

		for i := 3; i > 0; i-- {
			path := fmt.Sprintf("%s/e%d", prefix, i)
			raw := json.RawMessage(fmt.Sprintf(`{"timestamp":%d}`, i))
			require.NoError(t, db.PutNode(ctx, database.NewNodeInfo(path, raw, time.Now())))
		}

		// a sibling sharing the textual prefix is not below it
		require.NoError(t, db.PutNode(ctx, database.NewNodeInfo(prefix+"x/e9", json.RawMessage(`1`), time.Now())))

		infos, err := db.FindNodesByPrefix(ctx, prefix)
		require.NoError(t, err)
		require.Len(t, infos, 3)
		assert.Equal(t, prefix+"/e1", infos[0].Path)
		assert.Equal(t, prefix+"/e3", infos[2].Path)

		deleted, err := db.DeleteNodesByPrefix(ctx, prefix)
		require.NoError(t, err)
		assert.Equal(t, 3, deleted)

		infos, err = db.FindNodesByPrefix(ctx, prefix)
		require.NoError(t, err)
		assert.Empty(t, infos)

		_, err = db.FindNode(ctx, prefix+"x/e9")
		assert.NoError(t, err)
	})
}
