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

package database_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/botscode-team/botscode/server/backend/database"
)

func TestNodeInfo(t *testing.T) {
	t.Run("deep copy test", func(t *testing.T) {
		raw := json.RawMessage(`{"userId":"u1"}`)
		info := database.NewNodeInfo("events/a", raw, time.Now())
		raw[2] = 'X'
		assert.JSONEq(t, `{"userId":"u1"}`, string(info.JSON()))

		clone := info.DeepCopy()
		clone.Value[2] = 'Y'
		assert.Equal(t, info.Path, clone.Path)
		assert.JSONEq(t, `{"userId":"u1"}`, string(info.Value))

		var nilInfo *database.NodeInfo
		assert.Nil(t, nilInfo.DeepCopy())
	})
}
