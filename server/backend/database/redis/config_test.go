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

package redis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/botscode-team/botscode/server/backend/database/redis"
)

func TestConfig(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		config := &redis.Config{
			Address:     "localhost:6379",
			DialTimeout: "5s",
		}
		assert.NoError(t, config.Validate())

		config.DialTimeout = "5"
		assert.Error(t, config.Validate())

		config.DialTimeout = "5s"
		config.Address = ""
		assert.Error(t, config.Validate())
	})
}
