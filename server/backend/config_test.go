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

package backend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/botscode-team/botscode/server/backend"
)

func newValidBackendConf() backend.Config {
	return backend.Config{
		TokenDuration: "24h",
		ConnectionTTL: "30s",
	}
}

func TestConfig(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		validConf := newValidBackendConf()
		assert.NoError(t, validConf.Validate())

		conf1 := validConf
		conf1.TokenDuration = "s"
		assert.Error(t, conf1.Validate())

		conf2 := validConf
		conf2.ConnectionTTL = "30 seconds"
		assert.Error(t, conf2.Validate())

		conf3 := validConf
		conf3.SubscriptionLimitPerPath = -1
		assert.Error(t, conf3.Validate())
	})

	t.Run("parse test", func(t *testing.T) {
		validConf := newValidBackendConf()

		assert.Equal(t, "24h0m0s", validConf.ParseTokenDuration().String())
		assert.Equal(t, "30s", validConf.ParseConnectionTTL().String())
	})
}
