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

package server_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botscode-team/botscode/pkg/execution"
	"github.com/botscode-team/botscode/server"
)

func TestNewConfigFromFile(t *testing.T) {
	t.Run("fail read config file test", func(t *testing.T) {
		conf := server.NewConfig()
		assert.Equal(t, "localhost:"+strconv.Itoa(server.DefaultRPCPort), conf.RPCAddr())
		_, err := server.NewConfigFromFile("nowhere.yml")
		assert.Error(t, err)
		assert.Equal(t, server.DefaultRPCPort, conf.RPC.Port)
		assert.Equal(t, "", conf.RPC.CertFile)
		assert.Equal(t, "", conf.RPC.KeyFile)
		assert.NoError(t, conf.Validate())
	})

	t.Run("read config file test", func(t *testing.T) {
		conf, err := server.NewConfigFromFile("config.sample.yml")
		require.NoError(t, err)

		assert.Equal(t, server.DefaultRPCPort, conf.RPC.Port)
		assert.Equal(t, server.DefaultAdminPort, conf.RPC.AdminPort)
		assert.Equal(t, uint64(server.DefaultRPCMaxRequestBytes), conf.RPC.MaxRequestBytes)

		connTimeout, err := time.ParseDuration(conf.Mongo.ConnectionTimeout)
		assert.NoError(t, err)
		assert.Equal(t, server.DefaultMongoConnectionTimeout, connTimeout)
		assert.Equal(t, server.DefaultMongoConnectionURI, conf.Mongo.ConnectionURI)
		assert.Equal(t, server.DefaultMongoDatabase, conf.Mongo.Database)

		assert.Equal(t, server.DefaultConnectionTTL, conf.Backend.ParseConnectionTTL())
		assert.Equal(t, execution.DefaultMaxPollAttempts, conf.Execution.MaxPollAttempts)
		assert.Nil(t, conf.Redis)
		assert.NoError(t, conf.Validate())
	})

	t.Run("default value test", func(t *testing.T) {
		t.Setenv(server.EnvGeminiAPIKey, "gemini-key")
		t.Setenv(server.EnvJudge0APIKey, "judge0-key")

		path := filepath.Join(t.TempDir(), "botscode.yml")
		require.NoError(t, os.WriteFile(path, []byte("RPC:\n  Port: 9090\nRedis:\n  Address: localhost:6379\n"), 0o600))

		conf, err := server.NewConfigFromFile(path)
		require.NoError(t, err)

		assert.Equal(t, 9090, conf.RPC.Port)
		assert.Equal(t, server.DefaultRPCPingInterval, conf.RPC.ParsePingInterval())
		assert.Equal(t, server.DefaultRedisKeyPrefix, conf.Redis.KeyPrefix)
		assert.Equal(t, "gemini-key", conf.Assist.APIKey)
		assert.Equal(t, "judge0-key", conf.Execution.APIKey)
		assert.NoError(t, conf.Validate())
	})

	t.Run("mongo and redis test", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "botscode.yml")
		require.NoError(t, os.WriteFile(path, []byte("Mongo: {}\nRedis:\n  Address: localhost:6379\n"), 0o600))

		conf, err := server.NewConfigFromFile(path)
		require.NoError(t, err)
		assert.Error(t, conf.Validate())
	})
}
