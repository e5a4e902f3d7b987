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

// Package testhelper provides the helpers for the tests of BotsCode: servers
// and backends on the memory database with short intervals.
package testhelper

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/require"

	"github.com/botscode-team/botscode/pkg/assist"
	"github.com/botscode-team/botscode/pkg/execution"
	"github.com/botscode-team/botscode/server"
	"github.com/botscode-team/botscode/server/backend"
	"github.com/botscode-team/botscode/server/backend/housekeeping"
	"github.com/botscode-team/botscode/server/backend/nodes"
	"github.com/botscode-team/botscode/server/profiling"
	"github.com/botscode-team/botscode/server/profiling/prometheus"
	"github.com/botscode-team/botscode/server/rpc"
)

// Below are the values used by the test servers.
var (
	RPCPort       = 21101
	ProfilingPort = 21102
	AdminPort     = 21103

	HousekeepingInterval        = 50 * gotime.Millisecond
	HousekeepingCandidatesLimit = 10

	ConnectionTTL = 500 * gotime.Millisecond
	PingInterval  = 100 * gotime.Millisecond

	PollInterval    = 10 * gotime.Millisecond
	MaxPollAttempts = 5

	SecretKey = "botscode-test-secret"
)

var (
	portMu     sync.Mutex
	portOffset = 0
)

// TestConfig returns config for creating a BotsCode instance on the memory
// database. The collaborators point at unreachable addresses until a test
// replaces them.
func TestConfig() *server.Config {
	portMu.Lock()
	portOffset += 10
	offset := portOffset
	portMu.Unlock()

	return &server.Config{
		RPC: &rpc.Config{
			Port:            RPCPort + offset,
			AdminPort:       AdminPort + offset,
			MaxRequestBytes: server.DefaultRPCMaxRequestBytes,
			PingInterval:    PingInterval.String(),
		},
		Profiling: &profiling.Config{
			Port: ProfilingPort + offset,
		},
		Housekeeping: &housekeeping.Config{
			Interval:        HousekeepingInterval.String(),
			CandidatesLimit: HousekeepingCandidatesLimit,
		},
		Backend: &backend.Config{
			SecretKey:     SecretKey,
			TokenDuration: server.DefaultTokenDuration.String(),
			ConnectionTTL: ConnectionTTL.String(),
			Hostname:      "testhost",
		},
		Execution: &execution.Config{
			BaseURL:         "http://127.0.0.1:1",
			APIHost:         execution.DefaultAPIHost,
			PollInterval:    PollInterval.String(),
			MaxPollAttempts: MaxPollAttempts,
			RequestTimeout:  "1s",
		},
		Assist: &assist.Config{
			BaseURL:        "http://127.0.0.1:1",
			Model:          assist.DefaultModel,
			RequestTimeout: "1s",
		},
	}
}

// TestBackend creates a started backend of the given config. It is shut down
// when the test finishes.
func TestBackend(t testing.TB, conf *server.Config) *backend.Backend {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)

	be, err := backend.New(
		conf.Backend,
		conf.Mongo,
		conf.Redis,
		conf.Housekeeping,
		conf.Execution,
		conf.Assist,
		metrics,
	)
	require.NoError(t, err)
	require.NoError(t, be.Start(context.Background()))

	t.Cleanup(func() {
		if err := be.Shutdown(); err != nil {
			t.Error(err)
		}
	})

	return be
}

// TestStore returns the store of a started backend whose connections do not
// expire during a test.
func TestStore(t testing.TB) *nodes.Store {
	conf := TestConfig()
	conf.Backend.ConnectionTTL = gotime.Minute.String()
	return TestBackend(t, conf).Store
}

// TestServer creates a started server of the given config. It is shut down
// when the test finishes.
func TestServer(t testing.TB, conf *server.Config) *server.BotsCode {
	svr, err := server.New(conf)
	require.NoError(t, err)
	require.NoError(t, svr.Start())
	require.NoError(t, WaitForServerToStart(svr.RPCAddr()))

	t.Cleanup(func() {
		if err := svr.Shutdown(true); err != nil {
			t.Error(err)
		}
	})

	return svr
}

// WaitForServerToStart waits for the server to start.
func WaitForServerToStart(addr string) error {
	maxRetries := 10
	initialDelay := 10 * gotime.Millisecond
	maxDelay := gotime.Second

	for attempt := 0; attempt < maxRetries; attempt++ {
		delay := initialDelay * gotime.Duration(1<<uint(attempt))
		if delay > maxDelay {
			delay = maxDelay
		}

		conn, err := net.DialTimeout("tcp", addr, gotime.Second)
		if err != nil {
			gotime.Sleep(delay)
			continue
		}

		if err := conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}

		return nil
	}

	return fmt.Errorf("timeout for server to start: %s", addr)
}
