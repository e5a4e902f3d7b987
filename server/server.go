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

// Package server provides the BotsCode server which is the main entry point of
// the BotsCode system. The server is responsible for starting the backend, the
// RPC server and the profiling server.
package server

import (
	"context"
	"net/http"
	gosync "sync"

	"github.com/botscode-team/botscode/server/backend"
	"github.com/botscode-team/botscode/server/logging"
	"github.com/botscode-team/botscode/server/profiling"
	"github.com/botscode-team/botscode/server/profiling/prometheus"
	"github.com/botscode-team/botscode/server/rpc"
)

// BotsCode is a server of BotsCode. It serves the change-notification store
// to browser sessions and runs code and AI transforms on their behalf.
type BotsCode struct {
	lock gosync.Mutex

	conf            *Config
	backend         *backend.Backend
	rpcServer       *rpc.Server
	profilingServer *profiling.Server

	shutdown   bool
	shutdownCh chan struct{}
}

// New creates a new instance of BotsCode.
func New(conf *Config) (*BotsCode, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	metrics, err := prometheus.NewMetrics()
	if err != nil {
		return nil, err
	}

	be, err := backend.New(
		conf.Backend,
		conf.Mongo,
		conf.Redis,
		conf.Housekeeping,
		conf.Execution,
		conf.Assist,
		metrics,
	)
	if err != nil {
		return nil, err
	}

	rpcServer, err := rpc.NewServer(conf.RPC, be)
	if err != nil {
		return nil, err
	}

	var profilingServer *profiling.Server
	if conf.Profiling != nil {
		profilingServer = profiling.NewServer(conf.Profiling, metrics)
	}

	return &BotsCode{
		conf:            conf,
		backend:         be,
		rpcServer:       rpcServer,
		profilingServer: profilingServer,
		shutdownCh:      make(chan struct{}),
	}, nil
}

// Start starts the server by opening the rpc port.
func (r *BotsCode) Start() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.backend.Start(context.Background()); err != nil {
		return err
	}

	if r.profilingServer != nil {
		if err := r.profilingServer.Start(); err != nil {
			return err
		}
	}

	return r.rpcServer.Start()
}

// Shutdown shuts down this BotsCode server. The websocket sessions are closed
// first so that their disconnect hooks run before the database closes.
func (r *BotsCode) Shutdown(graceful bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.shutdown {
		return nil
	}

	r.rpcServer.Shutdown(graceful)
	if r.profilingServer != nil {
		r.profilingServer.Shutdown(graceful)
	}

	if err := r.backend.Shutdown(); err != nil {
		return err
	}

	close(r.shutdownCh)
	r.shutdown = true
	logging.DefaultLogger().Infof("botscode stopped")
	return nil
}

// ShutdownCh returns the shutdown channel.
func (r *BotsCode) ShutdownCh() <-chan struct{} {
	return r.shutdownCh
}

// RPCAddr returns the address of the RPC.
func (r *BotsCode) RPCAddr() string {
	return r.conf.RPCAddr()
}

// Handler returns the HTTP handler of the RPC server. It is used for testing.
func (r *BotsCode) Handler() http.Handler {
	return r.rpcServer.Handler()
}

// Backend returns the backend of this server. It is used for testing.
func (r *BotsCode) Backend() *backend.Backend {
	return r.backend
}
