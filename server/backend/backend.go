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

// Package backend provides the backend implementation of BotsCode. This
// package is responsible for managing the database, the store and the
// collaborators required to run the server.
package backend

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/botscode-team/botscode/pkg/assist"
	"github.com/botscode-team/botscode/pkg/execution"
	"github.com/botscode-team/botscode/server/backend/background"
	"github.com/botscode-team/botscode/server/backend/connection"
	"github.com/botscode-team/botscode/server/backend/database"
	memdb "github.com/botscode-team/botscode/server/backend/database/memory"
	"github.com/botscode-team/botscode/server/backend/database/mongo"
	"github.com/botscode-team/botscode/server/backend/database/redis"
	"github.com/botscode-team/botscode/server/backend/housekeeping"
	"github.com/botscode-team/botscode/server/backend/nodes"
	"github.com/botscode-team/botscode/server/backend/pubsub"
	"github.com/botscode-team/botscode/server/logging"
	"github.com/botscode-team/botscode/server/profiling/prometheus"
)

// Backend manages BotsCode's backend such as Database and Store. It also
// provides the clients of the code-execution sandbox and the AI assistant.
type Backend struct {
	Config *Config

	// DB is the database instance.
	DB database.Database
	// PubSub routes store snapshots to subscriptions.
	PubSub *pubsub.PubSub
	// Connections tracks the clients attached to the store.
	Connections *connection.Manager
	// Store is the change-notification store.
	Store *nodes.Store

	// Background is used to manage background tasks.
	Background *background.Background
	// Housekeeping ends the connections whose lease expired.
	Housekeeping *housekeeping.Housekeeping

	// Executor runs code in the sandbox.
	Executor *execution.Runner
	// Sandbox is the client of the code-execution sandbox.
	Sandbox *execution.Client
	// Assistant transforms code with the AI model.
	Assistant *assist.Client

	// Metrics is used to expose metrics.
	Metrics *prometheus.Metrics
}

// New creates a new instance of Backend.
func New(
	conf *Config,
	mongoConf *mongo.Config,
	redisConf *redis.Config,
	housekeepingConf *housekeeping.Config,
	executionConf *execution.Config,
	assistConf *assist.Config,
	metrics *prometheus.Metrics,
) (*Backend, error) {
	// 01. Build the server info with the given hostname or the hostname of the
	// current machine.
	if conf.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("os.Hostname: %w", err)
		}
		conf.Hostname = hostname
	}

	// 02. Create the database instance. MongoDB is used if configured, then
	// Redis; otherwise the memory database.
	var db database.Database
	var err error
	dbInfo := "memory"
	switch {
	case mongoConf != nil:
		if db, err = mongo.Dial(mongoConf); err != nil {
			return nil, err
		}
		dbInfo = mongoConf.ConnectionURI
	case redisConf != nil:
		if db, err = redis.Dial(redisConf); err != nil {
			return nil, err
		}
		dbInfo = redisConf.Address
	default:
		if db, err = memdb.New(); err != nil {
			return nil, err
		}
	}

	// 03. Create the store with its pubsub and connection manager.
	pubSub := pubsub.New(conf.SubscriptionLimitPerPath)
	connections := connection.NewManager(conf.ParseConnectionTTL())
	store := nodes.New(db, pubSub, connections, metrics)

	// 04. Create the background task manager and the housekeeping instance.
	bg := background.New(metrics)
	housekeeper, err := housekeeping.New(housekeepingConf, store)
	if err != nil {
		return nil, err
	}

	// 05. Create the collaborator clients.
	sandbox := execution.NewClient(executionConf)
	executor := execution.NewRunner(
		sandbox,
		executionConf.ParsePollInterval(),
		executionConf.MaxPollAttempts,
	)
	assistant := assist.NewClient(assistConf)

	logging.DefaultLogger().Infof(
		"backend created: host: %s, db: %s, assist enabled: %t",
		conf.Hostname,
		dbInfo,
		assistant.Enabled(),
	)

	return &Backend{
		Config: conf,

		DB:          db,
		PubSub:      pubSub,
		Connections: connections,
		Store:       store,

		Background:   bg,
		Housekeeping: housekeeper,

		Executor:  executor,
		Sandbox:   sandbox,
		Assistant: assistant,

		Metrics: metrics,
	}, nil
}

// Start starts the backend.
func (b *Backend) Start(_ context.Context) error {
	if err := b.Housekeeping.Start(); err != nil {
		return err
	}

	logging.DefaultLogger().Infof("backend started")
	return nil
}

// Shutdown closes all resources of this instance.
func (b *Backend) Shutdown() error {
	var errs []error

	if err := b.Housekeeping.Stop(); err != nil {
		errs = append(errs, err)
	}

	b.Background.Close()

	if err := b.DB.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logging.DefaultLogger().Infof("backend stopped")
	return nil
}
