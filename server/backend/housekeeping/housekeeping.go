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

package housekeeping

import (
	"context"
	"time"

	"github.com/botscode-team/botscode/server/logging"
)

// Sweeper ends expired connections.
type Sweeper interface {
	ExpireConnections(ctx context.Context, limit int) (int, error)
}

// Housekeeping is the housekeeping service. It periodically ends the
// connections whose clients stopped refreshing their lease, which runs their
// disconnect hooks.
type Housekeeping struct {
	sweeper Sweeper

	interval        time.Duration
	candidatesLimit int

	ctx        context.Context
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// Start creates and starts the housekeeping service.
func Start(conf *Config, sweeper Sweeper) (*Housekeeping, error) {
	h, err := New(conf, sweeper)
	if err != nil {
		return nil, err
	}
	if err := h.Start(); err != nil {
		return nil, err
	}

	return h, nil
}

// New creates a new housekeeping instance.
func New(conf *Config, sweeper Sweeper) (*Housekeeping, error) {
	interval, err := conf.ParseInterval()
	if err != nil {
		return nil, err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())

	return &Housekeeping{
		sweeper: sweeper,

		interval:        interval,
		candidatesLimit: conf.CandidatesLimit,

		ctx:        ctx,
		cancelFunc: cancelFunc,
		done:       make(chan struct{}),
	}, nil
}

// Start starts the housekeeping service.
func (h *Housekeeping) Start() error {
	go h.run()
	return nil
}

// Stop stops the housekeeping service and waits for the running sweep.
func (h *Housekeeping) Stop() error {
	h.cancelFunc()
	<-h.done

	return nil
}

// run is the housekeeping loop.
func (h *Housekeeping) run() {
	defer close(h.done)

	for {
		select {
		case <-time.After(h.interval):
		case <-h.ctx.Done():
			return
		}

		ctx := logging.With(context.Background(), logging.New("HSKP"))
		if err := h.expireConnections(ctx); err != nil {
			logging.From(ctx).Error(err)
		}
	}
}

// expireConnections ends expired connections until none is left or the
// service stops.
func (h *Housekeeping) expireConnections(ctx context.Context) error {
	start := time.Now()
	total := 0

	for h.ctx.Err() == nil {
		expired, err := h.sweeper.ExpireConnections(ctx, h.candidatesLimit)
		if err != nil {
			return err
		}
		total += expired

		if expired < h.candidatesLimit {
			break
		}
	}

	if total > 0 {
		logging.From(ctx).Infof("HSKP: expired %d connections, %s", total, time.Since(start))
	}

	return nil
}
