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

// Package background tracks the goroutines the backend starts outside of a
// request, such as the disconnect hooks of a closed websocket, so that closing
// the backend waits for them.
package background

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/botscode-team/botscode/server/logging"
	"github.com/botscode-team/botscode/server/profiling/prometheus"
)

// TaskDisconnect is the task type of the goroutines ending a connection.
const TaskDisconnect = "disconnect"

type routineID int32

func (c *routineID) next() string {
	next := atomic.AddInt32((*int32)(c), 1)
	return "b" + strconv.Itoa(int(next))
}

// Background is the background service. It is responsible for managing
// background routines.
type Background struct {
	// ctx is cancelled when the background starts closing.
	ctx    context.Context
	cancel context.CancelFunc

	// wgMu blocks concurrent WaitGroup mutation while backend closing.
	wgMu    sync.RWMutex
	closing bool

	// wg is used to wait for the goroutines that depends on the backend state
	// to exit when closing the backend.
	wg sync.WaitGroup

	routineID routineID

	metrics *prometheus.Metrics
}

// New creates a new background service.
func New(metrics *prometheus.Metrics) *Background {
	ctx, cancel := context.WithCancel(context.Background())
	return &Background{
		ctx:     ctx,
		cancel:  cancel,
		metrics: metrics,
	}
}

// AttachGoroutine runs f on a new goroutine tracked by this background. The
// context given to f carries a routine logger and is cancelled on Close. It
// returns false if the background is already closing.
func (b *Background) AttachGoroutine(
	f func(ctx context.Context),
	taskType string,
) bool {
	b.wgMu.RLock()
	defer b.wgMu.RUnlock()
	if b.closing {
		logging.DefaultLogger().Warnf("backend has closed; skipping %s goroutine", taskType)
		return false
	}

	b.wg.Add(1)
	routineLogger := logging.New(b.routineID.next())
	if b.metrics != nil {
		b.metrics.AddBackgroundGoroutines(taskType)
	}
	go func() {
		defer func() {
			b.wg.Done()
			if b.metrics != nil {
				b.metrics.RemoveBackgroundGoroutines(taskType)
			}
		}()
		f(logging.With(b.ctx, routineLogger))
	}()

	return true
}

// Close cancels the context of the attached goroutines and waits for them to
// exit.
func (b *Background) Close() {
	b.wgMu.Lock()
	b.closing = true
	b.wgMu.Unlock()

	b.cancel()
	b.wg.Wait()
}
