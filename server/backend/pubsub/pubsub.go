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

// Package pubsub routes store snapshots to the subscriptions of a path.
package pubsub

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/errors"
	"github.com/botscode-team/botscode/pkg/store"
	"github.com/botscode-team/botscode/server/logging"
)

var (
	// ErrTooManySubscribers is returned when the subscription limit of a path
	// is exceeded.
	ErrTooManySubscribers = errors.FailedPrecond("subscription limit exceeded").WithCode("ErrTooManySubscribers")
)

// PubSub is the memory implementation of PubSub, used for single server.
type PubSub struct {
	mu      sync.RWMutex
	subsMap map[string]map[types.ID]*Subscription

	// limit is the maximum number of subscriptions per path. Zero means no
	// limit.
	limit int
}

// New creates an instance of PubSub.
func New(limit int) *PubSub {
	return &PubSub{
		subsMap: make(map[string]map[types.ID]*Subscription),
		limit:   limit,
	}
}

// Subscribe subscribes the given connection to the given path.
func (m *PubSub) Subscribe(
	ctx context.Context,
	subscriber types.ID,
	path string,
	fn store.Callback,
) (*Subscription, error) {
	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Subscribe(%s,%s) Start`, path, subscriber)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	subs, ok := m.subsMap[path]
	if !ok {
		subs = make(map[types.ID]*Subscription)
		m.subsMap[path] = subs
	}

	if m.limit > 0 && len(subs) >= m.limit {
		return nil, fmt.Errorf("%d subscribers allowed per path: %w", m.limit, ErrTooManySubscribers)
	}

	sub := NewSubscription(subscriber, path, fn)
	subs[sub.ID()] = sub

	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Subscribe(%s,%s) End`, path, subscriber)
	}

	return sub, nil
}

// Unsubscribe closes the given subscription and stops routing to it.
func (m *PubSub) Unsubscribe(ctx context.Context, sub *Subscription) {
	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Unsubscribe(%s,%s)`, sub.Path(), sub.Subscriber())
	}

	sub.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	if subs, ok := m.subsMap[sub.Path()]; ok {
		delete(subs, sub.ID())
		if len(subs) == 0 {
			delete(m.subsMap, sub.Path())
		}
	}
}

// UnsubscribeAll closes every subscription of the given connection and
// returns how many were closed.
func (m *PubSub) UnsubscribeAll(ctx context.Context, subscriber types.ID) int {
	m.mu.RLock()
	var subs []*Subscription
	for _, pathSubs := range m.subsMap {
		for _, sub := range pathSubs {
			if sub.Subscriber() == subscriber {
				subs = append(subs, sub)
			}
		}
	}
	m.mu.RUnlock()

	for _, sub := range subs {
		m.Unsubscribe(ctx, sub)
	}
	return len(subs)
}

// RelatedPaths returns the subscribed paths whose value changes when the
// value at the given path changes.
func (m *PubSub) RelatedPaths(path string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var paths []string
	for subscribed := range m.subsMap {
		if store.IsRelated(subscribed, path) {
			paths = append(paths, subscribed)
		}
	}

	return paths
}

// Publish publishes the given snapshot to the subscriptions of its path and
// returns the number of subscriptions it reached.
func (m *PubSub) Publish(ctx context.Context, snapshot store.Snapshot) int {
	m.mu.RLock()
	subs := make([]*Subscription, 0, len(m.subsMap[snapshot.Path]))
	for _, sub := range m.subsMap[snapshot.Path] {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	published := 0
	for _, sub := range subs {
		if sub.Publish(snapshot) {
			published++
		}
	}

	if logging.Enabled(zap.DebugLevel) && published > 0 {
		logging.From(ctx).Debugf(`Publish(%s) to %d subscriptions`, snapshot.Path, published)
	}

	return published
}

// Len returns the number of live subscriptions.
func (m *PubSub) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, subs := range m.subsMap {
		count += len(subs)
	}
	return count
}
