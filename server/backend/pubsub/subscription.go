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

package pubsub

import (
	"bytes"
	"sync"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/store"
)

// Subscription represents a subscription of a connection to the value of a
// path.
type Subscription struct {
	id         types.ID
	path       string
	subscriber types.ID
	listener   *store.Listener

	mu     sync.Mutex
	closed bool

	// last is the value of the last published snapshot. Snapshots equal to it
	// are not published again.
	last      []byte
	published bool
}

// NewSubscription creates a new instance of Subscription.
func NewSubscription(subscriber types.ID, path string, fn store.Callback) *Subscription {
	return &Subscription{
		id:         types.NewID(),
		path:       path,
		subscriber: subscriber,
		listener:   store.NewListener(fn),
	}
}

// ID returns the id of this subscription.
func (s *Subscription) ID() types.ID {
	return s.id
}

// Path returns the subscribed path.
func (s *Subscription) Path() string {
	return s.path
}

// Subscriber returns the connection this subscription belongs to.
func (s *Subscription) Subscriber() types.ID {
	return s.subscriber
}

// Publish schedules the delivery of the given snapshot to the subscriber. It
// returns false if the subscription is closed or the value did not change.
func (s *Subscription) Publish(snapshot store.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if s.published && bytes.Equal(s.last, snapshot.Raw) {
		return false
	}

	s.last = append(s.last[:0], snapshot.Raw...)
	s.published = true
	s.listener.Notify(snapshot)
	return true
}

// Close closes all resources of this Subscription.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		s.listener.Close()
	}
}
