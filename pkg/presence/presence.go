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

// Package presence tracks the users currently online in the workspace.
package presence

import (
	"context"
	"fmt"
	"sync"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/attachable"
	"github.com/botscode-team/botscode/pkg/store"
)

// Tracker announces a user as online and keeps the list of online users.
type Tracker struct {
	store  store.Store
	userID string

	lifecycle attachable.Lifecycle

	mu          sync.RWMutex
	online      []string
	unsubscribe store.Unsubscribe
	onChange    func(online []string)
}

// New creates a new Tracker of the given user.
func New(s store.Store, userID string) *Tracker {
	return &Tracker{
		store:  s,
		userID: userID,
		online: []string{},
	}
}

// Path returns the path of the online users.
func (t *Tracker) Path() string {
	return types.PresenceRoot
}

// Type returns the type of this resource.
func (t *Tracker) Type() attachable.ResourceType {
	return attachable.TypePresence
}

// Status returns the status of this tracker.
func (t *Tracker) Status() attachable.StatusType {
	return t.lifecycle.Status()
}

// OnChange sets the handler called with the online users on every change.
func (t *Tracker) OnChange(fn func(online []string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// Start announces the user and watches the online users.
func (t *Tracker) Start(ctx context.Context) error {
	if err := t.Announce(ctx); err != nil {
		return err
	}
	return t.Watch(ctx)
}

// Announce marks the user as online and registers the removal of the mark
// when the connection to the store is lost.
func (t *Tracker) Announce(ctx context.Context) error {
	path := types.PresencePath(t.userID)
	if err := t.store.Write(ctx, path, true); err != nil {
		return fmt.Errorf("announce %s: %w", t.userID, err)
	}
	if err := t.store.OnDisconnect(path).Remove(ctx); err != nil {
		return fmt.Errorf("announce %s: %w", t.userID, err)
	}
	return nil
}

// Watch subscribes to the online users.
func (t *Tracker) Watch(ctx context.Context) error {
	if !t.lifecycle.Attach() {
		return nil
	}

	unsubscribe, err := t.store.Subscribe(ctx, types.PresenceRoot, t.apply)
	if err != nil {
		t.lifecycle.Remove()
		return fmt.Errorf("watch presence: %w", err)
	}

	t.mu.Lock()
	t.unsubscribe = unsubscribe
	t.mu.Unlock()
	return nil
}

// Stop stops watching the online users. Notifications still in flight are
// ignored.
func (t *Tracker) Stop() {
	if !t.lifecycle.Remove() {
		return
	}

	t.mu.Lock()
	unsubscribe := t.unsubscribe
	t.unsubscribe = nil
	t.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Leave removes the online mark of the user without waiting for the
// connection to be lost.
func (t *Tracker) Leave(ctx context.Context) error {
	if err := t.store.Remove(ctx, types.PresencePath(t.userID)); err != nil {
		return fmt.Errorf("leave %s: %w", t.userID, err)
	}
	return nil
}

// Online returns the sorted ids of the online users.
func (t *Tracker) Online() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string{}, t.online...)
}

func (t *Tracker) apply(snapshot store.Snapshot) {
	if !t.lifecycle.IsAttached() {
		return
	}

	online := snapshot.Keys()

	t.mu.Lock()
	t.online = online
	onChange := t.onChange
	t.mu.Unlock()

	if onChange != nil {
		onChange(append([]string{}, online...))
	}
}
