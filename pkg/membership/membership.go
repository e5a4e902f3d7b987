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

// Package membership tracks the members of the workspace and the log of the
// join and exit events of their sessions.
package membership

import (
	"context"
	"fmt"
	"sync"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/attachable"
	"github.com/botscode-team/botscode/pkg/store"
)

// Membership marks a user as a member and keeps the list of members.
type Membership struct {
	store  store.Store
	userID string

	lifecycle attachable.Lifecycle

	mu          sync.RWMutex
	members     []string
	unsubscribe store.Unsubscribe
	onChange    func(members []string)
}

// New creates a new Membership of the given user.
func New(s store.Store, userID string) *Membership {
	return &Membership{
		store:   s,
		userID:  userID,
		members: []string{},
	}
}

// Path returns the path of the members.
func (m *Membership) Path() string {
	return types.MembersRoot
}

// Type returns the type of this resource.
func (m *Membership) Type() attachable.ResourceType {
	return attachable.TypeMembers
}

// Status returns the status of this membership.
func (m *Membership) Status() attachable.StatusType {
	return m.lifecycle.Status()
}

// OnChange sets the handler called with the members on every change.
func (m *Membership) OnChange(fn func(members []string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Join marks the user as a member and registers the removal of the mark when
// the connection to the store is lost.
func (m *Membership) Join(ctx context.Context) error {
	path := types.MemberPath(m.userID)
	if err := m.store.Write(ctx, path, true); err != nil {
		return fmt.Errorf("join %s: %w", m.userID, err)
	}
	if err := m.store.OnDisconnect(path).Remove(ctx); err != nil {
		return fmt.Errorf("join %s: %w", m.userID, err)
	}
	return nil
}

// Watch subscribes to the members.
func (m *Membership) Watch(ctx context.Context) error {
	if !m.lifecycle.Attach() {
		return nil
	}

	unsubscribe, err := m.store.Subscribe(ctx, types.MembersRoot, m.apply)
	if err != nil {
		m.lifecycle.Remove()
		return fmt.Errorf("watch members: %w", err)
	}

	m.mu.Lock()
	m.unsubscribe = unsubscribe
	m.mu.Unlock()
	return nil
}

// Stop stops watching the members.
func (m *Membership) Stop() {
	if !m.lifecycle.Remove() {
		return
	}

	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Leave removes the membership mark of the user.
func (m *Membership) Leave(ctx context.Context) error {
	if err := m.store.Remove(ctx, types.MemberPath(m.userID)); err != nil {
		return fmt.Errorf("leave %s: %w", m.userID, err)
	}
	return nil
}

// Members returns the sorted ids of the members.
func (m *Membership) Members() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.members...)
}

func (m *Membership) apply(snapshot store.Snapshot) {
	if !m.lifecycle.IsAttached() {
		return
	}

	members := snapshot.Keys()

	m.mu.Lock()
	m.members = members
	onChange := m.onChange
	m.mu.Unlock()

	if onChange != nil {
		onChange(append([]string{}, members...))
	}
}
