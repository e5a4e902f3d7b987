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

// Package connection tracks the clients attached to the store. Each connection
// holds a lease refreshed by its activity and the disconnect hooks registered
// by its client.
package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	gotime "time"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/errors"
)

var (
	// ErrConnectionNotFound is returned when a connection is unknown or ended.
	ErrConnectionNotFound = errors.NotFound("connection not found").WithCode("ErrConnectionNotFound")
)

// Hook is an action run at a path when its connection ends. A hook without a
// value removes the path.
type Hook struct {
	Path  string
	Value json.RawMessage
}

// IsRemove returns whether this hook removes its path.
func (h Hook) IsRemove() bool {
	return h.Value == nil
}

// Connection is a client attached to the store.
type Connection struct {
	ID          types.ID
	UserID      string
	ConnectedAt gotime.Time
	UpdatedAt   gotime.Time
	Hooks       []Hook
}

// DeepCopy returns a deep copy of the Connection.
func (c *Connection) DeepCopy() *Connection {
	if c == nil {
		return nil
	}

	hooks := make([]Hook, len(c.Hooks))
	copy(hooks, c.Hooks)

	return &Connection{
		ID:          c.ID,
		UserID:      c.UserID,
		ConnectedAt: c.ConnectedAt,
		UpdatedAt:   c.UpdatedAt,
		Hooks:       hooks,
	}
}

// Manager manages connections.
type Manager struct {
	mu    sync.Mutex
	conns map[types.ID]*Connection

	// ttl is the time a connection lives without any activity.
	ttl gotime.Duration

	now func() gotime.Time
}

// NewManager creates a new connection manager.
func NewManager(ttl gotime.Duration) *Manager {
	if ttl == 0 {
		ttl = 60 * gotime.Second
	}

	return &Manager{
		conns: make(map[types.ID]*Connection),
		ttl:   ttl,
		now:   gotime.Now,
	}
}

// Attach creates a new connection of the given user.
func (m *Manager) Attach(_ context.Context, userID string) *Connection {
	now := m.now()
	conn := &Connection{
		ID:          types.NewID(),
		UserID:      userID,
		ConnectedAt: now,
		UpdatedAt:   now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[conn.ID] = conn

	return conn.DeepCopy()
}

// Refresh extends the lease of the given connection.
func (m *Manager) Refresh(_ context.Context, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.conns[id]
	if !ok {
		return fmt.Errorf("refresh %s: %w", id, ErrConnectionNotFound)
	}
	conn.UpdatedAt = m.now()

	return nil
}

// AddHook appends a disconnect hook to the given connection and refreshes its
// lease.
func (m *Manager) AddHook(_ context.Context, id types.ID, hook Hook) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.conns[id]
	if !ok {
		return fmt.Errorf("add hook to %s: %w", id, ErrConnectionNotFound)
	}
	conn.Hooks = append(conn.Hooks, hook)
	conn.UpdatedAt = m.now()

	return nil
}

// Detach removes the given connection and returns it with its hooks. Only the
// first Detach of a connection succeeds.
func (m *Manager) Detach(_ context.Context, id types.ID) (*Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.conns[id]
	if !ok {
		return nil, fmt.Errorf("detach %s: %w", id, ErrConnectionNotFound)
	}
	delete(m.conns, id)

	return conn, nil
}

// Get returns a copy of the given connection.
func (m *Manager) Get(id types.ID) (*Connection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.conns[id]
	return conn.DeepCopy(), ok
}

// CleanupExpired removes up to limit connections whose lease expired, oldest
// first, and returns them with their hooks. A non-positive limit removes all.
func (m *Manager) CleanupExpired(_ context.Context, limit int) []*Connection {
	m.mu.Lock()
	defer m.mu.Unlock()

	deadline := m.now().Add(-m.ttl)
	var expired []*Connection
	for _, conn := range m.conns {
		if conn.UpdatedAt.Before(deadline) {
			expired = append(expired, conn)
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].UpdatedAt.Before(expired[j].UpdatedAt)
	})
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}

	for _, conn := range expired {
		delete(m.conns, conn.ID)
	}

	return expired
}

// Len returns the number of live connections.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.conns)
}

// Users returns the sorted ids of the users with a live connection.
func (m *Manager) Users() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool)
	var users []string
	for _, conn := range m.conns {
		if !seen[conn.UserID] {
			seen[conn.UserID] = true
			users = append(users, conn.UserID)
		}
	}
	sort.Strings(users)

	return users
}
