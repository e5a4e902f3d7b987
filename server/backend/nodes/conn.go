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

package nodes

import (
	"context"
	"sync"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/store"
	"github.com/botscode-team/botscode/server/backend/connection"
)

// Conn is an in-process client of the store. Every operation refreshes the
// lease of its connection; Close ends the connection and runs its hooks.
type Conn struct {
	store  *Store
	id     types.ID
	userID string
}

// Connect attaches a new connection of the given user and returns its client.
func (s *Store) Connect(ctx context.Context, userID string) *Conn {
	conn := s.Attach(ctx, userID)
	return &Conn{
		store:  s,
		id:     conn.ID,
		userID: userID,
	}
}

// ID returns the id of the connection.
func (c *Conn) ID() types.ID {
	return c.id
}

// UserID returns the user the connection belongs to.
func (c *Conn) UserID() string {
	return c.userID
}

// Refresh extends the lease of the connection without any operation.
func (c *Conn) Refresh(ctx context.Context) error {
	return c.store.Refresh(ctx, c.id)
}

// Write replaces the value at the given path.
func (c *Conn) Write(ctx context.Context, path string, value any) error {
	if err := c.store.Refresh(ctx, c.id); err != nil {
		return err
	}

	snapshot, err := store.NewSnapshot(path, value)
	if err != nil {
		return err
	}
	return c.store.Write(ctx, path, snapshot.Raw)
}

// Read returns the current value at the given path.
func (c *Conn) Read(ctx context.Context, path string) (store.Snapshot, error) {
	if err := c.store.Refresh(ctx, c.id); err != nil {
		return store.Snapshot{}, err
	}
	return c.store.Read(ctx, path)
}

// Remove deletes the value at the given path.
func (c *Conn) Remove(ctx context.Context, path string) error {
	if err := c.store.Refresh(ctx, c.id); err != nil {
		return err
	}
	return c.store.Remove(ctx, path)
}

// Push allocates a new child path under the given prefix.
func (c *Conn) Push(ctx context.Context, prefix string) (string, error) {
	if err := c.store.Refresh(ctx, c.id); err != nil {
		return "", err
	}
	return c.store.Push(ctx, prefix)
}

// Subscribe delivers the current value at the path and then every change.
func (c *Conn) Subscribe(ctx context.Context, path string, fn store.Callback) (store.Unsubscribe, error) {
	sub, err := c.store.Subscribe(ctx, c.id, path, fn)
	if err != nil {
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.store.Unsubscribe(context.Background(), sub)
		})
	}, nil
}

// OnDisconnect returns the handle registering hooks at the given path.
func (c *Conn) OnDisconnect(path string) store.Disconnect {
	return &disconnect{conn: c, path: path}
}

// Close ends the connection. Closing twice returns ErrConnectionClosed.
func (c *Conn) Close(ctx context.Context) error {
	return c.store.Disconnect(ctx, c.id, ReasonClose)
}

type disconnect struct {
	conn *Conn
	path string
}

// Remove registers the removal of the path.
func (d *disconnect) Remove(ctx context.Context) error {
	return d.conn.store.AddHook(ctx, d.conn.id, connection.Hook{Path: d.path})
}

// Set registers a write of the given value at the path.
func (d *disconnect) Set(ctx context.Context, value any) error {
	snapshot, err := store.NewSnapshot(d.path, value)
	if err != nil {
		return err
	}
	return d.conn.store.AddHook(ctx, d.conn.id, connection.Hook{Path: d.path, Value: snapshot.Raw})
}
