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

// Package nodes implements the change-notification store on top of a
// database. Values are JSON documents addressed by slash separated paths;
// writes replace whole subtrees and notify the subscriptions of every path
// whose value they change.
package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	gotime "time"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/errors"
	"github.com/botscode-team/botscode/pkg/locker"
	"github.com/botscode-team/botscode/pkg/store"
	"github.com/botscode-team/botscode/server/backend/connection"
	"github.com/botscode-team/botscode/server/backend/database"
	"github.com/botscode-team/botscode/server/backend/pubsub"
	"github.com/botscode-team/botscode/server/logging"
	"github.com/botscode-team/botscode/server/profiling/prometheus"
)

// Below are the reasons a connection ends.
const (
	ReasonClose  = "close"
	ReasonExpire = "expire"
)

var (
	// ErrInvalidValue is returned when a value is not valid JSON.
	ErrInvalidValue = errors.InvalidArgument("invalid value").WithCode("ErrInvalidValue")

	// ErrConnectionClosed is returned when an operation is issued on an ended
	// connection.
	ErrConnectionClosed = errors.FailedPrecond("connection closed").WithCode("ErrConnectionClosed")
)

// Store is the change-notification store.
type Store struct {
	db      database.Database
	pubsub  *pubsub.PubSub
	conns   *connection.Manager
	locker  *locker.Locker[string]
	metrics *prometheus.Metrics

	now func() gotime.Time
}

// New creates a new Store.
func New(
	db database.Database,
	pubSub *pubsub.PubSub,
	conns *connection.Manager,
	metrics *prometheus.Metrics,
) *Store {
	return &Store{
		db:      db,
		pubsub:  pubSub,
		conns:   conns,
		locker:  locker.New[string](),
		metrics: metrics,
		now:     gotime.Now,
	}
}

// Write replaces the value at the given path with the given JSON value.
// ServerTimestamp placeholders are resolved with the current time.
func (s *Store) Write(ctx context.Context, path string, raw json.RawMessage) (err error) {
	defer func() { s.metrics.AddStoreOperation("write", err) }()

	if err := store.ValidatePath(path); err != nil {
		return err
	}

	now := s.now()
	resolved, err := store.ResolveServerValues(raw, now.UnixMilli())
	if err != nil {
		return fmt.Errorf("write %s: %w", path, ErrInvalidValue)
	}
	leaves, err := flatten(path, resolved, now)
	if err != nil {
		return err
	}

	return s.locker.Locked(store.TopLevel(path), func() error {
		if err := s.replace(ctx, path, leaves); err != nil {
			return err
		}
		s.notify(ctx, path)
		return nil
	})
}

// Remove deletes the value at the given path and below it.
func (s *Store) Remove(ctx context.Context, path string) (err error) {
	defer func() { s.metrics.AddStoreOperation("remove", err) }()

	if err := store.ValidatePath(path); err != nil {
		return err
	}

	return s.locker.Locked(store.TopLevel(path), func() error {
		if err := s.replace(ctx, path, nil); err != nil {
			return err
		}
		s.notify(ctx, path)
		return nil
	})
}

// Read returns the current value at the given path. It holds the lock of the
// top-level segment so a value being replaced is never seen half written.
func (s *Store) Read(ctx context.Context, path string) (snapshot store.Snapshot, err error) {
	defer func() { s.metrics.AddStoreOperation("read", err) }()

	if err := store.ValidatePath(path); err != nil {
		return store.Snapshot{}, err
	}

	err = s.locker.Locked(store.TopLevel(path), func() error {
		snapshot, err = s.read(ctx, path)
		return err
	})
	return snapshot, err
}

// Push allocates a new child path under the given prefix. Children allocated
// later sort after children allocated earlier.
func (s *Store) Push(_ context.Context, prefix string) (path string, err error) {
	defer func() { s.metrics.AddStoreOperation("push", err) }()

	if err := store.ValidatePath(prefix); err != nil {
		return "", err
	}

	return store.Join(prefix, types.NewID().String()), nil
}

// Subscribe subscribes the given connection to the value at the given path.
// The current value is delivered first.
func (s *Store) Subscribe(
	ctx context.Context,
	connID types.ID,
	path string,
	fn store.Callback,
) (sub *pubsub.Subscription, err error) {
	defer func() { s.metrics.AddStoreOperation("subscribe", err) }()

	if err := store.ValidatePath(path); err != nil {
		return nil, err
	}
	if err := s.Refresh(ctx, connID); err != nil {
		return nil, err
	}

	err = s.locker.Locked(store.TopLevel(path), func() error {
		snapshot, err := s.read(ctx, path)
		if err != nil {
			return err
		}

		sub, err = s.pubsub.Subscribe(ctx, connID, path, fn)
		if err != nil {
			return err
		}
		sub.Publish(snapshot)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// Unsubscribe stops the given subscription.
func (s *Store) Unsubscribe(ctx context.Context, sub *pubsub.Subscription) {
	s.pubsub.Unsubscribe(ctx, sub)
	s.metrics.AddStoreOperation("unsubscribe", nil)
}

// Attach creates a new connection of the given user.
func (s *Store) Attach(ctx context.Context, userID string) *connection.Connection {
	conn := s.conns.Attach(ctx, userID)
	s.metrics.AddStoreConnections()
	logging.From(ctx).Debugf("CONN: attach %s of %s", conn.ID, userID)
	return conn
}

// Refresh extends the lease of the given connection.
func (s *Store) Refresh(ctx context.Context, connID types.ID) error {
	if err := s.conns.Refresh(ctx, connID); err != nil {
		if errors.Is(err, connection.ErrConnectionNotFound) {
			return fmt.Errorf("%s: %w", connID, ErrConnectionClosed)
		}
		return err
	}
	return nil
}

// AddHook registers a disconnect hook on the given connection. A hook value
// is stored as given; its ServerTimestamp placeholders are resolved when the
// hook runs.
func (s *Store) AddHook(ctx context.Context, connID types.ID, hook connection.Hook) (err error) {
	defer func() { s.metrics.AddStoreOperation("disconnect", err) }()

	if err := store.ValidatePath(hook.Path); err != nil {
		return err
	}
	if hook.Value != nil && !json.Valid(hook.Value) {
		return fmt.Errorf("hook of %s: %w", hook.Path, ErrInvalidValue)
	}

	if err := s.conns.AddHook(ctx, connID, hook); err != nil {
		if errors.Is(err, connection.ErrConnectionNotFound) {
			return fmt.Errorf("%s: %w", connID, ErrConnectionClosed)
		}
		return err
	}
	return nil
}

// Disconnect ends the given connection: its subscriptions are closed and its
// hooks run in registration order. Only the first Disconnect of a connection
// runs the hooks.
func (s *Store) Disconnect(ctx context.Context, connID types.ID, reason string) error {
	conn, err := s.conns.Detach(ctx, connID)
	if err != nil {
		if errors.Is(err, connection.ErrConnectionNotFound) {
			return fmt.Errorf("%s: %w", connID, ErrConnectionClosed)
		}
		return err
	}

	s.end(ctx, conn, reason)
	return nil
}

// ExpireConnections ends up to limit connections whose lease expired and
// returns how many were ended.
func (s *Store) ExpireConnections(ctx context.Context, limit int) (int, error) {
	expired := s.conns.CleanupExpired(ctx, limit)
	for _, conn := range expired {
		s.end(ctx, conn, ReasonExpire)
	}

	return len(expired), nil
}

// Connections returns the number of live connections.
func (s *Store) Connections() int {
	return s.conns.Len()
}

func (s *Store) end(ctx context.Context, conn *connection.Connection, reason string) {
	closed := s.pubsub.UnsubscribeAll(ctx, conn.ID)

	failed := 0
	for _, hook := range conn.Hooks {
		var err error
		if hook.IsRemove() {
			err = s.Remove(ctx, hook.Path)
		} else {
			err = s.Write(ctx, hook.Path, hook.Value)
		}
		s.metrics.AddDisconnectHook(err)
		if err != nil {
			failed++
			logging.From(ctx).Warnf("CONN: hook %s of %s: %v", hook.Path, conn.ID, err)
		}
	}

	s.metrics.RemoveStoreConnections()
	s.metrics.AddDisconnect(reason)
	logging.From(ctx).Infof(
		"CONN: %s %s of %s, subscriptions[%d], hooks[%d], failed[%d]",
		reason,
		conn.ID,
		conn.UserID,
		closed,
		len(conn.Hooks),
		failed,
	)
}

// replace stores the given leaves as the new value of path. The previous
// value of path and any ancestor leaf are deleted first.
func (s *Store) replace(ctx context.Context, path string, leaves []*database.NodeInfo) error {
	if err := s.db.DeleteNode(ctx, path); err != nil {
		return err
	}
	if _, err := s.db.DeleteNodesByPrefix(ctx, path); err != nil {
		return err
	}
	for _, ancestor := range store.Ancestors(path) {
		if err := s.db.DeleteNode(ctx, ancestor); err != nil {
			return err
		}
	}

	for _, leaf := range leaves {
		if err := s.db.PutNode(ctx, leaf); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) read(ctx context.Context, path string) (store.Snapshot, error) {
	info, err := s.db.FindNode(ctx, path)
	if err == nil {
		return store.Snapshot{Path: path, Raw: info.JSON()}, nil
	}
	if !errors.Is(err, database.ErrNodeNotFound) {
		return store.Snapshot{}, err
	}

	leaves, err := s.db.FindNodesByPrefix(ctx, path)
	if err != nil {
		return store.Snapshot{}, err
	}

	raw, err := assemble(path, leaves)
	if err != nil {
		return store.Snapshot{}, err
	}
	return store.Snapshot{Path: path, Raw: raw}, nil
}

// notify publishes the new value of every subscribed path related to the
// changed path. It runs under the lock of the changed path's top level, which
// every related path shares.
func (s *Store) notify(ctx context.Context, path string) {
	published := 0
	for _, related := range s.pubsub.RelatedPaths(path) {
		snapshot, err := s.read(ctx, related)
		if err != nil {
			logging.From(ctx).Warnf("NOTI: read %s: %v", related, err)
			continue
		}
		published += s.pubsub.Publish(ctx, snapshot)
	}

	s.metrics.AddStoreNotifications(published)
}
