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

// Package store defines the change-notification key-value store used by the
// collaboration packages, with the snapshot, path and listener helpers shared
// by its implementations.
package store

import (
	"context"
)

// Callback is invoked with the current value of a subscribed path.
type Callback func(snapshot Snapshot)

// Unsubscribe stops the subscription it was returned for. It is safe to call
// more than once.
type Unsubscribe func()

// Store is a hierarchical JSON key-value store with change notifications and
// cleanup-on-disconnect.
type Store interface {
	// Write replaces the value at the given path.
	Write(ctx context.Context, path string, value any) error

	// Read returns the current value at the given path.
	Read(ctx context.Context, path string) (Snapshot, error)

	// Remove deletes the value at the given path and below it.
	Remove(ctx context.Context, path string) error

	// Push allocates a new unique child path under the given prefix. The
	// returned path is not written.
	Push(ctx context.Context, prefix string) (string, error)

	// Subscribe delivers the current value at the path and then every change
	// to it until the returned Unsubscribe is called.
	Subscribe(ctx context.Context, path string, fn Callback) (Unsubscribe, error)

	// OnDisconnect returns the handle used to register actions the store runs
	// when this client's connection ends.
	OnDisconnect(path string) Disconnect
}

// Disconnect registers an action to run at a path when the connection ends.
type Disconnect interface {
	// Remove registers the removal of the path.
	Remove(ctx context.Context) error

	// Set registers a write of the given value. The value may contain
	// ServerTimestamp placeholders.
	Set(ctx context.Context, value any) error
}
