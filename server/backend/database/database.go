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

// Package database provides the persistence interface of the store.
package database

import (
	"context"

	"github.com/botscode-team/botscode/pkg/errors"
)

var (
	// ErrNodeNotFound is returned when no node is stored at a path.
	ErrNodeNotFound = errors.NotFound("node not found").WithCode("ErrNodeNotFound")
)

// Database represents database which reads or saves the nodes of the store.
// Only leaf values are stored; interior paths are derived from the paths of
// their leaves.
type Database interface {
	// Close all resources of this database.
	Close() error

	// FindNode returns the leaf node at the given path.
	FindNode(ctx context.Context, path string) (*NodeInfo, error)

	// FindNodesByPrefix returns the leaf nodes strictly below the given path,
	// ordered by path.
	FindNodesByPrefix(ctx context.Context, prefix string) ([]*NodeInfo, error)

	// PutNode creates or replaces the leaf node at its path.
	PutNode(ctx context.Context, info *NodeInfo) error

	// DeleteNode deletes the leaf node at the given path. Deleting an absent
	// node is not an error.
	DeleteNode(ctx context.Context, path string) error

	// DeleteNodesByPrefix deletes the leaf nodes strictly below the given path
	// and returns how many were deleted.
	DeleteNodesByPrefix(ctx context.Context, prefix string) (int, error)
}
