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

// Package memory implements the database interface using in-memory database.
package memory

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-memdb"

	"github.com/botscode-team/botscode/server/backend/database"
)

// DB is an in-memory database for testing or temporarily.
type DB struct {
	db *memdb.MemDB
}

// New returns a new in-memory database.
func New() (*DB, error) {
	memDB, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &DB{
		db: memDB,
	}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return nil
}

// FindNode returns the leaf node at the given path.
func (d *DB) FindNode(_ context.Context, path string) (*database.NodeInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblNodes, "id", path)
	if err != nil {
		return nil, fmt.Errorf("find node of %s: %w", path, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", path, database.ErrNodeNotFound)
	}

	return raw.(*database.NodeInfo).DeepCopy(), nil
}

// FindNodesByPrefix returns the leaf nodes strictly below the given path.
func (d *DB) FindNodesByPrefix(_ context.Context, prefix string) ([]*database.NodeInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblNodes, "id_prefix", prefix+"/")
	if err != nil {
		return nil, fmt.Errorf("find nodes by prefix %s: %w", prefix, err)
	}

	var infos []*database.NodeInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		infos = append(infos, raw.(*database.NodeInfo).DeepCopy())
	}

	return infos, nil
}

// PutNode creates or replaces the leaf node at its path.
func (d *DB) PutNode(_ context.Context, info *database.NodeInfo) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(tblNodes, info.DeepCopy()); err != nil {
		return fmt.Errorf("put node of %s: %w", info.Path, err)
	}

	txn.Commit()
	return nil
}

// DeleteNode deletes the leaf node at the given path.
func (d *DB) DeleteNode(_ context.Context, path string) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(tblNodes, "id", path); err != nil {
		return fmt.Errorf("delete node of %s: %w", path, err)
	}

	txn.Commit()
	return nil
}

// DeleteNodesByPrefix deletes the leaf nodes strictly below the given path.
func (d *DB) DeleteNodesByPrefix(_ context.Context, prefix string) (int, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	deleted, err := txn.DeleteAll(tblNodes, "id_prefix", prefix+"/")
	if err != nil {
		return 0, fmt.Errorf("delete nodes by prefix %s: %w", prefix, err)
	}

	txn.Commit()
	return deleted, nil
}
