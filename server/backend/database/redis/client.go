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

// Package redis implements the database interface using Redis. Each leaf
// node is a hash holding its JSON value and its update time.
package redis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/botscode-team/botscode/pkg/errors"
	"github.com/botscode-team/botscode/server/backend/database"
	"github.com/botscode-team/botscode/server/logging"
)

const (
	fieldValue     = "value"
	fieldUpdatedAt = "updated_at"
	scanCount      = 256
)

// Client is a client that connects to Redis and reads or saves the nodes of
// the store.
type Client struct {
	config *Config
	client *redis.Client
}

// Dial creates an instance of Client and pings the given Redis.
func Dial(conf *Config) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        conf.Address,
		Password:    conf.Password,
		DB:          conf.DB,
		DialTimeout: conf.ParseDialTimeout(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), conf.ParseDialTimeout())
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logging.DefaultLogger().Infof("Redis connected, address: %s, DB: %d", conf.Address, conf.DB)

	return &Client{
		config: conf,
		client: client,
	}, nil
}

// Close all resources of this client.
func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}

// FindNode returns the leaf node at the given path.
func (c *Client) FindNode(ctx context.Context, path string) (*database.NodeInfo, error) {
	fields, err := c.client.HGetAll(ctx, c.key(path)).Result()
	if err != nil {
		return nil, fmt.Errorf("find node of %s: %w", path, err)
	}

	return decodeNode(path, fields)
}

// FindNodesByPrefix returns the leaf nodes strictly below the given path.
func (c *Client) FindNodesByPrefix(ctx context.Context, prefix string) ([]*database.NodeInfo, error) {
	keys, err := c.scan(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var infos []*database.NodeInfo
	for _, key := range keys {
		path := strings.TrimPrefix(key, c.config.KeyPrefix)
		fields, err := c.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("find node of %s: %w", path, err)
		}

		info, err := decodeNode(path, fields)
		if errors.Is(err, database.ErrNodeNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}

	return infos, nil
}

// PutNode creates or replaces the leaf node at its path.
func (c *Client) PutNode(ctx context.Context, info *database.NodeInfo) error {
	if err := c.client.HSet(
		ctx,
		c.key(info.Path),
		fieldValue, info.Value,
		fieldUpdatedAt, info.UpdatedAt.UnixMilli(),
	).Err(); err != nil {
		return fmt.Errorf("put node of %s: %w", info.Path, err)
	}

	return nil
}

// DeleteNode deletes the leaf node at the given path.
func (c *Client) DeleteNode(ctx context.Context, path string) error {
	if err := c.client.Del(ctx, c.key(path)).Err(); err != nil {
		return fmt.Errorf("delete node of %s: %w", path, err)
	}

	return nil
}

// DeleteNodesByPrefix deletes the leaf nodes strictly below the given path.
func (c *Client) DeleteNodesByPrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := c.scan(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("delete nodes by prefix %s: %w", prefix, err)
	}

	return int(deleted), nil
}

func (c *Client) key(path string) string {
	return c.config.KeyPrefix + path
}

// scan returns the sorted keys of the nodes strictly below the given path.
func (c *Client) scan(ctx context.Context, prefix string) ([]string, error) {
	match := escapeGlob(c.key(prefix+"/")) + "*"

	var keys []string
	iter := c.client.Scan(ctx, 0, match, scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan nodes by prefix %s: %w", prefix, err)
	}

	sort.Strings(keys)
	return keys, nil
}

func decodeNode(path string, fields map[string]string) (*database.NodeInfo, error) {
	value, ok := fields[fieldValue]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, database.ErrNodeNotFound)
	}

	var updatedAt int64
	if _, err := fmt.Sscan(fields[fieldUpdatedAt], &updatedAt); err != nil {
		return nil, fmt.Errorf("decode updated_at of %s: %w", path, err)
	}

	return &database.NodeInfo{
		Path:      path,
		Value:     []byte(value),
		UpdatedAt: time.UnixMilli(updatedAt),
	}, nil
}

func escapeGlob(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
