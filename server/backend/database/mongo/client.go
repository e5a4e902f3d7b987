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

// Package mongo implements the database interface using MongoDB.
package mongo

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/botscode-team/botscode/pkg/errors"
	"github.com/botscode-team/botscode/server/backend/database"
	"github.com/botscode-team/botscode/server/logging"
)

// Client is a client that connects to Mongo DB and reads or saves the nodes
// of the store.
type Client struct {
	config *Config
	client *mongo.Client
}

// Dial creates an instance of Client and dials the given MongoDB.
func Dial(conf *Config) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.ParseConnectionTimeout())
	defer cancel()

	client, err := mongo.Connect(
		ctx,
		options.Client().ApplyURI(conf.ConnectionURI),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, conf.ParsePingTimeout())
	defer cancel()

	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if err := ensureIndexes(ctx, client.Database(conf.Database)); err != nil {
		return nil, err
	}

	logging.DefaultLogger().Infof("MongoDB connected, URI: %s, DB: %s", conf.ConnectionURI, conf.Database)

	return &Client{
		config: conf,
		client: client,
	}, nil
}

// Close all resources of this client.
func (c *Client) Close() error {
	if err := c.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("close mongo client: %w", err)
	}

	return nil
}

// FindNode returns the leaf node at the given path.
func (c *Client) FindNode(ctx context.Context, path string) (*database.NodeInfo, error) {
	var info database.NodeInfo
	result := c.collection(ColNodes).FindOne(ctx, bson.M{"_id": path})
	if err := result.Decode(&info); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", path, database.ErrNodeNotFound)
		}
		return nil, fmt.Errorf("find node of %s: %w", path, err)
	}

	return &info, nil
}

// FindNodesByPrefix returns the leaf nodes strictly below the given path.
func (c *Client) FindNodesByPrefix(ctx context.Context, prefix string) ([]*database.NodeInfo, error) {
	cursor, err := c.collection(ColNodes).Find(
		ctx,
		prefixFilter(prefix),
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find nodes by prefix %s: %w", prefix, err)
	}

	var infos []*database.NodeInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("fetch nodes by prefix %s: %w", prefix, err)
	}

	return infos, nil
}

// PutNode creates or replaces the leaf node at its path.
func (c *Client) PutNode(ctx context.Context, info *database.NodeInfo) error {
	if _, err := c.collection(ColNodes).ReplaceOne(
		ctx,
		bson.M{"_id": info.Path},
		info,
		options.Replace().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("put node of %s: %w", info.Path, err)
	}

	return nil
}

// DeleteNode deletes the leaf node at the given path.
func (c *Client) DeleteNode(ctx context.Context, path string) error {
	if _, err := c.collection(ColNodes).DeleteOne(ctx, bson.M{"_id": path}); err != nil {
		return fmt.Errorf("delete node of %s: %w", path, err)
	}

	return nil
}

// DeleteNodesByPrefix deletes the leaf nodes strictly below the given path.
func (c *Client) DeleteNodesByPrefix(ctx context.Context, prefix string) (int, error) {
	result, err := c.collection(ColNodes).DeleteMany(ctx, prefixFilter(prefix))
	if err != nil {
		return 0, fmt.Errorf("delete nodes by prefix %s: %w", prefix, err)
	}

	return int(result.DeletedCount), nil
}

func (c *Client) collection(name string) *mongo.Collection {
	return c.client.Database(c.config.Database).Collection(name)
}

func prefixFilter(prefix string) bson.M {
	return bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix+"/")}}
}
