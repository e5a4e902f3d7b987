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

package database

import (
	"encoding/json"
	"time"
)

// NodeInfo is a leaf value of the store.
type NodeInfo struct {
	Path      string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewNodeInfo creates a new NodeInfo of the given JSON value.
func NewNodeInfo(path string, value json.RawMessage, updatedAt time.Time) *NodeInfo {
	return &NodeInfo{
		Path:      path,
		Value:     append([]byte(nil), value...),
		UpdatedAt: updatedAt,
	}
}

// DeepCopy returns a deep copy of the NodeInfo.
func (i *NodeInfo) DeepCopy() *NodeInfo {
	if i == nil {
		return nil
	}

	return &NodeInfo{
		Path:      i.Path,
		Value:     append([]byte(nil), i.Value...),
		UpdatedAt: i.UpdatedAt,
	}
}

// JSON returns the value as a raw JSON message.
func (i *NodeInfo) JSON() json.RawMessage {
	return json.RawMessage(i.Value)
}
