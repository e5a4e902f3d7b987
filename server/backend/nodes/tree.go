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
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/botscode-team/botscode/pkg/store"
	"github.com/botscode-team/botscode/server/backend/database"
)

var null = json.RawMessage("null")

// flatten splits the given JSON value into the leaf nodes stored below path.
// Objects are split by key; null and empty objects yield no leaves.
func flatten(path string, raw json.RawMessage, now time.Time) ([]*database.NodeInfo, error) {
	var leaves []*database.NodeInfo
	if err := flattenInto(&leaves, path, raw, now); err != nil {
		return nil, err
	}
	return leaves, nil
}

func flattenInto(leaves *[]*database.NodeInfo, path string, raw json.RawMessage, now time.Time) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, null) {
		return nil
	}

	if trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			return fmt.Errorf("value of %s: %w", path, ErrInvalidValue)
		}
		*leaves = append(*leaves, database.NewNodeInfo(path, trimmed, now))
		return nil
	}

	var children map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &children); err != nil {
		return fmt.Errorf("value of %s: %w", path, ErrInvalidValue)
	}

	for key, child := range children {
		if err := store.ValidateKey(key); err != nil {
			return err
		}
		if err := flattenInto(leaves, store.Join(path, key), child, now); err != nil {
			return err
		}
	}

	return nil
}

// assemble builds the JSON value of path from the leaves stored below it.
func assemble(path string, leaves []*database.NodeInfo) (json.RawMessage, error) {
	if len(leaves) == 0 {
		return null, nil
	}

	root := map[string]any{}
	for _, leaf := range leaves {
		rel := strings.TrimPrefix(leaf.Path, path+store.Separator)
		segments := store.Split(rel)

		node := root
		for _, segment := range segments[:len(segments)-1] {
			child, ok := node[segment].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[segment] = child
			}
			node = child
		}
		node[segments[len(segments)-1]] = leaf.JSON()
	}

	raw, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", path, err)
	}
	return raw, nil
}
