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

package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

var null = json.RawMessage("null")

// Snapshot is the JSON value at a path at some point in time.
type Snapshot struct {
	Path string
	Raw  json.RawMessage
}

// NewSnapshot creates a snapshot of the given value at the given path.
func NewSnapshot(path string, value any) (Snapshot, error) {
	if value == nil {
		return Snapshot{Path: path, Raw: null}, nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal value of %s: %w", path, err)
	}

	return Snapshot{Path: path, Raw: raw}, nil
}

// Exists returns whether the snapshot holds a non-null value.
func (s Snapshot) Exists() bool {
	trimmed := bytes.TrimSpace(s.Raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, null)
}

// Decode decodes the value into v. Decoding a null value leaves v untouched.
func (s Snapshot) Decode(v any) error {
	if !s.Exists() {
		return nil
	}
	if err := json.Unmarshal(s.Raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", s.Path, err)
	}
	return nil
}

// Children returns the child values of an object value. Any other value,
// including null, has no children.
func (s Snapshot) Children() map[string]json.RawMessage {
	children := map[string]json.RawMessage{}
	if !s.Exists() {
		return children
	}
	if err := json.Unmarshal(s.Raw, &children); err != nil {
		return map[string]json.RawMessage{}
	}
	return children
}

// Keys returns the sorted key set of an object value. It never fails; a null
// or non-object value yields an empty set.
func (s Snapshot) Keys() []string {
	children := s.Children()
	keys := make([]string, 0, len(children))
	for key := range children {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Values returns the child snapshots of an object value ordered by key.
func (s Snapshot) Values() []Snapshot {
	children := s.Children()
	var values []Snapshot
	for _, key := range s.Keys() {
		values = append(values, Snapshot{Path: Join(s.Path, key), Raw: children[key]})
	}
	return values
}

// Child returns the snapshot of the direct child with the given key.
func (s Snapshot) Child(key string) Snapshot {
	raw, ok := s.Children()[key]
	if !ok {
		raw = null
	}
	return Snapshot{Path: Join(s.Path, key), Raw: raw}
}

// String returns the JSON text of the value.
func (s Snapshot) String() string {
	if len(s.Raw) == 0 {
		return string(null)
	}
	return string(s.Raw)
}
