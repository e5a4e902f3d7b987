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
)

// ServerTimestamp is a placeholder replaced by the store with its current
// epoch milliseconds when the value is written.
var ServerTimestamp = map[string]string{".sv": "timestamp"}

// ResolveServerValues replaces every ServerTimestamp placeholder in the given
// JSON value with now.
func ResolveServerValues(raw json.RawMessage, now int64) (json.RawMessage, error) {
	if !bytes.Contains(raw, []byte(`".sv"`)) {
		return raw, nil
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}

	resolved, err := json.Marshal(resolve(value, now))
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return resolved, nil
}

func resolve(value any, now int64) any {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 1 && v[".sv"] == "timestamp" {
			return now
		}
		for key, child := range v {
			v[key] = resolve(child, now)
		}
		return v
	case []any:
		for i, child := range v {
			v[i] = resolve(child, now)
		}
		return v
	default:
		return v
	}
}
