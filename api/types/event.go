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

package types

import (
	"sort"
)

// EventType is the type of a JoinExitEvent.
type EventType string

const (
	// JoinEvent is appended when a session starts.
	JoinEvent EventType = "join"

	// ExitEvent is appended when a session ends, cleanly or by disconnect.
	ExitEvent EventType = "exit"
)

// JoinExitEvent is an immutable record of the event log. Timestamp is the
// epoch milliseconds of the writer's clock, or of the server's clock for
// records written by a disconnect hook.
type JoinExitEvent struct {
	UserID    string    `json:"userId"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
}

// SortEventsByRecent sorts the given events by timestamp, most recent first.
// Events with the same timestamp keep no particular order.
func SortEventsByRecent(events []JoinExitEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp > events[j].Timestamp
	})
}
