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

package membership

import (
	"context"
	"fmt"
	"sync"
	gotime "time"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/attachable"
	"github.com/botscode-team/botscode/pkg/store"
)

// EventLog appends the join and exit events of a user and keeps the events
// of every user, most recent first.
type EventLog struct {
	store  store.Store
	userID string
	now    func() gotime.Time

	lifecycle attachable.Lifecycle

	mu          sync.RWMutex
	events      []types.JoinExitEvent
	unsubscribe store.Unsubscribe
	onChange    func(events []types.JoinExitEvent)
}

// NewEventLog creates a new EventLog of the given user.
func NewEventLog(s store.Store, userID string) *EventLog {
	return &EventLog{
		store:  s,
		userID: userID,
		now:    gotime.Now,
		events: []types.JoinExitEvent{},
	}
}

// Path returns the path of the events.
func (l *EventLog) Path() string {
	return types.EventsRoot
}

// Type returns the type of this resource.
func (l *EventLog) Type() attachable.ResourceType {
	return attachable.TypeEvents
}

// Status returns the status of this log.
func (l *EventLog) Status() attachable.StatusType {
	return l.lifecycle.Status()
}

// OnChange sets the handler called with the events on every change.
func (l *EventLog) OnChange(fn func(events []types.JoinExitEvent)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = fn
}

// Append writes a new event of the given type stamped with the local clock
// and registers its removal when the connection to the store is lost. It
// returns the path of the event.
func (l *EventLog) Append(ctx context.Context, eventType types.EventType) (string, error) {
	path, err := l.store.Push(ctx, types.EventsRoot)
	if err != nil {
		return "", fmt.Errorf("append %s event: %w", eventType, err)
	}

	event := types.JoinExitEvent{
		UserID:    l.userID,
		Type:      eventType,
		Timestamp: l.now().UnixMilli(),
	}
	if err := l.store.Write(ctx, path, event); err != nil {
		return "", fmt.Errorf("append %s event: %w", eventType, err)
	}
	if err := l.store.OnDisconnect(path).Remove(ctx); err != nil {
		return "", fmt.Errorf("append %s event: %w", eventType, err)
	}

	return path, nil
}

// PrepareExit allocates the path of an exit event that the store writes,
// stamped with its own clock, when the connection is lost. It returns the
// allocated path.
func (l *EventLog) PrepareExit(ctx context.Context) (string, error) {
	path, err := l.store.Push(ctx, types.EventsRoot)
	if err != nil {
		return "", fmt.Errorf("prepare exit event: %w", err)
	}

	if err := l.store.OnDisconnect(path).Set(ctx, map[string]any{
		"userId":    l.userID,
		"type":      types.ExitEvent,
		"timestamp": store.ServerTimestamp,
	}); err != nil {
		return "", fmt.Errorf("prepare exit event: %w", err)
	}

	return path, nil
}

// Watch subscribes to the events.
func (l *EventLog) Watch(ctx context.Context) error {
	if !l.lifecycle.Attach() {
		return nil
	}

	unsubscribe, err := l.store.Subscribe(ctx, types.EventsRoot, l.apply)
	if err != nil {
		l.lifecycle.Remove()
		return fmt.Errorf("watch events: %w", err)
	}

	l.mu.Lock()
	l.unsubscribe = unsubscribe
	l.mu.Unlock()
	return nil
}

// Stop stops watching the events.
func (l *EventLog) Stop() {
	if !l.lifecycle.Remove() {
		return
	}

	l.mu.Lock()
	unsubscribe := l.unsubscribe
	l.unsubscribe = nil
	l.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Events returns the events sorted by timestamp, most recent first.
func (l *EventLog) Events() []types.JoinExitEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]types.JoinExitEvent{}, l.events...)
}

func (l *EventLog) apply(snapshot store.Snapshot) {
	if !l.lifecycle.IsAttached() {
		return
	}

	events := []types.JoinExitEvent{}
	for _, value := range snapshot.Values() {
		var event types.JoinExitEvent
		if err := value.Decode(&event); err != nil || event.Type == "" {
			continue
		}
		events = append(events, event)
	}
	types.SortEventsByRecent(events)

	l.mu.Lock()
	l.events = events
	onChange := l.onChange
	l.mu.Unlock()

	if onChange != nil {
		onChange(append([]types.JoinExitEvent{}, events...))
	}
}
