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

// Package session runs the lifecycle of a user's session in the workspace:
// presence, membership and the join/exit event log.
package session

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/attachable"
	"github.com/botscode-team/botscode/pkg/errors"
	"github.com/botscode-team/botscode/pkg/membership"
	"github.com/botscode-team/botscode/pkg/presence"
	"github.com/botscode-team/botscode/pkg/store"
)

var (
	// ErrSessionStarted is returned when a session is started twice.
	ErrSessionStarted = errors.FailedPrecond("session already started").WithCode("ErrSessionStarted")

	// ErrSessionEnded is returned when an ended session is started.
	ErrSessionEnded = errors.FailedPrecond("session already ended").WithCode("ErrSessionEnded")
)

// Session is the session of one user.
type Session struct {
	userID string

	Presence *presence.Tracker
	Members  *membership.Membership
	Events   *membership.EventLog

	mu      sync.Mutex
	started bool
	ended   bool
}

// New creates a new Session of the given user on the given store.
func New(s store.Store, userID string) *Session {
	return &Session{
		userID:   userID,
		Presence: presence.New(s, userID),
		Members:  membership.New(s, userID),
		Events:   membership.NewEventLog(s, userID),
	}
}

// UserID returns the id of the user of this session.
func (s *Session) UserID() string {
	return s.userID
}

// Attachables returns the resources watched by this session.
func (s *Session) Attachables() []attachable.Attachable {
	return []attachable.Attachable{s.Presence, s.Members, s.Events}
}

// Start announces the user, appends the join event, marks the membership,
// prepares the exit event written on disconnect and then watches presence,
// members and events. The writes are issued concurrently.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return ErrSessionEnded
	}
	if s.started {
		return ErrSessionStarted
	}
	s.started = true

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return s.Presence.Announce(groupCtx)
	})
	group.Go(func() error {
		_, err := s.Events.Append(groupCtx, types.JoinEvent)
		return err
	})
	group.Go(func() error {
		return s.Members.Join(groupCtx)
	})
	group.Go(func() error {
		_, err := s.Events.PrepareExit(groupCtx)
		return err
	})
	if err := group.Wait(); err != nil {
		return fmt.Errorf("start session of %s: %w", s.userID, err)
	}

	if err := s.Presence.Watch(ctx); err != nil {
		return fmt.Errorf("start session of %s: %w", s.userID, err)
	}
	if err := s.Members.Watch(ctx); err != nil {
		s.Presence.Stop()
		return fmt.Errorf("start session of %s: %w", s.userID, err)
	}
	if err := s.Events.Watch(ctx); err != nil {
		s.Presence.Stop()
		s.Members.Stop()
		return fmt.Errorf("start session of %s: %w", s.userID, err)
	}

	return nil
}

// End stops watching, appends the exit event and removes the presence and
// the membership of the user, in this order. Ending twice, or ending a
// session that never started, does nothing.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended || !s.started {
		s.ended = true
		return nil
	}
	s.ended = true

	s.Presence.Stop()
	s.Members.Stop()
	s.Events.Stop()

	if _, err := s.Events.Append(ctx, types.ExitEvent); err != nil {
		return fmt.Errorf("end session of %s: %w", s.userID, err)
	}
	if err := s.Presence.Leave(ctx); err != nil {
		return fmt.Errorf("end session of %s: %w", s.userID, err)
	}
	if err := s.Members.Leave(ctx); err != nil {
		return fmt.Errorf("end session of %s: %w", s.userID, err)
	}

	return nil
}

// Ended returns whether the session has ended.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}
