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

// Package attachable provides the lifecycle shared by the resources that
// attach to a path of the store: presence, members, events, documents and
// file trees.
package attachable

import (
	"sync/atomic"
)

// ResourceType represents the type of attachable resource.
type ResourceType string

const (
	// TypePresence represents the online users of the workspace.
	TypePresence ResourceType = "presence"

	// TypeMembers represents the members of the workspace.
	TypeMembers ResourceType = "members"

	// TypeEvents represents the join/exit event log.
	TypeEvents ResourceType = "events"

	// TypeDocument represents a synchronized document.
	TypeDocument ResourceType = "document"

	// TypeFileTree represents the file tree of a workspace.
	TypeFileTree ResourceType = "filetree"
)

// StatusType represents the status of the attachable resource.
type StatusType int32

const (
	// StatusDetached means that the resource is not subscribed yet.
	StatusDetached StatusType = iota

	// StatusAttached means that the resource receives the changes of its path.
	StatusAttached

	// StatusRemoved means that the resource was stopped. It never attaches
	// again and ignores the notifications still in flight.
	StatusRemoved
)

// String returns the string representation of the status.
func (s StatusType) String() string {
	switch s {
	case StatusDetached:
		return "detached"
	case StatusAttached:
		return "attached"
	case StatusRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Attachable represents a resource that is attached to a path of the store.
type Attachable interface {
	// Path returns the path this resource is attached to.
	Path() string

	// Type returns the type of this resource.
	Type() ResourceType

	// Status returns the status of this resource.
	Status() StatusType
}

// Lifecycle holds the status of an attachable resource. The zero value is
// detached.
type Lifecycle struct {
	status atomic.Int32
}

// Status returns the current status.
func (l *Lifecycle) Status() StatusType {
	return StatusType(l.status.Load())
}

// IsAttached returns whether the resource is attached.
func (l *Lifecycle) IsAttached() bool {
	return l.Status() == StatusAttached
}

// Attach moves a detached resource to attached. It returns false if the
// resource was already attached or removed.
func (l *Lifecycle) Attach() bool {
	return l.status.CompareAndSwap(int32(StatusDetached), int32(StatusAttached))
}

// Remove moves the resource to removed. It returns false if the resource was
// already removed.
func (l *Lifecycle) Remove() bool {
	for {
		current := l.status.Load()
		if current == int32(StatusRemoved) {
			return false
		}
		if l.status.CompareAndSwap(current, int32(StatusRemoved)) {
			return true
		}
	}
}
