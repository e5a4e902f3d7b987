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

// Package types provides the types shared by the server, the store client and
// the collaboration packages.
package types

import (
	"fmt"

	"github.com/rs/xid"

	"github.com/botscode-team/botscode/pkg/errors"
)

var (
	// ErrInvalidID is returned when the given ID is not a valid xid.
	ErrInvalidID = errors.InvalidArgument("invalid ID").WithCode("ErrInvalidID")
)

// ID represents the ID of a connection, a subscription or a pushed node. IDs
// are xids: globally unique and sortable by creation time.
type ID string

// NewID returns a new ID.
func NewID() ID {
	return ID(xid.New().String())
}

// String returns a string representation of this ID.
func (id ID) String() string {
	return string(id)
}

// Validate returns error if this ID is invalid.
func (id ID) Validate() error {
	if _, err := xid.FromString(string(id)); err != nil {
		return fmt.Errorf("%s: %w", id, ErrInvalidID)
	}

	return nil
}
