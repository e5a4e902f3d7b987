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
	"encoding/json"
)

// StoreOp is the operation requested by a frame of the store protocol.
type StoreOp string

// Below are the operations of the store protocol.
const (
	OpWrite            StoreOp = "write"
	OpRead             StoreOp = "read"
	OpRemove           StoreOp = "remove"
	OpPush             StoreOp = "push"
	OpSubscribe        StoreOp = "subscribe"
	OpUnsubscribe      StoreOp = "unsubscribe"
	OpDisconnectRemove StoreOp = "disconnect.remove"
	OpDisconnectSet    StoreOp = "disconnect.set"
)

// IsValid reports whether the operation is known.
func (o StoreOp) IsValid() bool {
	switch o {
	case OpWrite, OpRead, OpRemove, OpPush, OpSubscribe, OpUnsubscribe,
		OpDisconnectRemove, OpDisconnectSet:
		return true
	}
	return false
}

// FrameType is the type of a frame sent by the server.
type FrameType string

// Below are the types of frames sent by the server.
const (
	FrameResult FrameType = "result"
	FrameValue  FrameType = "value"
)

// StoreRequest is a frame sent by a client of the store protocol.
type StoreRequest struct {
	ID    uint64          `json:"id"`
	Op    StoreOp         `json:"op"`
	Path  string          `json:"path,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
	Sub   string          `json:"sub,omitempty"`
}

// StoreResponse is a frame sent by the server. A result answers the request
// with the same id; a value notifies the subscription sub.
type StoreResponse struct {
	ID    uint64          `json:"id,omitempty"`
	Type  FrameType       `json:"type"`
	Path  string          `json:"path,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
	Sub   string          `json:"sub,omitempty"`
	Error *FrameError     `json:"error,omitempty"`
}

// FrameError describes a failed request.
type FrameError struct {
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
