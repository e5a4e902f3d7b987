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

// Package errors provides status-carrying errors shared by the store, the
// collaboration packages and the HTTP surface.
package errors

import (
	"fmt"
	"net/http"
)

// StatusCode classifies an error. The numeric values follow the gRPC codes
// so they can be carried over the health and store transports unchanged.
type StatusCode int

const (
	// ErrCodeInvalidArgument indicates that the caller specified an invalid argument.
	ErrCodeInvalidArgument StatusCode = 3

	// ErrCodeDeadlineExceeded indicates that an operation did not finish in time,
	// e.g. the execution status poll ran out of attempts.
	ErrCodeDeadlineExceeded StatusCode = 4

	// ErrCodeNotFound indicates that a requested entity (a node, a connection) was not found.
	ErrCodeNotFound StatusCode = 5

	// ErrCodeAlreadyExists indicates that the entity the caller attempted to create already exists.
	ErrCodeAlreadyExists StatusCode = 6

	// ErrCodeFailedPrecondition indicates that the system is not in a state
	// required for the operation, e.g. a closed connection.
	ErrCodeFailedPrecondition StatusCode = 9

	// ErrCodeInternal indicates that an invariant of the system has been broken.
	ErrCodeInternal StatusCode = 13

	// ErrCodeUnavailable indicates that a collaborator is unavailable or failed.
	ErrCodeUnavailable StatusCode = 14

	// ErrCodeUnauthenticated indicates missing or invalid credentials.
	ErrCodeUnauthenticated StatusCode = 16
)

// String returns the string representation of the status code.
func (c StatusCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeDeadlineExceeded:
		return "deadline_exceeded"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeAlreadyExists:
		return "already_exists"
	case ErrCodeFailedPrecondition:
		return "failed_precondition"
	case ErrCodeInternal:
		return "internal"
	case ErrCodeUnavailable:
		return "unavailable"
	case ErrCodeUnauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

// IsClientError returns true if the status code represents a caller mistake.
func (c StatusCode) IsClientError() bool {
	switch c {
	case ErrCodeInvalidArgument, ErrCodeNotFound, ErrCodeAlreadyExists,
		ErrCodeFailedPrecondition, ErrCodeUnauthenticated:
		return true
	default:
		return false
	}
}

// IsServerError returns true if the status code represents a failure of the
// server or one of its collaborators.
func (c StatusCode) IsServerError() bool {
	switch c {
	case ErrCodeInternal, ErrCodeUnavailable, ErrCodeDeadlineExceeded:
		return true
	default:
		return false
	}
}

// HTTPStatus returns the HTTP status code used to report this status to the
// browser client.
func (c StatusCode) HTTPStatus() int {
	switch c {
	case ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists, ErrCodeFailedPrecondition:
		return http.StatusConflict
	case ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrCodeUnavailable:
		return http.StatusBadGateway
	case ErrCodeDeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
