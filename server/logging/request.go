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

package logging

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	pkgerrors "github.com/botscode-team/botscode/pkg/errors"
)

// RequestLogLevel represents the severity used to log a failed request.
type RequestLogLevel int

const (
	RequestLogDebug RequestLogLevel = iota
	RequestLogInfo
	RequestLogWarn
	RequestLogError
)

// String returns the string representation of RequestLogLevel.
func (l RequestLogLevel) String() string {
	switch l {
	case RequestLogDebug:
		return "debug"
	case RequestLogInfo:
		return "info"
	case RequestLogError:
		return "error"
	}
	return "warn"
}

// toRequestLogLevel classifies an error of an HTTP request or a store
// operation by its status.
func toRequestLogLevel(err error) RequestLogLevel {
	if err == nil || errors.Is(err, context.Canceled) {
		return RequestLogDebug
	}

	switch pkgerrors.StatusOf(err) {
	case pkgerrors.ErrCodeInvalidArgument, pkgerrors.ErrCodeNotFound, pkgerrors.ErrCodeAlreadyExists:
		return RequestLogInfo
	case pkgerrors.ErrCodeUnauthenticated, pkgerrors.ErrCodeFailedPrecondition:
		return RequestLogWarn
	case pkgerrors.ErrCodeInternal, pkgerrors.ErrCodeUnavailable, pkgerrors.ErrCodeDeadlineExceeded:
		return RequestLogError
	default:
		return RequestLogWarn
	}
}

// LogRequestError logs a failed request with the level matching its status.
func LogRequestError(logger *zap.SugaredLogger, method string, duration time.Duration, err error) {
	const template = "REQ : %q %s => %q"
	switch toRequestLogLevel(err) {
	case RequestLogDebug:
		logger.Debugf(template, method, duration, err)
	case RequestLogInfo:
		logger.Infof(template, method, duration, err)
	case RequestLogError:
		logger.Errorf(template, method, duration, err)
	default:
		logger.Warnf(template, method, duration, err)
	}
}

// LogRequestSuccess logs a successful request at debug level.
func LogRequestSuccess(logger *zap.SugaredLogger, method string, duration time.Duration) {
	logger.Debugf("REQ : %q %s", method, duration)
}
