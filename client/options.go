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

package client

import (
	"time"

	"go.uber.org/zap"
)

// DefaultRequestTimeout is the time a request waits for its result when the
// caller's context has no deadline.
const DefaultRequestTimeout = 10 * time.Second

// Option configures Options.
type Option func(*Options)

// Options configures how we set up the client.
type Options struct {
	// Token is the token of the user. The connection is authenticated with
	// this token.
	Token string

	// RequestTimeout is the time a request waits for its result.
	RequestTimeout time.Duration

	// Logger is the Logger of the client.
	Logger *zap.Logger
}

// WithToken configures the token of the client.
func WithToken(token string) Option {
	return func(o *Options) { o.Token = token }
}

// WithRequestTimeout configures the timeout of the requests of the client.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *Options) { o.RequestTimeout = timeout }
}

// WithLogger configures the Logger of the client.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}
