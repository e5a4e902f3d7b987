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
)

type ctxLoggerKey struct{}

// With returns a copy of ctx that carries the given logger.
func With(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// WithFields returns a copy of ctx whose logger also logs the given key-value
// pairs, e.g. the user and the connection of a store session.
func WithFields(ctx context.Context, keysAndValues ...interface{}) context.Context {
	if len(keysAndValues) == 0 {
		return ctx
	}
	return With(ctx, From(ctx).With(keysAndValues...))
}

// From returns the logger of ctx. The default logger is returned when ctx
// carries none.
func From(ctx context.Context) Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxLoggerKey{}).(Logger); ok {
			return logger
		}
	}
	return DefaultLogger()
}
