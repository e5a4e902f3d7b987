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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/botscode-team/botscode/pkg/errors"
)

func TestRequestLogLevel(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want RequestLogLevel
	}{
		{"nil", nil, RequestLogDebug},
		{"canceled", fmt.Errorf("read: %w", context.Canceled), RequestLogDebug},
		{"invalid argument", errors.InvalidArgument("code is required"), RequestLogInfo},
		{"already exists", errors.AlreadyExists("name already exists"), RequestLogInfo},
		{"unauthenticated", errors.Unauthenticated("token expired"), RequestLogWarn},
		{"unavailable", errors.Unavailable("judge0 down"), RequestLogError},
		{"deadline", errors.DeadlineExceeded("polling timed out"), RequestLogError},
		{"plain", errors.New("boom"), RequestLogWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toRequestLogLevel(tt.err))
		})
	}

	assert.Equal(t, "info", RequestLogInfo.String())
	assert.Equal(t, "warn", RequestLogWarn.String())
}

func TestSetLogLevel(t *testing.T) {
	assert.NoError(t, SetLogLevel("debug"))
	assert.True(t, Enabled(-1))
	assert.NoError(t, SetLogLevel("info"))
	assert.False(t, Enabled(-1))
	assert.Error(t, SetLogLevel("verbose"))
}
