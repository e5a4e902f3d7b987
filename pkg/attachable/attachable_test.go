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

package attachable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/botscode-team/botscode/pkg/attachable"
)

func TestLifecycle(t *testing.T) {
	t.Run("attach and remove test", func(t *testing.T) {
		var l attachable.Lifecycle
		assert.Equal(t, attachable.StatusDetached, l.Status())
		assert.False(t, l.IsAttached())

		assert.True(t, l.Attach())
		assert.True(t, l.IsAttached())
		assert.False(t, l.Attach())

		assert.True(t, l.Remove())
		assert.Equal(t, attachable.StatusRemoved, l.Status())
		assert.False(t, l.Remove())
	})

	t.Run("removed resource never attaches test", func(t *testing.T) {
		var l attachable.Lifecycle
		assert.True(t, l.Remove())
		assert.False(t, l.Attach())
		assert.Equal(t, "removed", l.Status().String())
	})
}
