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

package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/botscode-team/botscode/api/types"
)

func TestID(t *testing.T) {
	first := types.NewID()
	second := types.NewID()
	assert.NoError(t, first.Validate())
	assert.NotEqual(t, first, second)
	assert.Less(t, first.String(), second.String())

	assert.ErrorIs(t, types.ID("not-an-id").Validate(), types.ErrInvalidID)
}

func TestParseLanguage(t *testing.T) {
	lang, ok := types.ParseLanguage("Python3")
	assert.True(t, ok)
	assert.Equal(t, types.Python, lang)

	lang, ok = types.ParseLanguage("cpp")
	assert.True(t, ok)
	assert.Equal(t, types.CPP, lang)

	_, ok = types.ParseLanguage("brainfuck")
	assert.False(t, ok)
}

func TestSortEventsByRecent(t *testing.T) {
	events := []types.JoinExitEvent{
		{UserID: "a", Type: types.JoinEvent, Timestamp: 10},
		{UserID: "b", Type: types.JoinEvent, Timestamp: 30},
		{UserID: "a", Type: types.ExitEvent, Timestamp: 20},
	}
	types.SortEventsByRecent(events)
	assert.Equal(t, []int64{30, 20, 10}, []int64{events[0].Timestamp, events[1].Timestamp, events[2].Timestamp})
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "presence/u1", types.PresencePath("u1"))
	assert.Equal(t, "members/u1", types.MemberPath("u1"))
	assert.Equal(t, "documents/u1/text", types.DocumentTextPath("u1"))
	assert.Equal(t, "documents/u1/language", types.DocumentLanguagePath("u1"))
	assert.Equal(t, "workspaces/w1/files", types.FileTreePath("w1"))
	assert.True(t, types.AssistFix.IsValid())
	assert.False(t, types.AssistMode("translate").IsValid())
}
