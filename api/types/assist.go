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

// AssistMode is the kind of text transform requested from the AI collaborator.
type AssistMode string

const (
	// AssistSuggest asks for improvements of the given code.
	AssistSuggest AssistMode = "suggest"

	// AssistDocument asks for documentation of the given code.
	AssistDocument AssistMode = "document"

	// AssistFix asks for syntax fixes of the given code.
	AssistFix AssistMode = "fix"
)

// IsValid returns whether the mode is one of the known modes.
func (m AssistMode) IsValid() bool {
	switch m {
	case AssistSuggest, AssistDocument, AssistFix:
		return true
	}
	return false
}
