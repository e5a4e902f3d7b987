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
	"path"
)

// Below are the root paths of the store used by the collaboration protocol.
const (
	PresenceRoot   = "presence"
	MembersRoot    = "members"
	EventsRoot     = "events"
	DocumentsRoot  = "documents"
	WorkspacesRoot = "workspaces"
)

// PresencePath returns the path of the presence entry of the given user.
func PresencePath(userID string) string {
	return path.Join(PresenceRoot, userID)
}

// MemberPath returns the path of the membership entry of the given user.
func MemberPath(userID string) string {
	return path.Join(MembersRoot, userID)
}

// DocumentTextPath returns the path of the text of the user's document.
func DocumentTextPath(userID string) string {
	return path.Join(DocumentsRoot, userID, "text")
}

// DocumentLanguagePath returns the path of the language of the user's document.
func DocumentLanguagePath(userID string) string {
	return path.Join(DocumentsRoot, userID, "language")
}

// FileTreePath returns the path of the file tree of the given workspace.
func FileTreePath(workspaceID string) string {
	return path.Join(WorkspacesRoot, workspaceID, "files")
}
