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
	"sort"
)

// FileNodeType is the type of a node of a file tree.
type FileNodeType string

const (
	// FileNodeFile is a file.
	FileNodeFile FileNodeType = "file"

	// FileNodeFolder is a folder. Only folders have children.
	FileNodeFolder FileNodeType = "folder"
)

// IsValid returns whether the type is a file or a folder.
func (t FileNodeType) IsValid() bool {
	return t == FileNodeFile || t == FileNodeFolder
}

// FileNode is a node of the file tree of a workspace. The names of the
// children of a folder are unique.
type FileNode struct {
	Type     FileNodeType         `json:"type"`
	Children map[string]*FileNode `json:"children,omitempty"`
}

// NewFolder returns an empty folder.
func NewFolder() *FileNode {
	return &FileNode{Type: FileNodeFolder, Children: map[string]*FileNode{}}
}

// IsFolder returns whether the node is a folder.
func (n *FileNode) IsFolder() bool {
	return n.Type == FileNodeFolder
}

// Names returns the sorted names of the children.
func (n *FileNode) Names() []string {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeepCopy returns a deep copy of the node.
func (n *FileNode) DeepCopy() *FileNode {
	if n == nil {
		return nil
	}

	clone := &FileNode{Type: n.Type}
	if n.Children != nil || n.IsFolder() {
		clone.Children = make(map[string]*FileNode, len(n.Children))
		for name, child := range n.Children {
			clone.Children[name] = child.DeepCopy()
		}
	}
	return clone
}
