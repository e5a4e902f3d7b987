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

// Package filetree provides the file tree of a workspace. Every change reads
// the whole tree cached from the store, edits a copy and writes the whole
// tree back, so concurrent writers of a tree overwrite each other.
package filetree

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/internal/validation"
	"github.com/botscode-team/botscode/pkg/attachable"
	"github.com/botscode-team/botscode/pkg/errors"
	"github.com/botscode-team/botscode/pkg/store"
)

var (
	// ErrNameAlreadyExists is returned when a sibling already has the name.
	ErrNameAlreadyExists = errors.AlreadyExists("name already exists").WithCode("ErrNameAlreadyExists")

	// ErrNodeNotFound is returned when a path does not lead to a node.
	ErrNodeNotFound = errors.NotFound("node not found").WithCode("ErrNodeNotFound")

	// ErrNotFolder is returned when a node is added under a file.
	ErrNotFolder = errors.InvalidArgument("not a folder").WithCode("ErrNotFolder")

	// ErrInvalidPath is returned when the root is renamed or deleted.
	ErrInvalidPath = errors.InvalidArgument("invalid path").WithCode("ErrInvalidPath")

	// ErrInvalidName is returned for a name that cannot name a node.
	ErrInvalidName = errors.InvalidArgument("invalid name").WithCode("ErrInvalidName")

	// ErrInvalidNodeType is returned for a type other than file or folder.
	ErrInvalidNodeType = errors.InvalidArgument("invalid node type").WithCode("ErrInvalidNodeType")

	// ErrInvalidWorkspaceID is returned for a workspace id that cannot be a
	// key of the store.
	ErrInvalidWorkspaceID = errors.InvalidArgument("invalid workspace id").WithCode("ErrInvalidWorkspaceID")
)

// Tree is the file tree of a workspace.
type Tree struct {
	store       store.Store
	workspaceID string

	lifecycle attachable.Lifecycle

	// updateMu serializes the changes of this client.
	updateMu sync.Mutex

	mu          sync.RWMutex
	root        *types.FileNode
	unsubscribe store.Unsubscribe
	onChange    func(root *types.FileNode)
}

// Open opens the file tree of the given workspace and subscribes to it.
func Open(ctx context.Context, s store.Store, workspaceID string) (*Tree, error) {
	if err := validation.ValidateValue(workspaceID, "store_key"); err != nil {
		return nil, fmt.Errorf("%q: %w", workspaceID, ErrInvalidWorkspaceID)
	}

	tree := &Tree{
		store:       s,
		workspaceID: workspaceID,
	}
	tree.lifecycle.Attach()

	unsubscribe, err := s.Subscribe(ctx, tree.Path(), tree.apply)
	if err != nil {
		tree.lifecycle.Remove()
		return nil, fmt.Errorf("open file tree of %s: %w", workspaceID, err)
	}

	tree.mu.Lock()
	tree.unsubscribe = unsubscribe
	tree.mu.Unlock()
	return tree, nil
}

// Path returns the path of the tree.
func (t *Tree) Path() string {
	return types.FileTreePath(t.workspaceID)
}

// Type returns the type of this resource.
func (t *Tree) Type() attachable.ResourceType {
	return attachable.TypeFileTree
}

// Status returns the status of this tree.
func (t *Tree) Status() attachable.StatusType {
	return t.lifecycle.Status()
}

// OnChange sets the handler called with a copy of the tree on every change.
func (t *Tree) OnChange(fn func(root *types.FileNode)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// Loaded returns whether the tree was received from the store.
func (t *Tree) Loaded() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root != nil
}

// Root returns a copy of the tree, or nil if it is not loaded yet.
func (t *Tree) Root() *types.FileNode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root.DeepCopy()
}

// Close stops watching the tree.
func (t *Tree) Close() {
	if !t.lifecycle.Remove() {
		return
	}

	t.mu.Lock()
	unsubscribe := t.unsubscribe
	t.unsubscribe = nil
	t.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Rename renames the node at the given path.
func (t *Tree) Rename(ctx context.Context, path []string, newName string) error {
	if len(path) == 0 {
		return fmt.Errorf("rename root: %w", ErrInvalidPath)
	}
	if err := validateName(newName); err != nil {
		return err
	}

	return t.update(ctx, func(root *types.FileNode) error {
		parent, err := walk(root, path[:len(path)-1])
		if err != nil {
			return err
		}
		name := path[len(path)-1]
		node, ok := parent.Children[name]
		if !ok {
			return fmt.Errorf("rename %s: %w", strings.Join(path, "/"), ErrNodeNotFound)
		}
		if name == newName {
			return nil
		}
		if _, ok := parent.Children[newName]; ok {
			return fmt.Errorf("rename %s to %s: %w", strings.Join(path, "/"), newName, ErrNameAlreadyExists)
		}

		delete(parent.Children, name)
		parent.Children[newName] = node
		return nil
	})
}

// Delete deletes the node at the given path with everything below it.
func (t *Tree) Delete(ctx context.Context, path []string) error {
	if len(path) == 0 {
		return fmt.Errorf("delete root: %w", ErrInvalidPath)
	}

	return t.update(ctx, func(root *types.FileNode) error {
		parent, err := walk(root, path[:len(path)-1])
		if err != nil {
			return err
		}
		name := path[len(path)-1]
		if _, ok := parent.Children[name]; !ok {
			return fmt.Errorf("delete %s: %w", strings.Join(path, "/"), ErrNodeNotFound)
		}

		delete(parent.Children, name)
		return nil
	})
}

// Add adds a node of the given name and type to the folder at the given path.
func (t *Tree) Add(ctx context.Context, parentPath []string, name string, nodeType types.FileNodeType) error {
	if err := validateName(name); err != nil {
		return err
	}
	if !nodeType.IsValid() {
		return fmt.Errorf("%q: %w", nodeType, ErrInvalidNodeType)
	}

	return t.update(ctx, func(root *types.FileNode) error {
		parent, err := walk(root, parentPath)
		if err != nil {
			return err
		}
		if _, ok := parent.Children[name]; ok {
			return fmt.Errorf("add %s: %w", name, ErrNameAlreadyExists)
		}

		node := &types.FileNode{Type: nodeType}
		if nodeType == types.FileNodeFolder {
			node = types.NewFolder()
		}
		parent.Children[name] = node
		return nil
	})
}

// update applies the given edit to the current tree and writes the whole
// tree. The tree is read again from the store so that the changes of this
// client are not lost to a notification still in flight. It does nothing when
// the tree is not loaded yet. A failed edit writes nothing.
func (t *Tree) update(ctx context.Context, edit func(root *types.FileNode) error) error {
	if !t.lifecycle.IsAttached() || !t.Loaded() {
		return nil
	}

	t.updateMu.Lock()
	defer t.updateMu.Unlock()

	snapshot, err := t.store.Read(ctx, t.Path())
	if err != nil {
		return fmt.Errorf("read file tree of %s: %w", t.workspaceID, err)
	}
	root := decodeSnapshot(snapshot)

	if err := edit(root); err != nil {
		return err
	}
	if err := t.store.Write(ctx, t.Path(), encode(root)); err != nil {
		return fmt.Errorf("write file tree of %s: %w", t.workspaceID, err)
	}

	t.set(root)
	return nil
}

func (t *Tree) apply(snapshot store.Snapshot) {
	if !t.lifecycle.IsAttached() {
		return
	}

	t.set(decodeSnapshot(snapshot))
}

func (t *Tree) set(root *types.FileNode) {
	t.mu.Lock()
	t.root = root
	onChange := t.onChange
	t.mu.Unlock()

	if onChange != nil {
		onChange(root.DeepCopy())
	}
}

// walk returns the folder at the given path below root.
func walk(root *types.FileNode, path []string) (*types.FileNode, error) {
	node := root
	for i, name := range path {
		child, ok := node.Children[name]
		if !ok {
			return nil, fmt.Errorf("%s: %w", strings.Join(path[:i+1], "/"), ErrNodeNotFound)
		}
		node = child
	}

	if !node.IsFolder() {
		return nil, fmt.Errorf("%s: %w", strings.Join(path, "/"), ErrNotFolder)
	}
	return node, nil
}

// decodeSnapshot returns the tree of the given snapshot. A null value or a
// value that is not a folder is an empty root folder.
func decodeSnapshot(snapshot store.Snapshot) *types.FileNode {
	root := types.NewFolder()
	if err := snapshot.Decode(root); err != nil || !root.IsFolder() {
		return types.NewFolder()
	}
	return decode(root)
}

// encode returns a copy of the tree whose names are escaped to store keys.
func encode(node *types.FileNode) *types.FileNode {
	encoded := &types.FileNode{Type: node.Type}
	if node.IsFolder() {
		encoded.Children = make(map[string]*types.FileNode, len(node.Children))
		for name, child := range node.Children {
			encoded.Children[store.EscapeKey(name)] = encode(child)
		}
	}
	return encoded
}

// decode returns a copy of the tree read from the store with its names
// unescaped. Every folder gets a children map as the store drops empty ones.
// Children that are not nodes are dropped.
func decode(node *types.FileNode) *types.FileNode {
	decoded := &types.FileNode{Type: node.Type}
	if !node.IsFolder() {
		return decoded
	}

	decoded.Children = make(map[string]*types.FileNode, len(node.Children))
	for key, child := range node.Children {
		if child == nil || !child.Type.IsValid() {
			continue
		}
		decoded.Children[store.UnescapeKey(key)] = decode(child)
	}
	return decoded
}

func validateName(name string) error {
	if err := validation.ValidateValue(name, "node_name"); err != nil {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}
