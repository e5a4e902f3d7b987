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

package main

import (
	"path"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/attachable"
)

func newTableWriter() table.Writer {
	tw := table.NewWriter()
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateFooter = false
	tw.Style().Options.SeparateHeader = false
	tw.Style().Options.SeparateRows = false
	return tw
}

// renderMembers renders the members of the workspace and whether they are
// online. Online users that never joined are listed too.
func renderMembers(members, online []string) string {
	isOnline := make(map[string]bool, len(online))
	for _, userID := range online {
		isOnline[userID] = true
	}

	tw := newTableWriter()
	tw.AppendHeader(table.Row{"USER", "ONLINE"})
	seen := make(map[string]bool, len(members))
	for _, userID := range members {
		seen[userID] = true
		tw.AppendRow(table.Row{userID, isOnline[userID]})
	}
	for _, userID := range online {
		if !seen[userID] {
			tw.AppendRow(table.Row{userID, true})
		}
	}
	return tw.Render()
}

// renderEvents renders the given events, at most limit of them.
func renderEvents(events []types.JoinExitEvent, limit int) string {
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"USER", "EVENT", "AT"})
	for i, event := range events {
		if limit > 0 && i >= limit {
			break
		}
		tw.AppendRow(table.Row{
			event.UserID,
			event.Type,
			time.UnixMilli(event.Timestamp).UTC().Format(time.RFC3339),
		})
	}
	return tw.Render()
}

// renderAttachables renders the status of the watched resources.
func renderAttachables(attachables []attachable.Attachable) string {
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"RESOURCE", "PATH", "STATUS"})
	for _, a := range attachables {
		tw.AppendRow(table.Row{a.Type(), a.Path(), a.Status()})
	}
	return tw.Render()
}

// renderDocument renders the language and the size of a document.
func renderDocument(path string, lang types.Language, text string) string {
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"DOCUMENT", "LANGUAGE", "LINES", "BYTES"})
	lines := 0
	if text != "" {
		lines = strings.Count(text, "\n") + 1
	}
	tw.AppendRow(table.Row{path, lang, lines, len(text)})
	return tw.Render()
}

// renderTree renders the nodes of the given tree in depth-first order with
// their full paths.
func renderTree(root *types.FileNode) string {
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"PATH", "TYPE"})
	if root != nil {
		appendNodes(tw, "", root)
	}
	return tw.Render()
}

func appendNodes(tw table.Writer, parent string, node *types.FileNode) {
	for _, name := range node.Names() {
		child := node.Children[name]
		p := path.Join(parent, name)
		tw.AppendRow(table.Row{p, child.Type})
		if child.IsFolder() {
			appendNodes(tw, p, child)
		}
	}
}
