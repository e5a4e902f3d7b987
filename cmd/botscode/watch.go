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
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/client"
	"github.com/botscode-team/botscode/pkg/attachable"
	"github.com/botscode-team/botscode/pkg/document"
	"github.com/botscode-team/botscode/pkg/filetree"
	"github.com/botscode-team/botscode/pkg/session"
	"github.com/botscode-team/botscode/server"
)

var (
	flagToken       string
	flagWorkspace   string
	flagDocument    bool
	flagEventsLimit int
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [user id]",
		Short: "Join the workspace as the given user and watch who is online",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := args[0]
			token, err := issueToken(flagToken, userID, flagSecretKey)
			if err != nil {
				return err
			}

			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			ctx := context.Background()
			cli, err := client.Dial(ctx, flagRPCAddr, client.WithToken(token), client.WithLogger(logger))
			if err != nil {
				return err
			}
			defer func() {
				_ = cli.Close()
			}()

			changed := make(chan struct{}, 1)
			notify := func() {
				select {
				case changed <- struct{}{}:
				default:
				}
			}

			s := session.New(cli, userID)
			s.Presence.OnChange(func([]string) { notify() })
			s.Members.OnChange(func([]string) { notify() })
			s.Events.OnChange(func([]types.JoinExitEvent) { notify() })
			if err := s.Start(ctx); err != nil {
				return err
			}

			attachables := s.Attachables()
			var tree *filetree.Tree
			if flagWorkspace != "" {
				tree, err = filetree.Open(ctx, cli, flagWorkspace)
				if err != nil {
					if endErr := s.End(ctx); endErr != nil {
						logger.Warn("end session", zap.Error(endErr))
					}
					return err
				}
				tree.OnChange(func(*types.FileNode) { notify() })
				attachables = append(attachables, tree)
			}

			var doc *document.Document
			if flagDocument {
				doc, err = document.Open(ctx, cli, userID,
					document.WithChangeHandler(func(document.Change) { notify() }),
					document.WithErrorHandler(func(err error) { logger.Warn("document", zap.Error(err)) }),
				)
				if err != nil {
					if tree != nil {
						tree.Close()
					}
					if endErr := s.End(ctx); endErr != nil {
						logger.Warn("end session", zap.Error(endErr))
					}
					return err
				}
				attachables = append(attachables, doc)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			notify()
			for {
				select {
				case <-changed:
					render(cmd, s, tree, doc, attachables)
				case <-cli.Done():
					return errors.New("connection to the server lost")
				case <-sigCh:
					if tree != nil {
						tree.Close()
					}
					if doc != nil {
						doc.Close()
					}

					endCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
					defer cancel()
					return s.End(endCtx)
				}
			}
		},
	}
}

func render(
	cmd *cobra.Command,
	s *session.Session,
	tree *filetree.Tree,
	doc *document.Document,
	attachables []attachable.Attachable,
) {
	cmd.Printf("%s\n\n", renderMembers(s.Members.Members(), s.Presence.Online()))
	cmd.Printf("%s\n\n", renderEvents(s.Events.Events(), flagEventsLimit))
	if tree != nil && tree.Loaded() {
		cmd.Printf("%s\n\n", renderTree(tree.Root()))
	}
	if doc != nil {
		cmd.Printf("%s\n\n", renderDocument(doc.Path(), doc.Language(), doc.Text()))
	}
	cmd.Printf("%s\n", renderAttachables(attachables))
}

func init() {
	cmd := newWatchCmd()
	cmd.Flags().StringVar(
		&flagToken,
		"token",
		"",
		"Token of the user. A token is issued with the secret key if empty.",
	)
	cmd.Flags().StringVar(
		&flagSecretKey,
		"backend-secret-key",
		server.DefaultSecretKey,
		"The secret key used to issue a token when none is given.",
	)
	cmd.Flags().StringVar(
		&flagWorkspace,
		"workspace",
		"",
		"Workspace whose file tree is watched as well.",
	)
	cmd.Flags().BoolVar(
		&flagDocument,
		"document",
		false,
		"Watch the document of the user as well.",
	)
	cmd.Flags().IntVar(
		&flagEventsLimit,
		"events-limit",
		10,
		"Maximum number of events shown. 0 shows all of them.",
	)
	rootCmd.AddCommand(cmd)
}
