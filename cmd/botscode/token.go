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
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/botscode-team/botscode/server"
	"github.com/botscode-team/botscode/server/rpc/auth"
)

var (
	flagSecretKey     string
	flagTokenDuration time.Duration
	flagDisplayName   string
)

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token [user id]",
		Short: "Issue a token for the given user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.NewTokenManager(flagSecretKey, flagTokenDuration).Generate(args[0], flagDisplayName)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func init() {
	cmd := newTokenCmd()
	cmd.Flags().StringVar(
		&flagSecretKey,
		"backend-secret-key",
		server.DefaultSecretKey,
		"The secret key the server verifies the token with.",
	)
	cmd.Flags().DurationVar(
		&flagTokenDuration,
		"duration",
		server.DefaultTokenDuration,
		"The duration of the token.",
	)
	cmd.Flags().StringVar(
		&flagDisplayName,
		"display-name",
		"",
		"The display identifier of the user.",
	)
	rootCmd.AddCommand(cmd)
}

// issueToken returns the given token, or a token for the user signed with
// the given key when no token is given.
func issueToken(token, userID, secretKey string) (string, error) {
	if token != "" {
		return token, nil
	}

	issued, err := auth.NewTokenManager(secretKey, server.DefaultTokenDuration).Generate(userID, "")
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return issued, nil
}
