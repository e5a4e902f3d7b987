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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/internal/version"
	"github.com/botscode-team/botscode/server/rpc"
)

var (
	clientOnly bool
	output     string
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of BotsCode",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputOpts(); err != nil {
				return err
			}

			info := types.VersionInfo{
				ClientVersion: clientVersion(),
			}

			var serverErr error
			if !clientOnly {
				info.ServerVersion, serverErr = fetchServerVersion(cmd.Context(), flagRPCAddr)
			}

			if err := printVersionInfo(cmd, output, &info); err != nil {
				return err
			}

			if serverErr != nil {
				cmd.Printf("Error fetching server version: %v\n", serverErr)
			}

			return nil
		},
	}
}

func clientVersion() *types.VersionDetail {
	return &types.VersionDetail{
		BotsCodeVersion: version.Version,
		GoVersion:       runtime.Version(),
		BuildDate:       version.BuildDate,
	}
}

func fetchServerVersion(ctx context.Context, rpcAddr string) (*types.VersionDetail, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+rpcAddr+rpc.VersionPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get version: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get version: %s", resp.Status)
	}

	detail := &types.VersionDetail{}
	if err := json.NewDecoder(resp.Body).Decode(detail); err != nil {
		return nil, fmt.Errorf("decode version: %w", err)
	}
	return detail, nil
}

func printVersionInfo(cmd *cobra.Command, output string, versionInfo *types.VersionInfo) error {
	switch output {
	case "":
		cmd.Printf("BotsCode Client: %s\n", versionInfo.ClientVersion.BotsCodeVersion)
		cmd.Printf("Go: %s\n", versionInfo.ClientVersion.GoVersion)
		cmd.Printf("Build Date: %s\n", versionInfo.ClientVersion.BuildDate)
		if versionInfo.ServerVersion != nil {
			cmd.Printf("BotsCode Server: %s\n", versionInfo.ServerVersion.BotsCodeVersion)
			cmd.Printf("Go: %s\n", versionInfo.ServerVersion.GoVersion)
			cmd.Printf("Build Date: %s\n", versionInfo.ServerVersion.BuildDate)
		}
	case "yaml":
		marshalled, err := yaml.Marshal(versionInfo)
		if err != nil {
			return errors.New("failed to marshal YAML")
		}
		cmd.Println(string(marshalled))
	case "json":
		marshalled, err := json.MarshalIndent(versionInfo, "", "  ")
		if err != nil {
			return errors.New("failed to marshal JSON")
		}
		cmd.Println(string(marshalled))
	default:
		return errors.New("unknown output format")
	}

	return nil
}

func validateOutputOpts() error {
	if output != "" && output != "yaml" && output != "json" {
		return errors.New(`--output must be 'yaml' or 'json'`)
	}

	return nil
}

func init() {
	cmd := newVersionCmd()
	cmd.Flags().BoolVar(
		&clientOnly,
		"client",
		false,
		"Shows client version only (no server required).",
	)
	cmd.Flags().StringVarP(
		&output,
		"output",
		"o",
		"",
		"One of 'yaml' or 'json'.",
	)
	rootCmd.AddCommand(cmd)
}
