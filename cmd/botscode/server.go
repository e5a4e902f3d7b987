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
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/botscode-team/botscode/pkg/assist"
	"github.com/botscode-team/botscode/pkg/execution"
	"github.com/botscode-team/botscode/server"
	"github.com/botscode-team/botscode/server/backend/database/mongo"
	"github.com/botscode-team/botscode/server/backend/database/redis"
	"github.com/botscode-team/botscode/server/logging"
	"github.com/botscode-team/botscode/server/profiling"
)

var (
	gracefulTimeout = 10 * time.Second
)

var (
	flagConfPath string
	flagLogLevel string

	rpcPingInterval      time.Duration
	housekeepingInterval time.Duration
	tokenDuration        time.Duration
	connectionTTL        time.Duration
	pollInterval         time.Duration

	mongoConnectionURI     string
	mongoConnectionTimeout time.Duration
	mongoDatabase          string
	mongoPingTimeout       time.Duration

	redisAddress     string
	redisPassword    string
	redisDB          int
	redisKeyPrefix   string
	redisDialTimeout time.Duration

	conf = server.NewConfig()
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server [options]",
		Short: "Start BotsCode server",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf.RPC.PingInterval = rpcPingInterval.String()
			conf.Housekeeping.Interval = housekeepingInterval.String()
			conf.Backend.TokenDuration = tokenDuration.String()
			conf.Backend.ConnectionTTL = connectionTTL.String()
			conf.Execution.PollInterval = pollInterval.String()

			if mongoConnectionURI != "" {
				conf.Mongo = &mongo.Config{
					ConnectionURI:     mongoConnectionURI,
					ConnectionTimeout: mongoConnectionTimeout.String(),
					Database:          mongoDatabase,
					PingTimeout:       mongoPingTimeout.String(),
				}
			}

			if redisAddress != "" {
				conf.Redis = &redis.Config{
					Address:     redisAddress,
					Password:    redisPassword,
					DB:          redisDB,
					KeyPrefix:   redisKeyPrefix,
					DialTimeout: redisDialTimeout.String(),
				}
			}

			// If config file is given, command-line arguments will be overwritten.
			if flagConfPath != "" {
				parsed, err := server.NewConfigFromFile(flagConfPath)
				if err != nil {
					return err
				}
				conf = parsed
			}

			// the env file is loaded after the defaults were built
			if conf.Execution.APIKey == "" {
				conf.Execution.APIKey = os.Getenv(server.EnvJudge0APIKey)
			}
			if conf.Assist.APIKey == "" {
				conf.Assist.APIKey = os.Getenv(server.EnvGeminiAPIKey)
			}

			if err := logging.SetLogLevel(flagLogLevel); err != nil {
				return err
			}

			r, err := server.New(conf)
			if err != nil {
				return err
			}

			if err := r.Start(); err != nil {
				return err
			}

			if code := handleSignal(r); code != 0 {
				return fmt.Errorf("exit code: %d", code)
			}

			return nil
		},
	}
}

func handleSignal(r *server.BotsCode) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	var sig os.Signal
	select {
	case s := <-sigCh:
		sig = s
	case <-r.ShutdownCh():
		// botscode is already shutdown
		return 0
	}

	graceful := false
	if sig == syscall.SIGINT || sig == syscall.SIGTERM {
		graceful = true
	}

	gracefulCh := make(chan struct{})
	go func() {
		if err := r.Shutdown(graceful); err != nil {
			return
		}
		close(gracefulCh)
	}()

	select {
	case <-sigCh:
		return 1
	case <-time.After(gracefulTimeout):
		return 1
	case <-gracefulCh:
		return 0
	}
}

func init() {
	cmd := newServerCmd()
	cmd.Flags().StringVarP(
		&flagConfPath,
		"config",
		"c",
		"",
		"Config path",
	)
	cmd.Flags().StringVarP(
		&flagLogLevel,
		"log-level",
		"l",
		"info",
		"Log level: debug, info, warn, error, panic, fatal",
	)
	cmd.Flags().IntVar(
		&conf.RPC.Port,
		"rpc-port",
		server.DefaultRPCPort,
		"RPC port",
	)
	cmd.Flags().IntVar(
		&conf.RPC.AdminPort,
		"admin-port",
		server.DefaultAdminPort,
		"Port of the gRPC health service",
	)
	cmd.Flags().StringVar(
		&conf.RPC.CertFile,
		"rpc-cert-file",
		"",
		"RPC certification file's path",
	)
	cmd.Flags().StringVar(
		&conf.RPC.KeyFile,
		"rpc-key-file",
		"",
		"RPC key file's path",
	)
	cmd.Flags().Uint64Var(
		&conf.RPC.MaxRequestBytes,
		"rpc-max-request-bytes",
		server.DefaultRPCMaxRequestBytes,
		"Maximum client request size in bytes the server will accept.",
	)
	cmd.Flags().DurationVar(
		&rpcPingInterval,
		"rpc-ping-interval",
		server.DefaultRPCPingInterval,
		"Interval of the pings sent to the store clients.",
	)
	cmd.Flags().StringSliceVar(
		&conf.RPC.AllowedOrigins,
		"allowed-origins",
		nil,
		"Origins allowed to call the RPC server from a browser. Empty allows any origin.",
	)
	cmd.Flags().IntVar(
		&conf.Profiling.Port,
		"profiling-port",
		server.DefaultProfilingPort,
		"Profiling port",
	)
	cmd.Flags().StringVar(
		&conf.Profiling.MetricsPath,
		"profiling-metrics-path",
		profiling.DefaultMetricsPath,
		"Path of the prometheus metrics on the profiling port",
	)
	cmd.Flags().BoolVar(
		&conf.Profiling.EnablePprof,
		"enable-pprof",
		false,
		"Enable runtime profiling data via HTTP server.",
	)
	cmd.Flags().DurationVar(
		&housekeepingInterval,
		"housekeeping-interval",
		server.DefaultHousekeepingInterval,
		"housekeeping interval between housekeeping runs",
	)
	cmd.Flags().IntVar(
		&conf.Housekeeping.CandidatesLimit,
		"housekeeping-candidates-limit",
		server.DefaultHousekeepingCandidatesLimit,
		"candidates limit for a single housekeeping run",
	)
	cmd.Flags().StringVar(
		&conf.Backend.SecretKey,
		"backend-secret-key",
		server.DefaultSecretKey,
		"The secret key for signing and verifying the tokens of users.",
	)
	cmd.Flags().DurationVar(
		&tokenDuration,
		"backend-token-duration",
		server.DefaultTokenDuration,
		"The duration of the tokens issued by the token command.",
	)
	cmd.Flags().DurationVar(
		&connectionTTL,
		"backend-connection-ttl",
		server.DefaultConnectionTTL,
		"Time after which a silent store connection is considered lost.",
	)
	cmd.Flags().IntVar(
		&conf.Backend.SubscriptionLimitPerPath,
		"backend-subscription-limit-per-path",
		server.DefaultSubscriptionLimitPerPath,
		"Maximum number of subscriptions of a path. 0 means unlimited.",
	)
	cmd.Flags().StringVar(
		&conf.Backend.Hostname,
		"hostname",
		server.DefaultHostname,
		"BotsCode Server Hostname",
	)
	cmd.Flags().StringVar(
		&mongoConnectionURI,
		"mongo-connection-uri",
		"",
		"MongoDB's connection URI",
	)
	cmd.Flags().DurationVar(
		&mongoConnectionTimeout,
		"mongo-connection-timeout",
		server.DefaultMongoConnectionTimeout,
		"Mongo DB's connection timeout",
	)
	cmd.Flags().StringVar(
		&mongoDatabase,
		"mongo-database",
		server.DefaultMongoDatabase,
		"BotsCode's database name in MongoDB",
	)
	cmd.Flags().DurationVar(
		&mongoPingTimeout,
		"mongo-ping-timeout",
		server.DefaultMongoPingTimeout,
		"Mongo DB's ping timeout",
	)
	cmd.Flags().StringVar(
		&redisAddress,
		"redis-address",
		"",
		"Redis address, e.g. localhost:6379",
	)
	cmd.Flags().StringVar(
		&redisPassword,
		"redis-password",
		"",
		"Redis password",
	)
	cmd.Flags().IntVar(
		&redisDB,
		"redis-db",
		0,
		"Redis database number",
	)
	cmd.Flags().StringVar(
		&redisKeyPrefix,
		"redis-key-prefix",
		server.DefaultRedisKeyPrefix,
		"Prefix of the keys stored in Redis",
	)
	cmd.Flags().DurationVar(
		&redisDialTimeout,
		"redis-dial-timeout",
		server.DefaultRedisDialTimeout,
		"Redis dial timeout",
	)
	cmd.Flags().StringVar(
		&conf.Execution.BaseURL,
		"judge0-base-url",
		execution.DefaultBaseURL,
		"Base URL of the Judge0 API",
	)
	cmd.Flags().StringVar(
		&conf.Execution.APIHost,
		"judge0-api-host",
		execution.DefaultAPIHost,
		"RapidAPI host of the Judge0 API",
	)
	cmd.Flags().DurationVar(
		&pollInterval,
		"execution-poll-interval",
		time.Second,
		"Interval between the status checks of a submission",
	)
	cmd.Flags().IntVar(
		&conf.Execution.MaxPollAttempts,
		"execution-max-poll-attempts",
		execution.DefaultMaxPollAttempts,
		"Maximum number of status checks of a submission",
	)
	cmd.Flags().StringVar(
		&conf.Assist.BaseURL,
		"gemini-base-url",
		assist.DefaultBaseURL,
		"Base URL of the Gemini API",
	)
	cmd.Flags().StringVar(
		&conf.Assist.Model,
		"gemini-model",
		assist.DefaultModel,
		"Gemini model generating the assistance",
	)

	rootCmd.AddCommand(cmd)
}
