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

package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/botscode-team/botscode/pkg/assist"
	"github.com/botscode-team/botscode/pkg/execution"
	"github.com/botscode-team/botscode/server/backend"
	"github.com/botscode-team/botscode/server/backend/database/mongo"
	"github.com/botscode-team/botscode/server/backend/database/redis"
	"github.com/botscode-team/botscode/server/backend/housekeeping"
	"github.com/botscode-team/botscode/server/profiling"
	"github.com/botscode-team/botscode/server/rpc"
)

// Below are the values of the default values of BotsCode config.
const (
	DefaultRPCPort       = 8080
	DefaultProfilingPort = 8081
	DefaultAdminPort     = 8082

	DefaultRPCMaxRequestBytes = 4 * 1024 * 1024
	DefaultRPCPingInterval    = 10 * time.Second

	DefaultHousekeepingInterval        = 10 * time.Second
	DefaultHousekeepingCandidatesLimit = 500

	DefaultSecretKey                = "botscode-secret"
	DefaultTokenDuration            = 24 * time.Hour
	DefaultConnectionTTL            = 30 * time.Second
	DefaultSubscriptionLimitPerPath = 0
	DefaultHostname                 = ""

	DefaultMongoConnectionURI     = "mongodb://localhost:27017"
	DefaultMongoConnectionTimeout = 5 * time.Second
	DefaultMongoPingTimeout       = 5 * time.Second
	DefaultMongoDatabase          = "botscode"

	DefaultRedisKeyPrefix   = "botscode"
	DefaultRedisDialTimeout = 5 * time.Second
)

// Below are the environment variables carrying the keys of the collaborators.
const (
	EnvGeminiAPIKey = "BOTSCODE_GEMINI_API_KEY"
	EnvJudge0APIKey = "BOTSCODE_JUDGE0_API_KEY"
)

// Config is the configuration for creating a BotsCode instance.
type Config struct {
	RPC          *rpc.Config          `yaml:"RPC"`
	Profiling    *profiling.Config    `yaml:"Profiling"`
	Housekeeping *housekeeping.Config `yaml:"Housekeeping"`
	Backend      *backend.Config      `yaml:"Backend"`
	Mongo        *mongo.Config        `yaml:"Mongo"`
	Redis        *redis.Config        `yaml:"Redis"`
	Execution    *execution.Config    `yaml:"Execution"`
	Assist       *assist.Config       `yaml:"Assist"`
}

// NewConfig returns a Config struct that contains reasonable defaults
// for most of the configurations.
func NewConfig() *Config {
	return newConfig(DefaultRPCPort, DefaultProfilingPort, DefaultAdminPort)
}

// NewConfigFromFile returns a Config struct for the given conf file.
func NewConfigFromFile(path string) (*Config, error) {
	conf := &Config{}
	bytes, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err = yaml.Unmarshal(bytes, conf); err != nil {
		return nil, fmt.Errorf("unmarshal config file: %w", err)
	}

	conf.ensureDefaultValue()
	return conf, nil
}

// RPCAddr returns the RPC address.
func (c *Config) RPCAddr() string {
	return fmt.Sprintf("localhost:%d", c.RPC.Port)
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if err := c.RPC.Validate(); err != nil {
		return err
	}

	if err := c.Profiling.Validate(); err != nil {
		return err
	}

	if err := c.Housekeeping.Validate(); err != nil {
		return err
	}

	if err := c.Backend.Validate(); err != nil {
		return err
	}

	if c.Mongo != nil && c.Redis != nil {
		return fmt.Errorf("only one of Mongo and Redis can be configured")
	}

	if c.Mongo != nil {
		if err := c.Mongo.Validate(); err != nil {
			return err
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	}

	if err := c.Execution.Validate(); err != nil {
		return err
	}

	return c.Assist.Validate()
}

// ensureDefaultValue sets the value of the option to which the default value
// should be applied when the user does not input it.
func (c *Config) ensureDefaultValue() {
	defaults := NewConfig()

	if c.RPC == nil {
		c.RPC = defaults.RPC
	}
	if c.RPC.Port == 0 {
		c.RPC.Port = DefaultRPCPort
	}
	if c.RPC.AdminPort == 0 {
		c.RPC.AdminPort = DefaultAdminPort
	}
	if c.RPC.MaxRequestBytes == 0 {
		c.RPC.MaxRequestBytes = DefaultRPCMaxRequestBytes
	}
	if c.RPC.PingInterval == "" {
		c.RPC.PingInterval = DefaultRPCPingInterval.String()
	}

	if c.Profiling == nil {
		c.Profiling = defaults.Profiling
	}
	if c.Profiling.Port == 0 {
		c.Profiling.Port = DefaultProfilingPort
	}
	if c.Profiling.MetricsPath == "" {
		c.Profiling.MetricsPath = profiling.DefaultMetricsPath
	}

	if c.Housekeeping == nil {
		c.Housekeeping = defaults.Housekeeping
	}
	if c.Housekeeping.Interval == "" {
		c.Housekeeping.Interval = DefaultHousekeepingInterval.String()
	}
	if c.Housekeeping.CandidatesLimit == 0 {
		c.Housekeeping.CandidatesLimit = DefaultHousekeepingCandidatesLimit
	}

	if c.Backend == nil {
		c.Backend = defaults.Backend
	}
	if c.Backend.SecretKey == "" {
		c.Backend.SecretKey = DefaultSecretKey
	}
	if c.Backend.TokenDuration == "" {
		c.Backend.TokenDuration = DefaultTokenDuration.String()
	}
	if c.Backend.ConnectionTTL == "" {
		c.Backend.ConnectionTTL = DefaultConnectionTTL.String()
	}

	if c.Mongo != nil {
		if c.Mongo.ConnectionURI == "" {
			c.Mongo.ConnectionURI = DefaultMongoConnectionURI
		}
		if c.Mongo.ConnectionTimeout == "" {
			c.Mongo.ConnectionTimeout = DefaultMongoConnectionTimeout.String()
		}
		if c.Mongo.Database == "" {
			c.Mongo.Database = DefaultMongoDatabase
		}
		if c.Mongo.PingTimeout == "" {
			c.Mongo.PingTimeout = DefaultMongoPingTimeout.String()
		}
	}

	if c.Redis != nil {
		if c.Redis.KeyPrefix == "" {
			c.Redis.KeyPrefix = DefaultRedisKeyPrefix
		}
		if c.Redis.DialTimeout == "" {
			c.Redis.DialTimeout = DefaultRedisDialTimeout.String()
		}
	}

	if c.Execution == nil {
		c.Execution = defaults.Execution
	}
	if c.Execution.BaseURL == "" {
		c.Execution.BaseURL = execution.DefaultBaseURL
	}
	if c.Execution.APIHost == "" {
		c.Execution.APIHost = execution.DefaultAPIHost
	}
	if c.Execution.APIKey == "" {
		c.Execution.APIKey = os.Getenv(EnvJudge0APIKey)
	}
	if c.Execution.PollInterval == "" {
		c.Execution.PollInterval = execution.DefaultPollInterval
	}
	if c.Execution.MaxPollAttempts == 0 {
		c.Execution.MaxPollAttempts = execution.DefaultMaxPollAttempts
	}
	if c.Execution.RequestTimeout == "" {
		c.Execution.RequestTimeout = execution.DefaultRequestTimeout
	}

	if c.Assist == nil {
		c.Assist = defaults.Assist
	}
	if c.Assist.BaseURL == "" {
		c.Assist.BaseURL = assist.DefaultBaseURL
	}
	if c.Assist.Model == "" {
		c.Assist.Model = assist.DefaultModel
	}
	if c.Assist.APIKey == "" {
		c.Assist.APIKey = os.Getenv(EnvGeminiAPIKey)
	}
	if c.Assist.RequestTimeout == "" {
		c.Assist.RequestTimeout = assist.DefaultRequestTimeout
	}
}

func newConfig(port, profilingPort, adminPort int) *Config {
	return &Config{
		RPC: &rpc.Config{
			Port:            port,
			AdminPort:       adminPort,
			MaxRequestBytes: DefaultRPCMaxRequestBytes,
			PingInterval:    DefaultRPCPingInterval.String(),
		},
		Profiling: &profiling.Config{
			Port:        profilingPort,
			MetricsPath: profiling.DefaultMetricsPath,
		},
		Housekeeping: &housekeeping.Config{
			Interval:        DefaultHousekeepingInterval.String(),
			CandidatesLimit: DefaultHousekeepingCandidatesLimit,
		},
		Backend: &backend.Config{
			SecretKey:                DefaultSecretKey,
			TokenDuration:            DefaultTokenDuration.String(),
			ConnectionTTL:            DefaultConnectionTTL.String(),
			SubscriptionLimitPerPath: DefaultSubscriptionLimitPerPath,
			Hostname:                 DefaultHostname,
		},
		Execution: &execution.Config{
			BaseURL:         execution.DefaultBaseURL,
			APIHost:         execution.DefaultAPIHost,
			APIKey:          os.Getenv(EnvJudge0APIKey),
			PollInterval:    execution.DefaultPollInterval,
			MaxPollAttempts: execution.DefaultMaxPollAttempts,
			RequestTimeout:  execution.DefaultRequestTimeout,
		},
		Assist: &assist.Config{
			BaseURL:        assist.DefaultBaseURL,
			Model:          assist.DefaultModel,
			APIKey:         os.Getenv(EnvGeminiAPIKey),
			RequestTimeout: assist.DefaultRequestTimeout,
		},
	}
}
