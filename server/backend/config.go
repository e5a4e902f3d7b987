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

package backend

import (
	"fmt"
	"os"
	"time"
)

// Config is the configuration for creating a Backend instance.
type Config struct {
	// SecretKey is the secret key for signing authentication tokens.
	SecretKey string `yaml:"SecretKey"`

	// TokenDuration is the lifetime of the tokens issued by the server.
	TokenDuration string `yaml:"TokenDuration"`

	// ConnectionTTL is the time a store connection lives without any activity
	// before its disconnect hooks run.
	ConnectionTTL string `yaml:"ConnectionTTL"`

	// SubscriptionLimitPerPath is the maximum number of subscriptions of a
	// single path. Zero means no limit.
	SubscriptionLimitPerPath int `yaml:"SubscriptionLimitPerPath"`

	// Hostname is the hostname of this server, used in logs.
	Hostname string `yaml:"Hostname"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.TokenDuration); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--token-duration" flag: %w`,
			c.TokenDuration,
			err,
		)
	}

	if _, err := time.ParseDuration(c.ConnectionTTL); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--connection-ttl" flag: %w`,
			c.ConnectionTTL,
			err,
		)
	}

	if c.SubscriptionLimitPerPath < 0 {
		return fmt.Errorf(
			`invalid argument %d for "--subscription-limit-per-path" flag`,
			c.SubscriptionLimitPerPath,
		)
	}

	return nil
}

// ParseTokenDuration returns the token duration.
func (c *Config) ParseTokenDuration() time.Duration {
	result, err := time.ParseDuration(c.TokenDuration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse token duration: %v\n", err)
		os.Exit(1)
	}

	return result
}

// ParseConnectionTTL returns the connection TTL.
func (c *Config) ParseConnectionTTL() time.Duration {
	result, err := time.ParseDuration(c.ConnectionTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse connection ttl: %v\n", err)
		os.Exit(1)
	}

	return result
}
