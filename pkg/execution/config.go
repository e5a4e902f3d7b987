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

package execution

import (
	"fmt"
	"os"
	"time"
)

// Below are the default values of Config.
const (
	DefaultBaseURL         = "https://judge0-ce.p.rapidapi.com"
	DefaultAPIHost         = "judge0-ce.p.rapidapi.com"
	DefaultPollInterval    = "1s"
	DefaultMaxPollAttempts = 20
	DefaultRequestTimeout  = "10s"
)

// Config is the configuration for the code-execution sandbox client.
type Config struct {
	// BaseURL is the URL of the Judge0 API.
	BaseURL string `yaml:"BaseURL"`

	// APIHost is sent as the x-rapidapi-host header when set.
	APIHost string `yaml:"APIHost"`

	// APIKey is sent as the x-rapidapi-key header when set.
	APIKey string `yaml:"APIKey"`

	// PollInterval is the time between two status checks of a submission.
	PollInterval string `yaml:"PollInterval"`

	// MaxPollAttempts is the number of status checks before giving up.
	MaxPollAttempts int `yaml:"MaxPollAttempts"`

	// RequestTimeout is the timeout of a single request to the sandbox.
	RequestTimeout string `yaml:"RequestTimeout"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf(`invalid argument "" for "--judge0-base-url" flag`)
	}

	if _, err := time.ParseDuration(c.PollInterval); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--judge0-poll-interval" flag: %w`,
			c.PollInterval,
			err,
		)
	}

	if c.MaxPollAttempts <= 0 {
		return fmt.Errorf(
			`invalid argument %d for "--judge0-max-poll-attempts" flag`,
			c.MaxPollAttempts,
		)
	}

	if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--judge0-request-timeout" flag: %w`,
			c.RequestTimeout,
			err,
		)
	}

	return nil
}

// ParsePollInterval returns the poll interval.
func (c *Config) ParsePollInterval() time.Duration {
	result, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse poll interval: %v\n", err)
		os.Exit(1)
	}

	return result
}

// ParseRequestTimeout returns the request timeout.
func (c *Config) ParseRequestTimeout() time.Duration {
	result, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse request timeout: %v\n", err)
		os.Exit(1)
	}

	return result
}
