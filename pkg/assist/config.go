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

package assist

import (
	"fmt"
	"os"
	"time"
)

// Below are the default values of Config.
const (
	DefaultBaseURL        = "https://generativelanguage.googleapis.com/v1"
	DefaultModel          = "gemini-1.5-flash"
	DefaultRequestTimeout = "30s"
)

// Config is the configuration for the AI transform client.
type Config struct {
	// BaseURL is the URL of the Gemini API.
	BaseURL string `yaml:"BaseURL"`

	// Model is the model generating the transforms.
	Model string `yaml:"Model"`

	// APIKey is the key of the Gemini API. Transforms fail without it.
	APIKey string `yaml:"APIKey"`

	// RequestTimeout is the timeout of a single transform.
	RequestTimeout string `yaml:"RequestTimeout"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf(`invalid argument "" for "--gemini-base-url" flag`)
	}

	if c.Model == "" {
		return fmt.Errorf(`invalid argument "" for "--gemini-model" flag`)
	}

	if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--gemini-request-timeout" flag: %w`,
			c.RequestTimeout,
			err,
		)
	}

	return nil
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
