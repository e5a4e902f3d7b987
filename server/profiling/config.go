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

// Package profiling serves the metrics of the store and the collaborator
// clients, and optionally the runtime profiles.
package profiling

import (
	"fmt"
	"strings"

	"github.com/botscode-team/botscode/pkg/errors"
)

// DefaultMetricsPath is the path of the prometheus metrics.
const DefaultMetricsPath = "/metrics"

var (
	// ErrInvalidProfilingPort is returned for a port outside 1-65535.
	ErrInvalidProfilingPort = errors.InvalidArgument("invalid profiling port").WithCode("ErrInvalidProfilingPort")

	// ErrInvalidMetricsPath is returned for a metrics path that is not absolute
	// or that is taken by the profiles.
	ErrInvalidMetricsPath = errors.InvalidArgument("invalid metrics path").WithCode("ErrInvalidMetricsPath")
)

// Config is the configuration of the profiling server.
type Config struct {
	// Port is the port of the profiling server.
	Port int `yaml:"Port"`

	// MetricsPath is the path the metrics are served on. DefaultMetricsPath
	// is used if empty.
	MetricsPath string `yaml:"MetricsPath"`

	// EnablePprof exposes the runtime profiles under /debug/pprof.
	EnablePprof bool `yaml:"EnablePprof"`
}

// Validate returns an error if the port or the metrics path is invalid.
func (c *Config) Validate() error {
	if c.Port < 1 || 65535 < c.Port {
		return fmt.Errorf("must be between 1 and 65535, given %d: %w", c.Port, ErrInvalidProfilingPort)
	}

	if c.MetricsPath == "" {
		return nil
	}
	if !strings.HasPrefix(c.MetricsPath, "/") || strings.HasPrefix(c.MetricsPath, pprofPrefix) {
		return fmt.Errorf("%q: %w", c.MetricsPath, ErrInvalidMetricsPath)
	}

	return nil
}

// metricsPath returns the path the metrics are served on.
func (c *Config) metricsPath() string {
	if c.MetricsPath == "" {
		return DefaultMetricsPath
	}
	return c.MetricsPath
}
