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

package rpc

import (
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	// ErrInvalidRPCPort occurs when the port in the config is invalid.
	ErrInvalidRPCPort = errors.New("invalid port number for RPC server")
	// ErrInvalidAdminPort occurs when the admin port in the config is invalid.
	ErrInvalidAdminPort = errors.New("invalid port number for admin server")
	// ErrInvalidCertFile occurs when the certificate file is invalid.
	ErrInvalidCertFile = errors.New("invalid cert file for RPC server")
	// ErrInvalidKeyFile occurs when the key file is invalid.
	ErrInvalidKeyFile = errors.New("invalid key file for RPC server")
	// ErrInvalidPingInterval occurs when the ping interval is invalid.
	ErrInvalidPingInterval = errors.New("invalid ping interval for RPC server")
)

// Config is the configuration for creating a Server instance.
type Config struct {
	// Port is the port number for the HTTP and websocket server.
	Port int `yaml:"Port"`

	// AdminPort is the port number for the gRPC health server.
	AdminPort int `yaml:"AdminPort"`

	// CertFile is the path to the certificate file.
	CertFile string `yaml:"CertFile"`

	// KeyFile is the path to the key file.
	KeyFile string `yaml:"KeyFile"`

	// MaxRequestBytes is the maximum client request size in bytes the server
	// will accept, for HTTP bodies and websocket frames alike.
	MaxRequestBytes uint64 `yaml:"MaxRequestBytes"`

	// PingInterval is the interval of the pings sent to websocket clients.
	// Every pong extends the lease of the store connection.
	PingInterval string `yaml:"PingInterval"`

	// AllowedOrigins are the origins allowed to call the server from a
	// browser. An empty list allows every origin.
	AllowedOrigins []string `yaml:"AllowedOrigins"`
}

// Validate validates the port number and the files for certification.
func (c *Config) Validate() error {
	if c.Port < 1 || 65535 < c.Port {
		return fmt.Errorf("must be between 1 and 65535, given %d: %w", c.Port, ErrInvalidRPCPort)
	}

	if c.AdminPort < 1 || 65535 < c.AdminPort || c.AdminPort == c.Port {
		return fmt.Errorf("must be between 1 and 65535 and differ from the RPC port, given %d: %w",
			c.AdminPort, ErrInvalidAdminPort)
	}

	// when specific cert or key file are configured
	if c.CertFile != "" {
		if _, err := os.Stat(c.CertFile); err != nil {
			return fmt.Errorf("%s: %w", c.CertFile, ErrInvalidCertFile)
		}
	}

	if c.KeyFile != "" {
		if _, err := os.Stat(c.KeyFile); err != nil {
			return fmt.Errorf("%s: %w", c.KeyFile, ErrInvalidKeyFile)
		}
	}

	interval, err := time.ParseDuration(c.PingInterval)
	if err != nil || interval <= 0 {
		return fmt.Errorf("%s: %w", c.PingInterval, ErrInvalidPingInterval)
	}

	return nil
}

// ParsePingInterval returns the ping interval.
func (c *Config) ParsePingInterval() time.Duration {
	result, err := time.ParseDuration(c.PingInterval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse ping interval: %v\n", err)
		os.Exit(1)
	}

	return result
}
