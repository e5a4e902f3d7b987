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

// Package execution provides a client of the Judge0 code-execution sandbox
// and a runner that submits code and polls its status until it finishes.
package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/botscode-team/botscode/pkg/errors"
	"github.com/botscode-team/botscode/server/logging"
)

var (
	// ErrUpstream is returned when the sandbox fails or answers with a non-2xx
	// status.
	ErrUpstream = errors.Unavailable("code execution failed").WithCode("ErrExecutionUpstream")

	// ErrUnexpectedResponse is returned when the sandbox answer cannot be decoded.
	ErrUnexpectedResponse = errors.Unavailable("unexpected response from sandbox").WithCode("ErrUnexpectedResponse")
)

// Below are the status ids of a submission that is not finished yet.
const (
	StatusInQueue    = 1
	StatusProcessing = 2
)

// NoOutput is the output of a finished submission that printed nothing.
const NoOutput = "No output received"

// Status is the status of a submission.
type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Result is the state of a submission.
type Result struct {
	Token         string `json:"token"`
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
	Message       string `json:"message"`
	Status        Status `json:"status"`
}

// IsTerminal returns whether the submission finished.
func (r *Result) IsTerminal() bool {
	return r.Status.ID != StatusInQueue && r.Status.ID != StatusProcessing
}

// Output returns the first non-empty of stdout, compile output, stderr and the
// status message. The status description is never an output.
func (r *Result) Output() string {
	for _, output := range []string{
		r.Stdout,
		r.CompileOutput,
		r.Stderr,
		r.Message,
	} {
		if output != "" {
			return output
		}
	}

	return NoOutput
}

// LanguageInfo is a language supported by the sandbox.
type LanguageInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type submission struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin"`
}

// Client is a client of the Judge0 API.
type Client struct {
	conf       *Config
	httpClient *http.Client
}

// NewClient creates a new instance of Client.
func NewClient(conf *Config) *Client {
	return &Client{
		conf: conf,
		httpClient: &http.Client{
			Timeout: conf.ParseRequestTimeout(),
		},
	}
}

// Submit submits the given code and returns the token of the submission.
func (c *Client) Submit(ctx context.Context, code string, languageID int) (string, error) {
	body, err := json.Marshal(submission{
		SourceCode: code,
		LanguageID: languageID,
	})
	if err != nil {
		return "", fmt.Errorf("marshal submission: %w", err)
	}

	var result Result
	if err := c.do(ctx, http.MethodPost, "/submissions?base64_encoded=false&wait=false", body, &result); err != nil {
		return "", err
	}
	if result.Token == "" {
		return "", fmt.Errorf("submission without token: %w", ErrUnexpectedResponse)
	}

	return result.Token, nil
}

// Poll returns the current state of the given submission.
func (c *Client) Poll(ctx context.Context, token string) (*Result, error) {
	var result Result
	path := "/submissions/" + url.PathEscape(token) + "?base64_encoded=false"
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// Languages returns the languages supported by the sandbox.
func (c *Client) Languages(ctx context.Context) ([]LanguageInfo, error) {
	var languages []LanguageInfo
	if err := c.do(ctx, http.MethodGet, "/languages", nil, &languages); err != nil {
		return nil, err
	}

	return languages, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimSuffix(c.conf.BaseURL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.conf.APIHost != "" {
		req.Header.Set("x-rapidapi-host", c.conf.APIHost)
	}
	if c.conf.APIKey != "" {
		req.Header.Set("x-rapidapi-key", c.conf.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, path, err, ErrUpstream)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.From(ctx).Error(err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf(
			"status %d - %s: %w",
			resp.StatusCode,
			strings.TrimSpace(string(text)),
			ErrUpstream,
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, ErrUnexpectedResponse)
	}

	return nil
}
