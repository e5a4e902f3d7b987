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

// Package assist provides a client of the Gemini API transforming code on
// request: suggesting improvements, documenting or fixing it.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/errors"
	"github.com/botscode-team/botscode/server/logging"
)

var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.Unavailable("gemini API key is not configured").WithCode("ErrMissingAPIKey")

	// ErrInvalidMode is returned for an unknown transform mode.
	ErrInvalidMode = errors.InvalidArgument("invalid assist mode").WithCode("ErrInvalidMode")

	// ErrUpstream is wrapped by every APIError.
	ErrUpstream = errors.Unavailable("gemini request failed").WithCode("ErrAssistUpstream")
)

// NoResponse is the result of a transform without any candidate text.
const NoResponse = "No response from Gemini."

var prompts = map[types.AssistMode]string{
	types.AssistSuggest:  "Suggest improvements for this code:\n\n",
	types.AssistDocument: "Add detailed documentation to the following function:\n\n",
	types.AssistFix:      "Fix syntax errors and improve this code:\n\n",
}

// Prompt returns the prompt of the given mode applied to the given code.
func Prompt(mode types.AssistMode, code string) (string, error) {
	prefix, ok := prompts[mode]
	if !ok {
		return "", fmt.Errorf("%s: %w", mode, ErrInvalidMode)
	}
	return prefix + code, nil
}

// APIError is a failed transform. Its message is the message reported by the
// API, or the transport error when the API could not be reached.
type APIError struct {
	StatusCode int
	Message    string
}

// Error returns the message of the API.
func (e *APIError) Error() string {
	return e.Message
}

// Unwrap returns ErrUpstream.
func (e *APIError) Unwrap() error {
	return ErrUpstream
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client is a client of the Gemini generateContent API.
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

// Enabled returns whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.conf.APIKey != ""
}

// Transform transforms the given code in the given mode. It is a single
// request without retry.
func (c *Client) Transform(ctx context.Context, code string, mode types.AssistMode) (string, error) {
	if !c.Enabled() {
		return "", ErrMissingAPIKey
	}

	prompt, err := Prompt(mode, code)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf(
		"%s/models/%s:generateContent?key=%s",
		strings.TrimSuffix(c.conf.BaseURL, "/"),
		c.conf.Model,
		url.QueryEscape(c.conf.APIKey),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return "", &APIError{Message: err.Error()}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.From(ctx).Error(err)
		}
	}()

	var res generateResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&res)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := fmt.Sprintf("Request failed with status code %d", resp.StatusCode)
		if decodeErr == nil && res.Error != nil && res.Error.Message != "" {
			message = res.Error.Message
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: message}
	}
	if decodeErr != nil {
		return NoResponse, nil
	}

	if len(res.Candidates) == 0 || len(res.Candidates[0].Content.Parts) == 0 ||
		res.Candidates[0].Content.Parts[0].Text == "" {
		return NoResponse, nil
	}

	return res.Candidates[0].Content.Parts[0].Text, nil
}
