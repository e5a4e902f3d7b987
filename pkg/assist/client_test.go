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

package assist_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/assist"
	"github.com/botscode-team/botscode/pkg/errors"
)

func newClient(baseURL, apiKey string) *assist.Client {
	return assist.NewClient(&assist.Config{
		BaseURL:        baseURL,
		Model:          "gemini-1.5-flash",
		APIKey:         apiKey,
		RequestTimeout: "1s",
	})
}

func TestPrompt(t *testing.T) {
	prompt, err := assist.Prompt(types.AssistSuggest, "x = 1")
	require.NoError(t, err)
	assert.Equal(t, "Suggest improvements for this code:\n\nx = 1", prompt)

	prompt, err = assist.Prompt(types.AssistDocument, "func f() {}")
	require.NoError(t, err)
	assert.Equal(t, "Add detailed documentation to the following function:\n\nfunc f() {}", prompt)

	prompt, err = assist.Prompt(types.AssistFix, "pritn(1)")
	require.NoError(t, err)
	assert.Equal(t, "Fix syntax errors and improve this code:\n\npritn(1)", prompt)

	_, err = assist.Prompt("translate", "x")
	assert.ErrorIs(t, err, assist.ErrInvalidMode)
}

func TestTransform(t *testing.T) {
	ctx := context.Background()

	t.Run("first candidate text test", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/models/gemini-1.5-flash:generateContent", r.URL.Path)
			assert.Equal(t, "k1", r.URL.Query().Get("key"))

			var body map[string][]map[string][]map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Fix syntax errors and improve this code:\n\npritn(1)", body["contents"][0]["parts"][0]["text"])

			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"print(1)"},{"text":"ignored"}]}}]}`))
		}))
		defer server.Close()

		result, err := newClient(server.URL, "k1").Transform(ctx, "pritn(1)", types.AssistFix)
		require.NoError(t, err)
		assert.Equal(t, "print(1)", result)
	})

	t.Run("no candidate test", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		}))
		defer server.Close()

		result, err := newClient(server.URL, "k1").Transform(ctx, "x", types.AssistSuggest)
		require.NoError(t, err)
		assert.Equal(t, assist.NoResponse, result)
	})

	t.Run("api error message is surfaced verbatim test", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key."}}`))
		}))
		defer server.Close()

		_, err := newClient(server.URL, "bad").Transform(ctx, "x", types.AssistDocument)
		require.Error(t, err)
		assert.Equal(t, "API key not valid. Please pass a valid API key.", err.Error())
		assert.ErrorIs(t, err, assist.ErrUpstream)
		assert.Equal(t, http.StatusBadGateway, errors.HTTPStatusOf(err))
	})

	t.Run("missing api key test", func(t *testing.T) {
		client := newClient("http://localhost", "")
		assert.False(t, client.Enabled())
		_, err := client.Transform(ctx, "x", types.AssistSuggest)
		assert.ErrorIs(t, err, assist.ErrMissingAPIKey)
	})
}
