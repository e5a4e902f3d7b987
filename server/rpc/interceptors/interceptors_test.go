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

package interceptors_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/botscode-team/botscode/server/logging"
	"github.com/botscode-team/botscode/server/rpc/interceptors"
)

func TestLoggingInterceptor(t *testing.T) {
	t.Run("request logger test", func(t *testing.T) {
		var got logging.Logger
		handler := interceptors.NewLoggingInterceptor().HTTP(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = logging.From(r.Context())
				w.WriteHeader(http.StatusTeapot)
			}),
		)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runCode", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.NotNil(t, got)
		assert.NotSame(t, logging.DefaultLogger(), got)
	})
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed origin test", func(t *testing.T) {
		handler := interceptors.CORS([]string{"https://botscode.dev"})(ok)

		r := httptest.NewRequest(http.MethodPost, "/api/assist", nil)
		r.Header.Set("Origin", "https://botscode.dev")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Equal(t, "https://botscode.dev", rec.Header().Get("Access-Control-Allow-Origin"))

		r = httptest.NewRequest(http.MethodPost, "/api/assist", nil)
		r.Header.Set("Origin", "https://evil.example")
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight test", func(t *testing.T) {
		handler := interceptors.CORS(nil)(ok)

		r := httptest.NewRequest(http.MethodOptions, "/api/runCode", nil)
		r.Header.Set("Origin", "http://localhost:3000")
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
