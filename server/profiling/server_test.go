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

package profiling

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botscode-team/botscode/server/profiling/prometheus"
)

func TestServer(t *testing.T) {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)
	metrics.AddStoreConnections()

	serve := func(s *Server, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		s.serveMux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	t.Run("default metrics path test", func(t *testing.T) {
		s := NewServer(&Config{Port: 8081}, metrics)
		rec := serve(s, DefaultMetricsPath)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "botscode_")
		assert.Equal(t, http.StatusNotFound, serve(s, pprofPrefix+"/").Code)
	})

	t.Run("custom metrics path test", func(t *testing.T) {
		s := NewServer(&Config{Port: 8081, MetricsPath: "/botscode/metrics", EnablePprof: true}, metrics)
		assert.Equal(t, http.StatusOK, serve(s, "/botscode/metrics").Code)
		assert.Equal(t, http.StatusNotFound, serve(s, DefaultMetricsPath).Code)
		assert.Equal(t, http.StatusOK, serve(s, pprofPrefix+"/").Code)
	})
}
