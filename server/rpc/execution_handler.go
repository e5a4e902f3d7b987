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
	"fmt"
	"net/http"

	"github.com/botscode-team/botscode/pkg/errors"
	"github.com/botscode-team/botscode/pkg/execution"
	"github.com/botscode-team/botscode/server/backend"
	"github.com/botscode-team/botscode/server/logging"
)

const (
	runCodeRequiredMessage = "Code and language are required"
	unsupportedLangMessage = "Language not supported"
	methodNotAllowed       = "Method not allowed"
	fetchLanguagesFailed   = "Failed to fetch languages"
)

// runCodeRequest is the body of a code execution request.
type runCodeRequest struct {
	Code     string `json:"code" validate:"required"`
	Language string `json:"language" validate:"required"`
}

// runCodeResponse is the body of a finished code execution.
type runCodeResponse struct {
	Output string `json:"output"`
}

// executionHandler runs code in the sandbox on POST and lists the languages
// of the sandbox on GET.
type executionHandler struct {
	be              *backend.Backend
	maxRequestBytes int64
}

func newExecutionHandler(be *backend.Backend, maxRequestBytes int64) *executionHandler {
	return &executionHandler{
		be:              be,
		maxRequestBytes: maxRequestBytes,
	}
}

// ServeHTTP implements http.Handler.
func (h *executionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.languages(w, r)
	case http.MethodPost:
		h.run(w, r)
	default:
		writeError(w, r, http.StatusMethodNotAllowed, methodNotAllowed)
	}
}

func (h *executionHandler) languages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.be.Sandbox.Languages(r.Context())
	if err != nil {
		logging.From(r.Context()).Errorf("fetch languages: %v", err)
		writeError(w, r, http.StatusInternalServerError, fetchLanguagesFailed)
		return
	}

	writeJSON(w, r, http.StatusOK, languages)
}

func (h *executionHandler) run(w http.ResponseWriter, r *http.Request) {
	req := &runCodeRequest{}
	if err := decodeBody(r, h.maxRequestBytes, req, runCodeRequiredMessage); err != nil {
		writeError(w, r, http.StatusBadRequest, runCodeRequiredMessage)
		return
	}

	if _, ok := execution.LanguageID(req.Language); !ok {
		writeError(w, r, http.StatusBadRequest, unsupportedLangMessage)
		return
	}

	result, err := h.be.Executor.Run(r.Context(), req.Code, req.Language)
	h.be.Metrics.AddExecution(req.Language, err)
	if err != nil {
		if errors.Is(err, execution.ErrPollingTimeout) {
			h.be.Metrics.ObserveExecutionPollAttempts(h.be.Executor.MaxAttempts())
			writeJSON(w, r, http.StatusOK, runCodeResponse{
				Output: fmt.Sprintf("Execution timed out after %d status checks", h.be.Executor.MaxAttempts()),
			})
			return
		}

		logging.From(r.Context()).Errorf("run code: %v", err)
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	h.be.Metrics.ObserveExecutionPollAttempts(result.Attempts)
	writeJSON(w, r, http.StatusOK, runCodeResponse{Output: result.Output})
}
