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
	"net/http"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/assist"
	"github.com/botscode-team/botscode/pkg/errors"
	"github.com/botscode-team/botscode/server/backend"
	"github.com/botscode-team/botscode/server/logging"
)

const (
	assistRequiredMessage = "Code and a mode of suggest, document or fix are required"
	assistDisabledMessage = "AI assistance is not configured"
)

// assistRequest is the body of an AI transform request.
type assistRequest struct {
	Code string `json:"code" validate:"required"`
	Mode string `json:"mode" validate:"required,oneof=suggest document fix"`
}

// assistResponse is the body of a finished AI transform.
type assistResponse struct {
	Result string `json:"result"`
}

// assistHandler transforms code with the AI model.
type assistHandler struct {
	be              *backend.Backend
	maxRequestBytes int64
}

func newAssistHandler(be *backend.Backend, maxRequestBytes int64) *assistHandler {
	return &assistHandler{
		be:              be,
		maxRequestBytes: maxRequestBytes,
	}
}

// ServeHTTP implements http.Handler.
func (h *assistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, methodNotAllowed)
		return
	}

	req := &assistRequest{}
	if err := decodeBody(r, h.maxRequestBytes, req, assistRequiredMessage); err != nil {
		writeError(w, r, http.StatusBadRequest, assistRequiredMessage)
		return
	}

	mode := types.AssistMode(req.Mode)
	result, err := h.be.Assistant.Transform(r.Context(), req.Code, mode)
	h.be.Metrics.AddAssistRequest(req.Mode, err)
	if err != nil {
		switch {
		case errors.Is(err, assist.ErrMissingAPIKey):
			writeError(w, r, http.StatusServiceUnavailable, assistDisabledMessage)
		case errors.Is(err, assist.ErrInvalidMode):
			writeError(w, r, http.StatusBadRequest, assistRequiredMessage)
		default:
			logging.From(r.Context()).Warnf("assist %s: %v", mode, err)
			writeError(w, r, http.StatusBadGateway, err.Error())
		}
		return
	}

	writeJSON(w, r, http.StatusOK, assistResponse{Result: result})
}
