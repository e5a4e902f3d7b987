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
	"encoding/json"
	"net/http"

	"github.com/botscode-team/botscode/internal/validation"
	"github.com/botscode-team/botscode/pkg/errors"
	"github.com/botscode-team/botscode/server/logging"
)

// errorResponse is the body of a failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes the given value as the JSON body of the response.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.From(r.Context()).Warnf("write response: %v", err)
	}
}

// writeError writes the given message with the given status.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorResponse{Error: message})
}

// decodeBody decodes the JSON body of the request into v and validates it.
// The returned error is an InvalidArgument error carrying a message that can
// be shown to users.
func decodeBody(r *http.Request, maxBytes int64, v any, invalidMessage string) error {
	body := http.MaxBytesReader(nil, r.Body, maxBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.InvalidArgument(invalidMessage)
	}

	if err := validation.ValidateStruct(v); err != nil {
		return errors.InvalidArgument(invalidMessage)
	}

	return nil
}
