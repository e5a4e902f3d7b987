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

package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/errors"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
	tokenQueryParam     = "token"
)

// ErrMissingToken is returned when the request does not carry a token.
var ErrMissingToken = errors.Unauthenticated("missing token").WithCode("ErrMissingToken")

// TokenFromRequest returns the token of the given request. The authorization
// header is preferred; browsers can not set headers on websocket upgrades, so
// the token query parameter is accepted as well.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get(authorizationHeader); strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}

	return r.URL.Query().Get(tokenQueryParam)
}

// Authenticate verifies the token of the given request and returns the user.
func Authenticate(tokens *TokenManager, r *http.Request) (types.User, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return types.User{}, ErrMissingToken
	}

	claims, err := tokens.Verify(token)
	if err != nil {
		return types.User{}, fmt.Errorf("authenticate: %w", err)
	}

	return types.User{
		ID:                claims.UserID(),
		DisplayIdentifier: claims.DisplayIdentifier,
	}, nil
}
