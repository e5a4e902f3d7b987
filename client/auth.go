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

package client

import (
	"net/http"

	"github.com/botscode-team/botscode/internal/version"
)

// Below are the headers sent when the client connects.
const (
	AuthorizationKey = "Authorization"
	UserAgentKey     = "User-Agent"

	// GoSDKType is the user agent of this client.
	GoSDKType = "botscode-go-sdk"
)

// authHeader returns the headers authenticating the connection with the
// given token.
func authHeader(token string) http.Header {
	header := http.Header{}
	if token != "" {
		header.Set(AuthorizationKey, "Bearer "+token)
	}
	header.Set(UserAgentKey, GoSDKType+"/"+version.Version)
	return header
}
