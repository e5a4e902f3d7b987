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
	"runtime"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/internal/version"
)

// VersionPath is the path of the server version.
const VersionPath = "/api/version"

// serveVersion writes the version of the server.
func serveVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, types.VersionDetail{
		BotsCodeVersion: version.Version,
		GoVersion:       runtime.Version(),
		BuildDate:       version.BuildDate,
	})
}
