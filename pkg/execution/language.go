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

package execution

import (
	"github.com/botscode-team/botscode/api/types"
)

// languageIDs maps the languages of the editor to Judge0 language ids.
var languageIDs = map[types.Language]int{
	types.JavaScript: 63,
	types.Python:     71,
	types.Java:       62,
	types.C:          50,
	types.CPP:        54,
	types.Ruby:       72,
	types.Go:         60,
}

// LanguageID returns the Judge0 id of the language with the given tag.
func LanguageID(tag string) (int, bool) {
	lang, ok := types.ParseLanguage(tag)
	if !ok {
		return 0, false
	}

	id, ok := languageIDs[lang]
	return id, ok
}
