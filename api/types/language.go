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

package types

import (
	"strings"
)

// Language is the language tag of a document.
type Language string

// Below are the languages supported by the editor and the execution sandbox.
const (
	JavaScript Language = "javascript"
	Python     Language = "python"
	Java       Language = "java"
	C          Language = "c"
	CPP        Language = "cpp"
	Ruby       Language = "ruby"
	Go         Language = "go"
)

// DefaultLanguage is the language of a document that was never saved.
const DefaultLanguage = JavaScript

// Languages returns the supported languages in display order.
func Languages() []Language {
	return []Language{JavaScript, Python, Java, C, CPP, Ruby, Go}
}

// ParseLanguage returns the language of the given tag. Tags are case
// insensitive and "python3" is an alias of "python".
func ParseLanguage(tag string) (Language, bool) {
	lowered := strings.ToLower(strings.TrimSpace(tag))
	if lowered == "python3" {
		return Python, true
	}

	for _, lang := range Languages() {
		if string(lang) == lowered {
			return lang, true
		}
	}

	return "", false
}

// String returns the tag of this language.
func (l Language) String() string {
	return string(l)
}
