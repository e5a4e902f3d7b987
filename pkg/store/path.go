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

package store

import (
	"fmt"
	"strings"

	"github.com/botscode-team/botscode/pkg/errors"
)

// Separator separates the segments of a path.
const Separator = "/"

var (
	// ErrInvalidPath is returned when a path has an empty or forbidden segment.
	ErrInvalidPath = errors.InvalidArgument("invalid path").WithCode("ErrInvalidPath")

	// ErrRootNotAllowed is returned when an operation targets the root.
	ErrRootNotAllowed = errors.InvalidArgument("root path not allowed").WithCode("ErrRootNotAllowed")
)

// ValidatePath returns an error if the given path is not a non-root path of
// non-empty segments without any of ".#$[]".
func ValidatePath(path string) error {
	if path == "" || path == Separator {
		return fmt.Errorf("%q: %w", path, ErrRootNotAllowed)
	}

	for _, segment := range strings.Split(path, Separator) {
		if segment == "" || strings.ContainsAny(segment, ".#$[]") {
			return fmt.Errorf("%q: %w", path, ErrInvalidPath)
		}
	}

	return nil
}

// ValidateKey returns an error if the given key cannot be a path segment.
func ValidateKey(key string) error {
	if key == "" || strings.ContainsAny(key, "/.#$[]") {
		return fmt.Errorf("key %q: %w", key, ErrInvalidPath)
	}
	return nil
}

// Split returns the segments of the given path.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}

// Join joins the given segments into a path.
func Join(segments ...string) string {
	return strings.Join(segments, Separator)
}

// TopLevel returns the first segment of the given path.
func TopLevel(path string) string {
	if i := strings.Index(path, Separator); i >= 0 {
		return path[:i]
	}
	return path
}

// IsDescendant returns whether path is strictly below ancestor.
func IsDescendant(path, ancestor string) bool {
	return strings.HasPrefix(path, ancestor+Separator)
}

// IsRelated returns whether a and b are equal or one is below the other.
// A change at one of them changes the value of the other.
func IsRelated(a, b string) bool {
	return a == b || IsDescendant(a, b) || IsDescendant(b, a)
}

// Ancestors returns the proper ancestors of the given path, nearest last.
func Ancestors(path string) []string {
	segments := Split(path)
	var ancestors []string
	for i := 1; i < len(segments); i++ {
		ancestors = append(ancestors, Join(segments[:i]...))
	}
	return ancestors
}

var (
	keyEscaper = strings.NewReplacer(
		"%", "%25",
		"/", "%2F",
		".", "%2E",
		"#", "%23",
		"$", "%24",
		"[", "%5B",
		"]", "%5D",
	)
	keyUnescaper = strings.NewReplacer(
		"%2F", "/",
		"%2E", ".",
		"%23", "#",
		"%24", "$",
		"%5B", "[",
		"%5D", "]",
		"%25", "%",
	)
)

// EscapeKey returns a key that can be used as a path segment for the given
// non-empty name, e.g. "main%2Ego" for "main.go".
func EscapeKey(name string) string {
	return keyEscaper.Replace(name)
}

// UnescapeKey returns the name escaped by EscapeKey.
func UnescapeKey(key string) string {
	return keyUnescaper.Replace(key)
}
