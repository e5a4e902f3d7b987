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

package document

import (
	gotime "time"
)

const (
	// DefaultDebounce is the delay after the last local edit before the
	// edited field is written to the store.
	DefaultDebounce = 2000 * gotime.Millisecond

	// DefaultGuard is the window after a local edit during which remote
	// values of the edited field are discarded.
	DefaultGuard = 1500 * gotime.Millisecond
)

// Field is a synchronized field of a document.
type Field string

// Below are the fields of a document.
const (
	FieldText     Field = "text"
	FieldLanguage Field = "language"
)

// Change is a remote value applied to a document.
type Change struct {
	Field Field
	Value string
}

// Option configures a Document.
type Option func(*Options)

// Options are the options of a Document.
type Options struct {
	// Debounce is the delay of the debounced writes.
	Debounce gotime.Duration

	// Guard is the window during which remote values are discarded after a
	// local edit of the same field.
	Guard gotime.Duration

	// Now returns the current time.
	Now func() gotime.Time

	// OnChange is called with every applied remote value.
	OnChange func(Change)

	// OnError is called with every failed write of a debounced value.
	OnError func(error)
}

// WithDebounce configures the delay of the debounced writes.
func WithDebounce(d gotime.Duration) Option {
	return func(o *Options) {
		o.Debounce = d
	}
}

// WithGuard configures the window during which remote values are discarded.
func WithGuard(d gotime.Duration) Option {
	return func(o *Options) {
		o.Guard = d
	}
}

// WithClock configures the clock of the guard window.
func WithClock(now func() gotime.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}

// WithChangeHandler configures the handler of applied remote values.
func WithChangeHandler(fn func(Change)) Option {
	return func(o *Options) {
		o.OnChange = fn
	}
}

// WithErrorHandler configures the handler of failed debounced writes.
func WithErrorHandler(fn func(error)) Option {
	return func(o *Options) {
		o.OnError = fn
	}
}
