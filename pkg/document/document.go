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

// Package document provides the document of a user, edited locally and
// synchronized with the store by last-write-wins.
//
// Local edits update the document at once and are written to the store after
// a debounce delay. A remote value of a field is applied only when it differs
// from the local value and the field was not edited locally during the guard
// window, so the echo of a write does not revert newer keystrokes. Two
// sessions of the same user typing within the same window can lose the edits
// of one side without notice.
package document

import (
	"context"
	"fmt"
	"sync"
	gotime "time"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/attachable"
	"github.com/botscode-team/botscode/pkg/debounce"
	"github.com/botscode-team/botscode/pkg/errors"
	"github.com/botscode-team/botscode/pkg/store"
)

var (
	// ErrUnsupportedLanguage is returned when the language of a document is
	// set to an unknown language.
	ErrUnsupportedLanguage = errors.InvalidArgument("unsupported language").WithCode("ErrUnsupportedLanguage")

	// ErrDocumentClosed is returned when a closed document is saved.
	ErrDocumentClosed = errors.FailedPrecond("document closed").WithCode("ErrDocumentClosed")
)

// Document is the document of one user.
type Document struct {
	store  store.Store
	userID string
	opts   Options

	lifecycle attachable.Lifecycle
	scheduler *debounce.Scheduler[Field, string]

	// ctx bounds the debounced writes. It is canceled by Close.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	text     string
	language types.Language

	// editedAt is the time of the last local edit of each field. A zero
	// time means never.
	editedAt map[Field]gotime.Time

	unsubscribes []store.Unsubscribe
}

// Open opens the document of the given user and subscribes to its fields.
// The values already in the store are applied like any remote value.
func Open(ctx context.Context, s store.Store, userID string, opts ...Option) (*Document, error) {
	options := Options{
		Debounce: DefaultDebounce,
		Guard:    DefaultGuard,
		Now:      gotime.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}

	writeCtx, cancel := context.WithCancel(context.Background())
	doc := &Document{
		store:    s,
		userID:   userID,
		opts:     options,
		ctx:      writeCtx,
		cancel:   cancel,
		language: types.DefaultLanguage,
		editedAt: make(map[Field]gotime.Time),
	}
	doc.scheduler = debounce.New[Field, string](options.Debounce, doc.flush)
	doc.lifecycle.Attach()

	for _, field := range []Field{FieldText, FieldLanguage} {
		field := field
		unsubscribe, err := s.Subscribe(ctx, doc.pathOf(field), func(snapshot store.Snapshot) {
			doc.applyRemote(field, snapshot)
		})
		if err != nil {
			doc.Close()
			return nil, fmt.Errorf("open document of %s: %w", userID, err)
		}

		doc.mu.Lock()
		doc.unsubscribes = append(doc.unsubscribes, unsubscribe)
		doc.mu.Unlock()
	}

	return doc, nil
}

// Path returns the path of the document.
func (d *Document) Path() string {
	return types.DocumentsRoot + store.Separator + d.userID
}

// Type returns the type of this resource.
func (d *Document) Type() attachable.ResourceType {
	return attachable.TypeDocument
}

// Status returns the status of this document.
func (d *Document) Status() attachable.StatusType {
	return d.lifecycle.Status()
}

// Text returns the current text.
func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

// Language returns the current language.
func (d *Document) Language() types.Language {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.language
}

// Edit replaces the text and schedules its write.
func (d *Document) Edit(text string) {
	if !d.lifecycle.IsAttached() {
		return
	}

	d.mu.Lock()
	d.editedAt[FieldText] = d.opts.Now()
	d.text = text
	d.mu.Unlock()

	d.scheduler.Schedule(FieldText, text)
}

// SetLanguage replaces the language and schedules its write.
func (d *Document) SetLanguage(tag string) error {
	lang, ok := types.ParseLanguage(tag)
	if !ok {
		return fmt.Errorf("%q: %w", tag, ErrUnsupportedLanguage)
	}
	if !d.lifecycle.IsAttached() {
		return nil
	}

	d.mu.Lock()
	d.editedAt[FieldLanguage] = d.opts.Now()
	d.language = lang
	d.mu.Unlock()

	d.scheduler.Schedule(FieldLanguage, lang.String())
	return nil
}

// Save writes the text and the language at once. Debounced writes still
// pending are not canceled.
func (d *Document) Save(ctx context.Context) error {
	if !d.lifecycle.IsAttached() {
		return ErrDocumentClosed
	}

	d.mu.Lock()
	text, lang := d.text, d.language
	d.mu.Unlock()

	if err := d.store.Write(ctx, d.pathOf(FieldText), text); err != nil {
		return fmt.Errorf("save text of %s: %w", d.userID, err)
	}
	if err := d.store.Write(ctx, d.pathOf(FieldLanguage), lang.String()); err != nil {
		return fmt.Errorf("save language of %s: %w", d.userID, err)
	}
	return nil
}

// Close stops the synchronization of the document. Pending debounced writes
// are dropped.
func (d *Document) Close() {
	if !d.lifecycle.Remove() {
		return
	}

	d.scheduler.Stop()
	d.cancel()

	d.mu.Lock()
	unsubscribes := d.unsubscribes
	d.unsubscribes = nil
	d.mu.Unlock()

	for _, unsubscribe := range unsubscribes {
		unsubscribe()
	}
}

func (d *Document) pathOf(field Field) string {
	if field == FieldLanguage {
		return types.DocumentLanguagePath(d.userID)
	}
	return types.DocumentTextPath(d.userID)
}

// flush writes a debounced value. Failures are reported and never retried;
// the local value is kept.
func (d *Document) flush(field Field, value string) {
	if err := d.store.Write(d.ctx, d.pathOf(field), value); err != nil {
		if d.ctx.Err() != nil {
			return
		}
		if d.opts.OnError != nil {
			d.opts.OnError(fmt.Errorf("save %s of %s: %w", field, d.userID, err))
		}
	}
}

// applyRemote applies the remote value of a field if it is not null, differs
// from the local value and the field was not edited during the guard window.
func (d *Document) applyRemote(field Field, snapshot store.Snapshot) {
	if !d.lifecycle.IsAttached() || !snapshot.Exists() {
		return
	}

	var value string
	if err := snapshot.Decode(&value); err != nil {
		return
	}

	d.mu.Lock()
	editedAt := d.editedAt[field]
	if !editedAt.IsZero() && d.opts.Now().Sub(editedAt) <= d.opts.Guard {
		d.mu.Unlock()
		return
	}

	switch field {
	case FieldText:
		if value == d.text {
			d.mu.Unlock()
			return
		}
		d.text = value
	case FieldLanguage:
		lang, ok := types.ParseLanguage(value)
		if !ok || lang == d.language {
			d.mu.Unlock()
			return
		}
		d.language = lang
		value = lang.String()
	}
	d.mu.Unlock()

	if d.opts.OnChange != nil {
		d.opts.OnChange(Change{Field: field, Value: value})
	}
}
