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
	"context"
	"fmt"
	"time"

	"github.com/botscode-team/botscode/pkg/errors"
	"github.com/botscode-team/botscode/server/logging"
)

var (
	// ErrPollingTimeout is returned when a submission does not finish within
	// the poll budget.
	ErrPollingTimeout = errors.DeadlineExceeded("execution polling timed out").WithCode("ErrPollingTimeout")

	// ErrUnsupportedLanguage is returned for a language the sandbox does not run.
	ErrUnsupportedLanguage = errors.InvalidArgument("language not supported").WithCode("ErrUnsupportedLanguage")
)

// Sandbox submits code and reports the state of submissions.
type Sandbox interface {
	Submit(ctx context.Context, code string, languageID int) (string, error)
	Poll(ctx context.Context, token string) (*Result, error)
}

// Execution is a finished run.
type Execution struct {
	Output   string
	Status   Status
	Attempts int
}

// Runner runs code in a sandbox.
type Runner struct {
	sandbox     Sandbox
	interval    time.Duration
	maxAttempts int
}

// NewRunner creates a new Runner polling every interval up to maxAttempts
// times.
func NewRunner(sandbox Sandbox, interval time.Duration, maxAttempts int) *Runner {
	return &Runner{
		sandbox:     sandbox,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// MaxAttempts returns the poll budget of this runner.
func (r *Runner) MaxAttempts() int {
	return r.maxAttempts
}

// Run submits the code in the given language and waits for its output. It
// returns ErrPollingTimeout when the submission is still queued or processing
// after the last status check.
func (r *Runner) Run(ctx context.Context, code, language string) (*Execution, error) {
	languageID, ok := LanguageID(language)
	if !ok {
		return nil, fmt.Errorf("%s: %w", language, ErrUnsupportedLanguage)
	}

	token, err := r.sandbox.Submit(ctx, code, languageID)
	if err != nil {
		return nil, err
	}
	logging.From(ctx).Debugf("EXEC: submitted %s as %s", language, token)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		result, err := r.sandbox.Poll(ctx, token)
		if err != nil {
			return nil, err
		}
		if result.IsTerminal() {
			return &Execution{
				Output:   result.Output(),
				Status:   result.Status,
				Attempts: attempt,
			}, nil
		}
	}

	return nil, fmt.Errorf("%s after %d status checks: %w", token, r.maxAttempts, ErrPollingTimeout)
}
