// pn532-idwriter
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of pn532-idwriter.
//
// pn532-idwriter is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// pn532-idwriter is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with pn532-idwriter; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package polling waits for a tag to enter the PN532's field.
package polling

import (
	"context"
	"errors"
	"fmt"
	"time"

	pn532 "github.com/ZaparooProject/pn532-idwriter"
)

// Detector looks for a single tag in the field
type Detector interface {
	DetectTagContext(ctx context.Context) (*pn532.DetectedTag, error)
}

// Metrics describes the polling done by a Waiter
type Metrics struct {
	PollCycles      int64         // Detection attempts made
	EmptyPolls      int64         // Attempts that found no tag or timed out
	LastPollLatency time.Duration // Duration of the last attempt
}

// Waiter polls a Detector until a tag shows up
type Waiter struct {
	detector Detector
	config   *Config
	metrics  Metrics
}

// NewWaiter creates a Waiter. A nil config means DefaultConfig().
func NewWaiter(detector Detector, config *Config) *Waiter {
	if config == nil {
		config = DefaultConfig()
	}
	return &Waiter{detector: detector, config: config}
}

// WaitForTag blocks until a tag is detected, ctx is done, or detection
// fails with an error other than "no tag" or a timeout.
func WaitForTag(ctx context.Context, detector Detector, config *Config) (*pn532.DetectedTag, error) {
	return NewWaiter(detector, config).Wait(ctx)
}

// Wait polls until a tag is present. See WaitForTag.
func (w *Waiter) Wait(ctx context.Context) (*pn532.DetectedTag, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		tag, err := w.detector.DetectTagContext(ctx)
		w.metrics.PollCycles++
		w.metrics.LastPollLatency = time.Since(start)

		if err == nil {
			return tag, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !isEmptyField(err) {
			return nil, fmt.Errorf("tag detection failed: %w", err)
		}

		w.metrics.EmptyPolls++
		if w.config.OnEmptyPoll != nil {
			w.config.OnEmptyPoll(err)
		}

		timer := time.NewTimer(w.config.interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Metrics returns the counters collected so far
func (w *Waiter) Metrics() Metrics {
	return w.metrics
}

// isEmptyField reports whether err only means no tag answered in time
func isEmptyField(err error) bool {
	return errors.Is(err, pn532.ErrNoTagDetected) ||
		pn532.GetErrorType(err) == pn532.ErrorTypeTimeout
}
