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

// Package transport holds the wait and retry loops shared by the PN532
// transports.
package transport

import (
	"context"
	"time"

	pn532 "github.com/ZaparooProject/pn532-idwriter"
)

// Attempt is one try of a transport step.
// It returns the result, whether the step should be tried again, and any
// error that must stop the loop.
type Attempt[T any] func() (T, bool, error)

// RetryConfig configures WithRetry
type RetryConfig struct {
	// OnRetry runs between attempts, e.g. to send a NACK
	OnRetry func() error
	// Op and Port label the error returned once retries run out
	Op         string
	Port       string
	MaxRetries int
}

// WithRetry runs attempt until it succeeds, fails or has been retried
// MaxRetries times.
func WithRetry[T any](cfg RetryConfig, attempt Attempt[T]) (T, error) {
	var zero T

	for n := 0; ; n++ {
		result, again, err := attempt()
		if err != nil {
			return zero, err
		}
		if !again {
			return result, nil
		}
		if n >= cfg.MaxRetries {
			break
		}
		if cfg.OnRetry != nil {
			if err := cfg.OnRetry(); err != nil {
				return zero, err
			}
		}
	}

	return zero, pn532.NewFrameCorruptedError(cfg.Op, cfg.Port)
}

// PollConfig configures Poll
type PollConfig struct {
	Op       string
	Port     string
	Timeout  time.Duration
	Interval time.Duration
}

// Poll calls attempt every Interval until it reports done or fails.
// It gives up with a timeout error after Timeout and returns ctx.Err() as
// soon as ctx is done.
func Poll[T any](ctx context.Context, cfg PollConfig, attempt Attempt[T]) (T, error) {
	var zero T
	deadline := time.Now().Add(cfg.Timeout)

	for {
		result, again, err := attempt()
		if err != nil {
			return zero, err
		}
		if !again {
			return result, nil
		}
		if time.Now().After(deadline) {
			return zero, pn532.NewTimeoutError(cfg.Op, cfg.Port)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(cfg.Interval):
		}
	}
}
