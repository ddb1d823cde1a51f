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

package polling

import "time"

// DefaultPollInterval is the pause between two detection attempts
const DefaultPollInterval = 100 * time.Millisecond

// Config configures tag acquisition
type Config struct {
	// OnEmptyPoll, when set, is called after every attempt that found no
	// tag, with the error that reported it.
	OnEmptyPoll func(err error)
	// PollInterval is the pause between detection attempts
	PollInterval time.Duration
}

// DefaultConfig returns the default acquisition settings
func DefaultConfig() *Config {
	return &Config{PollInterval: DefaultPollInterval}
}

func (c *Config) interval() time.Duration {
	if c == nil || c.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return c.PollInterval
}
