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

package pn532

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "transport timeout", err: ErrTransportTimeout, want: true},
		{name: "no ACK", err: ErrNoACK, want: true},
		{name: "frame corrupted", err: ErrFrameCorrupted, want: true},
		{name: "wrapped timeout", err: fmt.Errorf("detect: %w", ErrTransportTimeout), want: true},
		{name: "invalid parameter", err: ErrInvalidParameter, want: false},
		{name: "authentication failed", err: ErrAuthenticationFailed, want: false},
		{name: "string lookalike", err: errors.New("outer: " + ErrTransportTimeout.Error()), want: false},
		{
			name: "transport error marked permanent",
			err:  &TransportError{Op: "read", Err: ErrTransportTimeout, Type: ErrorTypePermanent},
			want: false,
		},
		{name: "timeout constructor", err: NewTimeoutError("read", "/dev/spidev0.0"), want: true},
		{name: "data too large constructor", err: NewDataTooLargeError("write", "gpio"), want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ErrorTypePermanent, GetErrorType(nil))
	assert.Equal(t, ErrorTypeTimeout, GetErrorType(ErrTransportTimeout))
	assert.Equal(t, ErrorTypeTransient, GetErrorType(ErrDeviceNotReady))
	assert.Equal(t, ErrorTypeTransient, GetErrorType(NewNoACKError("waitAck", "gpio")))
	assert.Equal(t, ErrorTypePermanent, GetErrorType(ErrTagNotFound))
	assert.Equal(t, "timeout", ErrorTypeTimeout.String())
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	withPort := NewFrameCorruptedError("receiveFrame", "/dev/i2c-1")
	assert.Equal(t, "receiveFrame on /dev/i2c-1: frame corrupted", withPort.Error())
	assert.ErrorIs(t, withPort, ErrFrameCorrupted)

	withoutPort := &TransportError{Op: "write", Err: errors.New("device busy")}
	assert.Equal(t, "write: device busy", withoutPort.Error())

	notReady := NewTransportNotReadyError("waitReady", "gpio")
	assert.ErrorIs(t, notReady, ErrDeviceNotReady)
	assert.True(t, notReady.Retryable)
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	auth := fmt.Errorf("block 4: %w", &StatusError{Cmd: cmdInDataExchange, Status: StatusMifareAuthError})
	assert.ErrorIs(t, auth, ErrAuthenticationFailed)
	assert.NotErrorIs(t, auth, ErrTagNotFound)
	assert.Contains(t, auth.Error(), "status 0x14")

	timeout := &StatusError{Cmd: cmdInDataExchange, Status: StatusTimeout}
	assert.ErrorIs(t, timeout, ErrTagNotFound)
	assert.NotErrorIs(t, timeout, ErrAuthenticationFailed)
}
