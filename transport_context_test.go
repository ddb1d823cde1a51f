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
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hangingTransport simulates a transport that blocks in SendCommand
type hangingTransport struct {
	hangDuration time.Duration
	callCount    int32
}

func (m *hangingTransport) SendCommand(_ byte, _ []byte) ([]byte, error) {
	atomic.AddInt32(&m.callCount, 1)
	time.Sleep(m.hangDuration)
	return []byte{0x03, 0x32, 0x01, 0x06, 0x07}, nil
}

func (*hangingTransport) Close() error                     { return nil }
func (*hangingTransport) SetTimeout(_ time.Duration) error { return nil }
func (*hangingTransport) IsConnected() bool                { return true }
func (*hangingTransport) Type() TransportType              { return TransportMock }

// nativeContextTransport implements TransportContext itself
type nativeContextTransport struct {
	hangingTransport
}

func (*nativeContextTransport) SendCommandContext(_ context.Context, _ byte, _ []byte) ([]byte, error) {
	return nil, errors.New("native")
}

func TestAsTransportContext_Cancellation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		hangDuration time.Duration
		ctxTimeout   time.Duration
		expectErr    bool
	}{
		{name: "quick cancellation", hangDuration: time.Second, ctxTimeout: 10 * time.Millisecond, expectErr: true},
		{name: "completes in time", hangDuration: 10 * time.Millisecond, ctxTimeout: time.Second},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport := &hangingTransport{hangDuration: tt.hangDuration}
			tc := AsTransportContext(transport)

			ctx, cancel := context.WithTimeout(context.Background(), tt.ctxTimeout)
			defer cancel()

			start := time.Now()
			resp, err := tc.SendCommandContext(ctx, 0x02, nil)
			elapsed := time.Since(start)

			if tt.expectErr {
				require.ErrorIs(t, err, context.DeadlineExceeded)
				assert.Less(t, elapsed, tt.hangDuration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, byte(0x03), resp[0])
		})
	}
}

func TestAsTransportContext_AlreadyCancelled(t *testing.T) {
	t.Parallel()

	transport := &hangingTransport{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AsTransportContext(transport).SendCommandContext(ctx, 0x02, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&transport.callCount))
}

func TestAsTransportContext_PrefersNative(t *testing.T) {
	t.Parallel()

	native := &nativeContextTransport{}
	tc := AsTransportContext(native)
	assert.Same(t, native, tc)

	_, err := tc.SendCommandContext(context.Background(), 0x02, nil)
	require.EqualError(t, err, "native")
}
