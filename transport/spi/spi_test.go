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

package spi

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pn532 "github.com/ZaparooProject/pn532-idwriter"
	"github.com/ZaparooProject/pn532-idwriter/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
)

// fakePN532 answers the SPI side of the PN532 protocol one logical byte at a
// time: DW frames are recorded, SR reports readiness and DR returns the ACK
// followed by the queued responses.
type fakePN532 struct {
	frames     [][]byte
	responses  [][]byte
	ackFrame   []byte
	mu         sync.Mutex
	pending    int // 0 idle, 1 ACK pending, 2 response pending
	neverReady bool
}

func newFakePN532(responses ...[]byte) *fakePN532 {
	return &fakePN532{responses: responses, ackFrame: frame.AckFrame}
}

func (*fakePN532) String() string      { return "fake" }
func (*fakePN532) Duplex() conn.Duplex { return conn.Full }

func (f *fakePN532) Tx(w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch w[0] {
	case spiDataWrite:
		f.frames = append(f.frames, append([]byte(nil), w[1:]...))
		if frame.IsAck(w[1:]) || string(w[1:]) == string(frame.NackFrame) {
			f.pending = 2
			return nil
		}
		f.pending = 1
	case spiStatusRead:
		if f.pending != 0 && !f.neverReady {
			r[1] = pn532Ready
		} else {
			r[1] = 0x00
		}
	case spiDataRead:
		switch f.pending {
		case 1:
			copy(r[1:], f.ackFrame)
			f.pending = 2
		case 2:
			if len(f.responses) == 0 {
				return errors.New("no response queued")
			}
			copy(r[1:], f.responses[0])
			f.responses = f.responses[1:]
			f.pending = 0
		}
	}
	return nil
}

func responseFrame(data ...byte) []byte {
	length := byte(len(data) + 1)
	frm := []byte{0x00, 0x00, 0xFF, length, frame.CalculateLengthChecksum(length), frame.Pn532ToHost}
	frm = append(frm, data...)
	return append(frm, frame.CalculateDataChecksum(frame.Pn532ToHost, data), 0x00)
}

func TestTransport_SendCommand(t *testing.T) {
	t.Parallel()

	fake := newFakePN532(responseFrame(0x03, 0x32, 0x01, 0x06, 0x07))
	transport := newTransport(fake, nil, "fake")

	resp, err := transport.SendCommand(0x02, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x32, 0x01, 0x06, 0x07}, resp)

	want, err := frame.BuildFrame(0x02, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{want}, fake.frames)
}

func TestTransport_NackOnCorruptedResponse(t *testing.T) {
	t.Parallel()

	corrupted := responseFrame(0x15)
	corrupted[len(corrupted)-2]++

	fake := newFakePN532(corrupted, responseFrame(0x15))
	transport := newTransport(fake, nil, "fake")

	resp, err := transport.SendCommand(0x14, []byte{0x01, 0x14, 0x01})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x15}, resp)
	require.Len(t, fake.frames, 2)
	assert.Equal(t, frame.NackFrame, fake.frames[1])
}

func TestTransport_GivesUpAfterRepeatedCorruption(t *testing.T) {
	t.Parallel()

	corrupted := responseFrame(0x15)
	corrupted[4]++ // LCS

	fake := newFakePN532(corrupted, corrupted, corrupted)
	transport := newTransport(fake, nil, "fake")

	_, err := transport.SendCommand(0x14, []byte{0x01, 0x14, 0x01})
	require.ErrorIs(t, err, pn532.ErrFrameCorrupted)
	assert.True(t, pn532.IsRetryable(err))
}

func TestTransport_NoAck(t *testing.T) {
	t.Parallel()

	fake := newFakePN532(responseFrame(0x03))
	fake.ackFrame = frame.NackFrame
	transport := newTransport(fake, nil, "fake")

	_, err := transport.SendCommand(0x02, nil)
	require.ErrorIs(t, err, pn532.ErrNoACK)
}

func TestTransport_ReadyTimeout(t *testing.T) {
	t.Parallel()

	fake := newFakePN532()
	fake.neverReady = true
	transport := newTransport(fake, nil, "fake")
	require.NoError(t, transport.SetTimeout(20*time.Millisecond))

	_, err := transport.SendCommand(0x4A, []byte{0x01, 0x00})
	require.ErrorIs(t, err, pn532.ErrTransportTimeout)
}

func TestTransport_ContextCancelledWhileWaiting(t *testing.T) {
	t.Parallel()

	fake := newFakePN532()
	fake.neverReady = true
	transport := newTransport(fake, nil, "fake")
	require.NoError(t, transport.SetTimeout(time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := transport.SendCommandContext(ctx, 0x4A, []byte{0x01, 0x00})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTransport_Properties(t *testing.T) {
	t.Parallel()

	transport := &Transport{name: "/dev/spidev0.0"}
	assert.Equal(t, pn532.TransportSPI, transport.Type())
	assert.False(t, transport.IsConnected())
	require.NoError(t, transport.Close())

	_, err := transport.SendCommand(0x02, nil)
	require.ErrorIs(t, err, pn532.ErrDeviceNotFound)
}

func TestDefaultPins(t *testing.T) {
	t.Parallel()

	pins := DefaultPins()
	assert.Equal(t, Pins{CS: "GPIO18", MOSI: "GPIO23", MISO: "GPIO24", SCLK: "GPIO25"}, pins)
	assert.Equal(t, "gpio(cs=GPIO18,sclk=GPIO25,mosi=GPIO23,miso=GPIO24)", pins.String())
}
