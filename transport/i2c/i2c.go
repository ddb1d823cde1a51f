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

// Package i2c provides I2C transport implementation for PN532
package i2c

import (
	"context"
	"errors"
	"fmt"
	"time"

	pn532 "github.com/ZaparooProject/pn532-idwriter"
	"github.com/ZaparooProject/pn532-idwriter/internal/frame"
	"github.com/ZaparooProject/pn532-idwriter/internal/transport"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// PN532 7-bit I2C address
	pn532Addr = 0x24

	// Every read starts with a status byte, bit 0 set when data follows
	pn532Ready = 0x01

	// Max clock frequency (400 kHz)
	maxClockFreq = 400 * physic.KiloHertz

	readyPollInterval = time.Millisecond
	maxNackRetries    = 2
)

// Transport implements the pn532.Transport interface for I2C communication
type Transport struct {
	dev     conn.Conn
	closer  func() error
	busName string
	timeout time.Duration
}

// New creates a new I2C transport
func New(busName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}

	if err := bus.SetSpeed(maxClockFreq); err != nil {
		pn532.Debugf("I2C %s: keeping default bus speed: %v", busName, err)
	}

	t := newTransport(&i2c.Dev{Addr: pn532Addr, Bus: bus}, busName)
	t.closer = bus.Close
	return t, nil
}

func newTransport(dev conn.Conn, busName string) *Transport {
	return &Transport{
		dev:     dev,
		busName: busName,
		timeout: time.Second,
	}
}

// SendCommand sends a command to the PN532 and waits for response
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	return t.SendCommandContext(context.Background(), cmd, args)
}

// SendCommandContext sends a command and waits for the ACK and the
// response, checking ctx while the PN532 is busy.
func (t *Transport) SendCommandContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.dev == nil {
		return nil, pn532.NewTransportError("SendCommand", t.busName, pn532.ErrDeviceNotFound, pn532.ErrorTypePermanent)
	}

	frm, err := frame.BuildFrame(cmd, args)
	if err != nil {
		return nil, pn532.NewDataTooLargeError("sendFrame", t.busName)
	}
	if err := t.write(frm); err != nil {
		return nil, err
	}

	if err := t.waitAck(ctx); err != nil {
		return nil, err
	}
	return t.receiveFrame(ctx)
}

// SetTimeout sets the read timeout for the transport
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.timeout = timeout
	return nil
}

// Close closes the transport connection
func (t *Transport) Close() error {
	if t.closer == nil {
		return nil
	}
	if err := t.closer(); err != nil {
		return fmt.Errorf("failed to close I2C bus %s: %w", t.busName, err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	return t.dev != nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportI2C
}

func (t *Transport) write(frm []byte) error {
	if err := t.dev.Tx(frm, nil); err != nil {
		return pn532.NewTransportError("write", t.busName, fmt.Errorf("%w: %w", pn532.ErrTransportWrite, err),
			pn532.ErrorTypeTransient)
	}
	return nil
}

// read polls until the status byte reports ready and returns the n bytes
// that follow it.
func (t *Transport) read(ctx context.Context, n int) ([]byte, error) {
	buf := make([]byte, n+1)
	return transport.Poll(ctx, transport.PollConfig{
		Op: "read", Port: t.busName, Timeout: t.timeout, Interval: readyPollInterval,
	}, func() ([]byte, bool, error) {
		if err := t.dev.Tx(nil, buf); err != nil {
			return nil, false, pn532.NewTransportError("read", t.busName,
				fmt.Errorf("%w: %w", pn532.ErrTransportRead, err), pn532.ErrorTypeTransient)
		}
		if buf[0]&pn532Ready == 0 {
			return nil, true, nil
		}
		return buf[1:], false, nil
	})
}

func (t *Transport) waitAck(ctx context.Context) error {
	ack, err := t.read(ctx, len(frame.AckFrame))
	if err != nil {
		return err
	}
	if !frame.IsAck(ack) {
		return pn532.NewNoACKError("waitAck", t.busName)
	}
	return nil
}

func (t *Transport) receiveFrame(ctx context.Context) ([]byte, error) {
	return transport.WithRetry(transport.RetryConfig{
		Op:         "receiveFrame",
		Port:       t.busName,
		MaxRetries: maxNackRetries,
		OnRetry:    func() error { return t.write(frame.NackFrame) },
	}, func() ([]byte, bool, error) {
		buf, err := t.read(ctx, frame.MaxFrameLength)
		if err != nil {
			return nil, false, err
		}

		data, err := frame.ParseFrame(buf)
		switch {
		case err == nil:
			return data, false, nil
		case errors.Is(err, frame.ErrDataChecksum), errors.Is(err, frame.ErrLengthChecksum):
			pn532.Debugf("I2C %s: corrupted frame, sending NACK: %v", t.busName, err)
			return nil, true, nil
		default:
			return nil, false, pn532.NewTransportError("receiveFrame", t.busName,
				fmt.Errorf("%w: %w", pn532.ErrFrameCorrupted, err), pn532.ErrorTypeTransient)
		}
	})
}

var _ pn532.TransportContext = (*Transport)(nil)
