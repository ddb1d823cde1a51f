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

// Package spi provides SPI transport implementation for PN532
package spi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	pn532 "github.com/ZaparooProject/pn532-idwriter"
	"github.com/ZaparooProject/pn532-idwriter/internal/frame"
	"github.com/ZaparooProject/pn532-idwriter/internal/transport"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// SPI operation prefixes
	spiDataWrite  = 0x01
	spiStatusRead = 0x02
	spiDataRead   = 0x03

	// Status byte bit 0 is set once a frame is waiting to be read
	pn532Ready = 0x01

	// PN532 SPI clock is specified up to 5 MHz
	clockFreq = 1 * physic.MegaHertz

	// CS low time needed to wake the PN532 from power down
	wakeDelay = 2 * time.Millisecond

	// Status poll period while waiting for the ready bit
	readyPollInterval = time.Millisecond

	// Response frames are read in one transfer of this many bytes
	readLength = frame.MaxFrameLength

	maxNackRetries = 2
)

// waker is implemented by connections that can hold CS without clocking
type waker interface {
	Wake(d time.Duration) error
}

// Transport implements the pn532.Transport interface for SPI communication
type Transport struct {
	conn    conn.Conn
	closer  io.Closer
	name    string
	timeout time.Duration
}

// New creates a transport on a kernel SPI port such as /dev/spidev0.0
func New(portName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", portName, err)
	}

	c, err := port.Connect(clockFreq, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to configure SPI port %s: %w", portName, err)
	}

	return newTransport(&lsbConn{conn: c}, port, portName), nil
}

// NewBitBang creates a transport that clocks SPI in software on GPIO pins
func NewBitBang(pins Pins) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	c, err := openPins(pins)
	if err != nil {
		return nil, err
	}

	return newTransport(c, c, pins.String()), nil
}

func newTransport(c conn.Conn, closer io.Closer, name string) *Transport {
	return &Transport{
		conn:    c,
		closer:  closer,
		name:    name,
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
	if t.conn == nil {
		return nil, pn532.NewTransportError("SendCommand", t.name, pn532.ErrDeviceNotFound, pn532.ErrorTypePermanent)
	}

	if w, ok := t.conn.(waker); ok {
		if err := w.Wake(wakeDelay); err != nil {
			return nil, err
		}
	}

	if err := t.sendFrame(cmd, args); err != nil {
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
	if err := t.closer.Close(); err != nil {
		return fmt.Errorf("failed to close SPI %s: %w", t.name, err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	return t.conn != nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportSPI
}

func (t *Transport) sendFrame(cmd byte, args []byte) error {
	frm, err := frame.BuildFrame(cmd, args)
	if err != nil {
		return pn532.NewDataTooLargeError("sendFrame", t.name)
	}
	return t.write(frm)
}

func (t *Transport) write(frm []byte) error {
	w := make([]byte, 0, len(frm)+1)
	w = append(w, spiDataWrite)
	w = append(w, frm...)
	if err := t.conn.Tx(w, nil); err != nil {
		return pn532.NewTransportError("write", t.name, fmt.Errorf("%w: %w", pn532.ErrTransportWrite, err),
			pn532.ErrorTypeTransient)
	}
	return nil
}

// waitReady polls the status byte until the PN532 has a frame for us
func (t *Transport) waitReady(ctx context.Context) error {
	w := []byte{spiStatusRead, 0x00}
	r := make([]byte, len(w))

	_, err := transport.Poll(ctx, transport.PollConfig{
		Op: "waitReady", Port: t.name, Timeout: t.timeout, Interval: readyPollInterval,
	}, func() (struct{}, bool, error) {
		if err := t.conn.Tx(w, r); err != nil {
			return struct{}{}, false, pn532.NewTransportError("waitReady", t.name,
				fmt.Errorf("%w: %w", pn532.ErrTransportRead, err), pn532.ErrorTypeTransient)
		}
		return struct{}{}, r[1]&pn532Ready == 0, nil
	})
	return err
}

func (t *Transport) read(n int) ([]byte, error) {
	w := make([]byte, n+1)
	w[0] = spiDataRead
	r := make([]byte, n+1)
	if err := t.conn.Tx(w, r); err != nil {
		return nil, pn532.NewTransportError("read", t.name, fmt.Errorf("%w: %w", pn532.ErrTransportRead, err),
			pn532.ErrorTypeTransient)
	}
	return r[1:], nil
}

func (t *Transport) waitAck(ctx context.Context) error {
	if err := t.waitReady(ctx); err != nil {
		return err
	}

	ack, err := t.read(len(frame.AckFrame))
	if err != nil {
		return err
	}
	if !frame.IsAck(ack) {
		return pn532.NewNoACKError("waitAck", t.name)
	}
	return nil
}

func (t *Transport) receiveFrame(ctx context.Context) ([]byte, error) {
	return transport.WithRetry(transport.RetryConfig{
		Op:         "receiveFrame",
		Port:       t.name,
		MaxRetries: maxNackRetries,
		// NACK asks the PN532 to send the last response again
		OnRetry: func() error { return t.write(frame.NackFrame) },
	}, func() ([]byte, bool, error) {
		if err := t.waitReady(ctx); err != nil {
			return nil, false, err
		}

		buf, err := t.read(readLength)
		if err != nil {
			return nil, false, err
		}

		data, err := frame.ParseFrame(buf)
		switch {
		case err == nil:
			return data, false, nil
		case errors.Is(err, frame.ErrDataChecksum), errors.Is(err, frame.ErrLengthChecksum):
			pn532.Debugf("SPI %s: corrupted frame, sending NACK: %v", t.name, err)
			return nil, true, nil
		default:
			return nil, false, pn532.NewTransportError("receiveFrame", t.name,
				fmt.Errorf("%w: %w", pn532.ErrFrameCorrupted, err), pn532.ErrorTypeTransient)
		}
	})
}

var _ pn532.TransportContext = (*Transport)(nil)
