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

// Package uart provides the HSU (high speed UART) transport for PN532
package uart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	pn532 "github.com/ZaparooProject/pn532-idwriter"
	"github.com/ZaparooProject/pn532-idwriter/internal/frame"
	"github.com/ZaparooProject/pn532-idwriter/internal/transport"
	"go.bug.st/serial"
)

const (
	baudRate = 115200

	// Read blocks at most this long so context and deadlines are checked
	readSlice = 10 * time.Millisecond

	maxNackRetries = 2
)

// wakeup brings the PN532 out of power down before the first frame.
// The 0x55 bytes toggle the line and the zeros give the oscillator time.
var wakeup = []byte{
	0x55, 0x55, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// serialPort is the part of serial.Port the transport uses
type serialPort interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
}

// Transport implements the pn532.Transport interface for UART communication
type Transport struct {
	port     serialPort
	portName string
	buf      []byte
	timeout  time.Duration
	awake    bool
}

// New opens portName at 115200 8N1
func New(portName string) (*Transport, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open UART port %s: %w", portName, err)
	}

	if err := port.SetReadTimeout(readSlice); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}

	return newTransport(port, portName), nil
}

func newTransport(port serialPort, portName string) *Transport {
	return &Transport{
		port:     port,
		portName: portName,
		timeout:  time.Second,
	}
}

// SendCommand sends a command to the PN532 and waits for response
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	return t.SendCommandContext(context.Background(), cmd, args)
}

// SendCommandContext sends a command and waits for the ACK and the
// response, checking ctx between reads.
func (t *Transport) SendCommandContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.port == nil {
		return nil, pn532.NewTransportError("SendCommand", t.portName, pn532.ErrDeviceNotFound, pn532.ErrorTypePermanent)
	}

	frm, err := frame.BuildFrame(cmd, args)
	if err != nil {
		return nil, pn532.NewDataTooLargeError("sendFrame", t.portName)
	}

	if err := t.port.ResetInputBuffer(); err != nil {
		return nil, pn532.NewTransportError("SendCommand", t.portName, err, pn532.ErrorTypeTransient)
	}
	t.buf = t.buf[:0]

	if !t.awake {
		frm = append(append([]byte(nil), wakeup...), frm...)
	}
	if err := t.write(frm); err != nil {
		return nil, err
	}
	t.awake = true

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
	if t.port == nil {
		return nil
	}
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close UART port %s: %w", t.portName, err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportUART
}

func (t *Transport) write(data []byte) error {
	if _, err := t.port.Write(data); err != nil {
		t.awake = false
		return pn532.NewTransportError("write", t.portName, fmt.Errorf("%w: %w", pn532.ErrTransportWrite, err),
			pn532.ErrorTypeTransient)
	}
	return nil
}

// fill appends whatever the port has within one read slice
func (t *Transport) fill() error {
	chunk := make([]byte, 64)
	n, err := t.port.Read(chunk)
	if err != nil {
		return pn532.NewTransportError("read", t.portName, fmt.Errorf("%w: %w", pn532.ErrTransportRead, err),
			pn532.ErrorTypeTransient)
	}
	t.buf = append(t.buf, chunk[:n]...)
	return nil
}

func (t *Transport) poll(op string) transport.PollConfig {
	return transport.PollConfig{Op: op, Port: t.portName, Timeout: t.timeout}
}

// waitAck consumes bytes up to and including the ACK frame. Anything
// received after it belongs to the response.
func (t *Transport) waitAck(ctx context.Context) error {
	_, err := transport.Poll(ctx, t.poll("waitAck"), func() (struct{}, bool, error) {
		if err := t.fill(); err != nil {
			return struct{}{}, false, err
		}
		if i := bytes.Index(t.buf, frame.AckFrame); i >= 0 {
			t.buf = t.buf[i+len(frame.AckFrame):]
			return struct{}{}, false, nil
		}
		if bytes.Contains(t.buf, frame.NackFrame) {
			return struct{}{}, false, pn532.NewNoACKError("waitAck", t.portName)
		}
		return struct{}{}, true, nil
	})
	return err
}

func (t *Transport) receiveFrame(ctx context.Context) ([]byte, error) {
	return transport.WithRetry(transport.RetryConfig{
		Op:         "receiveFrame",
		Port:       t.portName,
		MaxRetries: maxNackRetries,
		OnRetry: func() error {
			t.buf = t.buf[:0]
			return t.write(frame.NackFrame)
		},
	}, func() ([]byte, bool, error) {
		data, err := t.readFrame(ctx)
		if errors.Is(err, frame.ErrDataChecksum) || errors.Is(err, frame.ErrLengthChecksum) {
			pn532.Debugf("UART %s: corrupted frame, sending NACK: %v", t.portName, err)
			return nil, true, nil
		}
		if err != nil {
			return nil, false, err
		}
		return data, false, nil
	})
}

// readFrame reads until a whole frame has arrived. Checksum errors are
// returned as the raw frame errors so the caller can NACK.
func (t *Transport) readFrame(ctx context.Context) ([]byte, error) {
	return transport.Poll(ctx, t.poll("receiveFrame"), func() ([]byte, bool, error) {
		if err := t.fill(); err != nil {
			return nil, false, err
		}

		data, err := frame.ParseFrame(t.buf)
		switch {
		case err == nil:
			return data, false, nil
		case errors.Is(err, frame.ErrIncomplete), errors.Is(err, frame.ErrNoStartCode):
			return nil, true, nil
		case errors.Is(err, frame.ErrDataChecksum), errors.Is(err, frame.ErrLengthChecksum):
			return nil, false, err
		default:
			return nil, false, pn532.NewTransportError("receiveFrame", t.portName,
				fmt.Errorf("%w: %w", pn532.ErrFrameCorrupted, err), pn532.ErrorTypeTransient)
		}
	})
}

var _ pn532.TransportContext = (*Transport)(nil)
