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
	"sync"
	"time"
)

// MockTransport is a command-keyed fake Transport. Queued responses for a
// command are returned first, in order; after that the fixed response or
// error set for the command is used.
type MockTransport struct {
	responses map[byte][]byte
	queued    map[byte][][]byte
	errors    map[byte]error
	calls     map[byte][][]byte
	delay     time.Duration
	timeout   time.Duration
	mu        sync.Mutex
	closed    bool
}

// NewMockTransport creates an empty mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[byte][]byte),
		queued:    make(map[byte][][]byte),
		errors:    make(map[byte]error),
		calls:     make(map[byte][][]byte),
		timeout:   time.Second,
	}
}

// SendCommand records the call and returns the configured answer
func (m *MockTransport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	m.mu.Lock()
	m.calls[cmd] = append(m.calls[cmd], append([]byte(nil), args...))
	delay := m.delay
	closed := m.closed
	m.mu.Unlock()

	if closed {
		return nil, ErrTransportRead
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if q := m.queued[cmd]; len(q) > 0 {
		m.queued[cmd] = q[1:]
		return append([]byte(nil), q[0]...), nil
	}
	if err, ok := m.errors[cmd]; ok {
		return nil, err
	}
	if resp, ok := m.responses[cmd]; ok {
		return append([]byte(nil), resp...), nil
	}
	return nil, NewTimeoutError("SendCommand", "mock")
}

// SetResponse sets the answer for every call of cmd
func (m *MockTransport) SetResponse(cmd byte, response []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmd] = response
	delete(m.errors, cmd)
}

// QueueResponse appends one-shot answers for cmd
func (m *MockTransport) QueueResponse(cmd byte, responses ...[]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued[cmd] = append(m.queued[cmd], responses...)
}

// SetError makes every call of cmd fail with err
func (m *MockTransport) SetError(cmd byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[cmd] = err
}

// SetDelay delays every SendCommand
func (m *MockTransport) SetDelay(delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = delay
}

// GetCallCount returns how many times cmd was sent
func (m *MockTransport) GetCallCount(cmd byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls[cmd])
}

// Calls returns the argument lists cmd was sent with
func (m *MockTransport) Calls(cmd byte) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.calls[cmd]...)
}

// Close marks the transport closed
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetTimeout records the timeout
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// IsConnected returns false once closed
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}
