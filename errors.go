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
)

// Transport errors
var (
	ErrTransportTimeout    = errors.New("transport timeout")
	ErrTransportRead       = errors.New("transport read failed")
	ErrTransportWrite      = errors.New("transport write failed")
	ErrCommunicationFailed = errors.New("communication failed")
	ErrNoACK               = errors.New("no ACK received")
	ErrFrameCorrupted      = errors.New("frame corrupted")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrDeviceNotReady      = errors.New("device not ready")
	ErrDeviceNotFound      = errors.New("device not found")
)

// Command and tag errors
var (
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrDataTooLarge         = errors.New("data too large")
	ErrInvalidResponse      = errors.New("invalid response")
	ErrTagNotFound          = errors.New("tag not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// ErrorType classifies an error for callers deciding whether to try again
type ErrorType int

const (
	// ErrorTypePermanent errors will not go away by repeating the command
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors are caused by line noise or timing
	ErrorTypeTransient
	// ErrorTypeTimeout errors mean the PN532 did not answer in time
	ErrorTypeTimeout
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypePermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// TransportError carries the failing operation and port of a transport error
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

func (e *TransportError) Error() string {
	if e.Port == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError of the given type
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewTimeoutError creates a retryable timeout error
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewNoACKError creates an error for a command the PN532 never acknowledged
func NewNoACKError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrNoACK, ErrorTypeTransient)
}

// NewFrameCorruptedError creates an error for an unparseable response frame
func NewFrameCorruptedError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrFrameCorrupted, ErrorTypeTransient)
}

// NewDataTooLargeError creates an error for a command that does not fit in a frame
func NewDataTooLargeError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrDataTooLarge, ErrorTypePermanent)
}

// NewTransportNotReadyError creates an error for a PN532 that has not raised its ready flag
func NewTransportNotReadyError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrDeviceNotReady, ErrorTypeTransient)
}

// IsRetryable reports whether repeating the failed command may succeed
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	return GetErrorType(err) != ErrorTypePermanent
}

// GetErrorType classifies err
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrTransportTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrCommunicationFailed),
		errors.Is(err, ErrNoACK),
		errors.Is(err, ErrFrameCorrupted),
		errors.Is(err, ErrChecksumMismatch),
		errors.Is(err, ErrDeviceNotReady):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}

// StatusError is a non-zero status byte returned by the PN532 for a
// command exchanged with a tag.
type StatusError struct {
	Cmd    byte
	Status byte
}

// PN532 status codes (user manual table 7.1) seen with MIFARE Classic
const (
	StatusTimeout         = 0x01
	StatusCRC             = 0x02
	StatusParity          = 0x03
	StatusMifareAuthError = 0x14
)

func (e *StatusError) Error() string {
	return fmt.Sprintf("command 0x%02X failed with status 0x%02X", e.Cmd, e.Status)
}

// Is maps authentication status codes to ErrAuthenticationFailed and
// RF timeouts to ErrTagNotFound.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrAuthenticationFailed:
		return e.Status == StatusMifareAuthError
	case ErrTagNotFound:
		return e.Status == StatusTimeout
	default:
		return false
	}
}
