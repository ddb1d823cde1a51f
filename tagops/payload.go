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

package tagops

import (
	"errors"
	"fmt"
	"strconv"

	pn532 "github.com/ZaparooProject/pn532-idwriter"
)

const (
	// BlockNumber is the MIFARE Classic block holding the identifier
	BlockNumber uint8 = 4

	// MaxIdentifier is the largest identifier that fits in six hex digits
	MaxIdentifier = 1<<24 - 1

	// PayloadSize is the size of an encoded block
	PayloadSize = pn532.MIFAREBlockSize

	headerSize = 2
	idDigits   = 6
)

// DefaultHeader is the magic written in front of every identifier
var DefaultHeader = Header{'B', 'G'}

var (
	ErrIdentifierRange  = errors.New("identifier out of range")
	ErrHeaderMismatch   = errors.New("block header does not match")
	ErrMalformedPayload = errors.New("malformed identifier block")
)

// Header is the 2-byte ASCII magic at the start of the block
type Header [headerSize]byte

// ParseHeader accepts exactly two printable ASCII characters
func ParseHeader(s string) (Header, error) {
	var h Header
	if len(s) != headerSize {
		return h, fmt.Errorf("header must be %d ASCII characters, got %q", headerSize, s)
	}
	for i := 0; i < headerSize; i++ {
		if s[i] < 0x20 || s[i] > 0x7E {
			return h, fmt.Errorf("header must be printable ASCII, got %q", s)
		}
		h[i] = s[i]
	}
	return h, nil
}

func (h Header) String() string {
	return string(h[:])
}

// Record is a decoded identifier block
type Record struct {
	Header Header
	ID     uint32
}

// EncodePayload lays out a block: header, the identifier as six lowercase
// zero-padded hex digits, then zeros.
func EncodePayload(header Header, id uint32) ([]byte, error) {
	if id > MaxIdentifier {
		return nil, fmt.Errorf("%w: %d > %d", ErrIdentifierRange, id, MaxIdentifier)
	}

	block := make([]byte, PayloadSize)
	copy(block, header[:])
	copy(block[headerSize:], fmt.Sprintf("%0*x", idDigits, id))
	return block, nil
}

// DecodePayload parses a block written by EncodePayload and checks its
// header against want.
func DecodePayload(want Header, block []byte) (Record, error) {
	var rec Record
	if len(block) != PayloadSize {
		return rec, fmt.Errorf("%w: %d bytes", ErrMalformedPayload, len(block))
	}

	copy(rec.Header[:], block[:headerSize])
	if rec.Header != want {
		return rec, fmt.Errorf("%w: got %q, want %q", ErrHeaderMismatch, rec.Header.String(), want.String())
	}

	digits := block[headerSize : headerSize+idDigits]
	for _, c := range digits {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return rec, fmt.Errorf("%w: identifier digits %q", ErrMalformedPayload, digits)
		}
	}
	for _, b := range block[headerSize+idDigits:] {
		if b != 0 {
			return rec, fmt.Errorf("%w: non-zero padding", ErrMalformedPayload)
		}
	}

	id, err := strconv.ParseUint(string(digits), 16, 32)
	if err != nil {
		return rec, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	rec.ID = uint32(id)
	return rec, nil
}
