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

package frame

import (
	"bytes"
	"errors"
	"fmt"
)

// Frame errors
var (
	ErrNoStartCode    = errors.New("frame start code not found")
	ErrIncomplete     = errors.New("frame incomplete")
	ErrLengthChecksum = errors.New("frame length checksum mismatch")
	ErrDataChecksum   = errors.New("frame data checksum mismatch")
	ErrUnexpectedTFI  = errors.New("unexpected frame identifier")
	ErrDataTooLarge   = errors.New("frame data too large")
	ErrErrorFrame     = errors.New("PN532 application error frame")
)

// CalculateChecksum returns the 8-bit sum of data
func CalculateChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// ChecksumValid reports whether data sums to zero, which is the case for
// LEN+LCS and for TFI+PD0..PDn+DCS of an intact frame.
func ChecksumValid(data []byte) bool {
	return CalculateChecksum(data) == 0
}

// CalculateLengthChecksum returns LCS for the given LEN
func CalculateLengthChecksum(length byte) byte {
	return ^length + 1
}

// CalculateDataChecksum returns DCS for TFI followed by data
func CalculateDataChecksum(tfi byte, data []byte) byte {
	return ^(tfi + CalculateChecksum(data)) + 1
}

// BuildFrame encodes a host command as a normal information frame
func BuildFrame(cmd byte, args []byte) ([]byte, error) {
	dataLen := 2 + len(args) // TFI + cmd + args
	if dataLen > MaxFrameDataLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrDataTooLarge, dataLen)
	}

	frm := make([]byte, 0, dataLen+Overhead)
	frm = append(frm, Preamble, StartCode1, StartCode2)
	frm = append(frm, byte(dataLen), CalculateLengthChecksum(byte(dataLen)))
	frm = append(frm, HostToPn532, cmd)
	frm = append(frm, args...)

	body := frm[5:]
	frm = append(frm, CalculateDataChecksum(0, body), Postamble)
	return frm, nil
}

// IsAck reports whether buf starts with an ACK frame, ignoring leading
// preamble bytes some transports prepend.
func IsAck(buf []byte) bool {
	idx := findStart(buf)
	if idx < 0 || idx+4 > len(buf) {
		return false
	}
	return buf[idx+2] == 0x00 && buf[idx+3] == 0xFF
}

// findStart returns the offset of the 0x00 0xFF start code, or -1
func findStart(buf []byte) int {
	return bytes.Index(buf, []byte{StartCode1, StartCode2})
}

// ParseFrame decodes a PN532-to-host frame found anywhere in buf and returns
// the bytes following the TFI: the response code (command+1) and its data.
// ErrIncomplete means more bytes are needed.
func ParseFrame(buf []byte) ([]byte, error) {
	off := findStart(buf)
	if off < 0 {
		return nil, ErrNoStartCode
	}
	off += 2 // LEN

	if off+2 > len(buf) {
		return nil, ErrIncomplete
	}
	length, lcs := buf[off], buf[off+1]

	// ACK frames carry LEN=0x00 LCS=0xFF and no data.
	if length == 0x00 && lcs == 0xFF {
		return nil, fmt.Errorf("%w: got ACK", ErrUnexpectedTFI)
	}
	if !ChecksumValid([]byte{length, lcs}) {
		return nil, ErrLengthChecksum
	}
	if length == 0x01 {
		// Error frame: TFI is 0x7F and there is no command code
		return nil, ErrErrorFrame
	}

	start := off + 2
	end := start + int(length) // DCS position
	if end+1 > len(buf) {
		return nil, ErrIncomplete
	}
	if !ChecksumValid(buf[start : end+1]) {
		return nil, ErrDataChecksum
	}
	if buf[start] != Pn532ToHost {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnexpectedTFI, buf[start])
	}

	data := make([]byte, int(length)-1)
	copy(data, buf[start+1:end])
	return data, nil
}
