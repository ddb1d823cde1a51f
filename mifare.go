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
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// MIFARE commands
const (
	mifareCmdAuth  = 0x60 // +keyType: 0x60 Key A, 0x61 Key B
	mifareCmdRead  = 0x30
	mifareCmdWrite = 0xA0
)

// MIFARE memory structure
const (
	MIFAREBlockSize         = 16
	mifareKeySize           = 6
	mifareManufacturerBlock = 0
	// 4K tags switch from 4-block to 16-block sectors at block 128
	mifareLargeSectorStart = 128
)

// Key types
const (
	MIFAREKeyA byte = 0x00
	MIFAREKeyB byte = 0x01
)

// MIFAREKey is a 6-byte MIFARE Classic sector key
type MIFAREKey [mifareKeySize]byte

// DefaultMIFAREKey is the transport key blank tags ship with
var DefaultMIFAREKey = MIFAREKey{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// ParseMIFAREKey parses 12 hex digits, optionally separated by colons or
// spaces, into a key.
func ParseMIFAREKey(s string) (MIFAREKey, error) {
	var key MIFAREKey

	clean := strings.NewReplacer(":", "", " ", "", "-", "").Replace(strings.TrimSpace(s))
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return key, fmt.Errorf("%w: key is not hex: %w", ErrInvalidParameter, err)
	}
	if len(raw) != mifareKeySize {
		return key, fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidParameter, mifareKeySize, len(raw))
	}

	copy(key[:], raw)
	return key, nil
}

// String renders the key as uppercase hex
func (k MIFAREKey) String() string {
	return strings.ToUpper(hex.EncodeToString(k[:]))
}

// MIFARESector returns the sector holding block
func MIFARESector(block uint8) int {
	if block < mifareLargeSectorStart {
		return int(block) / 4
	}
	return 32 + (int(block)-mifareLargeSectorStart)/16
}

// IsMIFARESectorTrailer reports whether block holds keys and access bits
func IsMIFARESectorTrailer(block uint8) bool {
	if block < mifareLargeSectorStart {
		return block%4 == 3
	}
	return (block-mifareLargeSectorStart)%16 == 15
}

// AuthenticateBlock authenticates the sector holding block
func (d *Device) AuthenticateBlock(uid []byte, block uint8, keyType byte, key MIFAREKey) error {
	return d.AuthenticateBlockContext(context.Background(), uid, block, keyType, key)
}

// AuthenticateBlockContext authenticates the sector holding block with key.
// A rejected key wraps ErrAuthenticationFailed.
func (d *Device) AuthenticateBlockContext(
	ctx context.Context,
	uid []byte,
	block uint8,
	keyType byte,
	key MIFAREKey,
) error {
	if keyType != MIFAREKeyA && keyType != MIFAREKeyB {
		return fmt.Errorf("%w: invalid key type 0x%02X (must be 0x00 for Key A or 0x01 for Key B)",
			ErrInvalidParameter, keyType)
	}
	if len(uid) < 4 {
		return fmt.Errorf("%w: UID must be at least 4 bytes, got %d", ErrInvalidParameter, len(uid))
	}

	// Key first, then the last four UID bytes (UID3..UID6 for 7-byte UIDs)
	cmd := make([]byte, 0, 2+mifareKeySize+4)
	cmd = append(cmd, mifareCmdAuth+keyType, block)
	cmd = append(cmd, key[:]...)
	cmd = append(cmd, uid[len(uid)-4:]...)

	d.authSector = -1
	if _, err := d.SendDataExchangeContext(ctx, cmd); err != nil {
		if errors.Is(err, ErrAuthenticationFailed) {
			return fmt.Errorf("block %d: %w", block, err)
		}
		return fmt.Errorf("authentication of block %d failed: %w", block, err)
	}

	d.authSector = MIFARESector(block)
	debugf("authenticated sector %d (block %d)", d.authSector, block)
	return nil
}

func (d *Device) checkAuthenticated(block uint8) error {
	if sector := MIFARESector(block); d.authSector != sector {
		return fmt.Errorf("not authenticated to sector %d (block %d)", sector, block)
	}
	return nil
}

// ReadBlock reads a 16-byte block from an authenticated sector
func (d *Device) ReadBlock(block uint8) ([]byte, error) {
	return d.ReadBlockContext(context.Background(), block)
}

// ReadBlockContext reads a 16-byte block from an authenticated sector
func (d *Device) ReadBlockContext(ctx context.Context, block uint8) ([]byte, error) {
	if err := d.checkAuthenticated(block); err != nil {
		return nil, err
	}

	data, err := d.SendDataExchangeContext(ctx, []byte{mifareCmdRead, block})
	if err != nil {
		return nil, fmt.Errorf("failed to read block %d: %w", block, err)
	}
	if len(data) < MIFAREBlockSize {
		return nil, fmt.Errorf("%w: read of block %d returned %d bytes", ErrInvalidResponse, block, len(data))
	}

	return data[:MIFAREBlockSize], nil
}

// WriteBlock writes a 16-byte block to an authenticated sector
func (d *Device) WriteBlock(block uint8, data []byte) error {
	return d.WriteBlockContext(context.Background(), block, data)
}

// WriteBlockContext writes a 16-byte block to an authenticated sector.
// The manufacturer block and sector trailers are refused.
func (d *Device) WriteBlockContext(ctx context.Context, block uint8, data []byte) error {
	if len(data) != MIFAREBlockSize {
		return fmt.Errorf("%w: invalid block size: expected %d, got %d",
			ErrInvalidParameter, MIFAREBlockSize, len(data))
	}
	if block == mifareManufacturerBlock {
		return fmt.Errorf("%w: cannot write to manufacturer block", ErrInvalidParameter)
	}
	if IsMIFARESectorTrailer(block) {
		return fmt.Errorf("%w: refusing to write sector trailer block %d", ErrInvalidParameter, block)
	}
	if err := d.checkAuthenticated(block); err != nil {
		return err
	}

	cmd := make([]byte, 0, 2+MIFAREBlockSize)
	cmd = append(cmd, mifareCmdWrite, block)
	cmd = append(cmd, data...)

	if _, err := d.SendDataExchangeContext(ctx, cmd); err != nil {
		return fmt.Errorf("failed to write block %d: %w", block, err)
	}

	debugf("wrote block %d", block)
	return nil
}
