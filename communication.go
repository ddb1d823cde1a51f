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
	"fmt"
)

// inDataExchangeTarget is the logical target number used for InDataExchange.
// InListPassiveTarget is always asked for a single target, which is 1.
const inDataExchangeTarget = 0x01

// SendDataExchange sends a data exchange command to the selected tag
func (d *Device) SendDataExchange(data []byte) ([]byte, error) {
	return d.SendDataExchangeContext(context.Background(), data)
}

// SendDataExchangeContext sends data to the selected tag with InDataExchange
// and returns the tag's answer. A non-zero PN532 status is a *StatusError.
func (d *Device) SendDataExchangeContext(ctx context.Context, data []byte) ([]byte, error) {
	args := make([]byte, 0, len(data)+1)
	args = append(args, inDataExchangeTarget)
	args = append(args, data...)

	resp, err := d.sendCommand(ctx, cmdInDataExchange, args)
	if err != nil {
		return nil, fmt.Errorf("InDataExchange failed: %w", err)
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("%w: InDataExchange returned no status", ErrInvalidResponse)
	}

	// Bits 6-7 are the MI and NAD flags
	if status := resp[0] & 0x3F; status != 0 {
		return nil, &StatusError{Cmd: cmdInDataExchange, Status: status}
	}

	return resp[1:], nil
}
