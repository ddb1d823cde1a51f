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
	"fmt"
	"math/bits"

	"periph.io/x/conn/v3"
)

// lsbConn adapts an MSB-first kernel SPI connection to the PN532, which
// clocks bytes least significant bit first. The BCM283x controller has no
// LSB-first mode, so bytes are mirrored on the way in and out.
type lsbConn struct {
	conn conn.Conn
}

func reverseBytes(dst, src []byte) {
	for i, b := range src {
		dst[i] = bits.Reverse8(b)
	}
}

func (c *lsbConn) String() string {
	return c.conn.String()
}

// Duplex implements conn.Conn
func (c *lsbConn) Duplex() conn.Duplex {
	return c.conn.Duplex()
}

// Tx implements conn.Conn
func (c *lsbConn) Tx(w, r []byte) error {
	mirrored := make([]byte, len(w))
	reverseBytes(mirrored, w)
	if err := c.conn.Tx(mirrored, r); err != nil {
		return fmt.Errorf("SPI transfer failed: %w", err)
	}
	reverseBytes(r, r)
	return nil
}
