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

/*
Package pn532 drives a PN532 NFC controller far enough to read and write
MIFARE Classic blocks.

The PN532 is a 13.56 MHz transceiver reachable over SPI, I2C or HSU (UART).
Transports live in the transport/ subpackages; this package holds the command
layer on top of them.

Basic Usage:

	import (
	    "github.com/ZaparooProject/pn532-idwriter"
	    "github.com/ZaparooProject/pn532-idwriter/transport/spi"
	)

	// Bit-banged SPI on the default Raspberry Pi pins
	transport, err := spi.NewBitBang(spi.DefaultPins())
	if err != nil {
	    log.Fatal(err)
	}

	device, err := pn532.New(transport, pn532.WithTimeout(time.Second))
	if err != nil {
	    log.Fatal(err)
	}
	defer device.Close()

	if err := device.InitContext(ctx); err != nil {
	    log.Fatal(err)
	}

	tag, err := device.DetectTagContext(ctx)
	if errors.Is(err, pn532.ErrNoTagDetected) {
	    // field is empty, poll again
	}

	err = device.AuthenticateBlockContext(ctx, tag.UID, 4, pn532.MIFAREKeyB, pn532.DefaultMIFAREKey)
	if errors.Is(err, pn532.ErrAuthenticationFailed) {
	    // wrong key
	}
	err = device.WriteBlockContext(ctx, 4, data)

Error Handling:

Transport failures are *TransportError values; IsRetryable and GetErrorType
classify them. Status bytes returned by the PN532 for tag commands are
*StatusError values that match ErrAuthenticationFailed or ErrTagNotFound with
errors.Is.

Thread Safety:

Device operations are not thread-safe. The device remembers which sector it
is authenticated to, so use it from one goroutine.
*/
package pn532
