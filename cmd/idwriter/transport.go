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

package main

import (
	"context"
	"fmt"
	"strings"

	pn532 "github.com/ZaparooProject/pn532-idwriter"
	"github.com/ZaparooProject/pn532-idwriter/transport/i2c"
	"github.com/ZaparooProject/pn532-idwriter/transport/spi"
	"github.com/ZaparooProject/pn532-idwriter/transport/uart"
)

type transportKind string

const (
	kindGPIO transportKind = "gpio"
	kindSPI  transportKind = "spi"
	kindI2C  transportKind = "i2c"
	kindUART transportKind = "uart"
)

// kindOf picks the transport for a device path
func kindOf(path string) transportKind {
	pathLower := strings.ToLower(path)
	switch {
	case path == "":
		return kindGPIO
	case strings.Contains(pathLower, "i2c"):
		return kindI2C
	case strings.Contains(pathLower, "spi"):
		return kindSPI
	default:
		return kindUART
	}
}

// newTransport creates a new transport from a device path.
func newTransport(path string) (pn532.Transport, error) {
	switch kindOf(path) {
	case kindGPIO:
		transport, err := spi.NewBitBang(spi.DefaultPins())
		if err != nil {
			return nil, fmt.Errorf("failed to create GPIO SPI transport: %w", err)
		}
		return transport, nil
	case kindI2C:
		transport, err := i2c.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create I2C transport: %w", err)
		}
		return transport, nil
	case kindSPI:
		transport, err := spi.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SPI transport: %w", err)
		}
		return transport, nil
	default:
		transport, err := uart.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create UART transport: %w", err)
		}
		return transport, nil
	}
}

// openDevice connects to the PN532 and runs its start-up sequence. The
// caller owns the returned device and must close it.
func openDevice(ctx context.Context, settings *Settings, open func(string) (pn532.Transport, error)) (*pn532.Device, error) {
	transport, err := open(settings.Device)
	if err != nil {
		return nil, err
	}

	device, err := pn532.New(transport, pn532.WithTimeout(settings.Timeout))
	if err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	if err := device.InitContext(ctx); err != nil {
		_ = device.Close()
		return nil, fmt.Errorf("failed to initialize PN532: %w", err)
	}

	return device, nil
}
