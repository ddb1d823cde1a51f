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
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
)

// Pins names the GPIO lines of a bit-banged SPI link, as known to gpioreg
type Pins struct {
	CS   string
	SCLK string
	MOSI string
	MISO string
}

// DefaultPins returns the Raspberry Pi wiring the writer is built for:
// CS on GPIO18 (pin 12), MOSI on GPIO23 (pin 16), MISO on GPIO24 (pin 18)
// and SCLK on GPIO25 (pin 22).
func DefaultPins() Pins {
	return Pins{
		CS:   "GPIO18",
		MOSI: "GPIO23",
		MISO: "GPIO24",
		SCLK: "GPIO25",
	}
}

func (p Pins) String() string {
	return fmt.Sprintf("gpio(cs=%s,sclk=%s,mosi=%s,miso=%s)", p.CS, p.SCLK, p.MOSI, p.MISO)
}

// bitBangConn is an SPI mode 0 master clocked in software, least
// significant bit first as the PN532 expects.
type bitBangConn struct {
	cs   gpio.PinOut
	sclk gpio.PinOut
	mosi gpio.PinOut
	miso gpio.PinIn
	name string
}

func openPins(pins Pins) (*bitBangConn, error) {
	lookup := func(name string) (gpio.PinIO, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("GPIO pin %s not found", name)
		}
		return p, nil
	}

	cs, err := lookup(pins.CS)
	if err != nil {
		return nil, err
	}
	sclk, err := lookup(pins.SCLK)
	if err != nil {
		return nil, err
	}
	mosi, err := lookup(pins.MOSI)
	if err != nil {
		return nil, err
	}
	miso, err := lookup(pins.MISO)
	if err != nil {
		return nil, err
	}

	return newBitBangConn(pins.String(), cs, sclk, mosi, miso)
}

func newBitBangConn(name string, cs, sclk, mosi gpio.PinOut, miso gpio.PinIn) (*bitBangConn, error) {
	if err := cs.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("failed to drive CS: %w", err)
	}
	if err := sclk.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to drive SCLK: %w", err)
	}
	if err := mosi.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to drive MOSI: %w", err)
	}
	if err := miso.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to set MISO as input: %w", err)
	}

	return &bitBangConn{cs: cs, sclk: sclk, mosi: mosi, miso: miso, name: name}, nil
}

func (c *bitBangConn) String() string {
	return c.name
}

// Duplex implements conn.Conn
func (*bitBangConn) Duplex() conn.Duplex {
	return conn.Full
}

// Tx exchanges w and r inside a single chip-select assertion. r may be nil.
func (c *bitBangConn) Tx(w, r []byte) error {
	return c.TxPackets([]spi.Packet{{W: w, R: r}})
}

// TxPackets keeps CS asserted across all packets
func (c *bitBangConn) TxPackets(packets []spi.Packet) (err error) {
	if err := c.cs.Out(gpio.Low); err != nil {
		return fmt.Errorf("failed to assert CS: %w", err)
	}
	defer func() {
		if csErr := c.cs.Out(gpio.High); csErr != nil && err == nil {
			err = fmt.Errorf("failed to release CS: %w", csErr)
		}
	}()

	for _, p := range packets {
		if p.R != nil && len(p.R) != len(p.W) {
			return errors.New("bit-bang SPI needs len(r) == len(w)")
		}
		for i, b := range p.W {
			in, err := c.transferByte(b)
			if err != nil {
				return err
			}
			if p.R != nil {
				p.R[i] = in
			}
		}
	}
	return nil
}

func (c *bitBangConn) transferByte(out byte) (byte, error) {
	var in byte
	for bit := 0; bit < 8; bit++ {
		if err := c.mosi.Out(gpio.Level(out&(1<<bit) != 0)); err != nil {
			return 0, fmt.Errorf("failed to drive MOSI: %w", err)
		}
		if err := c.sclk.Out(gpio.High); err != nil {
			return 0, fmt.Errorf("failed to drive SCLK: %w", err)
		}
		if c.miso.Read() == gpio.High {
			in |= 1 << bit
		}
		if err := c.sclk.Out(gpio.Low); err != nil {
			return 0, fmt.Errorf("failed to drive SCLK: %w", err)
		}
	}
	return in, nil
}

// Wake holds CS low long enough for the PN532 to leave power down
func (c *bitBangConn) Wake(d time.Duration) error {
	if err := c.cs.Out(gpio.Low); err != nil {
		return fmt.Errorf("failed to assert CS: %w", err)
	}
	time.Sleep(d)
	if err := c.cs.Out(gpio.High); err != nil {
		return fmt.Errorf("failed to release CS: %w", err)
	}
	return nil
}

// Close deselects the PN532
func (c *bitBangConn) Close() error {
	if err := c.cs.Out(gpio.High); err != nil {
		return fmt.Errorf("failed to release CS: %w", err)
	}
	return nil
}

var _ spi.Conn = (*bitBangConn)(nil)
