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
	"errors"
	"fmt"
	"time"
)

// ErrNoTagDetected is returned by DetectTag when the field is empty
var ErrNoTagDetected = errors.New("no tag detected")

// pn532ICVersion is the IC field of GetFirmwareVersion for a PN532
const pn532ICVersion = 0x32

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// Timeout is the default timeout for operations
	Timeout time.Duration
	// PassiveActivationRetries is MxRtyPassiveActivation for InListPassiveTarget
	PassiveActivationRetries byte
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Timeout:                  1 * time.Second,
		PassiveActivationRetries: 0x10,
	}
}

// FirmwareVersion is the decoded answer to GetFirmwareVersion
type FirmwareVersion struct {
	Version string
	IC      byte
	Ver     byte
	Rev     byte
	Support byte
}

// SupportsISO14443A reports whether the firmware can talk to type A tags
func (v *FirmwareVersion) SupportsISO14443A() bool {
	return v.Support&0x01 != 0
}

// Device represents a PN532 NFC reader device
//
// Thread Safety: Device is NOT thread-safe. It tracks which MIFARE Classic
// sector the PN532 is currently authenticated to, so all calls must come
// from a single goroutine.
type Device struct {
	transport       Transport
	config          *DeviceConfig
	firmwareVersion *FirmwareVersion
	authSector      int
}

// New creates a new PN532 device with the given transport
func New(transport Transport, opts ...Option) (*Device, error) {
	device := &Device{
		transport:  transport,
		config:     DefaultDeviceConfig(),
		authSector: -1,
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// Init initializes the PN532 device
func (d *Device) Init() error {
	return d.InitContext(context.Background())
}

// InitContext checks the PN532 answers with its firmware version, puts the
// SAM in normal mode and bounds passive activation retries.
func (d *Device) InitContext(ctx context.Context) error {
	version, err := d.GetFirmwareVersionContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get firmware version: %w", err)
	}
	debugf("PN532 firmware %s (support 0x%02X)", version.Version, version.Support)

	if err := d.SAMConfigurationContext(ctx); err != nil {
		return fmt.Errorf("failed to configure SAM: %w", err)
	}

	if err := d.setPassiveActivationRetries(ctx, d.config.PassiveActivationRetries); err != nil {
		return fmt.Errorf("failed to configure RF retries: %w", err)
	}

	return nil
}

// GetFirmwareVersion returns the PN532 firmware version
func (d *Device) GetFirmwareVersion() (*FirmwareVersion, error) {
	return d.GetFirmwareVersionContext(context.Background())
}

// GetFirmwareVersionContext returns the PN532 firmware version
func (d *Device) GetFirmwareVersionContext(ctx context.Context) (*FirmwareVersion, error) {
	resp, err := d.sendCommand(ctx, cmdGetFirmwareVersion, nil)
	if err != nil {
		return nil, err
	}
	if len(resp) < 4 {
		return nil, fmt.Errorf("%w: firmware version response too short: %d bytes", ErrInvalidResponse, len(resp))
	}
	if resp[0] != pn532ICVersion {
		return nil, fmt.Errorf("%w: unexpected IC 0x%02X, not a PN532", ErrInvalidResponse, resp[0])
	}

	version := &FirmwareVersion{
		IC:      resp[0],
		Ver:     resp[1],
		Rev:     resp[2],
		Support: resp[3],
		Version: fmt.Sprintf("%d.%d", resp[1], resp[2]),
	}
	d.firmwareVersion = version
	return version, nil
}

// SAMConfigurationContext puts the SAM in normal mode, which is required
// before the PN532 will act as a reader.
func (d *Device) SAMConfigurationContext(ctx context.Context) error {
	_, err := d.sendCommand(ctx, cmdSamConfiguration, []byte{samModeNormal, samTimeout, samUseIRQ})
	return err
}

func (d *Device) setPassiveActivationRetries(ctx context.Context, retries byte) error {
	// MxRtyATR, MxRtyPSL, MxRtyPassiveActivation
	_, err := d.sendCommand(ctx, cmdRFConfiguration, []byte{rfItemMaxRetries, 0xFF, 0x01, retries})
	return err
}

// SetTimeout sets the default timeout for operations
func (d *Device) SetTimeout(timeout time.Duration) error {
	d.config.Timeout = timeout
	if err := d.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on transport: %w", err)
	}
	return nil
}

// Close closes the device connection
func (d *Device) Close() error {
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			return fmt.Errorf("failed to close transport: %w", err)
		}
	}
	return nil
}

// sendCommand sends cmd and returns the response data after the response
// code, which must be cmd+1.
func (d *Device) sendCommand(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	resp, err := AsTransportContext(d.transport).SendCommandContext(ctx, cmd, args)
	if err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("%w: empty response to command 0x%02X", ErrInvalidResponse, cmd)
	}
	if resp[0] != cmd+1 {
		return nil, fmt.Errorf("%w: response code 0x%02X to command 0x%02X", ErrInvalidResponse, resp[0], cmd)
	}
	return resp[1:], nil
}
