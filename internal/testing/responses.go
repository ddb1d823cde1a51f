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

// Package testing builds PN532 response payloads for driver tests. Payloads
// are what a Transport returns: the response code (command+1) followed by data.
package testing

// Command bytes for reference
const (
	CmdGetFirmwareVersion  = 0x02
	CmdSAMConfiguration    = 0x14
	CmdRFConfiguration     = 0x32
	CmdInDataExchange      = 0x40
	CmdInListPassiveTarget = 0x4A
)

// Status codes returned in InDataExchange responses
const (
	StatusOK              = 0x00
	StatusTimeout         = 0x01
	StatusMifareAuthError = 0x14
)

// BuildFirmwareVersionResponse creates a GetFirmwareVersion response for a
// PN532 v1.6 supporting ISO14443A/B and FeliCa
func BuildFirmwareVersionResponse() []byte {
	return []byte{CmdGetFirmwareVersion + 1, 0x32, 0x01, 0x06, 0x07}
}

// BuildSAMConfigurationResponse creates a SAMConfiguration response
func BuildSAMConfigurationResponse() []byte {
	return []byte{CmdSAMConfiguration + 1}
}

// BuildRFConfigurationResponse creates an RFConfiguration response
func BuildRFConfigurationResponse() []byte {
	return []byte{CmdRFConfiguration + 1}
}

// BuildTagDetectionResponse creates an InListPassiveTarget response
func BuildTagDetectionResponse(tagType string, uid []byte) []byte {
	switch tagType {
	case "NTAG213":
		return buildDetectionResponse(uid, 0x44, 0x00)
	case "MIFARE1K":
		return buildDetectionResponse(uid, 0x04, 0x08)
	case "MIFARE4K":
		return buildDetectionResponse(uid, 0x02, 0x18)
	default:
		return buildDetectionResponse(uid, 0x04, 0x20)
	}
}

// BuildNoTagResponse creates an empty InListPassiveTarget response
func BuildNoTagResponse() []byte {
	return []byte{CmdInListPassiveTarget + 1, 0x00}
}

// BuildDataExchangeResponse creates a successful InDataExchange response
func BuildDataExchangeResponse(data []byte) []byte {
	response := []byte{CmdInDataExchange + 1, StatusOK}
	return append(response, data...)
}

// BuildDataExchangeStatusResponse creates an InDataExchange response
// carrying a failure status
func BuildDataExchangeStatusResponse(status byte) []byte {
	return []byte{CmdInDataExchange + 1, status}
}

func buildDetectionResponse(uid []byte, atqa, sak byte) []byte {
	// NbTg=1, Tg=1, SENS_RES, SEL_RES, NFCIDLength, NFCID
	response := []byte{CmdInListPassiveTarget + 1, 0x01, 0x01, 0x00, atqa, sak, byte(len(uid))}
	return append(response, uid...)
}

// Common UIDs for testing
var (
	// TestNTAG213UID is a sample NTAG213 UID
	TestNTAG213UID = []byte{0x04, 0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56}

	// TestMIFARE1KUID is a sample MIFARE Classic 1K UID
	TestMIFARE1KUID = []byte{0x12, 0x34, 0x56, 0x78}

	// TestMIFARE7ByteUID is a sample 7-byte MIFARE Classic EV1 UID
	TestMIFARE7ByteUID = []byte{0x04, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
)
