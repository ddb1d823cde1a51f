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
	"fmt"
	"time"
)

// TagType identifies the tag family from its SAK
type TagType string

const (
	TagTypeMIFARE  TagType = "MIFARE"
	TagTypeNTAG    TagType = "NTAG"
	TagTypeUnknown TagType = "UNKNOWN"
)

// DetectedTag is a target found by InListPassiveTarget
type DetectedTag struct {
	DetectedAt   time.Time
	Type         TagType
	UID          []byte
	ATQ          []byte
	TargetNumber byte
	SAK          byte
}

// UIDString returns the UID as lowercase hex
func (t *DetectedTag) UIDString() string {
	return hex.EncodeToString(t.UID)
}

// IsMIFARE4K reports whether the SAK identifies a 4K MIFARE Classic
func (t *DetectedTag) IsMIFARE4K() bool {
	return t.SAK == 0x18
}

// identifyTagType maps SAK to a tag family. Bit 3 set means MIFARE Classic
// (1K 0x08, 4K 0x18, Mini 0x09); SAK 0x00 is a Type 2 tag such as NTAG.
func identifyTagType(sak byte) TagType {
	switch {
	case sak&0x08 != 0:
		return TagTypeMIFARE
	case sak == 0x00:
		return TagTypeNTAG
	default:
		return TagTypeUnknown
	}
}

// DetectTag looks for a single ISO14443A tag in the field
func (d *Device) DetectTag() (*DetectedTag, error) {
	return d.DetectTagContext(context.Background())
}

// DetectTagContext looks for a single ISO14443A tag in the field. It returns
// ErrNoTagDetected when the field is empty.
func (d *Device) DetectTagContext(ctx context.Context) (*DetectedTag, error) {
	resp, err := d.sendCommand(ctx, cmdInListPassiveTarget, []byte{0x01, brTy106kbpsTypeA})
	if err != nil {
		return nil, fmt.Errorf("InListPassiveTarget failed: %w", err)
	}

	// A new target drops any previous authentication
	d.authSector = -1

	if len(resp) == 0 || resp[0] == 0 {
		return nil, ErrNoTagDetected
	}

	// NbTg, Tg, SENS_RES(2), SEL_RES, NFCIDLength, NFCID...
	if len(resp) < 6 {
		return nil, fmt.Errorf("%w: target data too short: %d bytes", ErrInvalidResponse, len(resp))
	}
	uidLen := int(resp[5])
	if len(resp) < 6+uidLen {
		return nil, fmt.Errorf("%w: UID length %d exceeds response", ErrInvalidResponse, uidLen)
	}

	tag := &DetectedTag{
		TargetNumber: resp[1],
		ATQ:          append([]byte(nil), resp[2:4]...),
		SAK:          resp[4],
		UID:          append([]byte(nil), resp[6:6+uidLen]...),
		DetectedAt:   time.Now(),
	}
	tag.Type = identifyTagType(tag.SAK)

	debugf("detected %s tag UID=%s SAK=0x%02X", tag.Type, tag.UIDString(), tag.SAK)
	return tag, nil
}
