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

package tagops

import (
	pn532 "github.com/ZaparooProject/pn532-idwriter"
)

// TagInfo describes a detected tag for display
type TagInfo struct {
	TypeName    string
	UID         []byte
	Sectors     int
	TotalMemory int
}

// GetTagInfo derives the MIFARE Classic variant from the tag's SAK
func GetTagInfo(tag *pn532.DetectedTag) TagInfo {
	info := TagInfo{UID: tag.UID}

	switch {
	case tag.Type != pn532.TagTypeMIFARE:
		info.TypeName = string(tag.Type)
	case tag.SAK == 0x09:
		info.TypeName = "MIFARE Mini"
		info.Sectors = 5
		info.TotalMemory = 320
	case tag.IsMIFARE4K():
		info.TypeName = "MIFARE Classic 4K"
		info.Sectors = 40
		info.TotalMemory = 4096
	default:
		info.TypeName = "MIFARE Classic 1K"
		info.Sectors = 16
		info.TotalMemory = 1024
	}

	return info
}
