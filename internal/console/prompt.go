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

package console

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/ZaparooProject/pn532-idwriter/tagops"
)

const (
	identifierPrompt   = "Enter user ID: "
	confirmationPrompt = "Confirm phone write (Y or N)? "
)

// PromptIdentifier asks until the operator enters a base-10 integer in
// [0, tagops.MaxIdentifier]. It only returns early on cancellation or when
// input ends.
func (c *Console) PromptIdentifier(ctx context.Context) (uint32, error) {
	for {
		c.out.Blank()
		line, err := c.ReadLine(ctx, identifierPrompt)
		if err != nil {
			return 0, err
		}

		id, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		switch {
		case errors.Is(err, strconv.ErrRange):
			c.out.Error("User ID must be within 0 to %d.", tagops.MaxIdentifier)
		case err != nil:
			c.out.Error("Unrecognized option.")
		case id < 0 || id > tagops.MaxIdentifier:
			c.out.Error("User ID must be within 0 to %d.", tagops.MaxIdentifier)
		default:
			c.out.Blank()
			return uint32(id), nil
		}
	}
}

// Confirm shows id and asks for a yes/no answer. Only "y" or "yes", in any
// case, is a yes.
func (c *Console) Confirm(ctx context.Context, id uint32) (bool, error) {
	c.out.Println("Confirm you are ready to write to the card:")
	c.out.Printf("User ID: %d\n", id)

	answer, err := c.ReadLine(ctx, confirmationPrompt)
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
