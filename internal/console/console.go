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

// Package console runs the operator prompts of the writer on a terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInputClosed is returned when input ends before an answer was given
var ErrInputClosed = errors.New("input closed")

type lineResult struct {
	err  error
	line string
}

// Console reads operator answers from a line-oriented input.
// Reads happen on a helper goroutine so a cancelled context returns
// immediately; the pending read is picked up by the next call.
type Console struct {
	in      *bufio.Reader
	out     *Output
	pending chan lineResult
}

// New creates a console reading from in and prompting on out
func New(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:  bufio.NewReader(in),
		out: NewOutput(out),
	}
}

// Output returns the console's output handler
func (c *Console) Output() *Output {
	return c.out
}

// ReadLine prints prompt and returns the next input line without its line
// terminator.
func (c *Console) ReadLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.out.Printf("%s", prompt)

	if c.pending == nil {
		ch := make(chan lineResult, 1)
		go func() {
			line, err := c.in.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
		c.pending = ch
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-c.pending:
		c.pending = nil
		switch {
		case res.err == nil, errors.Is(res.err, io.EOF) && res.line != "":
			return strings.TrimRight(res.line, "\r\n"), nil
		case errors.Is(res.err, io.EOF):
			return "", ErrInputClosed
		default:
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
	}
}
