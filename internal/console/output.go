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
	"fmt"
	"io"
	"strings"
)

// Output handles consistent formatting of operator messages
type Output struct {
	w io.Writer
}

// NewOutput creates an output handler writing to w
func NewOutput(w io.Writer) *Output {
	return &Output{w: w}
}

// Println prints a line
func (o *Output) Println(args ...any) {
	_, _ = fmt.Fprintln(o.w, args...)
}

// Printf prints without adding a newline
func (o *Output) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

// Blank prints an empty line
func (o *Output) Blank() {
	_, _ = fmt.Fprintln(o.w)
}

// Step prints a step heading such as "== STEP 1 =="
func (o *Output) Step(n int) {
	_, _ = fmt.Fprintf(o.w, "== STEP %d ==\n", n)
}

// Error prints an operator-facing error line
func (o *Output) Error(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, "Error! "+format+"\n", args...)
}

const bannerWidth = 62

// Banner prints msg between two rules
func (o *Output) Banner(msg string) {
	rule := strings.Repeat("=", bannerWidth)
	_, _ = fmt.Fprintf(o.w, "%s\n%s\n%s\n", rule, msg, rule)
}
