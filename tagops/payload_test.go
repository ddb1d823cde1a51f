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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
		id   uint32
	}{
		{name: "zero", id: 0, want: "BG000000"},
		{name: "255", id: 255, want: "BG0000ff"},
		{name: "mixed digits", id: 0xa1b2c3, want: "BGa1b2c3"},
		{name: "decimal looking", id: 1193046, want: "BG123456"},
		{name: "max", id: MaxIdentifier, want: "BGffffff"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			block, err := EncodePayload(DefaultHeader, tt.id)
			require.NoError(t, err)

			want := make([]byte, PayloadSize)
			copy(want, tt.want)
			if diff := cmp.Diff(want, block); diff != "" {
				t.Errorf("EncodePayload(%d) mismatch (-want +got):\n%s", tt.id, diff)
			}
		})
	}
}

func TestEncodePayload_OutOfRange(t *testing.T) {
	t.Parallel()

	_, err := EncodePayload(DefaultHeader, MaxIdentifier+1)
	require.ErrorIs(t, err, ErrIdentifierRange)
}

func TestEncodePayload_CustomHeader(t *testing.T) {
	t.Parallel()

	block, err := EncodePayload(Header{'Z', 'P'}, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("ZP000001"), block[:8])
}

func TestDecodePayload(t *testing.T) {
	t.Parallel()

	for _, id := range []uint32{0, 1, 255, 4096, 1193046, MaxIdentifier} {
		block, err := EncodePayload(DefaultHeader, id)
		require.NoError(t, err)

		rec, err := DecodePayload(DefaultHeader, block)
		require.NoError(t, err)
		assert.Equal(t, Record{Header: DefaultHeader, ID: id}, rec)
	}
}

func TestDecodePayload_Rejects(t *testing.T) {
	t.Parallel()

	valid := func() []byte {
		b, err := EncodePayload(DefaultHeader, 0x00abcd)
		require.NoError(t, err)
		return b
	}

	tests := []struct {
		wantErr error
		mutate  func([]byte) []byte
		name    string
	}{
		{
			name:    "short block",
			mutate:  func(b []byte) []byte { return b[:8] },
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "wrong header",
			mutate:  func(b []byte) []byte { b[0] = 'X'; return b },
			wantErr: ErrHeaderMismatch,
		},
		{
			name:    "uppercase digit",
			mutate:  func(b []byte) []byte { b[4] = 'A'; return b },
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "non hex digit",
			mutate:  func(b []byte) []byte { b[7] = 'g'; return b },
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "blank block",
			mutate:  func(b []byte) []byte { return make([]byte, PayloadSize) },
			wantErr: ErrHeaderMismatch,
		},
		{
			name:    "dirty padding",
			mutate:  func(b []byte) []byte { b[15] = 0x01; return b },
			wantErr: ErrMalformedPayload,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodePayload(DefaultHeader, tt.mutate(valid()))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseHeader(t *testing.T) {
	t.Parallel()

	h, err := ParseHeader("BG")
	require.NoError(t, err)
	assert.Equal(t, DefaultHeader, h)
	assert.Equal(t, "BG", h.String())

	for _, bad := range []string{"", "B", "BGX", "B\x00", "é"} {
		_, err := ParseHeader(bad)
		require.Error(t, err, "header %q", bad)
	}
}
