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

// Package tagops writes and reads the identifier block of a MIFARE Classic
// tag through a PN532.
package tagops

import (
	"context"
	"fmt"

	pn532 "github.com/ZaparooProject/pn532-idwriter"
)

// Classic is the MIFARE Classic command set of a PN532 device
type Classic interface {
	AuthenticateBlockContext(ctx context.Context, uid []byte, block uint8, keyType byte, key pn532.MIFAREKey) error
	ReadBlockContext(ctx context.Context, block uint8) ([]byte, error)
	WriteBlockContext(ctx context.Context, block uint8, data []byte) error
}

// Step names a stage of a tag operation
type Step int

const (
	StepAuthenticate Step = iota
	StepWrite
	StepRead
)

func (s Step) String() string {
	switch s {
	case StepAuthenticate:
		return "authenticate"
	case StepWrite:
		return "write"
	case StepRead:
		return "read"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// StepError reports which stage of a tag operation failed
type StepError struct {
	Err   error
	Step  Step
	Block uint8
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s block %d: %v", e.Step, e.Block, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// TagOperations runs the identifier block operations against one device
type TagOperations struct {
	device Classic
	key    pn532.MIFAREKey
	header Header
}

// Option configures TagOperations
type Option func(*TagOperations)

// WithKey sets the Key B used to authenticate the identifier block
func WithKey(key pn532.MIFAREKey) Option {
	return func(t *TagOperations) {
		t.key = key
	}
}

// WithHeader sets the magic written before the identifier
func WithHeader(header Header) Option {
	return func(t *TagOperations) {
		t.header = header
	}
}

// New creates TagOperations using the default key and header unless
// overridden.
func New(device Classic, opts ...Option) *TagOperations {
	t := &TagOperations{
		device: device,
		key:    pn532.DefaultMIFAREKey,
		header: DefaultHeader,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WriteIdentifier authenticates the identifier block with Key B and writes
// id into it. Nothing is written if authentication fails.
func (t *TagOperations) WriteIdentifier(ctx context.Context, tag *pn532.DetectedTag, id uint32) error {
	if id > MaxIdentifier {
		return fmt.Errorf("%w: %d > %d", ErrIdentifierRange, id, MaxIdentifier)
	}

	if err := t.authenticate(ctx, tag); err != nil {
		return err
	}

	payload, err := EncodePayload(t.header, id)
	if err != nil {
		return err
	}

	if err := t.device.WriteBlockContext(ctx, BlockNumber, payload); err != nil {
		return &StepError{Step: StepWrite, Block: BlockNumber, Err: err}
	}
	return nil
}

// ReadIdentifier authenticates and decodes the identifier block
func (t *TagOperations) ReadIdentifier(ctx context.Context, tag *pn532.DetectedTag) (Record, error) {
	if err := t.authenticate(ctx, tag); err != nil {
		return Record{}, err
	}

	block, err := t.device.ReadBlockContext(ctx, BlockNumber)
	if err != nil {
		return Record{}, &StepError{Step: StepRead, Block: BlockNumber, Err: err}
	}

	rec, err := DecodePayload(t.header, block)
	if err != nil {
		return rec, &StepError{Step: StepRead, Block: BlockNumber, Err: err}
	}
	return rec, nil
}

func (t *TagOperations) authenticate(ctx context.Context, tag *pn532.DetectedTag) error {
	if tag == nil {
		return &StepError{Step: StepAuthenticate, Block: BlockNumber, Err: pn532.ErrTagNotFound}
	}
	err := t.device.AuthenticateBlockContext(ctx, tag.UID, BlockNumber, pn532.MIFAREKeyB, t.key)
	if err != nil {
		return &StepError{Step: StepAuthenticate, Block: BlockNumber, Err: err}
	}
	return nil
}
