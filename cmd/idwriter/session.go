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

package main

import (
	"context"
	"errors"

	pn532 "github.com/ZaparooProject/pn532-idwriter"
	"github.com/ZaparooProject/pn532-idwriter/internal/console"
	"github.com/ZaparooProject/pn532-idwriter/polling"
	"github.com/ZaparooProject/pn532-idwriter/tagops"
	"go.uber.org/zap"
)

const (
	exitSuccess = 0
	exitFailure = -1
)

const removalWarning = "WARNING: DO NOT REMOVE PHONE FROM PN532 UNTIL FINISHED WRITING!"

// tagDevice is what a session needs from the PN532
type tagDevice interface {
	polling.Detector
	tagops.Classic
}

// session runs one operator interaction against an initialized device
type session struct {
	device  tagDevice
	console *console.Console
	out     *console.Output
	logger  *zap.Logger
	poll    *polling.Config
	ops     *tagops.TagOperations
}

func newSession(device tagDevice, con *console.Console, logger *zap.Logger, settings *Settings) *session {
	s := &session{
		device:  device,
		console: con,
		out:     con.Output(),
		logger:  logger,
		ops:     tagops.New(device, tagops.WithKey(settings.Key), tagops.WithHeader(settings.Header)),
	}
	s.poll = &polling.Config{
		PollInterval: settings.PollInterval,
		OnEmptyPoll: func(err error) {
			s.logger.Debug("no tag in field", zap.Error(err))
		},
	}
	return s
}

// acquireTag runs step 1: wait for a tag and show its UID
func (s *session) acquireTag(ctx context.Context) (*pn532.DetectedTag, error) {
	s.out.Step(1)
	s.out.Println("Place the card to be written on the PN532...")

	tag, err := polling.WaitForTag(ctx, s.device, s.poll)
	if err != nil {
		return nil, err
	}

	s.out.Blank()
	s.out.Printf("Found card with UID: 0x%s\n", tag.UIDString())
	s.logger.Debug("tag detected",
		zap.String("uid", tag.UIDString()),
		zap.String("type", tagops.GetTagInfo(tag).TypeName),
		zap.Uint8("sak", tag.SAK))
	return tag, nil
}

// runWrite is the write flow: detect, ask for the identifier, confirm,
// authenticate block 4 and write it.
func (s *session) runWrite(ctx context.Context) int {
	s.out.Println("PN532 NFC Module Writer")
	s.out.Blank()

	tag, err := s.acquireTag(ctx)
	if err != nil {
		return s.fail("Failed to detect a card.", err)
	}
	s.out.Blank()
	s.out.Banner(removalWarning)
	s.out.Blank()

	s.out.Step(2)
	id, err := s.console.PromptIdentifier(ctx)
	if err != nil {
		return s.fail("No user ID entered.", err)
	}
	s.out.Printf("You chose the block type: %d\n", id)
	s.out.Blank()

	s.out.Step(3)
	ok, err := s.console.Confirm(ctx, id)
	if err != nil {
		return s.fail("No confirmation entered.", err)
	}
	if !ok {
		s.out.Println("Aborted!")
		return exitSuccess
	}

	s.out.Println("Writing to phone (DO NOT REMOVE CARD FROM PN532)...")
	if err := s.ops.WriteIdentifier(ctx, tag, id); err != nil {
		return s.failStep(err, "Failed to write to the card.")
	}

	s.logger.Info("identifier written", zap.String("uid", tag.UIDString()), zap.Uint32("id", id))
	s.out.Println("Wrote card successfully! You may now remove the phone from the PN532.")
	return exitSuccess
}

// runRead detects a tag and prints the identifier stored in block 4
func (s *session) runRead(ctx context.Context) int {
	s.out.Println("PN532 NFC Module Reader")
	s.out.Blank()

	tag, err := s.acquireTag(ctx)
	if err != nil {
		return s.fail("Failed to detect a card.", err)
	}

	rec, err := s.ops.ReadIdentifier(ctx, tag)
	if err != nil {
		return s.failStep(err, "Failed to read the card.")
	}

	info := tagops.GetTagInfo(tag)
	s.out.Printf("Card type: %s\n", info.TypeName)
	s.out.Printf("Header: %s\n", rec.Header)
	s.out.Printf("User ID: %d\n", rec.ID)
	return exitSuccess
}

// failStep reports a tag operation error, naming the step that failed
func (s *session) failStep(err error, otherwise string) int {
	var stepErr *tagops.StepError
	if errors.As(err, &stepErr) && stepErr.Step == tagops.StepAuthenticate {
		return s.fail("Failed to authenticate block 4 with the card.", err)
	}
	return s.fail(otherwise, err)
}

func (s *session) fail(msg string, err error) int {
	if errors.Is(err, context.Canceled) {
		s.out.Blank()
		s.out.Println("Interrupted.")
		s.logger.Debug("session interrupted", zap.Error(err))
		return exitFailure
	}
	s.out.Error("%s", msg)
	s.logger.Error(msg, zap.Error(err))
	return exitFailure
}
