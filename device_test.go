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
	"testing"
	"time"

	testutil "github.com/ZaparooProject/pn532-idwriter/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupInitMock(mock *MockTransport) {
	mock.SetResponse(testutil.CmdGetFirmwareVersion, testutil.BuildFirmwareVersionResponse())
	mock.SetResponse(testutil.CmdSAMConfiguration, testutil.BuildSAMConfigurationResponse())
	mock.SetResponse(testutil.CmdRFConfiguration, testutil.BuildRFConfigurationResponse())
}

func TestNew(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock, WithTimeout(250*time.Millisecond), WithPassiveActivationRetries(0x05))
	require.NoError(t, err)

	assert.Equal(t, mock, device.Transport())
	assert.Equal(t, 250*time.Millisecond, device.config.Timeout)
	assert.Equal(t, byte(0x05), device.config.PassiveActivationRetries)
}

func TestDevice_InitContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		setupMock      func(*MockTransport)
		name           string
		errorSubstring string
		expectError    bool
	}{
		{
			name:      "Successful_Initialization",
			setupMock: setupInitMock,
		},
		{
			name: "Firmware_Version_Error",
			setupMock: func(mock *MockTransport) {
				setupInitMock(mock)
				mock.SetError(testutil.CmdGetFirmwareVersion, errors.New("firmware version failed"))
			},
			expectError:    true,
			errorSubstring: "firmware version failed",
		},
		{
			name: "Not_A_PN532",
			setupMock: func(mock *MockTransport) {
				setupInitMock(mock)
				mock.SetResponse(testutil.CmdGetFirmwareVersion, []byte{0x03, 0x31, 0x01, 0x06, 0x07})
			},
			expectError:    true,
			errorSubstring: "not a PN532",
		},
		{
			name: "SAM_Configuration_Error",
			setupMock: func(mock *MockTransport) {
				setupInitMock(mock)
				mock.SetError(testutil.CmdSAMConfiguration, errors.New("SAM config failed"))
			},
			expectError:    true,
			errorSubstring: "SAM config failed",
		},
		{
			name: "Wrong_Response_Code",
			setupMock: func(mock *MockTransport) {
				setupInitMock(mock)
				mock.SetResponse(testutil.CmdSAMConfiguration, []byte{0x03})
			},
			expectError:    true,
			errorSubstring: "response code",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := NewMockTransport()
			tt.setupMock(mock)

			device, err := New(mock)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			err = device.InitContext(ctx)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorSubstring)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, mock.GetCallCount(testutil.CmdGetFirmwareVersion))
			assert.Equal(t, [][]byte{{0x01, 0x14, 0x01}}, mock.Calls(testutil.CmdSAMConfiguration))
			assert.Equal(t, [][]byte{{0x05, 0xFF, 0x01, 0x10}}, mock.Calls(testutil.CmdRFConfiguration))
		})
	}
}

func TestDevice_InitContext_Cancelled(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	setupInitMock(mock)
	mock.SetDelay(200 * time.Millisecond)

	device, err := New(mock)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = device.InitContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDevice_GetFirmwareVersionContext(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetResponse(testutil.CmdGetFirmwareVersion, testutil.BuildFirmwareVersionResponse())

	device, err := New(mock)
	require.NoError(t, err)

	version, err := device.GetFirmwareVersionContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.6", version.Version)
	assert.True(t, version.SupportsISO14443A())

	mock.SetResponse(testutil.CmdGetFirmwareVersion, []byte{0x03, 0x32})
	_, err = device.GetFirmwareVersionContext(context.Background())
	require.ErrorIs(t, err, ErrInvalidResponse)
}

func TestDevice_DetectTagContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr  error
		name     string
		response []byte
		wantUID  []byte
		wantType TagType
	}{
		{
			name:     "MIFARE_1K",
			response: testutil.BuildTagDetectionResponse("MIFARE1K", testutil.TestMIFARE1KUID),
			wantUID:  testutil.TestMIFARE1KUID,
			wantType: TagTypeMIFARE,
		},
		{
			name:     "MIFARE_4K",
			response: testutil.BuildTagDetectionResponse("MIFARE4K", testutil.TestMIFARE7ByteUID),
			wantUID:  testutil.TestMIFARE7ByteUID,
			wantType: TagTypeMIFARE,
		},
		{
			name:     "NTAG",
			response: testutil.BuildTagDetectionResponse("NTAG213", testutil.TestNTAG213UID),
			wantUID:  testutil.TestNTAG213UID,
			wantType: TagTypeNTAG,
		},
		{
			name:     "No_Tag",
			response: testutil.BuildNoTagResponse(),
			wantErr:  ErrNoTagDetected,
		},
		{
			name:     "Truncated_UID",
			response: []byte{0x4B, 0x01, 0x01, 0x00, 0x04, 0x08, 0x07, 0x12},
			wantErr:  ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := NewMockTransport()
			mock.SetResponse(testutil.CmdInListPassiveTarget, tt.response)

			device, err := New(mock)
			require.NoError(t, err)

			tag, err := device.DetectTagContext(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, tag)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantUID, tag.UID)
			assert.Equal(t, tt.wantType, tag.Type)
			assert.Equal(t, [][]byte{{0x01, 0x00}}, mock.Calls(testutil.CmdInListPassiveTarget))
		})
	}
}

func TestDetectedTag_UIDString(t *testing.T) {
	t.Parallel()

	tag := &DetectedTag{UID: []byte{0xDE, 0xAD, 0xBE, 0xEF}, SAK: 0x18}
	assert.Equal(t, "deadbeef", tag.UIDString())
	assert.True(t, tag.IsMIFARE4K())
}

func TestDevice_SendDataExchangeContext(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.QueueResponse(testutil.CmdInDataExchange,
		testutil.BuildDataExchangeResponse([]byte{0xAA, 0xBB}),
		testutil.BuildDataExchangeStatusResponse(testutil.StatusTimeout),
		[]byte{0x41, 0x40 | testutil.StatusOK, 0xCC},
	)

	device, err := New(mock)
	require.NoError(t, err)

	data, err := device.SendDataExchangeContext(context.Background(), []byte{0x30, 0x04})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, data)
	assert.Equal(t, []byte{0x01, 0x30, 0x04}, mock.Calls(testutil.CmdInDataExchange)[0])

	_, err = device.SendDataExchangeContext(context.Background(), []byte{0x30, 0x04})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, byte(testutil.StatusTimeout), statusErr.Status)
	require.ErrorIs(t, err, ErrTagNotFound)

	// MI flag set with success status
	data, err = device.SendDataExchangeContext(context.Background(), []byte{0x30, 0x04})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCC}, data)
}

func TestDevice_Close(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock)
	require.NoError(t, err)

	require.NoError(t, device.Close())
	assert.False(t, mock.IsConnected())
}

func TestDevice_WithoutContext(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	setupInitMock(mock)
	mock.SetResponse(testutil.CmdInListPassiveTarget,
		testutil.BuildTagDetectionResponse("MIFARE1K", testutil.TestMIFARE1KUID))
	mock.SetResponse(testutil.CmdInDataExchange, testutil.BuildDataExchangeResponse([]byte{0x0A}))

	device, err := New(mock)
	require.NoError(t, err)

	require.NoError(t, device.Init())

	version, err := device.GetFirmwareVersion()
	require.NoError(t, err)
	assert.Equal(t, byte(0x32), version.IC)

	tag, err := device.DetectTag()
	require.NoError(t, err)
	assert.Equal(t, testutil.TestMIFARE1KUID, tag.UID)

	data, err := device.SendDataExchange([]byte{0x30, 0x04})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0A}, data)
}
