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

// Command idwriter writes a numeric user identifier into block 4 of a
// MIFARE Classic tag held on a PN532 reader.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	pn532 "github.com/ZaparooProject/pn532-idwriter"
	"github.com/ZaparooProject/pn532-idwriter/internal/console"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries the process streams and the result of the command that ran
type app struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	environ  map[string]string
	open     func(string) (pn532.Transport, error)
	flags    Config
	cfgPath  string
	exitCode int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	code := run(ctx, &app{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		environ: environ(),
		open:    newTransport,
	}, os.Args[1:])
	stop()
	os.Exit(code)
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

func run(ctx context.Context, a *app, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(a.stderr, "Error! %v\n", err)
		return exitFailure
	}
	return a.exitCode
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "idwriter",
		Short: "Write a user ID to block 4 of a MIFARE Classic tag with a PN532",
		Long: `idwriter waits for a MIFARE Classic tag on a PN532 reader, asks for a
user ID between 0 and 16777215, and writes it to block 4 after
authenticating with Key B.

Without --device the PN532 is driven over SPI bit-banged on the
Raspberry Pi GPIO pins CS=GPIO18, MOSI=GPIO23, MISO=GPIO24, SCLK=GPIO25.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSession(cmd, (*session).runWrite)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "", "YAML config file")
	flags.StringVar(&a.flags.Device, "device", "",
		"PN532 device: empty for GPIO SPI, /dev/spidev0.0, /dev/i2c-1 or a serial port")
	flags.StringVar(&a.flags.Key, "key", "", "MIFARE Key B for block 4 as 12 hex digits")
	flags.StringVar(&a.flags.Header, "header", "", "2-character magic written before the ID")
	flags.DurationVar(&a.flags.PollInterval, "poll-interval", 0, "pause between tag detection attempts")
	flags.DurationVar(&a.flags.Timeout, "timeout", 0, "PN532 command timeout")
	flags.BoolVar(&a.flags.Debug, "debug", false, "enable debug output")

	root.AddCommand(
		&cobra.Command{
			Use:   "write",
			Short: "Write a user ID to a tag (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.runSession(cmd, (*session).runWrite)
			},
		},
		&cobra.Command{
			Use:   "read",
			Short: "Read back the user ID stored on a tag",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.runSession(cmd, (*session).runRead)
			},
		},
	)

	return root
}

// settings layers explicitly set flags over the file and environment
func (a *app) settings(cmd *cobra.Command) (*Settings, error) {
	cfg, err := LoadConfig(a.cfgPath, a.environ)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Device = a.flags.Device
	}
	if flags.Changed("key") {
		cfg.Key = a.flags.Key
	}
	if flags.Changed("header") {
		cfg.Header = a.flags.Header
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval = a.flags.PollInterval
	}
	if flags.Changed("timeout") {
		cfg.Timeout = a.flags.Timeout
	}
	if flags.Changed("debug") {
		cfg.Debug = a.flags.Debug
	}

	return cfg.Settings()
}

func (a *app) runSession(cmd *cobra.Command, flow func(*session, context.Context) int) error {
	settings, err := a.settings(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(a.stderr, settings.Debug)
	defer func() { _ = logger.Sync() }()
	if settings.Debug {
		pn532.SetLogger(logger)
		defer pn532.SetLogger(nil)
	}

	ctx := cmd.Context()
	device, err := openDevice(ctx, settings, a.open)
	if err != nil {
		logger.Error("PN532 unavailable", zap.String("device", settings.Device), zap.Error(err))
		return err
	}
	defer func() {
		if err := device.Close(); err != nil {
			logger.Warn("failed to close PN532", zap.Error(err))
		}
	}()

	con := console.New(a.stdin, a.stdout)
	a.exitCode = flow(newSession(device, con, logger, settings), ctx)
	return nil
}
