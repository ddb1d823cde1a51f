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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	pn532 "github.com/ZaparooProject/pn532-idwriter"
	"github.com/ZaparooProject/pn532-idwriter/polling"
	"github.com/ZaparooProject/pn532-idwriter/tagops"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const envPrefix = "IDWRITER_"

// Config holds the writer settings. Values are layered: defaults, then the
// YAML file, then IDWRITER_* environment variables, then flags.
type Config struct {
	// Device selects the transport. Empty means SPI bit-banged on the
	// fixed GPIO pins.
	Device string `yaml:"device" env:"DEVICE"`

	// Key is the MIFARE Key B for block 4 as 12 hex digits
	Key string `yaml:"key" env:"KEY"`

	// Header is the 2-character magic written before the identifier
	Header string `yaml:"header" env:"HEADER"`

	PollInterval time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
	Timeout      time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Debug        bool          `yaml:"debug" env:"DEBUG"`
}

// Settings are the validated, parsed form of Config
type Settings struct {
	Device       string
	Key          pn532.MIFAREKey
	Header       tagops.Header
	PollInterval time.Duration
	Timeout      time.Duration
	Debug        bool
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	return &Config{
		Key:          pn532.DefaultMIFAREKey.String(),
		Header:       tagops.DefaultHeader.String(),
		PollInterval: polling.DefaultPollInterval,
		Timeout:      time.Second,
	}
}

// LoadConfig layers the YAML file at path (if any) and the environment over
// the defaults.
func LoadConfig(path string, environ map[string]string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	opts := env.Options{Prefix: envPrefix, Environment: environ}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Settings validates the configuration
func (c *Config) Settings() (*Settings, error) {
	key, err := pn532.ParseMIFAREKey(c.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}

	header, err := tagops.ParseHeader(c.Header)
	if err != nil {
		return nil, fmt.Errorf("invalid header: %w", err)
	}

	if c.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	return &Settings{
		Device:       c.Device,
		Key:          key,
		Header:       header,
		PollInterval: c.PollInterval,
		Timeout:      c.Timeout,
		Debug:        c.Debug,
	}, nil
}
