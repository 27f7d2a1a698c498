// Package cliconfig handles CLI configuration for synthctl: defaults, a
// TOML config file, SYNTHCTL_* environment variables, and command-line
// flags, applied in that order of increasing precedence.
package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds CLI configuration for synthctl.
type Config struct {
	// Simulate selects the in-memory simulated controller.
	Simulate bool

	// Addr, Rack, Slot and DBNumber locate the live controller.
	Addr     string
	Rack     int
	Slot     int
	DBNumber int

	Timeout        time.Duration
	CommandTimeout time.Duration
	AbortTimeout   time.Duration

	// LimitsFile optionally overrides the shipped validation limits.
	LimitsFile string

	// WatchLimits enables hot reloading of the limits file.
	WatchLimits bool

	// JournalDir is where finished session outcomes are recorded.
	JournalDir string
}

// DefaultConfig returns a Config with default values. Simulation is the
// default so nothing moves hardware unless explicitly requested.
func DefaultConfig() Config {
	return Config{
		Simulate:       true,
		Rack:           0,
		Slot:           1,
		DBNumber:       9,
		Timeout:        3 * time.Second,
		CommandTimeout: 5 * time.Second,
		AbortTimeout:   2 * time.Second,
		JournalDir:     defaultJournalDir(),
	}
}

func defaultJournalDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".synthctl")
	}
	return ""
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !c.Simulate && c.Addr == "" {
		return fmt.Errorf("addr is required when simulation is off")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command timeout must be positive")
	}
	if c.AbortTimeout <= 0 {
		return fmt.Errorf("abort timeout must be positive")
	}
	if c.WatchLimits && c.LimitsFile == "" {
		return fmt.Errorf("watch-limits requires limits-file")
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
// Zero is treated as absent; the rack default of zero comes from DefaultConfig.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
