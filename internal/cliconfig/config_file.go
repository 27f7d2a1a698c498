package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Simulate       *bool  `toml:"simulate"`
	Addr           string `toml:"addr"`
	Rack           int    `toml:"rack"`
	Slot           int    `toml:"slot"`
	DBNumber       int    `toml:"db_number"`
	Timeout        string `toml:"timeout"`
	CommandTimeout string `toml:"command_timeout"`
	AbortTimeout   string `toml:"abort_timeout"`
	LimitsFile     string `toml:"limits_file"`
	WatchLimits    *bool  `toml:"watch_limits"`
	JournalDir     string `toml:"journal_dir"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.synthctl/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".synthctl", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setBool("sim", fc.Simulate, &cfg.Simulate)
	s.setString("addr", fc.Addr, &cfg.Addr)
	s.setInt("rack", fc.Rack, &cfg.Rack)
	s.setInt("slot", fc.Slot, &cfg.Slot)
	s.setInt("db", fc.DBNumber, &cfg.DBNumber)

	if err := s.setDuration("timeout", fc.Timeout, &cfg.Timeout); err != nil {
		return err
	}
	if err := s.setDuration("command-timeout", fc.CommandTimeout, &cfg.CommandTimeout); err != nil {
		return err
	}
	if err := s.setDuration("abort-timeout", fc.AbortTimeout, &cfg.AbortTimeout); err != nil {
		return err
	}

	s.setString("limits-file", fc.LimitsFile, &cfg.LimitsFile)
	s.setBool("watch-limits", fc.WatchLimits, &cfg.WatchLimits)
	s.setString("journal-dir", fc.JournalDir, &cfg.JournalDir)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
