package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (SYNTHCTL_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setBoolFromString("sim", os.Getenv("SYNTHCTL_SIM"), &cfg.Simulate)
	s.setString("addr", os.Getenv("SYNTHCTL_ADDR"), &cfg.Addr)

	if err := s.setIntFromString("rack", os.Getenv("SYNTHCTL_RACK"), &cfg.Rack); err != nil {
		return err
	}
	if err := s.setIntFromString("slot", os.Getenv("SYNTHCTL_SLOT"), &cfg.Slot); err != nil {
		return err
	}
	if err := s.setIntFromString("db", os.Getenv("SYNTHCTL_DB"), &cfg.DBNumber); err != nil {
		return err
	}

	if err := s.setDuration("timeout", os.Getenv("SYNTHCTL_TIMEOUT"), &cfg.Timeout); err != nil {
		return err
	}
	if err := s.setDuration("command-timeout", os.Getenv("SYNTHCTL_COMMAND_TIMEOUT"), &cfg.CommandTimeout); err != nil {
		return err
	}
	if err := s.setDuration("abort-timeout", os.Getenv("SYNTHCTL_ABORT_TIMEOUT"), &cfg.AbortTimeout); err != nil {
		return err
	}

	s.setString("limits-file", os.Getenv("SYNTHCTL_LIMITS_FILE"), &cfg.LimitsFile)
	s.setBoolFromString("watch-limits", os.Getenv("SYNTHCTL_WATCH_LIMITS"), &cfg.WatchLimits)
	s.setString("journal-dir", os.Getenv("SYNTHCTL_JOURNAL_DIR"), &cfg.JournalDir)

	return nil
}
