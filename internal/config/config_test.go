package config

import (
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.ConfigVersion != 1 {
		t.Errorf("ConfigVersion = %d, want 1", cfg.ConfigVersion)
	}
	if cfg.General.AutosaveDelayMs <= 0 {
		t.Errorf("AutosaveDelayMs not positive: %d", cfg.General.AutosaveDelayMs)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("logging defaults wrong: %+v", cfg.Logging)
	}
	if cfg.General.TelemetryOptIn {
		t.Errorf("telemetry must default to opt-out")
	}
}

func TestMergeIntoKeepsDefaultsForEmptyFields(t *testing.T) {
	dst := Defaults()
	src := AppConfig{
		General: GeneralConfig{Theme: "dark"},
		Logging: LoggingConfig{Level: "DEBUG"},
	}
	mergeInto(&dst, &src)
	if dst.General.Theme != "dark" {
		t.Errorf("theme = %q, want dark", dst.General.Theme)
	}
	if dst.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug (lowered)", dst.Logging.Level)
	}
	// Unset fields keep their defaults.
	if dst.Logging.Format != "console" {
		t.Errorf("format = %q, want console", dst.Logging.Format)
	}
	if dst.General.AutosaveDelayMs != Defaults().General.AutosaveDelayMs {
		t.Errorf("autosave delay overwritten by zero value")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvAutosaveDelayMs, "500")
	t.Setenv(EnvLogLevel, "ERROR")
	t.Setenv(EnvTelemetryOptIn, "yes")
	cfg := Defaults()
	applyEnvOverrides(&cfg)
	if cfg.General.AutosaveDelayMs != 500 {
		t.Errorf("autosave delay = %d, want 500", cfg.General.AutosaveDelayMs)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("level = %q, want error", cfg.Logging.Level)
	}
	if !cfg.General.TelemetryOptIn {
		t.Errorf("telemetry opt-in not applied from env")
	}
}

func TestEnvOverrideIgnoresBadNumbers(t *testing.T) {
	t.Setenv(EnvAutosaveDelayMs, "not-a-number")
	cfg := Defaults()
	applyEnvOverrides(&cfg)
	if cfg.General.AutosaveDelayMs != Defaults().General.AutosaveDelayMs {
		t.Errorf("bad number overrode default: %d", cfg.General.AutosaveDelayMs)
	}
}
