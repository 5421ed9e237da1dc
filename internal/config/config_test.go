package config

import (
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", c.LogLevel)
	}
	if c.Output != "table" {
		t.Errorf("Output = %v, want table", c.Output)
	}
	if c.ConnectTimeoutSeconds != 15 {
		t.Errorf("ConnectTimeoutSeconds = %v, want 15", c.ConnectTimeoutSeconds)
	}
	if c.Parallel != 1 {
		t.Errorf("Parallel = %v, want 1", c.Parallel)
	}
	if c.HistoryDisabled {
		t.Error("HistoryDisabled = true, want false")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	saved := Config{
		LogLevel:              "debug",
		Output:                "json",
		ConnectTimeoutSeconds: 5,
		Parallel:              4,
		HistoryDisabled:       true,
		DefaultDatabase:       "master",
	}
	if err := Save(saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != saved {
		t.Errorf("Load() = %+v, want %+v", loaded, saved)
	}
}

func TestLoadRepairsInvalidValues(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := Save(Config{Parallel: -2, ConnectTimeoutSeconds: 0}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Parallel != 1 {
		t.Errorf("Parallel = %v, want 1", c.Parallel)
	}
	if c.ConnectTimeoutSeconds != 15 {
		t.Errorf("ConnectTimeoutSeconds = %v, want 15", c.ConnectTimeoutSeconds)
	}
	if c.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", c.LogLevel)
	}
}
