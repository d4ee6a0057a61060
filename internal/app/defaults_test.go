package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveDefaults(t *testing.T) {
	t.Run("env vars override everything", func(t *testing.T) {
		t.Setenv("DATIMPRINT_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("DATIMPRINT_HOME", "/custom/datimprint")

		defaults, err := ResolveDefaults()
		if err != nil {
			t.Fatalf("ResolveDefaults() error = %v", err)
		}

		if defaults.ConfigPath != "/custom/config.toml" {
			t.Errorf("ConfigPath = %q, want %q", defaults.ConfigPath, "/custom/config.toml")
		}
		if defaults.BaseDir != "/custom/datimprint" {
			t.Errorf("BaseDir = %q, want %q", defaults.BaseDir, "/custom/datimprint")
		}
		if defaults.LogDir != filepath.Join("/custom/datimprint", "log") {
			t.Errorf("LogDir = %q, want %q", defaults.LogDir, filepath.Join("/custom/datimprint", "log"))
		}
	})

	t.Run("prefers an existing platform config file", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("DATIMPRINT_CONFIG_PATH", "")
		t.Setenv("DATIMPRINT_HOME", "")
		t.Setenv("HOME", home)
		t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
		t.Setenv("XDG_DATA_HOME", "")

		configDir, err := os.UserConfigDir()
		if err != nil {
			t.Fatalf("UserConfigDir() error = %v", err)
		}
		platform := filepath.Join(configDir, "datimprint", "config.toml")
		if err := os.MkdirAll(filepath.Dir(platform), 0755); err != nil {
			t.Fatalf("creating config dir: %v", err)
		}
		if err := os.WriteFile(platform, []byte("log_dir = \"/tmp/log\"\n"), 0644); err != nil {
			t.Fatalf("writing config: %v", err)
		}

		defaults, err := ResolveDefaults()
		if err != nil {
			t.Fatalf("ResolveDefaults() error = %v", err)
		}
		if defaults.ConfigPath != platform {
			t.Errorf("ConfigPath = %q, want %q", defaults.ConfigPath, platform)
		}
	})

	t.Run("falls back to the legacy dotfile when it exists", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("DATIMPRINT_CONFIG_PATH", "")
		t.Setenv("DATIMPRINT_HOME", "")
		t.Setenv("HOME", home)
		t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
		t.Setenv("XDG_DATA_HOME", "")

		legacy := filepath.Join(home, ".datimprint.toml")
		if err := os.WriteFile(legacy, []byte("log_dir = \"/tmp/log\"\n"), 0644); err != nil {
			t.Fatalf("writing config: %v", err)
		}

		defaults, err := ResolveDefaults()
		if err != nil {
			t.Fatalf("ResolveDefaults() error = %v", err)
		}
		if defaults.ConfigPath != legacy {
			t.Errorf("ConfigPath = %q, want %q", defaults.ConfigPath, legacy)
		}
	})

	t.Run("defaults to the platform location when nothing exists", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("DATIMPRINT_CONFIG_PATH", "")
		t.Setenv("DATIMPRINT_HOME", "")
		t.Setenv("HOME", home)
		t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
		t.Setenv("XDG_DATA_HOME", "")

		defaults, err := ResolveDefaults()
		if err != nil {
			t.Fatalf("ResolveDefaults() error = %v", err)
		}
		configDir, err := os.UserConfigDir()
		if err != nil {
			t.Fatalf("UserConfigDir() error = %v", err)
		}
		want := filepath.Join(configDir, "datimprint", "config.toml")
		if defaults.ConfigPath != want {
			t.Errorf("ConfigPath = %q, want %q", defaults.ConfigPath, want)
		}
	})

	t.Run("honors XDG_DATA_HOME for the data directory", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("DATIMPRINT_CONFIG_PATH", "")
		t.Setenv("DATIMPRINT_HOME", "")
		t.Setenv("HOME", home)
		t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
		t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))

		defaults, err := ResolveDefaults()
		if err != nil {
			t.Fatalf("ResolveDefaults() error = %v", err)
		}
		want := filepath.Join(home, "data", "datimprint")
		if defaults.BaseDir != want {
			t.Errorf("BaseDir = %q, want %q", defaults.BaseDir, want)
		}
		if defaults.LogDir != filepath.Join(want, "log") {
			t.Errorf("LogDir = %q, want %q", defaults.LogDir, filepath.Join(want, "log"))
		}
	})
}
