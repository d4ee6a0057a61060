package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		LogDir: "/var/log/datimprint",
		Executor: ExecutorConfig{
			Type:    "forkjoinlifo",
			Workers: 8,
		},
		Exclude: ExcludeConfig{
			Paths:         []string{"/data/tmp"},
			PathGlobs:     []string{"**/node_modules/**"},
			FilenameGlobs: []string{"*.log", ".DS_Store"},
		},
	}

	var sb strings.Builder
	m := &Manager{}
	if err := m.Write(&sb, cfg); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.LogDir != cfg.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, cfg.LogDir)
	}
	if got.Executor != cfg.Executor {
		t.Errorf("Executor = %+v, want %+v", got.Executor, cfg.Executor)
	}
	if len(got.Exclude.FilenameGlobs) != 2 || got.Exclude.FilenameGlobs[0] != "*.log" {
		t.Errorf("Exclude.FilenameGlobs = %v", got.Exclude.FilenameGlobs)
	}
}

func TestReadFromFileOrDefault(t *testing.T) {
	t.Parallel()

	t.Run("returns defaults when no file exists", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		cfg, err := ReadFromFileOrDefault(filepath.Join(dir, "missing.toml"), dir)
		if err != nil {
			t.Fatalf("ReadFromFileOrDefault() error = %v", err)
		}
		if cfg.LogDir != filepath.Join(dir, "log") {
			t.Errorf("LogDir = %q, want %q", cfg.LogDir, filepath.Join(dir, "log"))
		}
		if cfg.Executor.Type != "fixedthread" {
			t.Errorf("Executor.Type = %q, want fixedthread", cfg.Executor.Type)
		}
	})

	t.Run("reads an existing file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "datimprint.toml")
		content := "log_dir = \"/tmp/log\"\n\n[executor]\ntype = \"cachedthread\"\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("writing config: %v", err)
		}
		cfg, err := ReadFromFileOrDefault(path, dir)
		if err != nil {
			t.Fatalf("ReadFromFileOrDefault() error = %v", err)
		}
		if cfg.LogDir != "/tmp/log" || cfg.Executor.Type != "cachedthread" {
			t.Errorf("cfg = %+v", cfg)
		}
	})
}

func TestInit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "datimprint.toml")
	cfg := NewConfig(dir)

	if err := Init(path, cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	// A second init must not clobber the existing file.
	if err := Init(path, cfg); err == nil {
		t.Error("Init() should fail when the config already exists")
	}
}
