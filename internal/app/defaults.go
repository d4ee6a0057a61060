package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults are the resolved per-user locations datimprint works from.
type Defaults struct {
	// ConfigPath is where the TOML configuration is looked up.
	ConfigPath string
	// BaseDir holds datimprint's own data, currently just logs.
	BaseDir string
	// LogDir is where run logs are appended.
	LogDir string
}

// ResolveDefaults determines the configuration and data locations.
//
// The config file is taken from DATIMPRINT_CONFIG_PATH if set. Otherwise the
// platform config directory is searched first (e.g. ~/.config/datimprint/
// config.toml on Linux, ~/Library/Application Support on macOS, %AppData% on
// Windows), then ~/.datimprint.toml. The first candidate that exists wins; if
// none exists yet, the platform location (or the dotfile when no platform
// directory is available) is the one `config init` will create.
//
// The data directory is taken from DATIMPRINT_HOME if set, then
// XDG_DATA_HOME/datimprint, then ~/.local/share/datimprint.
func ResolveDefaults() (Defaults, error) {
	configPath, err := resolveConfigPath()
	if err != nil {
		return Defaults{}, err
	}

	baseDir, err := resolveBaseDir()
	if err != nil {
		return Defaults{}, err
	}

	return Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

func resolveConfigPath() (string, error) {
	if path := os.Getenv("DATIMPRINT_CONFIG_PATH"); path != "" {
		return path, nil
	}

	var candidates []string
	if configDir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(configDir, "datimprint", "config.toml"))
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		if len(candidates) == 0 {
			return "", fmt.Errorf("cannot determine config location: %w", err)
		}
	} else {
		candidates = append(candidates, filepath.Join(homeDir, ".datimprint.toml"))
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return candidates[0], nil
}

func resolveBaseDir() (string, error) {
	if path := os.Getenv("DATIMPRINT_HOME"); path != "" {
		return path, nil
	}
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "datimprint"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "datimprint"), nil
}
