// Package app is the wiring layer between the CLI and the imprint engine. It
// resolves defaults, loads configuration, sets up logging, and builds the
// engine pieces from config plus command-line overrides.
package app

import (
	"fmt"
	"log/slog"
	"os"

	"datimprint-go/internal/config"
	"datimprint-go/internal/executor"
	"datimprint-go/internal/fs"
	"datimprint-go/internal/imprint"
)

// App carries the per-invocation state shared by the CLI commands.
// The caller must call Close when done.
type App struct {
	Config *config.Config
	RunID  string
	Logger imprint.Logger

	slogger *slog.Logger
	logFile *os.File
	ids     imprint.IDGenerator
}

// NewApp resolves defaults, reads the config file (if any), and opens the
// log. operation identifies the CLI command being run (e.g. "Generate",
// "Check") and is stamped on every log record along with the run ID.
func NewApp(operation string) (*App, error) {
	defaults, err := ResolveDefaults()
	if err != nil {
		return nil, fmt.Errorf("resolving defaults: %w", err)
	}

	cfg, err := config.ReadFromFileOrDefault(defaults.ConfigPath, defaults.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if cfg.LogDir == "" {
		cfg.LogDir = defaults.LogDir
	}

	ids := imprint.UUIDGenerator{}
	runID := ids.New()
	logger, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger = logger.With("operation", operation)

	return &App{
		Config:  cfg,
		RunID:   runID,
		Logger:  &slogAdapter{l: logger},
		slogger: logger,
		logFile: logFile,
		ids:     ids,
	}, nil
}

// IDs returns the unique ID generator used for temp output names.
func (a *App) IDs() imprint.IDGenerator {
	return a.ids
}

// NewComputePool builds the compute pool from config, with an optional
// command-line override of the executor type.
func (a *App) NewComputePool(typeOverride string, queueSize int) (executor.Pool, error) {
	name := a.Config.Executor.Type
	if typeOverride != "" {
		name = typeOverride
	}
	if name == "" {
		name = string(executor.Fixedthread)
	}
	typ, err := executor.ParseType(name)
	if err != nil {
		return nil, err
	}
	return executor.New(typ, a.Config.Executor.Workers, queueSize), nil
}

// NewExcluder merges config exclusions with command-line exclusions.
func (a *App) NewExcluder(paths, pathGlobs, filenameGlobs []string) (*fs.Excluder, error) {
	merged := a.Config.Exclude
	return fs.NewExcluder(
		append(append([]string{}, merged.Paths...), paths...),
		append(append([]string{}, merged.PathGlobs...), pathGlobs...),
		append(append([]string{}, merged.FilenameGlobs...), filenameGlobs...),
	)
}

// Close closes the log file.
func (a *App) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}
