package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// datimHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<runID>\t<message>\t<key=value ...>
//
// Every record is appended to the log file. Records at consoleLevel and above
// are mirrored to the console as well, so skipped paths and failures surface
// on stderr without drowning the terminal in the engine's per-path trace
// records. The engine logs from arbitrary worker goroutines, so writes are
// serialized under a mutex shared by all derived handlers.
type datimHandler struct {
	mu           *sync.Mutex
	file         io.Writer
	console      io.Writer
	consoleLevel slog.Level
	runID        string
	attrs        []slog.Attr
}

func (h *datimHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *datimHandler) Handle(_ context.Context, r slog.Record) error {
	var line bytes.Buffer
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")
	fmt.Fprintf(&line, "%s\t%s\t%s\t%s", ts, r.Level.String(), h.runID, r.Message)

	// Pre-set attrs, then per-record attrs.
	for _, a := range h.attrs {
		fmt.Fprintf(&line, "\t%s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&line, "\t%s=%v", a.Key, a.Value)
		return true
	})
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.file.Write(line.Bytes()); err != nil {
		return err
	}
	if h.console != nil && r.Level >= h.consoleLevel {
		if _, err := h.console.Write(line.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func (h *datimHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := *h
	derived.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &derived
}

func (h *datimHandler) WithGroup(string) slog.Handler { return h }

// newLogger creates a structured logger writing to logDir/datimprint.log and
// mirroring warnings and errors to stderr. It returns the slog.Logger, the
// open log file (for cleanup), and any error.
func newLogger(logDir string, runID string) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "datimprint.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	handler := &datimHandler{
		mu:           &sync.Mutex{},
		file:         f,
		console:      os.Stderr,
		consoleLevel: slog.LevelWarn,
		runID:        runID,
	}
	return slog.New(handler), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the imprint.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
