// Package status renders an in-place progress line on an interactive
// terminal: completed/total counts and a sample of in-flight work. All
// methods are safe for concurrent use; the engine's listener callbacks arrive
// from arbitrary worker goroutines.
package status

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"datimprint-go/internal/imprint"
)

// maxLabelLength bounds the sample path shown in the status line.
const maxLabelLength = 60

// Status tracks progress counts and a rotating set of in-flight work items.
// When the destination is not a terminal, the counters still run so elapsed
// time is reported, but nothing is drawn.
type Status struct {
	mu      sync.Mutex
	out     io.Writer
	enabled bool
	clock   imprint.Clock
	started time.Time
	total   int64
	count   int64
	work    map[string]struct{}
	drawn   bool
}

// New creates a Status writing to f, rendering only when f is a terminal.
func New(f *os.File, clock imprint.Clock) *Status {
	if clock == nil {
		clock = imprint.RealClock{}
	}
	return &Status{
		out:     f,
		enabled: term.IsTerminal(int(f.Fd())),
		clock:   clock,
		started: clock.Now(),
		work:    make(map[string]struct{}),
	}
}

// SetTotal updates the known total number of items.
func (s *Status) SetTotal(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = n
	s.redrawLocked()
}

// IncrementCount notes one more completed item.
func (s *Status) IncrementCount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	s.redrawLocked()
}

// AddWork marks a path as in flight.
func (s *Status) AddWork(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.work[path] = struct{}{}
	s.redrawLocked()
}

// RemoveWork marks a path as no longer in flight.
func (s *Status) RemoveWork(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.work, path)
	s.redrawLocked()
}

// PrintLine suspends the status line, prints a full line, and redraws.
func (s *Status) PrintLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	fmt.Fprintln(s.out, line)
	s.redrawLocked()
}

// WithoutStatusLine clears the status line, runs fn, and redraws. It is used
// to interleave report output on the same terminal.
func (s *Status) WithoutStatusLine(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	err := fn()
	s.redrawLocked()
	return err
}

// Elapsed returns the time since the status was created.
func (s *Status) Elapsed() time.Duration {
	return s.clock.Now().Sub(s.started)
}

// Clear removes the status line, e.g. before final output.
func (s *Status) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Status) clearLocked() {
	if !s.enabled || !s.drawn {
		return
	}
	fmt.Fprint(s.out, "\r\x1b[2K")
	s.drawn = false
}

func (s *Status) redrawLocked() {
	if !s.enabled {
		return
	}
	label := ""
	for path := range s.work {
		label = path
		break
	}
	if len(label) > maxLabelLength {
		label = "…" + label[len(label)-maxLabelLength:]
	}
	if s.total > 0 {
		fmt.Fprintf(s.out, "\r\x1b[2K%d/%d %s", s.count, s.total, label)
	} else {
		fmt.Fprintf(s.out, "\r\x1b[2K%d %s", s.count, label)
	}
	s.drawn = true
}
