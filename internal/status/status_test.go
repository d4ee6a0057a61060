package status

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeClock steps forward a fixed amount on every reading.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

// nonTerminal opens a plain file, which never reports as a terminal, so
// rendering stays disabled while the counters run.
func nonTerminal(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "stderr"))
	if err != nil {
		t.Fatalf("creating file: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestStatusCountersWithoutTerminal(t *testing.T) {
	t.Parallel()

	f := nonTerminal(t)
	s := New(f, &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})

	s.SetTotal(10)
	s.AddWork("/data/file.txt")
	s.IncrementCount()
	s.RemoveWork("/data/file.txt")
	s.PrintLine("Skipping unreadable path `/data/locked`.")
	s.Clear()

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	// Only the printed line reaches a non-terminal destination; no status
	// escapes are written.
	want := int64(len("Skipping unreadable path `/data/locked`.\n"))
	if info.Size() != want {
		t.Errorf("wrote %d bytes, want %d", info.Size(), want)
	}
}

func TestStatusElapsed(t *testing.T) {
	t.Parallel()

	s := New(nonTerminal(t), &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	if got := s.Elapsed(); got != time.Second {
		t.Errorf("Elapsed() = %v, want 1s with the stepping clock", got)
	}
}

func TestStatusConcurrentEntry(t *testing.T) {
	t.Parallel()

	s := New(nonTerminal(t), nil)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				path := filepath.Join("/data", string(rune('a'+i)))
				s.AddWork(path)
				s.IncrementCount()
				s.RemoveWork(path)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
