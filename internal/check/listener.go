package check

import "datimprint-go/internal/imprint"

// Listener receives events from the checker. Callbacks are invoked from
// arbitrary worker goroutines and implementations must be safe under
// concurrent entry; they should return quickly.
type Listener interface {
	// OnCheckPath is called when checking of a path against an imprint is
	// being scheduled.
	OnCheckPath(path string, im imprint.Imprint)
	// BeforeCheckPath is called immediately before a path check begins on a
	// worker.
	BeforeCheckPath(path string)
	// AfterCheckPath is called immediately after a path check completes,
	// even if it failed.
	AfterCheckPath(path string)
	// OnResultMismatch is called for each result that is not a match.
	OnResultMismatch(result *Result)
}

// NopListener is a Listener that ignores all events.
type NopListener struct{}

func (NopListener) OnCheckPath(string, imprint.Imprint) {}
func (NopListener) BeforeCheckPath(string)              {}
func (NopListener) AfterCheckPath(string)               {}
func (NopListener) OnResultMismatch(*Result)            {}
