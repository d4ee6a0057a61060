// Package check replays recorded imprints against a live tree and classifies
// mismatches. Each path is checked independently on a bounded compute pool;
// per-path errors resolve that path's outcome without stopping the checker as
// a whole.
package check

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"sync/atomic"
	"time"

	"datimprint-go/internal/executor"
	"datimprint-go/internal/imprint"
)

// drainBudget bounds how long Close waits for in-flight checks.
const drainBudget = 3 * time.Minute

// checkQueueSize bounds the checker's task queue; a Submit against a full
// queue runs the check on the caller's goroutine.
const checkQueueSize = 1_000_000

// Outcome resolves a scheduled check: either a Result or the per-path error
// that prevented one.
type Outcome struct {
	Result *Result
	Err    error
}

// Config specifies a Checker. The zero value is usable: a fixed pool with
// one worker per CPU, no consumer, no listener.
type Config struct {
	// Pool runs path checks. Nil selects a fixed pool with one worker per
	// CPU and a bounded queue.
	Pool executor.Pool
	// ResultConsumer, if non-nil, observes every result. A returned error
	// latches: further results are dropped and the first error is re-raised
	// from Close.
	ResultConsumer func(*Result) error
	// Listener, if non-nil, receives check events.
	Listener Listener
	// Logger, if non-nil, receives trace logging.
	Logger imprint.Logger
}

// Checker compares live paths against supplied imprints. It holds no mutable
// cross-path state beyond the latched first consumer error.
type Checker struct {
	pool        executor.Pool
	consumer    func(*Result) error
	listener    Listener
	log         imprint.Logger
	consumerErr atomic.Pointer[error]
}

// New creates a Checker from the given config. The checker owns its pool and
// shuts it down on Close.
func New(cfg Config) *Checker {
	c := &Checker{
		pool:     cfg.Pool,
		consumer: cfg.ResultConsumer,
		listener: cfg.Listener,
		log:      cfg.Logger,
	}
	if c.pool == nil {
		c.pool = executor.New(executor.Fixedthread, 0, checkQueueSize)
	}
	if c.listener == nil {
		c.listener = NopListener{}
	}
	if c.log == nil {
		c.log = imprint.NewNopLogger()
	}
	return c
}

// CheckPathAsync schedules a check of a single live path against an imprint
// and returns a channel that resolves with the outcome.
func (c *Checker) CheckPathAsync(path string, im imprint.Imprint) <-chan Outcome {
	c.log.Debug("checking path", "path", path, "imprint", im.Path)
	c.listener.OnCheckPath(path, im)
	outcome := make(chan Outcome, 1)
	c.pool.Submit(func() {
		result, err := c.checkPath(path, im)
		if err != nil {
			outcome <- Outcome{Err: err}
			return
		}
		if !result.IsMatch() {
			c.listener.OnResultMismatch(result)
		}
		if c.consumer != nil && c.consumerErr.Load() == nil {
			if cerr := c.consumer(result); cerr != nil {
				wrapped := fmt.Errorf("%w: %v", imprint.ErrConsumerFailed, cerr)
				c.consumerErr.CompareAndSwap(nil, &wrapped)
				c.log.Error("result consumer failed", "error", cerr)
			}
		}
		outcome <- Outcome{Result: result}
	})
	return outcome
}

// CheckPath checks a single live path against an imprint, blocking for the
// outcome.
func (c *Checker) CheckPath(ctx context.Context, path string, im imprint.Imprint) (*Result, error) {
	select {
	case outcome := <-c.CheckPathAsync(path, im):
		return outcome.Result, outcome.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// checkPath runs on a pool worker: stat the path, hash file content when
// present, and build the classified result.
func (c *Checker) checkPath(path string, im imprint.Imprint) (*Result, error) {
	c.listener.BeforeCheckPath(path)
	defer c.listener.AfterCheckPath(path)

	info, err := os.Stat(path)
	if errors.Is(err, iofs.ErrNotExist) {
		return newMissingResult(path, im), nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}
	switch {
	case info.Mode().IsRegular():
		contentFingerprint, err := hashFile(path)
		if err != nil {
			return nil, err
		}
		return newFileResult(path, im, info.ModTime(), contentFingerprint), nil
	case info.IsDir():
		return newDirectoryResult(path, im, info.ModTime()), nil
	default:
		return nil, fmt.Errorf("%w: %q is neither a regular file nor a directory", imprint.ErrUnsupportedPath, path)
	}
}

// hashFile stream-hashes a live file's bytes in bounded chunks.
func hashFile(path string) (imprint.Hash, error) {
	file, err := os.Open(path)
	if err != nil {
		return imprint.Hash{}, err
	}
	defer file.Close()
	h, err := imprint.HashReader(file)
	if err != nil {
		return imprint.Hash{}, fmt.Errorf("hashing %q: %w", path, err)
	}
	return h, nil
}

// Close drains the pool and reports the first result-consumer error, if any.
func (c *Checker) Close() error {
	var firstErr error
	if err := c.pool.Shutdown(drainBudget); err != nil {
		firstErr = fmt.Errorf("shutting down check pool: %w", err)
	}
	if errp := c.consumerErr.Load(); errp != nil && firstErr == nil {
		firstErr = *errp
	}
	return firstErr
}
