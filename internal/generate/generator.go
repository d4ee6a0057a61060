// Package generate walks filesystem trees in parallel and emits one imprint
// per visited path. Traversal and hashing run on a bounded compute pool;
// emission to the record consumer is serialized on a single dedicated
// goroutine so records can be handed off and released, bounding in-flight
// memory. Emission order is unspecified; consumers that need stable numbering
// assign sequence numbers on receipt.
package generate

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"datimprint-go/internal/executor"
	"datimprint-go/internal/fs"
	"datimprint-go/internal/imprint"
)

// Shutdown budgets. Generation has usually completed by the time Close runs,
// as ProduceImprint blocks on the composed result; emission may still be
// draining.
const (
	computeDrainBudget = time.Minute
	emitDrainBudget    = 5 * time.Minute
)

// Config specifies a Generator. The zero value is usable: a fixed compute
// pool with one worker per CPU, no consumer, no listener, no exclusions.
type Config struct {
	// ComputePool runs traversal and hashing tasks. Nil selects a fixed pool
	// with one worker per CPU.
	ComputePool executor.Pool
	// RecordConsumer, if non-nil, observes each generated imprint exactly
	// once in some order. A returned error latches: further emissions stop
	// and the first error is re-raised from Close.
	RecordConsumer func(imprint.Imprint) error
	// Listener, if non-nil, receives traversal events.
	Listener Listener
	// Excluder, if non-nil, filters descendant paths. Exclusions never apply
	// to the root of a walk.
	Excluder *fs.Excluder
	// Logger, if non-nil, receives trace logging.
	Logger imprint.Logger
}

// Generator produces imprints of filesystem trees. Close must be called once
// the generator is finished being used to ensure production of imprints is
// complete; any consumer error is re-raised there. ProduceImprint may be
// called multiple times; calls are independent and their emissions may
// interleave on the consumer.
type Generator struct {
	compute  executor.Pool
	consumer func(imprint.Imprint) error
	listener Listener
	excluder *fs.Excluder
	log      imprint.Logger

	emits       chan imprint.Imprint
	emitDone    chan struct{}
	emitWG      sync.WaitGroup
	closeEmits  sync.Once
	consumerErr atomic.Pointer[error]
}

// New creates a Generator from the given config. The generator owns its
// compute pool and shuts it down on Close.
func New(cfg Config) *Generator {
	g := &Generator{
		compute:  cfg.ComputePool,
		consumer: cfg.RecordConsumer,
		listener: cfg.Listener,
		excluder: cfg.Excluder,
		log:      cfg.Logger,
		emits:    make(chan imprint.Imprint),
		emitDone: make(chan struct{}),
	}
	if g.compute == nil {
		g.compute = executor.New(executor.Fixedthread, 0, 0)
	}
	if g.listener == nil {
		g.listener = NopListener{}
	}
	if g.excluder == nil {
		g.excluder, _ = fs.NewExcluder(nil, nil, nil)
	}
	if g.log == nil {
		g.log = imprint.NewNopLogger()
	}
	go g.emitLoop()
	return g
}

// emitLoop serializes consumer calls on a single goroutine. After a consumer
// error, remaining records are drained and discarded so producers never
// block against a dead consumer.
func (g *Generator) emitLoop() {
	defer close(g.emitDone)
	for im := range g.emits {
		if g.consumerErr.Load() == nil {
			if err := g.consumer(im); err != nil {
				wrapped := fmt.Errorf("%w: %v", imprint.ErrConsumerFailed, err)
				g.consumerErr.CompareAndSwap(nil, &wrapped)
				g.log.Error("record consumer failed", "error", err)
			}
		}
		g.emitWG.Done()
	}
}

// ProduceImprint recursively walks the tree rooted at path, emits one imprint
// per visited path to the record consumer, and returns the composite imprint
// for the root. An unreadable root fails the whole operation; unreadable
// descendants are skipped with a listener notification.
func (g *Generator) ProduceImprint(ctx context.Context, path string) (imprint.Imprint, error) {
	canonical, err := fs.Canonicalize(path)
	if err != nil {
		return imprint.Imprint{}, err
	}
	return g.produceAsync(canonical).wait(ctx)
}

// produceAsync generates the imprint for a path and schedules its emission.
// The returned future resolves as soon as generation completes; emission is
// not awaited, matching the drain semantics of Close.
func (g *Generator) produceAsync(path string) *future[imprint.Imprint] {
	generated := g.generateAsync(path)
	if g.consumer == nil {
		return generated
	}
	produced := newFuture[imprint.Imprint]()
	go func() {
		im, err := generated.join()
		if err != nil {
			produced.complete(im, err)
			return
		}
		if g.consumerErr.Load() != nil {
			produced.complete(im, nil)
			return
		}
		g.emitWG.Add(1)
		produced.complete(im, nil)
		g.emits <- im
	}()
	return produced
}

// generateAsync generates an imprint of a single path, which must be a
// regular file or a directory, recursing to all descendants of a directory.
func (g *Generator) generateAsync(path string) *future[imprint.Imprint] {
	g.log.Debug("generating imprint", "path", path)
	g.listener.OnGenerateImprint(path)
	f := newFuture[imprint.Imprint]()
	g.compute.Submit(func() {
		info, isDir, err := fs.Classify(path)
		if err != nil {
			f.complete(imprint.Imprint{}, err)
			return
		}
		if isDir {
			g.generateDirectory(f, path, info.ModTime())
			return
		}
		g.listener.BeforeHashFile(path)
		contentFingerprint, err := hashFile(path)
		g.listener.AfterHashFile(path)
		if err != nil {
			f.complete(imprint.Imprint{}, err)
			return
		}
		im, err := imprint.ForFile(path, info.ModTime(), contentFingerprint)
		f.complete(im, err)
	})
	return f
}

// childFuture pairs a child path with its pending imprint.
type childFuture struct {
	path   string
	name   string
	result *future[imprint.Imprint]
}

// generateDirectory lists a directory on the current pool worker, schedules
// child imprints, and composes the directory imprint once all children have
// resolved. Joining the children happens on a plain goroutine so saturated
// pool workers can never deadlock waiting on children that also need pool
// workers.
func (g *Generator) generateDirectory(f *future[imprint.Imprint], path string, contentModifiedAt time.Time) {
	g.listener.OnEnterDirectory(path)
	entries, err := os.ReadDir(path)
	if err != nil {
		f.complete(imprint.Imprint{}, err)
		return
	}
	children := make([]childFuture, 0, len(entries))
	for _, entry := range entries {
		childPath := filepath.Join(path, entry.Name())
		if entry.IsDir() && fs.IsHiddenSystem(childPath) {
			continue
		}
		if g.excluder.Excluded(childPath) {
			g.listener.OnSkipExcludedPath(childPath)
			continue
		}
		children = append(children, childFuture{
			path:   childPath,
			name:   entry.Name(),
			result: g.produceAsync(childPath),
		})
	}
	go func() {
		type childImprint struct {
			name string
			im   imprint.Imprint
		}
		resolved := make([]childImprint, 0, len(children))
		for _, child := range children {
			im, err := child.result.join()
			if err != nil {
				if errors.Is(err, iofs.ErrPermission) {
					g.listener.OnSkipUnreadablePath(child.path)
					g.log.Warn("skipping unreadable path", "path", child.path)
					continue
				}
				f.complete(imprint.Imprint{}, err)
				return
			}
			resolved = append(resolved, childImprint{name: child.name, im: im})
		}
		// Children resolve in arbitrary order; the structural hash is made
		// deterministic by sorting on the final path component.
		sort.Slice(resolved, func(i, j int) bool { return resolved[i].name < resolved[j].name })
		contentDigest := imprint.NewDigest()
		childrenDigest := imprint.NewDigest()
		for _, child := range resolved {
			contentDigest.UpdateHash(child.im.ContentFingerprint)
			childrenDigest.UpdateHash(child.im.Fingerprint)
		}
		im, err := imprint.ForDirectory(path, contentModifiedAt, contentDigest.Finish(), childrenDigest.Finish())
		f.complete(im, err)
	}()
}

// hashFile stream-hashes a file's bytes in bounded chunks.
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

// Flush waits until every imprint scheduled so far has been observed by the
// consumer. Callers interleaving their own records with the emission stream
// (e.g. base-path records between walks) flush before writing.
func (g *Generator) Flush(budget time.Duration) error {
	if !awaitGroup(&g.emitWG, budget) {
		return fmt.Errorf("%w: imprint production still draining", executor.ErrShutdownIncomplete)
	}
	return nil
}

// Close drains the compute pool and the emission stream, then reports the
// first consumer error, if any. An incomplete drain within the budgets is
// itself an error: imprint production may be incomplete.
func (g *Generator) Close() error {
	var firstErr error
	if err := g.compute.Shutdown(computeDrainBudget); err != nil {
		firstErr = fmt.Errorf("shutting down compute pool: %w", err)
	}
	if awaitGroup(&g.emitWG, emitDrainBudget) {
		g.closeEmits.Do(func() { close(g.emits) })
		<-g.emitDone
	} else if firstErr == nil {
		// Force-shut: the channel stays open so stragglers cannot panic on a
		// closed channel; their records are abandoned.
		firstErr = fmt.Errorf("%w: imprint production still draining", executor.ErrShutdownIncomplete)
	}
	if errp := g.consumerErr.Load(); errp != nil && firstErr == nil {
		firstErr = *errp
	}
	return firstErr
}

// awaitGroup waits for wg within the budget, reporting false on timeout.
func awaitGroup(wg *sync.WaitGroup, budget time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(budget):
		return false
	}
}
