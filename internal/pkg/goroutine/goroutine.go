// Package goroutine runs the service's background work (sweep job, MQ
// consumers) under a shared concurrency cap and waits for it on shutdown.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/baginvent/passcode/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by NumCPU when NewManager gets limit < 1.
const DefaultMaxGoroutine int = 100

// ErrPanic wraps a recovered panic so it shows up in Wait.
var ErrPanic = errors.New("goroutine panicked")

// Manager starts tasks without blocking the caller. Tasks over the limit, or
// started after Wait, are dropped with a warning.
type Manager struct {
	wg    sync.WaitGroup
	slots chan struct{}

	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	errs  []error
}

func NewManager(limit int) *Manager {
	if limit < 1 {
		limit = runtime.NumCPU() * DefaultMaxGoroutine
	}
	return &Manager{slots: make(chan struct{}, limit)}
}

// Go runs f in a new goroutine and reports whether it was started. A task
// whose context is already done is not run.
func (g *Manager) Go(ctx context.Context, f func(ctx context.Context) error) bool {
	if g == nil {
		return false
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		slog.WarnContext(ctx, "goroutine manager is closed, skipping new goroutine")
		return false
	}

	select {
	case g.slots <- struct{}{}:
	default:
		slog.WarnContext(ctx, "maximum goroutine limit reached, skipping new goroutine", "limit", cap(g.slots))
		return false
	}

	g.wg.Go(func() {
		defer func() { <-g.slots }()
		g.record(g.run(ctx, f))
	})
	return true
}

func (g *Manager) run(ctx context.Context, f func(ctx context.Context) error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", stacktrace.Summary(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrPanic, rvr)
		}
	}()

	if ctx.Err() != nil {
		slog.WarnContext(ctx, "goroutine canceled before start", "because", ctx.Err())
		return nil
	}
	return f(ctx)
}

func (g *Manager) record(err error) {
	if err == nil {
		return
	}
	g.errMu.Lock()
	g.errs = append(g.errs, err)
	g.errMu.Unlock()
}

// Wait refuses new tasks, blocks until running ones return and joins their
// errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.wg.Wait()

	g.errMu.Lock()
	defer g.errMu.Unlock()
	return errors.Join(g.errs...)
}
