// Package goroutine runs bounded background tasks that must not block a request.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by NumCPU when NewManager receives a
// non-positive limit.
const DefaultMaxGoroutine int = 100

// Manager runs fire-and-forget tasks with a concurrency cap. A task that
// finds every slot taken is dropped rather than queued.
type Manager struct {
	sema    chan struct{}
	timeout time.Duration
	wg      sync.WaitGroup
	dropped atomic.Int64

	mu     sync.Mutex
	closed bool
	errs   []error
}

// Option configures a Manager.
type Option func(*Manager)

// WithTaskTimeout bounds each task's context. Zero means no bound.
func WithTaskTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// NewManager creates a Manager allowing maxGoroutine concurrent tasks.
func NewManager(maxGoroutine int, opts ...Option) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	m := &Manager{sema: make(chan struct{}, maxGoroutine)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Go schedules f under name. It never blocks: when the manager is closed or
// full the task is logged and skipped.
func (g *Manager) Go(ctx context.Context, name string, f func(ctx context.Context) error) {
	if g == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		slog.WarnContext(ctx, "goroutine manager is closed, skipping task", "task", name)
		return
	}

	select {
	case g.sema <- struct{}{}:
		g.wg.Add(1)
		go g.run(ctx, name, f)
	default:
		g.dropped.Add(1)
		slog.WarnContext(ctx, "maximum goroutine limit reached, task dropped", "task", name)
	}
}

func (g *Manager) run(ctx context.Context, name string, f func(ctx context.Context) error) {
	defer g.wg.Done()
	defer func() { <-g.sema }()
	defer func() {
		if rvr := recover(); rvr != nil {
			slog.ErrorContext(ctx, "panic occurred in goroutine", "task", name, "because", rvr, "stack", stacktrace.Summary(debug.Stack()))
		}
	}()

	if err := ctx.Err(); err != nil {
		slog.WarnContext(ctx, "goroutine canceled", "task", name, "because", err)
		return
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if err := f(ctx); err != nil {
		slog.ErrorContext(ctx, "goroutine task failed", "task", name, "error", err)
		g.mu.Lock()
		g.errs = append(g.errs, err)
		g.mu.Unlock()
	}
}

// Dropped returns how many tasks were skipped because every slot was busy.
func (g *Manager) Dropped() int64 {
	if g == nil {
		return 0
	}
	return g.dropped.Load()
}

// Wait closes the manager, blocks until running tasks finish and returns
// their joined errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
