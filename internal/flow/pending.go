// Package flow sequences frames into complete interactions: menus,
// prompts, the Wi-Fi and audio pickers, custom menus and wallpapers.
package flow

import (
	"context"
	"sync"
	"sync/atomic"
)

// Pending hands values from a worker goroutine to the loop goroutine.
// Push holds the lock only for the append, Drain only for the swap.
type Pending[T any] struct {
	mu    sync.Mutex
	items []T
}

func (p *Pending[T]) Push(v T) {
	p.mu.Lock()
	p.items = append(p.items, v)
	p.mu.Unlock()
}

// Drain returns everything pushed since the last call.
func (p *Pending[T]) Drain() []T {
	p.mu.Lock()
	items := p.items
	p.items = nil
	p.mu.Unlock()
	return items
}

// worker runs one background operation. Close stops and joins it.
type worker struct {
	stopped atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// start runs fn on a new goroutine. fn should return soon after ctx is
// done.
func (w *worker) start(ctx context.Context, fn func(ctx context.Context)) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		fn(ctx)
	}()
}

// Stopped reports whether Close was called.
func (w *worker) Stopped() bool { return w.stopped.Load() }

// Close is safe to call on a worker that never started.
func (w *worker) Close() {
	w.stopped.Store(true)
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
