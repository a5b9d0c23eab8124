package manager

import (
	"context"
	"sync"
	"sync/atomic"
)

// canceller is the cancellation channel shared by the load and inference
// pipelines. request may be called at any time from any goroutine; the
// pipelines observe it only at checkpoints.
type canceller struct {
	flag atomic.Bool

	mu   sync.Mutex
	stop context.CancelFunc
}

// request sets the flag and cancels the active scope, if any.
// It never blocks on the running operation.
func (c *canceller) request() {
	c.flag.Store(true)
	c.mu.Lock()
	if c.stop != nil {
		c.stop()
	}
	c.mu.Unlock()
}

// reset clears a request left over from a finished run. It is called when an
// inference is admitted, so requests arriving after admission are kept.
func (c *canceller) reset() {
	c.flag.Store(false)
}

// scope opens a cancellable scope without touching the flag.
func (c *canceller) scope(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	c.mu.Lock()
	c.stop = cancel
	c.mu.Unlock()
	return ctx, func() {
		c.mu.Lock()
		c.stop = nil
		c.mu.Unlock()
		cancel()
	}
}

// check is the checkpoint: it returns ErrOperationCancelled once a cancel was
// requested or ctx is done.
func (c *canceller) check(ctx context.Context) error {
	if c.flag.Load() || ctx.Err() != nil {
		return ErrOperationCancelled
	}
	return nil
}

// RequestCancel asks the running operation to stop at its next checkpoint.
// It always succeeds and returns immediately; a request issued while nothing
// runs is ignored by the next inference.
func (m *Manager) RequestCancel() {
	cancelRequestsTotal.Inc()
	m.log.Info().Str("action", string(m.Action())).Msg("cancel requested")
	m.cancel.request()
}
