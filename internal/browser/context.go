package browser

import (
	"context"
	"time"
)

// CombineContext derives a context from tab, which carries the chromedp
// target, that is also cancelled when op is done. Values come from tab only.
func CombineContext(tab, op context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(tab)

	go func() {
		select {
		case <-op.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}

// detachedContext keeps the values of its parent and drops its deadline
// and cancellation.
type detachedContext struct {
	context.Context
}

func (detachedContext) Deadline() (deadline time.Time, ok bool) { return }
func (detachedContext) Done() <-chan struct{}                   { return nil }
func (detachedContext) Err() error                              { return nil }

// Detach returns a context that still addresses the same tab but outlives
// ctx. Used for cleanup such as failure screenshots after cancellation.
func Detach(ctx context.Context) context.Context {
	return detachedContext{ctx}
}
