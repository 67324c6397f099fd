// Package fanin joins a dynamically growing set of deferred units of work. A Barrier starts
// with one unit outstanding (the caller's own); every deferred unit registers with Begin before
// it is dispatched, and releases with End when it settles, successfully or not. When the count
// reaches zero the barrier closes, for good, and the completion callback runs exactly once.
package fanin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/skypies/util/histogram"
)

var ErrClosed = errors.New("fanin: barrier already closed")

type Barrier struct {
	mu      sync.Mutex
	pending int
	closed  bool
	onClose func()
	done    chan struct{}

	Started time.Time
	stats   histogram.Set // Per-unit latencies, in micros
}

// New returns an open barrier holding one unit. onClose may be nil.
func New(onClose func()) *Barrier {
	return &Barrier{
		pending: 1,
		onClose: onClose,
		done:    make(chan struct{}),
		Started: time.Now(),
		stats:   histogram.NewSet(40000), // maxval, in micros; 40ms == 40000us
	}
}

// Begin registers one more outstanding unit. It must be called before the unit's work is
// dispatched, never from within it.
func (b *Barrier) Begin() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.pending++
	return nil
}

// End releases one unit. Calling End more often than Begin (plus the initial unit) panics.
func (b *Barrier) End() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		panic("fanin: End called on a closed barrier")
	}
	b.pending--
	fire := b.pending == 0
	if fire {
		b.closed = true
	}
	b.mu.Unlock()

	if fire {
		if b.onClose != nil {
			b.onClose()
		}
		close(b.done)
	}
}

// Go runs fn in a new goroutine as one unit of the barrier. The unit is released however fn
// returns, and its latency recorded under name.
func (b *Barrier) Go(name string, fn func()) error {
	if err := b.Begin(); err != nil {
		return err
	}
	go func() {
		tStart := time.Now()
		defer b.End()
		defer func() { b.record(name, time.Since(tStart)) }()
		fn()
	}()
	return nil
}

func (b *Barrier) record(name string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.RecordValue(name, d.Nanoseconds()/1000)
}

// Done is closed once the barrier has closed and the callback has returned.
func (b *Barrier) Done() <-chan struct{} { return b.done }

// Wait blocks until the barrier closes, or ctx expires. Outstanding units are not cancelled.
func (b *Barrier) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("fanin: %d units still pending: %w", b.Pending(), ctx.Err())
	}
}

func (b *Barrier) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

func (b *Barrier) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Stats summarizes unit latencies recorded via Go.
func (b *Barrier) Stats() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats.String()
}
