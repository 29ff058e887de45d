// Package msgq is the bounded message channel between the control domain and the
// render domain.
//
// A Ring has exactly one consumer (the render callback) and any number of producers,
// which serialize on a mutex among themselves. The consumer side takes no locks and never
// blocks. Producers may block in Push while the ring is full; the render domain
// therefore never waits on the control domain.
package msgq

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var ErrClosed = errors.New("msgq: ring closed")

// pushBackoff is how long a blocked producer sleeps between checks for free space.
const pushBackoff = 500 * time.Microsecond

type Ring[T any] struct {
	pushMu  sync.Mutex
	buf     []T
	mask    uint64
	head    atomic.Uint64 // next slot to read, written by the consumer
	tail    atomic.Uint64 // next slot to write, written by producers
	closed  atomic.Bool
	blocked atomic.Uint64
}

// New returns a ring holding at least size messages, rounded up to a power of two.
func New[T any](size int) *Ring[T] {
	n := 1
	for n < size {
		n <<= 1
	}
	return &Ring[T]{buf: make([]T, n), mask: uint64(n - 1)}
}

func (r *Ring[T]) Cap() int { return len(r.buf) }

// Len is the number of queued messages. It is exact only from the consumer side.
func (r *Ring[T]) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// TryPush enqueues v unless the ring is full.
func (r *Ring[T]) TryPush(v T) bool {
	r.pushMu.Lock()
	defer r.pushMu.Unlock()
	return r.pushLocked(v)
}

func (r *Ring[T]) pushLocked(v T) bool {
	if r.closed.Load() {
		return false
	}
	tail := r.tail.Load()
	if tail-r.head.Load() >= uint64(len(r.buf)) {
		return false
	}
	r.buf[tail&r.mask] = v
	r.tail.Store(tail + 1)
	return true
}

// Push enqueues v, waiting for the consumer to free a slot. It returns the context error
// if ctx ends first, or ErrClosed once the ring is closed.
func (r *Ring[T]) Push(ctx context.Context, v T) error {
	var timer *time.Timer
	for {
		if r.closed.Load() {
			return ErrClosed
		}
		if r.TryPush(v) {
			return nil
		}
		r.blocked.Add(1)
		if timer == nil {
			timer = time.NewTimer(pushBackoff)
			defer timer.Stop()
		} else {
			timer.Reset(pushBackoff)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Pop dequeues one message. Only the consumer may call it.
func (r *Ring[T]) Pop() (T, bool) {
	var zero T
	head := r.head.Load()
	if head == r.tail.Load() {
		return zero, false
	}
	v := r.buf[head&r.mask]
	r.buf[head&r.mask] = zero
	r.head.Store(head + 1)
	return v, true
}

// Peek returns the oldest message without removing it. Only the consumer may call it.
func (r *Ring[T]) Peek() (T, bool) {
	var zero T
	head := r.head.Load()
	if head == r.tail.Load() {
		return zero, false
	}
	return r.buf[head&r.mask], true
}

// Close rejects further pushes. Queued messages stay poppable.
func (r *Ring[T]) Close() {
	r.closed.Store(true)
}

// Blocked counts how many times a producer found the ring full.
func (r *Ring[T]) Blocked() uint64 { return r.blocked.Load() }
