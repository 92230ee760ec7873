// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pcqueue

import (
	"sync"
	"time"

	"code.hybscloud.com/pulse/syncprim"
)

// PCQueue is a bounded, blocking, concurrency-safe FIFO of T.
//
// The zero value is not usable; construct with [New].
type PCQueue[T any] struct {
	mu         sync.Mutex
	buf        []T
	head       int // index of the front element
	count      int
	slotsAvail *syncprim.CountingSemaphore // capacity - count
	slotsInUse *syncprim.CountingSemaphore // count
}

// New creates a queue with the given fixed capacity. Panics if capacity
// is not positive.
func New[T any](capacity int) *PCQueue[T] {
	if capacity <= 0 {
		panic("pcqueue: capacity must be > 0")
	}
	return &PCQueue[T]{
		buf:        make([]T, capacity),
		slotsAvail: syncprim.NewCountingSemaphore(capacity, capacity),
		slotsInUse: syncprim.NewCountingSemaphore(0, capacity),
	}
}

// Cap returns the queue's fixed capacity.
func (q *PCQueue[T]) Cap() int {
	return len(q.buf)
}

// Len returns the current number of queued elements. Informational only
// under concurrent use: the result may be stale by the time the caller
// observes it.
func (q *PCQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Push waits for a free slot, then appends e. May block indefinitely if
// the queue stays full.
func (q *PCQueue[T]) Push(e T) {
	q.slotsAvail.Wait()
	q.mu.Lock()
	q.append(e)
	q.mu.Unlock()
	q.slotsInUse.Post()
}

// TryPush attempts to push without blocking. Returns false if the queue
// is full.
func (q *PCQueue[T]) TryPush(e T) bool {
	if !q.slotsAvail.TryWait() {
		return false
	}
	q.mu.Lock()
	q.append(e)
	q.mu.Unlock()
	q.slotsInUse.Post()
	return true
}

// TimedPush is like Push but gives up after rel elapses. Returns false on
// timeout, leaving the queue unchanged.
func (q *PCQueue[T]) TimedPush(e T, rel time.Duration) bool {
	if !q.slotsAvail.TimedWait(rel) {
		return false
	}
	q.mu.Lock()
	q.append(e)
	q.mu.Unlock()
	q.slotsInUse.Post()
	return true
}

func (q *PCQueue[T]) append(e T) {
	tail := (q.head + q.count) % len(q.buf)
	q.buf[tail] = e
	q.count++
}

// Pop waits for an element, then removes and returns the front one. May
// block indefinitely if the queue stays empty.
func (q *PCQueue[T]) Pop() T {
	q.slotsInUse.Wait()
	q.mu.Lock()
	e := q.removeFront()
	q.mu.Unlock()
	q.slotsAvail.Post()
	return e
}

// TryPop attempts to pop without blocking. Returns the zero value and
// false if the queue is empty.
func (q *PCQueue[T]) TryPop() (T, bool) {
	var zero T
	if !q.slotsInUse.TryWait() {
		return zero, false
	}
	q.mu.Lock()
	e := q.removeFront()
	q.mu.Unlock()
	q.slotsAvail.Post()
	return e, true
}

// TimedPop is like Pop but gives up after rel elapses. Returns the zero
// value and false on timeout, leaving the queue unchanged.
func (q *PCQueue[T]) TimedPop(rel time.Duration) (T, bool) {
	var zero T
	if !q.slotsInUse.TimedWait(rel) {
		return zero, false
	}
	q.mu.Lock()
	e := q.removeFront()
	q.mu.Unlock()
	q.slotsAvail.Post()
	return e, true
}

func (q *PCQueue[T]) removeFront() T {
	var zero T
	e := q.buf[q.head]
	q.buf[q.head] = zero // allow GC of referenced objects
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return e
}

// Peek waits for an element, then returns a copy of the front one without
// removing it. The value is stable only until the next successful
// Pop/TryPop/TimedPop on this queue.
func (q *PCQueue[T]) Peek() T {
	q.slotsInUse.Wait()
	q.mu.Lock()
	e := q.buf[q.head]
	q.mu.Unlock()
	q.slotsInUse.Post()
	return e
}

// TimedPeek is like Peek but gives up after rel elapses. Returns the zero
// value and false on timeout.
func (q *PCQueue[T]) TimedPeek(rel time.Duration) (T, bool) {
	var zero T
	if !q.slotsInUse.TimedWait(rel) {
		return zero, false
	}
	q.mu.Lock()
	e := q.buf[q.head]
	q.mu.Unlock()
	q.slotsInUse.Post()
	return e, true
}
