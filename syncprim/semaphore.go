// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package syncprim

import (
	"time"

	"code.hybscloud.com/spin"
)

// CountingSemaphore is a non-negative integer counter with blocking,
// non-blocking, and timed-wait decrement operations.
//
// The zero value is not usable; construct with [NewCountingSemaphore].
type CountingSemaphore struct {
	tokens chan struct{}
}

// NewCountingSemaphore creates a semaphore with the given initial value and
// maximum value. max bounds how many outstanding Posts the semaphore can
// absorb before a Post would panic; callers that only ever Post what they
// previously Waited for (the common pattern: "slots available" mirrored by
// "slots in use") never hit that ceiling.
func NewCountingSemaphore(initial, max int) *CountingSemaphore {
	if max < 1 {
		panic("syncprim: max must be >= 1")
	}
	if initial < 0 || initial > max {
		panic("syncprim: initial out of range")
	}
	s := &CountingSemaphore{tokens: make(chan struct{}, max)}
	for i := 0; i < initial; i++ {
		s.tokens <- struct{}{}
	}
	return s
}

// Post increments the semaphore's value, waking one waiter if any are
// blocked in Wait/TimedWait. Panics if the semaphore is already at its
// configured maximum (a double-post, which indicates a bookkeeping bug in
// the caller).
func (s *CountingSemaphore) Post() {
	select {
	case s.tokens <- struct{}{}:
	default:
		panic("syncprim: semaphore posted past its maximum value")
	}
}

// Wait blocks until the semaphore's value is positive, then decrements it.
func (s *CountingSemaphore) Wait() {
	sw := spin.Wait{}
	for i := 0; i < 4; i++ {
		select {
		case <-s.tokens:
			return
		default:
			sw.Once()
		}
	}
	<-s.tokens
}

// TryWait attempts to decrement the semaphore without blocking. Returns
// true on success.
func (s *CountingSemaphore) TryWait() bool {
	select {
	case <-s.tokens:
		return true
	default:
		return false
	}
}

// TimedWait blocks until the semaphore's value is positive or rel elapses,
// whichever comes first. Returns true if it acquired a token, false on
// timeout. On timeout the semaphore's value is left exactly as it was
// (the select either consumed a token or it did not: there is no partial
// state).
func (s *CountingSemaphore) TimedWait(rel time.Duration) bool {
	if s.TryWait() {
		return true
	}
	timer := time.NewTimer(rel)
	defer timer.Stop()
	select {
	case <-s.tokens:
		return true
	case <-timer.C:
		return false
	}
}

// Value returns the semaphore's current value. Informational only: under
// concurrent use the result may be stale by the time the caller observes
// it, mirroring [code.hybscloud.com/pulse/mpool.Pool.Size]'s documented
// unreliability.
func (s *CountingSemaphore) Value() int {
	return len(s.tokens)
}
