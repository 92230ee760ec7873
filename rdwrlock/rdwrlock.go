// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdwrlock

import (
	"time"

	"code.hybscloud.com/pulse/syncprim"
)

// Scope is the privilege level requested for a critical section.
type Scope int

const (
	// ScopeRead requests shared (reader) access.
	ScopeRead Scope = iota
	// ScopeWrite requests exclusive (writer) access.
	ScopeWrite
)

// RdWrLock is a fair reader/writer lock: any number of concurrent readers,
// or a single writer, guaranteed to eventually admit every requester
// regardless of the mix of readers and writers contending for it.
//
// The zero value is not usable; construct with [New].
type RdWrLock struct {
	order  *syncprim.CountingSemaphore
	access *syncprim.CountingSemaphore
	read   *syncprim.CountingSemaphore
	nReaders int
}

// New creates a ready-to-use fair reader/writer lock.
func New() *RdWrLock {
	return &RdWrLock{
		order:  syncprim.NewCountingSemaphore(1, 1),
		access: syncprim.NewCountingSemaphore(1, 1),
		read:   syncprim.NewCountingSemaphore(1, 1),
	}
}

// Req blocks until the caller may enter the critical section at the given
// scope.
func (l *RdWrLock) Req(scope Scope) {
	switch scope {
	case ScopeWrite:
		l.order.Wait()
		l.access.Wait()
		l.order.Post()
	case ScopeRead:
		l.order.Wait()
		l.read.Wait()
		l.nReaders++
		if l.nReaders == 1 {
			l.access.Wait()
		}
		l.order.Post()
		l.read.Post()
	default:
		panic("rdwrlock: invalid scope")
	}
}

// Exit releases the critical section previously entered via Req/TimedReq
// at the given scope.
func (l *RdWrLock) Exit(scope Scope) {
	switch scope {
	case ScopeWrite:
		l.access.Post()
	case ScopeRead:
		l.read.Wait()
		l.nReaders--
		if l.nReaders == 0 {
			l.access.Post()
		}
		l.read.Post()
	default:
		panic("rdwrlock: invalid scope")
	}
}

// TimedReq is like Req but gives up after rel elapses. Returns true if
// the critical section was entered, false on timeout. On timeout no
// semaphore is left held: a timed-out writer releases order before
// returning; a timed-out reader that failed to acquire access releases
// everything it took along the way.
func (l *RdWrLock) TimedReq(scope Scope, rel time.Duration) bool {
	deadline := time.Now().Add(rel)

	switch scope {
	case ScopeWrite:
		if !l.order.TimedWait(rel) {
			return false
		}
		if !l.access.TimedWait(time.Until(deadline)) {
			l.order.Post()
			return false
		}
		l.order.Post()
		return true
	case ScopeRead:
		if !l.order.TimedWait(rel) {
			return false
		}
		if !l.read.TimedWait(time.Until(deadline)) {
			l.order.Post()
			return false
		}
		l.nReaders++
		if l.nReaders == 1 {
			if !l.access.TimedWait(time.Until(deadline)) {
				l.nReaders--
				l.order.Post()
				l.read.Post()
				return false
			}
		}
		l.order.Post()
		l.read.Post()
		return true
	default:
		panic("rdwrlock: invalid scope")
	}
}

// TryReq attempts to enter the critical section without blocking. Returns
// true on success.
func (l *RdWrLock) TryReq(scope Scope) bool {
	return l.TimedReq(scope, 0)
}
