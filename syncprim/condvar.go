// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package syncprim

import (
	"sync"
	"time"
)

// CondVar is a condition variable paired with an external [sync.Locker],
// supporting both indefinite and timed waits.
//
// Unlike sync.Cond, Wait can time out. This is implemented with an
// "epoch" channel: Wait captures the current epoch, unlocks the paired
// mutex, and blocks on either that channel closing or the deadline
// firing. Signal/Broadcast close the current epoch (waking everyone
// blocked on it) and install a fresh one.
type CondVar struct {
	mu    sync.Mutex // protects epoch, independent of the caller's Locker
	epoch chan struct{}
}

// NewCondVar creates a ready-to-use condition variable.
func NewCondVar() *CondVar {
	return &CondVar{epoch: make(chan struct{})}
}

func (c *CondVar) currentEpoch() chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Wait releases l, blocks until Signal or Broadcast is called, then
// reacquires l before returning. The caller must hold l when calling Wait.
func (c *CondVar) Wait(l sync.Locker) {
	ch := c.currentEpoch()
	l.Unlock()
	<-ch
	l.Lock()
}

// TimedWait is like Wait but gives up after rel elapses. Returns true if
// woken by Signal/Broadcast, false on timeout. l is held on return in
// either case.
func (c *CondVar) TimedWait(l sync.Locker, rel time.Duration) bool {
	ch := c.currentEpoch()
	l.Unlock()
	defer l.Lock()

	timer := time.NewTimer(rel)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}

// Signal wakes one waiter (best effort: the epoch-channel design wakes
// every current waiter, same as Broadcast; a true single-wake signal
// would need a waiter list, which none of this package's callers need).
func (c *CondVar) Signal() {
	c.Broadcast()
}

// Broadcast wakes every goroutine currently blocked in Wait/TimedWait.
func (c *CondVar) Broadcast() {
	c.mu.Lock()
	close(c.epoch)
	c.epoch = make(chan struct{})
	c.mu.Unlock()
}
