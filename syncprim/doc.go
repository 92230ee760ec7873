// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package syncprim provides thin, portable blocking primitives: a mutex
// alias, a channel-based condition variable with timeout support, and a
// counting semaphore with blocking, non-blocking, and timed-wait variants.
//
// These are the building blocks for [code.hybscloud.com/pulse/rdwrlock],
// [code.hybscloud.com/pulse/pcqueue], and [code.hybscloud.com/pulse/mpool].
// Nothing in this package is specific to any one of those: it exists so
// that blocking and timed-blocking semantics are implemented exactly once.
//
// # Counting semaphore
//
// [CountingSemaphore] models a classic non-negative-integer semaphore:
// Post increments, Wait/TryWait/TimedWait decrement (blocking, non-blocking,
// and timed respectively). It is implemented over a buffered channel of
// empty structs rather than a manually-managed waiter list: the channel's
// buffer IS the semaphore's value, and a send/receive on it is exactly
// Post/Wait. Before parking on the channel, Wait makes a few non-blocking
// attempts using [code.hybscloud.com/spin], the same fast-path idiom
// [code.hybscloud.com/lfq] uses in its CAS retry loops, so that a
// semaphore that is about to be posted doesn't always pay a full
// scheduler round trip.
//
// A timed wait converts its relative timeout into a timer and races it
// against the channel receive; on timeout, the semaphore's value is
// provably unchanged (the select either consumed a token or it didn't).
//
// # Condition variable
//
// [CondVar] cannot be built on sync.Cond, because sync.Cond.Wait has no
// timeout. Instead each Wait captures the variable's current "epoch"
// channel, releases the associated mutex, and blocks on either that
// channel closing (a Signal/Broadcast happened) or, for TimedWait, the
// timeout firing. Signal and Broadcast both close the epoch channel and replace
// it with a fresh one, exactly like the classic broadcast-close pattern
// used throughout the Go ecosystem for cancellable waits.
package syncprim
