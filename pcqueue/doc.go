// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pcqueue implements a bounded, blocking, concurrency-safe FIFO:
// a producer/consumer queue, PCQueue.
//
// Unlike [code.hybscloud.com/lfq]'s non-blocking queues (Enqueue/Dequeue
// return ErrWouldBlock immediately when full/empty), PCQueue[T] blocks:
// Push waits for a free slot, Pop waits for an element, and both have
// timed variants. This is the deliberate point of this package: it is
// the blocking counterpart [code.hybscloud.com/pulse/syncprim]'s
// CountingSemaphore exists to build, mirroring the split between lfq
// (park-free, retry-driven) and pulse (park-on-resource) in the wider
// ecosystem.
//
// Storage is a plain mutex-guarded circular buffer of T, not lfq's
// lock-free ring: PCQueue additionally supports Peek/TimedPeek (read the
// front element without removing it), which requires a stable element
// address between calls and doesn't fit a lock-free single-writer-wins
// ring cleanly. Two semaphores track capacity: slotsAvail (capacity minus
// count) gates Push, slotsInUse (count) gates Pop/Peek.
package pcqueue
