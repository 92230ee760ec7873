// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rdwrlock implements a fair reader/writer lock: many concurrent
// readers, or one writer, with neither starving the other.
//
// Grounded on the original rcsw rdwrlock (order/access/read semaphores
// plus a reader count), reimplemented over
// [code.hybscloud.com/pulse/syncprim.CountingSemaphore]:
//
//   - order serializes entry so requests are granted FIFO: a writer
//     queued behind readers still gets its turn once it reaches the front,
//     and readers queued behind a writer block on order rather than
//     jumping ahead of it.
//   - access is the exclusive resource lock a writer holds outright and
//     the first reader in a group holds on the group's behalf.
//   - read guards the reader count so concurrent readers entering/exiting
//     don't race each other incrementing/decrementing it.
//
// Writer entry:  acquire order; acquire access; release order.
// Writer exit:   release access.
// Reader entry:  acquire order; acquire read; if first reader, acquire
//                access; count++; release order; release read.
// Reader exit:   acquire read; count--; if last reader, release access;
//                release read.
package rdwrlock
