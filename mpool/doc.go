// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mpool implements a reference-counted, fixed-chunk memory pool:
// a thread-safe malloc()/free() over a set of equal-size byte chunks,
// grounded on the original rcsw mpool (csem slots_avail + mutex + free/
// alloc lists).
//
// Storage is a single contiguous []byte holding capacity chunks of
// chunkSize bytes each (the Design Notes' "indexed representation":
// storage is an array, free-set and allocated-set are disjoint over
// indices, so aliasing between them isn't representable). The free set
// is backed by [code.hybscloud.com/lfq]'s lock-free indirect queue of
// chunk indices — exactly the "buffer pool with index-based access"
// use case lfq's own documentation calls out — so concurrent Req/Release
// calls never contend on a single mutex for the free-list itself; a
// [code.hybscloud.com/pulse/syncprim.CountingSemaphore] provides the
// blocking "wait for a free chunk" semantics lfq's non-blocking queue
// doesn't, and a plain mutex guards only the per-chunk refcounts and the
// allocated bitmap, which must stay consistent with each other.
//
// Req/Release/RefAdd/RefRemove/RefCount are all safe for concurrent use.
// Size/IsFull/IsEmpty are informational only, as documented on each.
package mpool
