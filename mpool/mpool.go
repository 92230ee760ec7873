// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpool

import (
	"errors"
	"sync"
	"time"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfq"
	"code.hybscloud.com/pulse/syncprim"
)

// ErrNotOwned is returned by RefAdd/RefRemove/RefCount when the given
// pointer does not belong to the pool, or isn't currently allocated.
var ErrNotOwned = errors.New("mpool: pointer not owned by this pool")

// PoolStats is an informational snapshot of a Pool's state. Every field
// is racy under concurrent use, same caveat as [Pool.Size].
type PoolStats struct {
	ChunkSize int
	Capacity  int
	Free      int
	Allocated int
}

// Pool is a fixed-size-chunk allocator with explicit reference counting.
//
// The zero value is not usable; construct with [New].
type Pool struct {
	chunkSize int
	capacity  int
	storage   []byte

	mu        sync.Mutex
	refcount  []int32
	allocated []bool

	freeList   lfq.QueueIndirect
	slotsAvail *syncprim.CountingSemaphore

	closed atomix.Bool
}

// New creates a pool of capacity fixed-size chunks, each chunkSize bytes.
// All chunks start free. Panics if chunkSize or capacity is not positive.
func New(chunkSize, capacity int) *Pool {
	if chunkSize <= 0 {
		panic("mpool: chunkSize must be > 0")
	}
	if capacity <= 0 {
		panic("mpool: capacity must be > 0")
	}

	freeListCap := capacity
	if freeListCap < 2 {
		freeListCap = 2 // lfq queues require capacity >= 2
	}

	p := &Pool{
		chunkSize:  chunkSize,
		capacity:   capacity,
		storage:    make([]byte, chunkSize*capacity),
		refcount:   make([]int32, capacity),
		allocated:  make([]bool, capacity),
		freeList:   lfq.NewMPMCIndirect(freeListCap),
		slotsAvail: syncprim.NewCountingSemaphore(capacity, capacity),
	}
	for i := 0; i < capacity; i++ {
		if err := p.freeList.Enqueue(uintptr(i)); err != nil {
			panic("mpool: free list initialization failed: " + err.Error())
		}
	}
	return p
}

// ChunkSize returns the fixed size of each chunk in bytes.
func (p *Pool) ChunkSize() int {
	return p.chunkSize
}

// Capacity returns the fixed number of chunks in the pool.
func (p *Pool) Capacity() int {
	return p.capacity
}

func (p *Pool) chunkAt(idx int) []byte {
	off := idx * p.chunkSize
	return p.storage[off : off+p.chunkSize : off+p.chunkSize]
}

// indexOf returns the chunk index for a slice previously returned by Req
// or TimedReq, validating it actually points into this pool's
// storage.
func (p *Pool) indexOf(chunk []byte) (int, bool) {
	if len(chunk) == 0 {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(&p.storage[0]))
	ptr := uintptr(unsafe.Pointer(&chunk[0]))
	// chunk is always expected to be a sub-slice of p.storage produced by
	// chunkAt; computing its offset by pointer distance is the idiomatic
	// Go equivalent of the original's `(p - storage_base) / chunk_size`
	// pointer arithmetic.
	off := int(ptr - base)
	if off < 0 || off%p.chunkSize != 0 {
		return 0, false
	}
	idx := off / p.chunkSize
	if idx < 0 || idx >= p.capacity {
		return 0, false
	}
	return idx, true
}

// Req waits (indefinitely) for a free chunk, then returns it with its
// reference count set to 1.
func (p *Pool) Req() []byte {
	p.slotsAvail.Wait()
	return p.take()
}

// TimedReq is like Req but gives up after rel elapses. Returns (nil,
// false) on timeout without consuming a chunk.
func (p *Pool) TimedReq(rel time.Duration) ([]byte, bool) {
	if !p.slotsAvail.TimedWait(rel) {
		return nil, false
	}
	return p.take(), true
}

func (p *Pool) take() []byte {
	idxU, err := p.freeList.Dequeue()
	if err != nil {
		// slotsAvail guaranteed a free index exists; this would indicate
		// a free-list/semaphore bookkeeping bug.
		panic("mpool: slots-available semaphore out of sync with free list")
	}
	idx := int(idxU)

	p.mu.Lock()
	p.allocated[idx] = true
	p.refcount[idx] = 1
	p.mu.Unlock()

	return p.chunkAt(idx)
}

// Release decrements the chunk's refcount (not below zero); when it is
// zero the chunk returns to the free set and a waiting Req/TimedReq may
// proceed. Releasing a chunk not in the allocated set is a no-op.
func (p *Pool) Release(chunk []byte) {
	idx, ok := p.indexOf(chunk)
	if !ok {
		return
	}

	p.mu.Lock()
	if !p.allocated[idx] {
		p.mu.Unlock()
		return
	}
	if p.refcount[idx] > 0 {
		p.refcount[idx]--
	}
	reachedZero := p.refcount[idx] == 0
	if reachedZero {
		p.allocated[idx] = false
	}
	p.mu.Unlock()

	if reachedZero {
		if err := p.freeList.Enqueue(uintptr(idx)); err != nil {
			panic("mpool: free list overflow on release: " + err.Error())
		}
		p.slotsAvail.Post()
	}
}

// RefAdd increments the refcount of an already-allocated chunk, modeling
// a non-owning reference handed to another consumer. Returns
// [ErrNotOwned] if chunk does not belong to this pool or is not
// currently allocated.
func (p *Pool) RefAdd(chunk []byte) error {
	idx, ok := p.indexOf(chunk)
	if !ok {
		return ErrNotOwned
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.allocated[idx] {
		return ErrNotOwned
	}
	p.refcount[idx]++
	return nil
}

// RefRemove decrements the refcount of an allocated chunk, not below
// zero. Unlike Release, it never returns the chunk to the free set even
// if the count reaches zero: RefAdd/RefRemove model non-owning
// references, and only the owner's Release call performs the
// free-set transition. Mixing RefAdd/RefRemove with Release without an
// eventual matching Release from the owner will leak the chunk.
func (p *Pool) RefRemove(chunk []byte) error {
	idx, ok := p.indexOf(chunk)
	if !ok {
		return ErrNotOwned
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.allocated[idx] {
		return ErrNotOwned
	}
	if p.refcount[idx] > 0 {
		p.refcount[idx]--
	}
	return nil
}

// RefCount returns the current reference count of chunk. Returns
// [ErrNotOwned] if chunk isn't owned/allocated by this pool. Only
// reliable under external synchronization.
func (p *Pool) RefCount(chunk []byte) (int, error) {
	idx, ok := p.indexOf(chunk)
	if !ok {
		return 0, ErrNotOwned
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.allocated[idx] {
		return 0, ErrNotOwned
	}
	return int(p.refcount[idx]), nil
}

// Owns reports whether chunk is a slice previously handed out by this
// pool's Req/TimedReq.
func (p *Pool) Owns(chunk []byte) bool {
	_, ok := p.indexOf(chunk)
	return ok
}

// IsFull reports whether every chunk is currently allocated.
// Not reliable under concurrency.
func (p *Pool) IsFull() bool {
	return p.Size() == p.capacity
}

// IsEmpty reports whether every chunk is currently free.
// Not reliable under concurrency.
func (p *Pool) IsEmpty() bool {
	return p.Size() == 0
}

// Size returns the current number of allocated chunks.
// Not reliable under concurrency.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, a := range p.allocated {
		if a {
			n++
		}
	}
	return n
}

// Stats returns an informational snapshot of the pool's state.
func (p *Pool) Stats() PoolStats {
	size := p.Size()
	return PoolStats{
		ChunkSize: p.chunkSize,
		Capacity:  p.capacity,
		Free:      p.capacity - size,
		Allocated: size,
	}
}

// Destroy marks the pool closed. It returns an error instead of
// panicking or corrupting state if chunks are still allocated, so a
// caller can check and report rather than silently leaking.
func (p *Pool) Destroy() error {
	if p.Size() > 0 {
		return errors.New("mpool: destroy called with chunks still allocated")
	}
	p.closed.StoreRelease(true)
	return nil
}
