// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pulse

import (
	"context"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/pulse/mpool"
	"code.hybscloud.com/pulse/pcqueue"
	"code.hybscloud.com/pulse/rdwrlock"
)

// BusStats is an informational snapshot of a Bus's state.
type BusStats struct {
	Pools           []mpool.PoolStats
	Publishes       uint64
	PartialFailures uint64
}

// Bus is a PULSE publish/subscribe bus: a set of memory pools, a set of
// subscriber receive queues (RXQs), a subscription registry binding ids
// to RXQs, and a fair gate serializing publish-release against
// consumption (in synchronous mode). Subscription changes are serialized
// against fan-out by the registry's own mutex, not by the gate.
//
// The zero value is not usable; construct with NewBus.
type Bus struct {
	name  string
	flags Flags
	sink  EventSink
	clock Clock

	pools []*mpool.Pool

	gate *rdwrlock.RdWrLock

	rxqMu       sync.Mutex
	rxqs        []*RXQ
	maxRXQs     int
	rxqCapacity int

	subMu   sync.Mutex
	reg     subs
	maxSubs int

	publishes       atomix.Uint64
	partialFailures atomix.Uint64
}

// NewBus constructs a Bus from cfg. Returns [ErrInvalidArgument] if cfg
// is malformed.
func NewBus(cfg BusConfig) (*Bus, error) {
	if len(cfg.Name) > 32 {
		return nil, ErrInvalidArgument
	}
	if len(cfg.Pools) == 0 || cfg.MaxRXQs <= 0 || cfg.MaxSubs <= 0 || cfg.RXQCapacity <= 0 {
		return nil, ErrInvalidArgument
	}
	for _, pc := range cfg.Pools {
		if pc.ChunkSize <= 0 || pc.Capacity <= 0 {
			return nil, ErrInvalidArgument
		}
	}

	sink := cfg.Sink
	if sink == nil {
		sink = NopSink{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock
	}

	b := &Bus{
		name:        cfg.Name,
		flags:       cfg.Flags,
		sink:        sink,
		clock:       clock,
		gate:        rdwrlock.New(),
		maxRXQs:     cfg.MaxRXQs,
		maxSubs:     cfg.MaxSubs,
		rxqCapacity: cfg.RXQCapacity,
	}
	for _, pc := range cfg.Pools {
		b.pools = append(b.pools, mpool.New(pc.ChunkSize, pc.Capacity))
	}
	return b, nil
}

// Name returns the bus's configured name.
func (b *Bus) Name() string { return b.name }

func (b *Bus) emit(kind EventKind, pid uint32, rxqID int) {
	b.sink.Emit(Event{Kind: kind, PID: pid, RXQID: rxqID, At: b.clock.Now()})
}

// RXQInit creates and registers a new receive queue of the bus's
// configured default capacity. Returns [ErrRXQLimit] once MaxRXQs
// queues already exist.
func (b *Bus) RXQInit() (*RXQ, error) {
	return b.rxqInit(b.rxqCapacity)
}

// RXQInitCapacity is like RXQInit but overrides the per-queue capacity.
func (b *Bus) RXQInitCapacity(capacity int) (*RXQ, error) {
	if capacity <= 0 {
		return nil, ErrInvalidArgument
	}
	return b.rxqInit(capacity)
}

func (b *Bus) rxqInit(capacity int) (*RXQ, error) {
	b.rxqMu.Lock()
	defer b.rxqMu.Unlock()
	if len(b.rxqs) >= b.maxRXQs {
		return nil, ErrRXQLimit
	}
	rxq := &RXQ{id: len(b.rxqs), q: pcqueue.New[ReceiveEntry](capacity)}
	b.rxqs = append(b.rxqs, rxq)
	return rxq, nil
}

// Subscribe binds rxq to receive every packet published under pid.
// Returns [ErrAlreadySubscribed] if the pair is already bound, or
// [ErrSubscriptionLimit] once MaxSubs bindings already exist.
func (b *Bus) Subscribe(rxq *RXQ, pid uint32) error {
	if rxq == nil {
		return ErrInvalidArgument
	}
	b.subMu.Lock()
	defer b.subMu.Unlock()
	if b.reg.len() >= b.maxSubs {
		return ErrSubscriptionLimit
	}
	if !b.reg.insert(subscription{pid: pid, rxq: rxq}) {
		return ErrAlreadySubscribed
	}
	b.emit(EventSubscribe, pid, rxq.id)
	return nil
}

// Unsubscribe unbinds rxq from pid. Returns [ErrNotSubscribed] if the
// pair was not bound.
func (b *Bus) Unsubscribe(rxq *RXQ, pid uint32) error {
	if rxq == nil {
		return ErrInvalidArgument
	}
	b.subMu.Lock()
	defer b.subMu.Unlock()
	if !b.reg.remove(subscription{pid: pid, rxq: rxq}) {
		return ErrNotSubscribed
	}
	b.emit(EventUnsubscribe, pid, rxq.id)
	return nil
}

// selectPool picks the pool with the smallest chunk size that is still
// >= size, breaking ties by the lowest pool index.
func (b *Bus) selectPool(size int) (*mpool.Pool, int, error) {
	best := -1
	for i, p := range b.pools {
		if p.ChunkSize() < size {
			continue
		}
		if best == -1 || p.ChunkSize() < b.pools[best].ChunkSize() {
			best = i
		}
	}
	if best == -1 {
		return nil, -1, ErrSizeTooLarge
	}
	return b.pools[best], best, nil
}

// Reserve obtains size bytes of pooled storage, blocking until the
// chosen pool has a free chunk. Returns [ErrSizeTooLarge] if no
// configured pool's chunk size is big enough.
func (b *Bus) Reserve(size int) (Reservation, error) {
	if size <= 0 {
		return Reservation{}, ErrInvalidArgument
	}
	pool, idx, err := b.selectPool(size)
	if err != nil {
		return Reservation{}, err
	}
	data := pool.Req()
	if b.flags.has(Zalloc) {
		for i := range data[:size] {
			data[i] = 0
		}
	}
	return Reservation{Kind: EntryPooled, Data: data[:size:size], Size: size, pool: pool, poolIndex: idx}, nil
}

// TimedReserve is like Reserve but gives up after rel elapses.
func (b *Bus) TimedReserve(size int, rel time.Duration) (Reservation, bool, error) {
	if size <= 0 {
		return Reservation{}, false, ErrInvalidArgument
	}
	pool, idx, err := b.selectPool(size)
	if err != nil {
		return Reservation{}, false, err
	}
	data, ok := pool.TimedReq(rel)
	if !ok {
		return Reservation{}, false, nil
	}
	if b.flags.has(Zalloc) {
		for i := range data[:size] {
			data[i] = 0
		}
	}
	return Reservation{Kind: EntryPooled, Data: data[:size:size], Size: size, pool: pool, poolIndex: idx}, true, nil
}

// ReserveExternal wraps caller-owned storage as a Reservation: no bus
// pool is consulted and PublishRelease never returns buf to a pool.
func (b *Bus) ReserveExternal(buf []byte) Reservation {
	return Reservation{Kind: EntryExternal, Data: buf, Size: len(buf)}
}

// PublishRelease fans rsrv out to every RXQ subscribed to pid and
// returns. In the default (synchronous) mode the bus's gate is held in
// write scope for the whole fan-out, so no consumer anywhere on the bus
// observes a partial delivery; with [PulseAsync] the gate is held in
// read scope, letting consumers drain concurrently.
//
// If zero RXQs are subscribed to pid, rsrv's pooled storage (if any) is
// released immediately and PublishRelease returns nil: publishing to
// nobody is not an error.
//
// If any subscribed RXQ is full, in either mode, PublishRelease does not
// wait for it: it still enqueues to every RXQ that has room, rolls back
// the unused chunk references for the ones that didn't, and returns a
// *[PartialError] (test with errors.Is(err, ErrPartial)).
func (b *Bus) PublishRelease(pid uint32, rsrv Reservation) error {
	scope := rdwrlock.ScopeWrite
	if b.flags.has(PulseAsync) {
		scope = rdwrlock.ScopeRead
	}
	b.gate.Req(scope)
	defer b.gate.Exit(scope)

	b.subMu.Lock()
	run := b.reg.run(pid)
	k := len(run)

	if k == 0 {
		b.subMu.Unlock()
		if rsrv.Kind == EntryPooled {
			rsrv.pool.Release(rsrv.Data)
		}
		return nil
	}

	if rsrv.Kind == EntryPooled {
		for i := 0; i < k-1; i++ {
			// The pool already handed back the chunk with refcount 1
			// (for this call's own hold); one extra ref per additional
			// recipient brings the count to k before any entry is
			// queued, so the first consumer to pop can never drop it
			// to zero while siblings are still waiting.
			if err := rsrv.pool.RefAdd(rsrv.Data); err != nil {
				b.subMu.Unlock()
				return err
			}
		}
	}

	failed := make([]int, 0, k)
	for _, s := range run {
		entry := ReceiveEntry{Kind: rsrv.Kind, Data: rsrv.Data, Size: rsrv.Size, PID: pid, pool: rsrv.pool, poolIndex: rsrv.poolIndex}
		if s.rxq.q.TryPush(entry) {
			continue
		}
		failed = append(failed, s.rxq.id)
	}
	b.subMu.Unlock()

	b.publishes.AddAcqRel(1)
	b.emit(EventPublish, pid, -1)

	if len(failed) == 0 {
		return nil
	}

	if rsrv.Kind == EntryPooled {
		// Each failed push leaves one ref unit undelivered. Release
		// (not RefRemove) gives it back: RefRemove never returns a
		// chunk to the free set even at zero, which would strand it
		// forever when every push failed (no consumer Release will
		// ever follow, since no consumer received an entry at all).
		// Release decrements the same way but also performs the
		// free-set transition if the count reaches zero, which is
		// exactly right here since these units were never handed to
		// anyone.
		for range failed {
			rsrv.pool.Release(rsrv.Data)
		}
	}
	b.partialFailures.AddAcqRel(1)
	b.emit(EventPartial, pid, -1)
	return &PartialError{PID: pid, FailedRXQs: failed}
}

// Publish is a convenience wrapping Reserve, a copy of data into the
// reservation, and PublishRelease.
func (b *Bus) Publish(pid uint32, data []byte) error {
	rsrv, err := b.Reserve(len(data))
	if err != nil {
		return err
	}
	copy(rsrv.Data, data)
	return b.PublishRelease(pid, rsrv)
}

// RXQFront returns the entry at the front of rxq, waiting if it is
// currently empty, without removing it. The unbounded wait for data
// happens outside the publish gate; once something is visible, the
// entry is re-read under the gate's read scope, so in synchronous (the
// default) mode the value handed back reflects a fully completed
// fan-out, not one still in progress, while PulseAsync mode proceeds
// concurrently with fan-out. Holding the gate across the wait itself
// would deadlock: a reader parked on an empty queue would hold access
// forever, and a sync-mode publisher can never acquire it to deliver
// the entry the reader is waiting for.
func (b *Bus) RXQFront(rxq *RXQ) ReceiveEntry {
	for {
		rxq.q.Peek()
		b.gate.Req(rdwrlock.ScopeRead)
		e, ok := rxq.q.TimedPeek(0)
		b.gate.Exit(rdwrlock.ScopeRead)
		if ok {
			return e
		}
		// Another consumer popped it between the two peeks; go around
		// and wait for the next one.
	}
}

// RXQTimedWait is like RXQFront but gives up after rel elapses,
// counting both the wait for data and the wait for the publish gate
// against the same deadline.
func (b *Bus) RXQTimedWait(rxq *RXQ, rel time.Duration) (ReceiveEntry, bool) {
	deadline := time.Now().Add(rel)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ReceiveEntry{}, false
		}
		if _, ok := rxq.q.TimedPeek(remaining); !ok {
			return ReceiveEntry{}, false
		}
		remaining = time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		if !b.gate.TimedReq(rdwrlock.ScopeRead, remaining) {
			return ReceiveEntry{}, false
		}
		e, ok := rxq.q.TimedPeek(0)
		b.gate.Exit(rdwrlock.ScopeRead)
		if ok {
			return e, true
		}
	}
}

// RXQWaitContext is like RXQFront but returns ctx.Err() if ctx is
// cancelled or its deadline passes before an entry arrives. Implemented
// as a sequence of short gated timed waits rather than a dedicated
// cancelable primitive, since neither RXQ's underlying queue nor the
// publish gate has native context support.
func (b *Bus) RXQWaitContext(ctx context.Context, rxq *RXQ) (ReceiveEntry, error) {
	const pollInterval = 20 * time.Millisecond
	for {
		if err := ctx.Err(); err != nil {
			return ReceiveEntry{}, err
		}
		wait := pollInterval
		if dl, ok := ctx.Deadline(); ok {
			if remaining := time.Until(dl); remaining < wait {
				wait = remaining
			}
		}
		if e, ok := b.RXQTimedWait(rxq, wait); ok {
			return e, nil
		}
	}
}

// RXQPopFront removes and returns the front entry of rxq, waiting if it
// is currently empty. As with RXQFront, the unbounded wait happens
// outside the publish gate and the removal itself happens under the
// gate's read scope, so in synchronous mode the entry is only taken
// once any in-flight fan-out has completed. If the entry is pooled,
// this decrements its chunk's reference count, returning the chunk to
// its pool once the count reaches zero.
func (b *Bus) RXQPopFront(rxq *RXQ) ReceiveEntry {
	for {
		rxq.q.Peek()
		b.gate.Req(rdwrlock.ScopeRead)
		e, ok := rxq.q.TryPop()
		b.gate.Exit(rdwrlock.ScopeRead)
		if !ok {
			continue
		}
		if e.Kind == EntryPooled {
			e.pool.Release(e.Data)
		}
		return e
	}
}

// RXQTryPopFront is like RXQPopFront but returns (zero, false)
// immediately if rxq is empty or the publish gate is currently held by
// a writer, instead of waiting for either.
func (b *Bus) RXQTryPopFront(rxq *RXQ) (ReceiveEntry, bool) {
	if !b.gate.TryReq(rdwrlock.ScopeRead) {
		return ReceiveEntry{}, false
	}
	defer b.gate.Exit(rdwrlock.ScopeRead)
	e, ok := rxq.q.TryPop()
	if !ok {
		return ReceiveEntry{}, false
	}
	if e.Kind == EntryPooled {
		e.pool.Release(e.Data)
	}
	return e, true
}

// Stats returns an informational snapshot of the bus's state.
func (b *Bus) Stats() BusStats {
	st := BusStats{
		Pools:           make([]mpool.PoolStats, len(b.pools)),
		Publishes:       b.publishes.LoadAcquire(),
		PartialFailures: b.partialFailures.LoadAcquire(),
	}
	for i, p := range b.pools {
		st.Pools[i] = p.Stats()
	}
	return st
}

// Destroy reports [ErrBusy] if any RXQ still holds undelivered entries
// or any pool still has allocated chunks; otherwise it marks every pool
// destroyed and returns nil. Afterward the Bus must not be used.
func (b *Bus) Destroy() error {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	b.rxqMu.Lock()
	defer b.rxqMu.Unlock()

	for _, rxq := range b.rxqs {
		if rxq.q.Len() > 0 {
			return ErrBusy
		}
	}
	for _, p := range b.pools {
		if !p.IsEmpty() {
			return ErrBusy
		}
	}
	for _, p := range b.pools {
		if err := p.Destroy(); err != nil {
			return err
		}
	}
	return nil
}
