// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pulse

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T, pools []PoolConfig, flags Flags) *Bus {
	t.Helper()
	b, err := NewBus(BusConfig{
		Name:        "test",
		Pools:       pools,
		MaxRXQs:     8,
		MaxSubs:     32,
		RXQCapacity: 4,
		Flags:       flags,
	})
	require.NoError(t, err)
	return b
}

func TestSinglePoolFourSubscribersReceiveSameBytes(t *testing.T) {
	b := newTestBus(t, []PoolConfig{{ChunkSize: 64, Capacity: 4}}, 0)

	rxqs := make([]*RXQ, 4)
	for i := range rxqs {
		rxq, err := b.RXQInit()
		require.NoError(t, err)
		require.NoError(t, b.Subscribe(rxq, 1))
		rxqs[i] = rxq
	}

	require.NoError(t, b.Publish(1, []byte("hello pulse")))

	for _, rxq := range rxqs {
		e := b.RXQPopFront(rxq)
		require.Equal(t, "hello pulse", string(e.Data))
		require.Equal(t, uint32(1), e.PID)
	}
	require.True(t, b.Stats().Pools[0].Free == 4, "chunk must return to the pool once every subscriber has popped")
}

func TestPublishSelectsSmallestSufficientPool(t *testing.T) {
	b := newTestBus(t, []PoolConfig{
		{ChunkSize: 16, Capacity: 2},
		{ChunkSize: 256, Capacity: 2},
	}, 0)

	rxq, err := b.RXQInit()
	require.NoError(t, err)
	require.NoError(t, b.Subscribe(rxq, 9))

	require.NoError(t, b.Publish(9, []byte("short")))
	stats := b.Stats()
	require.Equal(t, 1, stats.Pools[0].Allocated, "a 5-byte packet must come from the 16-byte pool")
	require.Equal(t, 0, stats.Pools[1].Allocated)

	b.RXQPopFront(rxq)
}

func TestPublishTooLargeForEveryPoolIsRejected(t *testing.T) {
	b := newTestBus(t, []PoolConfig{{ChunkSize: 8, Capacity: 2}}, 0)
	err := b.Publish(1, make([]byte, 9))
	require.ErrorIs(t, err, ErrSizeTooLarge)
}

func TestPublishToNobodyReleasesTheChunkImmediately(t *testing.T) {
	b := newTestBus(t, []PoolConfig{{ChunkSize: 16, Capacity: 1}}, 0)
	require.NoError(t, b.Publish(404, []byte("nobody listening")))
	require.Equal(t, 1, b.Stats().Pools[0].Free)
}

func TestSyncReleaseFansOutToEveryRXQBeforeAnyConsumerSees(t *testing.T) {
	b := newTestBus(t, []PoolConfig{{ChunkSize: 32, Capacity: 2}}, 0)

	a, err := b.RXQInit()
	require.NoError(t, err)
	c, err := b.RXQInit()
	require.NoError(t, err)
	d, err := b.RXQInit()
	require.NoError(t, err)
	require.NoError(t, b.Subscribe(a, 1))
	require.NoError(t, b.Subscribe(c, 1))
	require.NoError(t, b.Subscribe(d, 1))

	order := make(chan string, 3)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.RXQPopFront(a)
		order <- "consumed"
	}()
	time.Sleep(10 * time.Millisecond) // let the consumer block on an empty rxq

	require.NoError(t, b.Publish(1, []byte("fanout")))
	order <- "published"
	wg.Wait()

	require.Equal(t, 1, c.Len())
	require.Equal(t, 1, d.Len())
	b.RXQPopFront(c)
	b.RXQPopFront(d)
}

func TestAsyncModePartialFailureRollsBackUnusedRefs(t *testing.T) {
	b := newTestBus(t, []PoolConfig{{ChunkSize: 16, Capacity: 2}}, PulseAsync)

	full, err := b.RXQInitCapacity(1)
	require.NoError(t, err)
	spare, err := b.RXQInit()
	require.NoError(t, err)
	require.NoError(t, b.Subscribe(full, 5))
	require.NoError(t, b.Subscribe(spare, 5))

	// Fill the first rxq so publish-release to it must fail.
	require.NoError(t, b.Publish(5, []byte("filler")))
	b.RXQPopFront(spare) // drain the sibling copy; the filler's chunk stays held by the entry in full

	err = b.Publish(5, []byte("second"))
	var perr *PartialError
	require.True(t, errors.As(err, &perr))
	require.True(t, errors.Is(err, ErrPartial))
	require.Equal(t, []int{full.ID()}, perr.FailedRXQs)

	// The spare rxq still got its copy.
	e := b.RXQPopFront(spare)
	require.Equal(t, "second", string(e.Data))

	// Drain the filler entry stuck in the full rxq, then the chunk must
	// fully return to the pool (no leaked ref from the rolled-back
	// recipient).
	b.RXQPopFront(full)
	require.Equal(t, 2, b.Stats().Pools[0].Free)
}

func TestSubscriptionChurnDoesNotAffectUnrelatedPID(t *testing.T) {
	b := newTestBus(t, []PoolConfig{{ChunkSize: 16, Capacity: 4}}, 0)

	rxq, err := b.RXQInit()
	require.NoError(t, err)
	require.NoError(t, b.Subscribe(rxq, 1))
	require.NoError(t, b.Subscribe(rxq, 2))

	require.ErrorIs(t, b.Subscribe(rxq, 1), ErrAlreadySubscribed)

	require.NoError(t, b.Unsubscribe(rxq, 1))
	require.ErrorIs(t, b.Unsubscribe(rxq, 1), ErrNotSubscribed)

	require.NoError(t, b.Publish(1, []byte("x")))
	require.Equal(t, 0, rxq.Len(), "unsubscribed id must not be delivered")

	require.NoError(t, b.Publish(2, []byte("y")))
	require.Equal(t, 1, rxq.Len())
	b.RXQPopFront(rxq)
}

func TestTimedReserveTimesOutWithoutConsumingAChunk(t *testing.T) {
	b := newTestBus(t, []PoolConfig{{ChunkSize: 8, Capacity: 1}}, 0)
	held, err := b.Reserve(4)
	require.NoError(t, err)

	start := time.Now()
	_, ok, err := b.TimedReserve(4, 20*time.Millisecond)
	require.NoError(t, err)
	require.False(t, ok)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	require.NoError(t, b.PublishRelease(1, held))
}

func TestReserveExternalNeverTouchesAPool(t *testing.T) {
	b := newTestBus(t, []PoolConfig{{ChunkSize: 8, Capacity: 1}}, 0)
	rxq, err := b.RXQInit()
	require.NoError(t, err)
	require.NoError(t, b.Subscribe(rxq, 1))

	buf := []byte("external")
	rsrv := b.ReserveExternal(buf)
	require.NoError(t, b.PublishRelease(1, rsrv))
	require.Equal(t, 1, b.Stats().Pools[0].Free)

	e := b.RXQPopFront(rxq)
	require.Equal(t, EntryExternal, e.Kind)
	require.Equal(t, "external", string(e.Data))
}

func TestDestroyFailsWithUndeliveredEntries(t *testing.T) {
	b := newTestBus(t, []PoolConfig{{ChunkSize: 8, Capacity: 1}}, 0)
	rxq, err := b.RXQInit()
	require.NoError(t, err)
	require.NoError(t, b.Subscribe(rxq, 1))
	require.NoError(t, b.Publish(1, []byte("stuck")))

	require.ErrorIs(t, b.Destroy(), ErrBusy)
	b.RXQPopFront(rxq)
	require.NoError(t, b.Destroy())
}

func TestTraceSinkRecordsEvents(t *testing.T) {
	sink := NewTraceSink(16)
	b, err := NewBus(BusConfig{
		Name:        "traced",
		Pools:       []PoolConfig{{ChunkSize: 8, Capacity: 2}},
		MaxRXQs:     2,
		MaxSubs:     2,
		RXQCapacity: 2,
		Sink:        sink,
	})
	require.NoError(t, err)

	rxq, err := b.RXQInit()
	require.NoError(t, err)
	require.NoError(t, b.Subscribe(rxq, 1))
	require.NoError(t, b.Publish(1, []byte("hi")))
	b.RXQPopFront(rxq)

	events := sink.Drain()
	require.NotEmpty(t, events)
	var kinds []EventKind
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	require.Contains(t, kinds, EventSubscribe)
	require.Contains(t, kinds, EventPublish)
}
