// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pulse implements PULSE, an in-process publish/subscribe bus
// delivering zero-copy fan-out of variable-sized packets to many
// subscribers, with explicit reference counting, bounded memory,
// backpressure, and timed waits.
//
// PULSE composes three lower packages, each usable on its own:
//
//   - [code.hybscloud.com/pulse/mpool]: a reference-counted fixed-chunk
//     memory pool.
//   - [code.hybscloud.com/pulse/pcqueue]: a bounded blocking FIFO, used
//     for each subscriber's receive queue (RXQ).
//   - [code.hybscloud.com/pulse/rdwrlock]: a fair reader/writer lock,
//     used as the bus's publish gate.
//
// # Data flow
//
// A publisher reserves a chunk from the smallest configured pool whose
// chunk size is large enough for the packet, fills it, then releases it
// to the bus. The bus looks up every RXQ subscribed to the packet's id
// and enqueues one receive entry (pointer, size, id, owning pool) per
// subscriber while holding the publish gate, first raising the chunk's
// reference count to the number of recipients. Consumers wait on their
// RXQ, process the entry, then pop it; popping decrements the chunk's
// reference count and, when it reaches zero, returns the chunk to its
// pool.
//
// # Quick start
//
//	bus, err := pulse.NewBus(pulse.BusConfig{
//	    Pools:       []pulse.PoolConfig{{ChunkSize: 64, Capacity: 16}},
//	    MaxRXQs:     4,
//	    MaxSubs:     16,
//	    RXQCapacity: 8,
//	})
//	rxq, _ := bus.RXQInit()
//	_ = bus.Subscribe(rxq, 7)
//
//	_ = bus.Publish(7, []byte("hello"))
//
//	entry := bus.RXQPopFront(rxq)
//	fmt.Println(string(entry.Data))
//
// # Synchronous vs. asynchronous release
//
// By default publish_release holds the publish gate in write mode: no
// consumer can pop any entry for the packet being published until every
// subscriber has its entry enqueued (full fan-out completeness). Passing
// [PulseAsync] in [BusConfig.Flags] holds the gate in read mode instead,
// letting consumers drain concurrently with fan-out.
//
// In both modes a full downstream RXQ is skipped rather than waited on:
// the other subscribers still get their entry, the caller gets back a
// [*PartialError] naming the RXQs that didn't, and the unused chunk
// references are rolled back. The publisher never blocks behind a slow
// consumer during fan-out.
package pulse
