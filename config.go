// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pulse

// PoolConfig describes one of a Bus's backing memory pools.
type PoolConfig struct {
	// ChunkSize is the fixed size, in bytes, of every chunk in this
	// pool. Must be > 0.
	ChunkSize int
	// Capacity is the fixed number of chunks in this pool. Must be > 0.
	Capacity int
}

// BusConfig configures a Bus at construction time. All fields are
// consumed by NewBus; the Bus itself is immutable thereafter except for
// its subscription registry and RXQ set.
type BusConfig struct {
	// Name identifies the bus for debugging/tracing. Limited to 32
	// bytes, matching the bus's fixed-size name field in its C
	// ancestry. The content is not checked for ASCII-only characters.
	Name string

	// Pools lists the bus's backing memory pools. At least one is
	// required. Reserve/Publish picks, for a given size, the pool with
	// the smallest chunk size that is still >= size, breaking ties by
	// lowest index in this slice.
	Pools []PoolConfig

	// MaxRXQs caps the number of receive queues RXQInit may create.
	// Must be > 0.
	MaxRXQs int
	// MaxSubs caps the number of live (rxq, pid) subscriptions. Must be
	// > 0.
	MaxSubs int
	// RXQCapacity is the default capacity for RXQs created via
	// RXQInit. Must be > 0.
	RXQCapacity int

	// Flags configures allocation/release behavior; see the Flags doc.
	Flags Flags

	// Sink receives lifecycle events for debugging/tracing. Defaults to
	// NopSink if nil.
	Sink EventSink

	// Clock supplies event timestamps. Defaults to SystemClock if nil.
	Clock Clock
}
