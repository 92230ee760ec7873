// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pulse

// Flags configures a Bus's allocation and release behavior.
type Flags uint32

const (
	// NoallocHandle, NoallocData and NoallocMeta name the storage-
	// placement controls carried over from the bus's C ancestry, where
	// they chose whether the handle/data/metadata structures lived in
	// caller-supplied static storage instead of the heap. Go's
	// garbage-collected allocator makes that distinction meaningless
	// here: every allocation is heap-managed regardless of these
	// flags. They are accepted and preserved on BusConfig purely so
	// ported configuration doesn't have to strip them out, and are
	// otherwise no-ops.
	NoallocHandle Flags = 1 << iota
	NoallocData
	NoallocMeta

	// Zalloc zero-fills a chunk's first Size bytes on Reserve. Off by
	// default: Go slices backed by a reused pool chunk already carry
	// whatever the previous occupant left there, same as malloc, and
	// zeroing a chunk on every Reserve is wasted work for callers that
	// always overwrite the whole reservation before Release.
	Zalloc

	// PulseAsync switches PublishRelease's gate scope from write to
	// read: see the package doc's "Synchronous vs. asynchronous
	// release" section.
	PulseAsync
)

// PulsePoolsNoalloc is a convenience combination for pools carved from
// static storage.
const PulsePoolsNoalloc = NoallocData | NoallocMeta

func (f Flags) has(bit Flags) bool { return f&bit != 0 }
