// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pulse

import (
	"code.hybscloud.com/pulse/mpool"
	"code.hybscloud.com/pulse/pcqueue"
)

// EntryKind distinguishes a ReceiveEntry/Reservation backed by a Bus
// pool chunk from one backed by caller-supplied storage.
type EntryKind int

const (
	// EntryPooled backing storage came from one of the bus's pools and
	// is released (possibly to zero refcount, returning it to its
	// pool) by RXQPopFront.
	EntryPooled EntryKind = iota
	// EntryExternal backing storage was supplied by the caller via
	// ReserveExternal; RXQPopFront never touches any pool for it.
	EntryExternal
)

// Reservation is a writable hold on storage for one packet, obtained
// from Reserve/TimedReserve/ReserveExternal and consumed by
// PublishRelease/Publish.
type Reservation struct {
	Kind Kind
	// Data is the reserved storage, sliced to exactly Size bytes. Fill
	// it before calling PublishRelease.
	Data []byte
	Size int

	pool      *mpool.Pool
	poolIndex int
}

// Kind is an alias retained for readability at call sites
// (pulse.Kind == pulse.EntryKind).
type Kind = EntryKind

// ReceiveEntry is one subscriber's queued view of a released packet.
type ReceiveEntry struct {
	Kind Kind
	// Data is the packet's bytes. Valid until this entry is popped via
	// RXQPopFront.
	Data []byte
	Size int
	// PID is the id the packet was published under.
	PID uint32

	pool      *mpool.Pool
	poolIndex int
}

// RXQ is a bus-owned receive queue handle returned by RXQInit.
type RXQ struct {
	id int
	q  *pcqueue.PCQueue[ReceiveEntry]
}

// ID returns the RXQ's bus-assigned identity, stable for its lifetime
// and unique within its Bus. Used in subscription ordering and in
// PartialError.FailedRXQs.
func (r *RXQ) ID() int { return r.id }

// Len returns the number of entries currently queued. Informational
// only under concurrent use.
func (r *RXQ) Len() int { return r.q.Len() }

// Cap returns the RXQ's fixed capacity.
func (r *RXQ) Cap() int { return r.q.Cap() }
