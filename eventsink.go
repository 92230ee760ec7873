// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pulse

import (
	"time"

	"code.hybscloud.com/lfq"
)

// EventKind classifies an Event emitted to an EventSink.
type EventKind int

const (
	EventSubscribe EventKind = iota
	EventUnsubscribe
	EventPublish
	EventPartial
	EventDrop
)

func (k EventKind) String() string {
	switch k {
	case EventSubscribe:
		return "subscribe"
	case EventUnsubscribe:
		return "unsubscribe"
	case EventPublish:
		return "publish"
	case EventPartial:
		return "partial"
	case EventDrop:
		return "drop"
	default:
		return "unknown"
	}
}

// Event is a single bus lifecycle event, for debugging and tracing only:
// nothing in the bus's correctness depends on an EventSink actually
// observing an Event.
type Event struct {
	Kind EventKind
	PID  uint32
	RXQID int
	At   time.Time
}

// EventSink receives best-effort bus events. Emit must not block and
// must not itself call back into the Bus that is emitting to it.
type EventSink interface {
	Emit(Event)
}

// NopSink discards every event. It is the default sink for a Bus whose
// BusConfig.Sink is nil.
type NopSink struct{}

// Emit implements EventSink.
func (NopSink) Emit(Event) {}

// TraceSink is a bounded, best-effort event sink backed by a lock-free
// MPMC ring: Emit never blocks the publisher/subscriber calling it,
// silently dropping events once the ring is full rather than applying
// backpressure to bus traffic for the sake of tracing.
type TraceSink struct {
	ring *lfq.MPMC[Event]
}

// NewTraceSink creates a trace sink holding up to capacity undrained
// events (rounded up to a power of 2 by the underlying ring).
func NewTraceSink(capacity int) *TraceSink {
	return &TraceSink{ring: lfq.NewMPMC[Event](capacity)}
}

// Emit implements EventSink. A full ring silently drops the event: a
// trace sink is a debugging aid and must never become a new source of
// backpressure for the bus it is observing.
func (s *TraceSink) Emit(e Event) {
	_ = s.ring.Enqueue(&e)
}

// Drain removes and returns every event currently buffered, oldest
// first.
func (s *TraceSink) Drain() []Event {
	var out []Event
	for {
		e, err := s.ring.Dequeue()
		if err != nil {
			break
		}
		out = append(out, e)
	}
	return out
}
