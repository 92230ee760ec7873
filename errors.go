// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pulse

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument is returned for malformed configuration or
	// arguments (zero/negative sizes, nil RXQ handles, an over-long bus
	// name, and so on).
	ErrInvalidArgument = errors.New("pulse: invalid argument")

	// ErrSizeTooLarge is returned by Reserve/Publish when no configured
	// pool's chunk size is large enough for the requested packet.
	ErrSizeTooLarge = fmt.Errorf("pulse: requested size exceeds every configured pool's chunk size: %w", ErrInvalidArgument)

	// ErrRXQLimit is returned by RXQInit once the bus's configured
	// maximum number of RXQs are already registered.
	ErrRXQLimit = errors.New("pulse: rxq limit reached")

	// ErrSubscriptionLimit is returned by Subscribe once the bus's
	// configured maximum number of subscriptions is reached.
	ErrSubscriptionLimit = errors.New("pulse: subscription limit reached")

	// ErrAlreadySubscribed is returned by Subscribe when the given RXQ
	// is already subscribed to the given id.
	ErrAlreadySubscribed = errors.New("pulse: rxq already subscribed to this id")

	// ErrNotSubscribed is returned by Unsubscribe when the given RXQ is
	// not currently subscribed to the given id.
	ErrNotSubscribed = errors.New("pulse: rxq not subscribed to this id")

	// ErrBusy is returned by Destroy when the bus still has undelivered
	// entries queued or chunks allocated.
	ErrBusy = errors.New("pulse: bus has outstanding rxq entries or allocated chunks")

	// ErrPartial marks a [*PartialError]; test with errors.Is(err,
	// ErrPartial) rather than a type assertion, since PublishRelease
	// always returns the concrete *PartialError when fan-out is
	// incomplete.
	ErrPartial = errors.New("pulse: partial fan-out failure")
)

// PartialError reports that PublishRelease could not enqueue a packet's
// entry for one or more of the id's subscribers (possibly all of them,
// if every subscribed RXQ was full). It implements Is so that
// errors.Is(err, ErrPartial) reports true.
//
// The already-enqueued entries remain valid and will be delivered
// normally; only the RXQs named here never received theirs, and the
// unused chunk reference for each was rolled back.
type PartialError struct {
	// PID is the published id that failed to fully fan out.
	PID uint32
	// FailedRXQs lists the ids (see RXQ.ID) of subscribed RXQs that were
	// full at release time and so did not receive an entry.
	FailedRXQs []int
}

func (e *PartialError) Error() string {
	ids := make([]string, len(e.FailedRXQs))
	for i, id := range e.FailedRXQs {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("pulse: publish-release of id %d: %d rxq(s) full, not delivered: [%s]",
		e.PID, len(e.FailedRXQs), strings.Join(ids, ","))
}

func (e *PartialError) Is(target error) bool {
	return target == ErrPartial
}
