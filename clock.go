// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pulse

import "time"

// Clock is the time source used to stamp events emitted to an EventSink.
// Injected via BusConfig so tests can substitute a deterministic clock
// instead of depending on wall-clock time; every timed wait elsewhere in
// the module (Req/TimedReq, Push/TimedPush, Req/TimedReq on the gate)
// already goes through time.Duration-based deadlines and needs no
// separate abstraction.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the default [Clock], backed by time.Now.
var SystemClock Clock = systemClock{}
