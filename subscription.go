// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pulse

import "sort"

// subscription is one (pid, rxq) pair. The registry keeps these sorted
// by (pid, rxq.id) so that every RXQ subscribed to a given pid forms a
// contiguous run, found via a single binary search.
type subscription struct {
	pid uint32
	rxq *RXQ
}

func subLess(a, b subscription) bool {
	if a.pid != b.pid {
		return a.pid < b.pid
	}
	return a.rxq.id < b.rxq.id
}

// subs is the bus's subscription registry. All methods assume the
// caller holds Bus.subMu.
type subs struct {
	list []subscription
}

func (s *subs) lowerBound(key subscription) int {
	return sort.Search(len(s.list), func(i int) bool {
		return !subLess(s.list[i], key)
	})
}

func (s *subs) len() int { return len(s.list) }

// insert adds sub in sorted position. Reports false (no-op) if sub is
// already present.
func (s *subs) insert(sub subscription) bool {
	i := s.lowerBound(sub)
	if i < len(s.list) && s.list[i].pid == sub.pid && s.list[i].rxq.id == sub.rxq.id {
		return false
	}
	s.list = append(s.list, subscription{})
	copy(s.list[i+1:], s.list[i:])
	s.list[i] = sub
	return true
}

// remove deletes sub. Reports false if it wasn't present.
func (s *subs) remove(sub subscription) bool {
	i := s.lowerBound(sub)
	if i >= len(s.list) || s.list[i].pid != sub.pid || s.list[i].rxq.id != sub.rxq.id {
		return false
	}
	s.list = append(s.list[:i], s.list[i+1:]...)
	return true
}

// run returns the contiguous slice of subscriptions for pid. The
// returned slice aliases the registry's backing array and must not be
// retained past the caller's hold on Bus.subMu.
func (s *subs) run(pid uint32) []subscription {
	lo := s.lowerBound(subscription{pid: pid, rxq: &RXQ{id: -1 << 31}})
	hi := lo
	for hi < len(s.list) && s.list[hi].pid == pid {
		hi++
	}
	return s.list[lo:hi]
}
