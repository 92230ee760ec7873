// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdwrlock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRdWrLockMultipleReadersConcurrent(t *testing.T) {
	l := New()
	var active int32
	var maxSeen int32
	var wg sync.WaitGroup
	const n = 8
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			l.Req(ScopeRead)
			cur := atomic.AddInt32(&active, 1)
			for {
				prev := atomic.LoadInt32(&maxSeen)
				if cur <= prev || atomic.CompareAndSwapInt32(&maxSeen, prev, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			l.Exit(ScopeRead)
		}()
	}
	wg.Wait()
	require.Greater(t, maxSeen, int32(1), "readers never overlapped")
}

func TestRdWrLockWriterExclusive(t *testing.T) {
	l := New()
	var active int32
	var wg sync.WaitGroup
	const n = 8
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			l.Req(ScopeWrite)
			cur := atomic.AddInt32(&active, 1)
			require.Equal(t, int32(1), cur)
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
			l.Exit(ScopeWrite)
		}()
	}
	wg.Wait()
}

func TestRdWrLockWriterNotStarvedByReaders(t *testing.T) {
	l := New()
	l.Req(ScopeRead)

	writerDone := make(chan struct{})
	go func() {
		l.Req(ScopeWrite)
		close(writerDone)
		l.Exit(ScopeWrite)
	}()

	time.Sleep(10 * time.Millisecond)

	// a second reader arriving after the writer is queued must block on
	// order, giving the writer its turn instead of joining the existing
	// reader group.
	secondReaderEntered := make(chan struct{})
	go func() {
		l.Req(ScopeRead)
		close(secondReaderEntered)
		l.Exit(ScopeRead)
	}()

	select {
	case <-secondReaderEntered:
		t.Fatal("second reader entered ahead of queued writer")
	case <-time.After(30 * time.Millisecond):
	}

	l.Exit(ScopeRead)

	select {
	case <-writerDone:
	case <-time.After(time.Second):
		t.Fatal("writer starved")
	}
	<-secondReaderEntered
}

func TestRdWrLockTimedReqTimesOutWithoutLeakingSemaphores(t *testing.T) {
	l := New()
	l.Req(ScopeWrite)

	start := time.Now()
	ok := l.TimedReq(ScopeRead, 20*time.Millisecond)
	require.False(t, ok)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	l.Exit(ScopeWrite)

	// the lock must still be fully usable after a timeout.
	ok = l.TimedReq(ScopeRead, time.Second)
	require.True(t, ok)
	l.Exit(ScopeRead)
}
