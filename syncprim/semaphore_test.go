// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package syncprim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCountingSemaphoreBasic(t *testing.T) {
	s := NewCountingSemaphore(1, 4)
	require.Equal(t, 1, s.Value())

	s.Wait()
	require.Equal(t, 0, s.Value())
	require.False(t, s.TryWait())

	s.Post()
	require.True(t, s.TryWait())
}

func TestCountingSemaphorePostPastMaxPanics(t *testing.T) {
	s := NewCountingSemaphore(2, 2)
	require.Panics(t, func() { s.Post() })
}

func TestCountingSemaphoreTimedWaitTimeout(t *testing.T) {
	s := NewCountingSemaphore(0, 1)
	start := time.Now()
	ok := s.TimedWait(20 * time.Millisecond)
	require.False(t, ok)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	// state unchanged on timeout
	require.Equal(t, 0, s.Value())
}

func TestCountingSemaphoreTimedWaitSuccess(t *testing.T) {
	s := NewCountingSemaphore(0, 1)
	go func() {
		time.Sleep(10 * time.Millisecond)
		s.Post()
	}()
	ok := s.TimedWait(500 * time.Millisecond)
	require.True(t, ok)
}

func TestCountingSemaphoreBlockingWaitWakesOnPost(t *testing.T) {
	s := NewCountingSemaphore(0, 1)
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("wait returned before post")
	case <-time.After(20 * time.Millisecond):
	}

	s.Post()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait did not wake after post")
	}
}

func TestCountingSemaphoreManyWaitersExactlyOneWinsPerPost(t *testing.T) {
	const n = 16
	s := NewCountingSemaphore(0, n)
	acquired := make(chan int, n)
	for i := 0; i < n; i++ {
		go func(id int) {
			s.Wait()
			acquired <- id
		}(i)
	}
	for i := 0; i < n; i++ {
		s.Post()
	}
	seen := make(map[int]bool)
	for i := 0; i < n; i++ {
		select {
		case id := <-acquired:
			require.False(t, seen[id], "duplicate wake for waiter %d", id)
			seen[id] = true
		case <-time.After(time.Second):
			t.Fatalf("only %d of %d waiters woke", i, n)
		}
	}
}
