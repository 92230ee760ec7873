// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package syncprim

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCondVarSignalWakesOneWaiter(t *testing.T) {
	var mu sync.Mutex
	cv := NewCondVar()
	ready := false
	done := make(chan struct{})

	go func() {
		mu.Lock()
		for !ready {
			cv.Wait(&mu)
		}
		mu.Unlock()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	ready = true
	mu.Unlock()
	cv.Signal()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter never woke")
	}
}

func TestCondVarBroadcastWakesAll(t *testing.T) {
	var mu sync.Mutex
	cv := NewCondVar()
	ready := false
	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			mu.Lock()
			for !ready {
				cv.Wait(&mu)
			}
			mu.Unlock()
		}()
	}

	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	ready = true
	mu.Unlock()
	cv.Broadcast()

	waited := make(chan struct{})
	go func() {
		wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("not all waiters woke")
	}
}

func TestCondVarTimedWaitTimesOut(t *testing.T) {
	var mu sync.Mutex
	cv := NewCondVar()
	mu.Lock()
	defer mu.Unlock()
	start := time.Now()
	ok := cv.TimedWait(&mu, 20*time.Millisecond)
	require.False(t, ok)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
