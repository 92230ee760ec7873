// Copyright Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package syncprim

import "sync"

// Mutex is an alias for sync.Mutex, named locally so that callers reading
// [code.hybscloud.com/pulse/rdwrlock], [code.hybscloud.com/pulse/pcqueue]
// and [code.hybscloud.com/pulse/mpool] see the same vocabulary this
// package uses throughout (mutex, condvar, counting semaphore) rather
// than reaching for sync directly. It adds nothing over sync.Mutex: Go's
// runtime-integrated mutex is already the portable, non-reentrant,
// unfair-under-contention primitive wanted here.
type Mutex = sync.Mutex
