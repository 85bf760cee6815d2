// Copyright 2026 The Govisor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package taskman

import (
	"sync"
	"time"
)

// watchers is the set of goroutines blocked waiting for some state
// guarded by mx to change.
type watchers struct {
	mx  *sync.Mutex
	cvs map[*sync.Cond]bool
}

func newWatchers(mx *sync.Mutex) *watchers {
	return &watchers{mx: mx, cvs: make(map[*sync.Cond]bool)}
}

// wake must be called with the lock held, otherwise the woken goroutines
// may not observe the change.
func (w *watchers) wake() {
	for cv := range w.cvs {
		cv.Broadcast()
	}
}

// wait blocks until changed returns true or the duration expires.  The
// changed function is called with the lock held.  A zero expiration
// makes this a poll.
func (w *watchers) wait(changed func() bool, expire time.Duration) {
	expired := false
	cv := sync.NewCond(w.mx)
	var timer *time.Timer

	if expire > 0 {
		timer = time.AfterFunc(expire, func() {
			w.mx.Lock()
			expired = true
			cv.Broadcast()
			w.mx.Unlock()
		})
	} else {
		expired = true
	}

	w.mx.Lock()
	w.cvs[cv] = true
	for !changed() && !expired {
		cv.Wait()
	}
	delete(w.cvs, cv)
	w.mx.Unlock()

	if timer != nil {
		timer.Stop()
	}
}
