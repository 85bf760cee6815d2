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
	"strings"
	"sync"
	"time"
)

const (
	MaxLogRecords = 1000
)

type LogRecord struct {
	Id   int64     `json:"id,string"`
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// Log keeps the most recent lines written to it in a ring.  It is an
// io.Writer, so it can sit behind a log.Logger.
type Log struct {
	records []LogRecord
	count   int // lines ever written; count % len(records) is the next slot
	id      int64
	watch   *watchers
	mx      sync.Mutex
}

// NewLog returns a Log holding at most max records.  A max of zero or
// less selects MaxLogRecords.
func NewLog(max int) *Log {
	if max <= 0 {
		max = MaxLogRecords
	}
	l := &Log{
		records: make([]LogRecord, max),
		// Seeding from the clock keeps ids from repeating across
		// restarts, which matters to clients holding an Etag.
		id: time.Now().UnixNano(),
	}
	l.watch = newWatchers(&l.mx)
	return l
}

// Write records each line of b separately.
func (l *Log) Write(b []byte) (int, error) {
	str := strings.Trim(string(b), "\n")
	now := time.Now()
	l.mx.Lock()
	for _, line := range strings.Split(str, "\n") {
		l.id++
		l.records[l.count%len(l.records)] = LogRecord{
			Id:   l.id,
			Time: now,
			Text: line,
		}
		l.count++
	}
	l.watch.wake()
	l.mx.Unlock()
	return len(b), nil
}

// Clear discards all records.
func (l *Log) Clear() {
	l.mx.Lock()
	l.count = 0
	l.id = time.Now().UnixNano()
	l.watch.wake()
	l.mx.Unlock()
}

// Records returns the retained records, oldest first, along with an ID
// suitable for use as an Etag.  If last matches the current ID, nothing
// has changed and nil is returned.
func (l *Log) Records(last int64) ([]LogRecord, int64) {
	l.mx.Lock()
	defer l.mx.Unlock()

	if l.id == last {
		return nil, last
	}
	n := l.count
	if n > len(l.records) {
		n = len(l.records)
	}
	recs := make([]LogRecord, 0, n)
	for i := l.count - n; i < l.count; i++ {
		recs = append(recs, l.records[i%len(l.records)])
	}
	return recs, l.id
}

// Watch waits up to expire for the log to move past last, and returns
// the current ID.
func (l *Log) Watch(last int64, expire time.Duration) int64 {
	var rv int64
	l.watch.wait(func() bool {
		rv = l.id
		return rv != last
	}, expire)
	return rv
}
