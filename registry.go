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
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"sync"
	"time"
)

// KillFunc is notified of every entry a Registry removes, whether by an
// explicit kill or by eviction.
type KillFunc func(*Entry)

// Registry holds a bounded, insertion ordered collection of entries.
// All methods are safe for concurrent use; a single lock serializes them.
type Registry struct {
	name       string
	capacity   int
	entries    []*Entry
	console    *log.Logger
	log        *Log
	out        *fanout
	journal    *log.Logger
	onKill     KillFunc
	serial     int64
	createTime time.Time
	updateTime time.Time
	watch      *watchers
	mx         sync.Mutex
}

type RegistryInfo struct {
	Name       string
	Capacity   int
	Size       int
	Serial     int64
	CreateTime time.Time
	UpdateTime time.Time
}

// NewRegistry creates a registry that holds at most capacity entries.
// The name is only used to distinguish registries in log messages.
func NewRegistry(name string, capacity int) (*Registry, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: capacity %d is less than 1",
			ErrInvalidArgument, capacity)
	}
	if name == "" {
		name = "taskman"
	}
	now := time.Now()
	r := &Registry{
		name:     name,
		capacity: capacity,
		entries:  make([]*Entry, 0, capacity),
		log:      NewLog(MaxLogRecords),
		out:      &fanout{},
		console:  log.New(os.Stderr, "", log.LstdFlags),
		// As with the log, start the serial at the clock so that
		// a restarted server invalidates stale client Etags.
		serial:     now.UnixNano(),
		createTime: now,
		updateTime: now,
	}
	r.out.add(log.New(r.log, "", 0))
	r.out.add(r.console)
	r.journal = log.New(r.out, "", 0)
	r.watch = newWatchers(&r.mx)
	return r, nil
}

func (r *Registry) lock() {
	r.mx.Lock()
}

func (r *Registry) unlock() {
	r.mx.Unlock()
}

// bumpSerial records a mutation and wakes watchers.  Call with lock held.
func (r *Registry) bumpSerial() {
	r.updateTime = time.Now()
	r.serial++
	r.watch.wake()
}

func (r *Registry) logf(format string, v ...interface{}) {
	r.journal.Printf(format, v...)
}

// SetLogger replaces the console logger, which is standard error by
// default.  A nil logger silences it; the in-memory log is unaffected.
func (r *Registry) SetLogger(l *log.Logger) {
	r.lock()
	r.out.del(r.console)
	r.console = l
	if l != nil {
		r.out.add(l)
	}
	r.unlock()
}

// AddLogger adds a logger that receives every message, in addition to
// the console logger.  Each logger keeps its own prefix and flags.
func (r *Registry) AddLogger(l *log.Logger) {
	r.out.add(l)
}

// DelLogger removes a logger added with AddLogger.
func (r *Registry) DelLogger(l *log.Logger) {
	r.out.del(l)
}

// SetLogWriter is a convenience that sends log messages to w.
func (r *Registry) SetLogWriter(w io.Writer) {
	r.SetLogger(log.New(w, "", 0))
}

// SetKillFunc registers fn to be called for each removed entry.  It is
// called with the registry lock held, so it must not call back into
// the registry.
func (r *Registry) SetKillFunc(fn KillFunc) {
	r.lock()
	r.onKill = fn
	r.unlock()
}

func (r *Registry) Name() string {
	return r.name
}

func (r *Registry) Capacity() int {
	return r.capacity
}

// Len returns the number of entries currently held.
func (r *Registry) Len() int {
	r.lock()
	defer r.unlock()
	return len(r.entries)
}

// Info returns a consistent summary of the registry.
func (r *Registry) Info() *RegistryInfo {
	r.lock()
	defer r.unlock()
	return &RegistryInfo{
		Name:       r.name,
		Capacity:   r.capacity,
		Size:       len(r.entries),
		Serial:     r.serial,
		CreateTime: r.createTime,
		UpdateTime: r.updateTime,
	}
}

// Serial returns a number that changes every time the set of entries does.
func (r *Registry) Serial() int64 {
	r.lock()
	defer r.unlock()
	return r.serial
}

// WatchSerial waits up to expire for the serial to differ from old, and
// returns the current serial.  An expire of zero polls.
func (r *Registry) WatchSerial(old int64, expire time.Duration) int64 {
	var rv int64
	r.watch.wait(func() bool {
		rv = r.serial
		return rv != old
	}, expire)
	return rv
}

// GetLog returns the in-memory log; see Log.Records.
func (r *Registry) GetLog(last int64) ([]LogRecord, int64) {
	return r.log.Records(last)
}

func (r *Registry) WatchLog(last int64, expire time.Duration) int64 {
	return r.log.Watch(last, expire)
}

// Add adds an entry, failing with ErrCapacityExceeded if the registry is
// already full.
func (r *Registry) Add(e *Entry) error {
	return r.AddWithPolicy(e, PolicyReject)
}

// AddWithPolicy adds an entry, using policy to decide what to do if the
// registry is full.  Note that with PolicyPriority the entry may be
// discarded without any error being returned; use Admit to find out.
func (r *Registry) AddWithPolicy(e *Entry, policy AddPolicy) error {
	_, err := r.Admit(e, policy)
	return err
}

// Admit is AddWithPolicy, but also reports whether the entry was
// actually stored.
func (r *Registry) Admit(e *Entry, policy AddPolicy) (bool, error) {
	if e == nil {
		return false, fmt.Errorf("%w: nil entry", ErrInvalidArgument)
	}
	if !policy.Valid() {
		return false, fmt.Errorf("%w: add policy not set", ErrInvalidArgument)
	}

	r.lock()
	defer r.unlock()

	if len(r.entries) >= r.capacity {
		switch policy {
		case PolicyReject:
			return false, fmt.Errorf("%w: %d entries in %s",
				ErrCapacityExceeded, r.capacity, r.name)
		case PolicyFIFO:
			r.logf("Evicting oldest entry %v", r.entries[0])
			r.remove(0)
		case PolicyPriority:
			idx := r.victim()
			if idx >= 0 {
				v := r.entries[idx]
				if e.priority.Rank() <= v.priority.Rank() {
					r.logf("Discarding entry %v: does not outrank %v", e, v)
					return false, nil
				}
				r.logf("Evicting entry %v in favor of %v", v, e)
				r.remove(idx)
			}
		}
	}

	r.entries = append(r.entries, e)
	r.logf("Added entry %v", e)
	r.bumpSerial()
	return true, nil
}

// victim finds the index of the oldest entry among those of lowest
// priority, or -1 if there are no entries.  The scan stops as soon as it
// lands on a Low entry, since nothing can rank lower.  Call with lock held.
func (r *Registry) victim() int {
	if len(r.entries) == 0 {
		return -1
	}
	idx := 0
	min := r.entries[0]
	if min.priority == PriorityLow {
		return idx
	}
	for i := 1; i < len(r.entries); i++ {
		if r.entries[i].priority.Rank() < min.priority.Rank() {
			idx = i
			min = r.entries[i]
			if min.priority == PriorityLow {
				return idx
			}
		}
	}
	return idx
}

// remove kills and drops the entry at index i, preserving the order of
// the others.  Call with lock held.
func (r *Registry) remove(i int) {
	e := r.entries[i]
	e.kill()
	if r.onKill != nil {
		r.onKill(e)
	}
	copy(r.entries[i:], r.entries[i+1:])
	r.entries[len(r.entries)-1] = nil
	r.entries = r.entries[:len(r.entries)-1]
}

// KillByEntry removes the first entry with the same ID as e.  It is not
// an error for there to be no such entry.
func (r *Registry) KillByEntry(e *Entry) error {
	if e == nil {
		return fmt.Errorf("%w: nil entry", ErrInvalidArgument)
	}
	r.lock()
	defer r.unlock()
	r.killID(e.id)
	return nil
}

// KillByID is like KillByEntry, but reports ErrNotFound if no entry
// has the given ID.
func (r *Registry) KillByID(id ID) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidArgument)
	}
	r.lock()
	defer r.unlock()
	if !r.killID(id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// killID is called with the lock held.
func (r *Registry) killID(id ID) bool {
	for i, x := range r.entries {
		if x.id == id {
			r.logf("Killing entry %v", x)
			r.remove(i)
			r.bumpSerial()
			return true
		}
	}
	return false
}

// KillByPriority removes every entry with priority p.
func (r *Registry) KillByPriority(p Priority) error {
	if !p.Valid() {
		return fmt.Errorf("%w: priority not set", ErrInvalidArgument)
	}
	r.lock()
	defer r.unlock()

	n := 0
	for i := 0; i < len(r.entries); {
		if r.entries[i].priority == p {
			r.remove(i)
			n++
			continue
		}
		i++
	}
	if n > 0 {
		r.logf("Killed %d %s priority entries", n, p)
		r.bumpSerial()
	}
	return nil
}

// KillAll removes every entry.
func (r *Registry) KillAll() {
	r.lock()
	defer r.unlock()

	for _, e := range r.entries {
		e.kill()
		if r.onKill != nil {
			r.onKill(e)
		}
	}
	n := len(r.entries)
	r.entries = make([]*Entry, 0, r.capacity)
	r.logf("Killed all %d entries in %s", n, r.name)
	r.bumpSerial()
}

// Lookup returns the entry with the given ID.
func (r *Registry) Lookup(id ID) (*Entry, bool) {
	r.lock()
	defer r.unlock()
	for _, e := range r.entries {
		if e.id == id {
			return e, true
		}
	}
	return nil, false
}

// List returns a copy of the entries in the requested order.  The
// registry's own ordering is never disturbed.
func (r *Registry) List(opt ListOption) ([]*Entry, error) {
	if !opt.Valid() {
		return nil, fmt.Errorf("%w: list option not set", ErrInvalidArgument)
	}
	r.lock()
	rv := make([]*Entry, len(r.entries))
	copy(rv, r.entries)
	r.unlock()

	switch opt {
	case ListByPriority:
		sort.Stable(byPriority(rv))
	case ListByID:
		sort.Stable(byID(rv))
	}
	return rv, nil
}

type byID []*Entry

func (s byID) Len() int           { return len(s) }
func (s byID) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s byID) Less(i, j int) bool { return s[i].id < s[j].id }

// byPriority puts the highest priority first, breaking ties by ID.
type byPriority []*Entry

func (s byPriority) Len() int      { return len(s) }
func (s byPriority) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

func (s byPriority) Less(i, j int) bool {
	a := s[i]
	b := s[j]
	if a.priority.Rank() != b.priority.Rank() {
		return a.priority.Rank() > b.priority.Rank()
	}
	return a.id < b.id
}
