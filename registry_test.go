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
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type testLog struct {
	t *testing.T
}

func (tl *testLog) Write(p []byte) (n int, err error) {
	s := string(p)
	s = strings.Trim(s, "\n")
	tl.t.Log(s)
	return len(p), nil
}

func mustEntry(p Priority) *Entry {
	e, err := NewEntry(p)
	So(err, ShouldBeNil)
	return e
}

func ids(entries []*Entry) []ID {
	rv := make([]ID, 0, len(entries))
	for _, e := range entries {
		rv = append(rv, e.ID())
	}
	return rv
}

func timeOrder(r *Registry) []ID {
	l, err := r.List(ListByTime)
	So(err, ShouldBeNil)
	return ids(l)
}

func WithRegistry(t *testing.T, name string, capacity int, fn func(r *Registry)) func() {
	return func() {
		r, err := NewRegistry(name, capacity)
		So(err, ShouldBeNil)
		So(r, ShouldNotBeNil)
		r.SetLogWriter(&testLog{t: t})
		fn(r)
	}
}

func TestNewRegistry(t *testing.T) {
	Convey("Creating a registry", t, func() {
		Convey("with zero capacity fails", func() {
			r, err := NewRegistry("zero", 0)
			So(r, ShouldBeNil)
			So(errors.Is(err, ErrInvalidArgument), ShouldBeTrue)
		})
		Convey("with negative capacity fails", func() {
			r, err := NewRegistry("negative", -3)
			So(r, ShouldBeNil)
			So(errors.Is(err, ErrInvalidArgument), ShouldBeTrue)
		})
		Convey("with capacity one works", func() {
			r, err := NewRegistry("", 1)
			So(err, ShouldBeNil)
			So(r.Capacity(), ShouldEqual, 1)
			So(r.Len(), ShouldEqual, 0)
			So(r.Name(), ShouldEqual, "taskman")
		})
	})
}

func TestAddArguments(t *testing.T) {
	Convey("Bad add arguments", t,
		WithRegistry(t, "AddArgs", 2, func(r *Registry) {
			serial := r.Serial()

			err := r.Add(nil)
			So(errors.Is(err, ErrInvalidArgument), ShouldBeTrue)

			err = r.AddWithPolicy(mustEntry(PriorityLow), AddPolicy(0))
			So(errors.Is(err, ErrInvalidArgument), ShouldBeTrue)

			err = r.AddWithPolicy(mustEntry(PriorityLow), AddPolicy(42))
			So(errors.Is(err, ErrInvalidArgument), ShouldBeTrue)

			So(r.Len(), ShouldEqual, 0)
			So(r.Serial(), ShouldEqual, serial)
		}))
}

func TestAddPolicies(t *testing.T) {
	Convey("Given a full registry of [Low, High, Medium, Low]", t,
		WithRegistry(t, "AddPolicies", 4, func(r *Registry) {
			p0 := mustEntry(PriorityLow)
			p1 := mustEntry(PriorityHigh)
			p2 := mustEntry(PriorityMedium)
			p3 := mustEntry(PriorityLow)
			for _, e := range []*Entry{p0, p1, p2, p3} {
				So(r.Add(e), ShouldBeNil)
			}
			So(r.Len(), ShouldEqual, 4)
			before := timeOrder(r)
			So(before, ShouldResemble, []ID{p0.ID(), p1.ID(), p2.ID(), p3.ID()})

			Convey("Default add is rejected and changes nothing", func() {
				serial := r.Serial()
				err := r.Add(mustEntry(PriorityHigh))
				So(errors.Is(err, ErrCapacityExceeded), ShouldBeTrue)
				So(timeOrder(r), ShouldResemble, before)
				So(r.Serial(), ShouldEqual, serial)
			})

			Convey("Reject policy is rejected repeatedly", func() {
				for i := 0; i < 3; i++ {
					err := r.AddWithPolicy(mustEntry(PriorityHigh), PolicyReject)
					So(errors.Is(err, ErrCapacityExceeded), ShouldBeTrue)
				}
				So(timeOrder(r), ShouldResemble, before)
			})

			Convey("FIFO evicts the oldest", func() {
				n := mustEntry(PriorityMedium)
				So(r.AddWithPolicy(n, PolicyFIFO), ShouldBeNil)
				So(timeOrder(r), ShouldResemble,
					[]ID{p1.ID(), p2.ID(), p3.ID(), n.ID()})
				So(r.Len(), ShouldEqual, 4)
			})

			Convey("Priority policy discards a Low arrival", func() {
				serial := r.Serial()
				n := mustEntry(PriorityLow)
				ok, err := r.Admit(n, PolicyPriority)
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
				So(timeOrder(r), ShouldResemble, before)
				So(r.Serial(), ShouldEqual, serial)
				_, found := r.Lookup(n.ID())
				So(found, ShouldBeFalse)
			})

			Convey("Priority policy replaces the first Low with a Medium", func() {
				n := mustEntry(PriorityMedium)
				So(r.AddWithPolicy(n, PolicyPriority), ShouldBeNil)
				So(timeOrder(r), ShouldResemble,
					[]ID{p1.ID(), p2.ID(), p3.ID(), n.ID()})
			})

			Convey("Priority policy then replaces the second Low", func() {
				n1 := mustEntry(PriorityHigh)
				n2 := mustEntry(PriorityHigh)
				So(r.AddWithPolicy(n1, PolicyPriority), ShouldBeNil)
				So(r.AddWithPolicy(n2, PolicyPriority), ShouldBeNil)
				So(timeOrder(r), ShouldResemble,
					[]ID{p1.ID(), p2.ID(), n1.ID(), n2.ID()})

				Convey("and then the Medium", func() {
					n3 := mustEntry(PriorityHigh)
					So(r.AddWithPolicy(n3, PolicyPriority), ShouldBeNil)
					So(timeOrder(r), ShouldResemble,
						[]ID{p1.ID(), n1.ID(), n2.ID(), n3.ID()})

					Convey("and then nothing more", func() {
						ok, err := r.Admit(mustEntry(PriorityHigh), PolicyPriority)
						So(err, ShouldBeNil)
						So(ok, ShouldBeFalse)
						So(r.Len(), ShouldEqual, 4)
					})
				})
			})
		}))
}

func TestVictim(t *testing.T) {
	Convey("Victim selection", t,
		WithRegistry(t, "Victim", 8, func(r *Registry) {
			load := func(ps ...Priority) {
				for _, p := range ps {
					So(r.Add(mustEntry(p)), ShouldBeNil)
				}
			}
			Convey("Empty registry has no victim", func() {
				So(r.victim(), ShouldEqual, -1)
			})
			Convey("Leading Low is chosen", func() {
				load(PriorityLow, PriorityLow, PriorityHigh)
				So(r.victim(), ShouldEqual, 0)
			})
			Convey("First of equal minimums is chosen", func() {
				load(PriorityHigh, PriorityMedium, PriorityMedium, PriorityHigh)
				So(r.victim(), ShouldEqual, 1)
			})
			Convey("Scan stops at the first Low", func() {
				load(PriorityHigh, PriorityMedium, PriorityLow,
					PriorityMedium, PriorityLow)
				So(r.victim(), ShouldEqual, 2)
			})
			Convey("All High picks the oldest", func() {
				load(PriorityHigh, PriorityHigh, PriorityHigh)
				So(r.victim(), ShouldEqual, 0)
			})
		}))
}

func TestList(t *testing.T) {
	Convey("Listing entries", t,
		WithRegistry(t, "List", 10, func(r *Registry) {
			for _, p := range []Priority{PriorityLow, PriorityHigh,
				PriorityMedium, PriorityLow, PriorityHigh, PriorityMedium} {
				So(r.Add(mustEntry(p)), ShouldBeNil)
			}
			before := timeOrder(r)

			Convey("Bad option fails", func() {
				l, err := r.List(ListOption(0))
				So(l, ShouldBeNil)
				So(errors.Is(err, ErrInvalidArgument), ShouldBeTrue)
			})

			Convey("By ID is ascending", func() {
				l, err := r.List(ListByID)
				So(err, ShouldBeNil)
				So(len(l), ShouldEqual, 6)
				for i := 1; i < len(l); i++ {
					So(l[i-1].ID() <= l[i].ID(), ShouldBeTrue)
				}
				So(timeOrder(r), ShouldResemble, before)
			})

			Convey("By priority is descending, then by ID", func() {
				l, err := r.List(ListByPriority)
				So(err, ShouldBeNil)
				So(len(l), ShouldEqual, 6)
				for i := 1; i < len(l); i++ {
					a, b := l[i-1], l[i]
					So(a.Priority().Rank(), ShouldBeGreaterThanOrEqualTo,
						b.Priority().Rank())
					if a.Priority() == b.Priority() {
						So(a.ID() < b.ID(), ShouldBeTrue)
					}
				}
				So(l[0].Priority(), ShouldEqual, PriorityHigh)
				So(l[5].Priority(), ShouldEqual, PriorityLow)
				So(timeOrder(r), ShouldResemble, before)
			})

			Convey("Repeated listing is identical", func() {
				for _, opt := range []ListOption{ListByTime, ListByID, ListByPriority} {
					a, _ := r.List(opt)
					b, _ := r.List(opt)
					So(ids(a), ShouldResemble, ids(b))
				}
			})

			Convey("Modifying a snapshot does not affect the registry", func() {
				l, _ := r.List(ListByTime)
				l[0] = nil
				So(timeOrder(r), ShouldResemble, before)
			})
		}))
}

func TestKill(t *testing.T) {
	Convey("Given [Low, High, Medium, Low, High]", t,
		WithRegistry(t, "Kill", 5, func(r *Registry) {
			e := []*Entry{
				mustEntry(PriorityLow),
				mustEntry(PriorityHigh),
				mustEntry(PriorityMedium),
				mustEntry(PriorityLow),
				mustEntry(PriorityHigh),
			}
			for _, x := range e {
				So(r.Add(x), ShouldBeNil)
			}
			var killed []ID
			r.SetKillFunc(func(x *Entry) {
				killed = append(killed, x.ID())
			})

			Convey("KillByEntry with nil fails", func() {
				So(errors.Is(r.KillByEntry(nil), ErrInvalidArgument), ShouldBeTrue)
				So(r.Len(), ShouldEqual, 5)
			})

			Convey("KillByEntry removes just that entry", func() {
				So(r.KillByEntry(e[2]), ShouldBeNil)
				So(timeOrder(r), ShouldResemble,
					[]ID{e[0].ID(), e[1].ID(), e[3].ID(), e[4].ID()})
				So(killed, ShouldResemble, []ID{e[2].ID()})
			})

			Convey("KillByEntry of an absent entry does nothing", func() {
				serial := r.Serial()
				So(r.KillByEntry(mustEntry(PriorityHigh)), ShouldBeNil)
				So(r.Len(), ShouldEqual, 5)
				So(r.Serial(), ShouldEqual, serial)
				So(killed, ShouldBeEmpty)
			})

			Convey("KillByEntry removes only the first copy of a duplicate", func() {
				So(r.KillByEntry(e[0]), ShouldBeNil)
				So(r.KillByEntry(e[1]), ShouldBeNil)
				// Now [Medium, Low, High]
				So(r.Add(e[2]), ShouldBeNil)
				So(r.Len(), ShouldEqual, 4)
				killed = nil

				So(r.KillByEntry(e[2]), ShouldBeNil)
				So(r.Len(), ShouldEqual, 3)
				So(timeOrder(r), ShouldResemble,
					[]ID{e[3].ID(), e[4].ID(), e[2].ID()})
				So(killed, ShouldResemble, []ID{e[2].ID()})
			})

			Convey("KillByID reports missing entries", func() {
				So(errors.Is(r.KillByID("nosuch"), ErrNotFound), ShouldBeTrue)
				So(errors.Is(r.KillByID(""), ErrInvalidArgument), ShouldBeTrue)
				So(r.KillByID(e[0].ID()), ShouldBeNil)
				So(r.Len(), ShouldEqual, 4)
			})

			Convey("KillByPriority with no priority fails", func() {
				err := r.KillByPriority(Priority(0))
				So(errors.Is(err, ErrInvalidArgument), ShouldBeTrue)
				So(r.Len(), ShouldEqual, 5)
			})

			Convey("KillByPriority removes adjacent matches", func() {
				So(r.KillByEntry(e[2]), ShouldBeNil)
				// Now [Low, High, Low, High]
				So(r.KillByPriority(PriorityLow), ShouldBeNil)
				So(timeOrder(r), ShouldResemble, []ID{e[1].ID(), e[4].ID()})
			})

			Convey("KillByPriority removes all High entries", func() {
				So(r.KillByPriority(PriorityHigh), ShouldBeNil)
				So(timeOrder(r), ShouldResemble,
					[]ID{e[0].ID(), e[2].ID(), e[3].ID()})
				So(killed, ShouldResemble, []ID{e[1].ID(), e[4].ID()})
			})

			Convey("KillAll empties the registry", func() {
				r.KillAll()
				So(r.Len(), ShouldEqual, 0)
				So(killed, ShouldHaveLength, 5)
				for _, opt := range []ListOption{ListByTime, ListByID, ListByPriority} {
					l, err := r.List(opt)
					So(err, ShouldBeNil)
					So(l, ShouldBeEmpty)
				}
				Convey("and it can be refilled", func() {
					So(r.Add(mustEntry(PriorityLow)), ShouldBeNil)
					So(r.Len(), ShouldEqual, 1)
				})
			})

			Convey("FIFO eviction is reported to the kill function", func() {
				So(r.AddWithPolicy(mustEntry(PriorityLow), PolicyFIFO), ShouldBeNil)
				So(killed, ShouldResemble, []ID{e[0].ID()})
			})
		}))
}

func TestWatchSerial(t *testing.T) {
	Convey("Watching the serial", t,
		WithRegistry(t, "Watch", 3, func(r *Registry) {
			old := r.Serial()

			Convey("Poll returns immediately", func() {
				So(r.WatchSerial(old, 0), ShouldEqual, old)
			})

			Convey("Timeout returns the old serial", func() {
				start := time.Now()
				So(r.WatchSerial(old, 20*time.Millisecond), ShouldEqual, old)
				So(time.Since(start), ShouldBeGreaterThanOrEqualTo,
					20*time.Millisecond)
			})

			Convey("A change wakes the watcher", func() {
				done := make(chan int64, 1)
				go func() {
					done <- r.WatchSerial(old, time.Minute)
				}()
				time.Sleep(10 * time.Millisecond)
				So(r.Add(mustEntry(PriorityMedium)), ShouldBeNil)
				select {
				case sn := <-done:
					So(sn, ShouldNotEqual, old)
					So(sn, ShouldEqual, r.Serial())
				case <-time.After(5 * time.Second):
					So("watch timed out", ShouldBeEmpty)
				}
			})
		}))
}

func TestRegistryLog(t *testing.T) {
	Convey("Registry events are logged", t,
		WithRegistry(t, "Log", 1, func(r *Registry) {
			_, last := r.GetLog(0)
			e := mustEntry(PriorityLow)
			So(r.Add(e), ShouldBeNil)
			So(r.AddWithPolicy(mustEntry(PriorityLow), PolicyPriority), ShouldBeNil)

			recs, id := r.GetLog(last)
			So(id, ShouldNotEqual, last)
			So(recs, ShouldNotBeEmpty)
			text := ""
			for _, rec := range recs {
				text += rec.Text + "\n"
			}
			So(text, ShouldContainSubstring, "Added entry "+string(e.ID()))
			So(text, ShouldContainSubstring, "Discarding entry")

			info := r.Info()
			So(info.Name, ShouldEqual, "Log")
			So(info.Size, ShouldEqual, 1)
			So(info.Capacity, ShouldEqual, 1)
		}))
}

func TestRegistryLoggers(t *testing.T) {
	Convey("Messages fan out to every logger", t,
		WithRegistry(t, "Fanout", 2, func(r *Registry) {
			a := &strings.Builder{}
			b := &strings.Builder{}
			la := log.New(a, "a: ", 0)
			lb := log.New(b, "b: ", 0)
			r.AddLogger(la)
			r.AddLogger(la)
			r.AddLogger(lb)

			e := mustEntry(PriorityMedium)
			So(r.Add(e), ShouldBeNil)
			So(a.String(), ShouldEqual, "a: Added entry "+e.String()+"\n")
			So(b.String(), ShouldStartWith, "b: Added entry")

			r.DelLogger(lb)
			r.KillAll()
			So(a.String(), ShouldContainSubstring, "a: Killed all 1 entries")
			So(b.String(), ShouldNotContainSubstring, "Killed")

			Convey("and the console logger can be silenced", func() {
				r.SetLogger(nil)
				So(r.Add(mustEntry(PriorityLow)), ShouldBeNil)
				recs, _ := r.GetLog(0)
				So(recs[len(recs)-1].Text, ShouldStartWith, "Added entry")
			})
		}))
}
