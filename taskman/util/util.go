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

// Package util is used for internal implementation bits in the CLI/UI.
package util

import (
	"fmt"
	"time"

	"github.com/gdamore/taskman"
	"github.com/gdamore/taskman/rest"
)

func FormatDuration(d time.Duration) string {

	sec := int((d % time.Minute) / time.Second)
	min := int((d % time.Hour) / time.Minute)
	hour := int(d / time.Hour)

	return fmt.Sprintf("%d:%02d:%02d", hour, min, sec)
}

// Age reports how long ago an entry was created, to the second.
func Age(e *rest.EntryInfo, now time.Time) string {
	d := now.Sub(e.Created)
	if d < 0 {
		d = 0
	}
	d -= d % time.Second
	return FormatDuration(d)
}

// FormatEntry renders one line of an entry listing.
func FormatEntry(e *rest.EntryInfo, now time.Time) string {
	return fmt.Sprintf("%-36s %-8s %10s", e.ID, e.Priority, Age(e, now))
}

// Counts tallies entries by priority.
type Counts struct {
	Low    int
	Medium int
	High   int
}

func CountEntries(items []*rest.EntryInfo) Counts {
	var c Counts
	for _, e := range items {
		switch e.Priority {
		case taskman.PriorityLow:
			c.Low++
		case taskman.PriorityMedium:
			c.Medium++
		case taskman.PriorityHigh:
			c.High++
		}
	}
	return c
}

// NextOrder cycles through the list orders, time first.
func NextOrder(o taskman.ListOption) taskman.ListOption {
	switch o {
	case taskman.ListByTime:
		return taskman.ListByPriority
	case taskman.ListByPriority:
		return taskman.ListByID
	}
	return taskman.ListByTime
}
