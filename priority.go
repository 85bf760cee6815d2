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
	"strings"
)

// Priority classifies an entry.  The zero value is not a valid priority,
// and is treated by the registry as a missing argument.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

var priorityNames = map[Priority]string{
	PriorityLow:    "low",
	PriorityMedium: "medium",
	PriorityHigh:   "high",
}

// Valid reports whether p is one of the defined priorities.
func (p Priority) Valid() bool {
	_, ok := priorityNames[p]
	return ok
}

// Rank returns the numeric value used when comparing priorities.  Low
// ranks 0, High ranks 2.  Invalid priorities rank -1.
func (p Priority) Rank() int {
	if !p.Valid() {
		return -1
	}
	return int(p - PriorityLow)
}

func (p Priority) String() string {
	if s, ok := priorityNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: priority %d", ErrInvalidArgument, int(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	v, e := ParsePriority(string(b))
	if e != nil {
		return e
	}
	*p = v
	return nil
}

// ParsePriority converts a name (low, medium, high) to a Priority.
// Matching is case insensitive.
func ParsePriority(s string) (Priority, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for p, n := range priorityNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown priority %q", ErrInvalidArgument, s)
}

// AddPolicy selects what Add does once the registry is full.  The zero
// value is not a valid policy.
type AddPolicy int

const (
	// PolicyReject refuses new entries with ErrCapacityExceeded.
	PolicyReject AddPolicy = iota + 1

	// PolicyFIFO evicts the oldest entry to make room.
	PolicyFIFO

	// PolicyPriority evicts the oldest of the lowest priority entries,
	// but only if the new entry outranks it.  Otherwise the new entry
	// is silently discarded.
	PolicyPriority
)

var policyNames = map[AddPolicy]string{
	PolicyReject:   "reject",
	PolicyFIFO:     "fifo",
	PolicyPriority: "priority",
}

func (a AddPolicy) Valid() bool {
	_, ok := policyNames[a]
	return ok
}

func (a AddPolicy) String() string {
	if s, ok := policyNames[a]; ok {
		return s
	}
	return fmt.Sprintf("AddPolicy(%d)", int(a))
}

func (a AddPolicy) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: policy %d", ErrInvalidArgument, int(a))
	}
	return []byte(a.String()), nil
}

func (a *AddPolicy) UnmarshalText(b []byte) error {
	v, e := ParsePolicy(string(b))
	if e != nil {
		return e
	}
	*a = v
	return nil
}

// ParsePolicy converts a name (reject, fifo, priority) to an AddPolicy.
// "default" is accepted as an alias for reject.
func ParsePolicy(s string) (AddPolicy, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "default" {
		return PolicyReject, nil
	}
	for a, n := range policyNames {
		if n == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown policy %q", ErrInvalidArgument, s)
}

// ListOption selects the ordering of a List snapshot.
type ListOption int

const (
	ListByTime ListOption = iota + 1
	ListByPriority
	ListByID
)

var listNames = map[ListOption]string{
	ListByTime:     "time",
	ListByPriority: "priority",
	ListByID:       "id",
}

func (o ListOption) Valid() bool {
	_, ok := listNames[o]
	return ok
}

func (o ListOption) String() string {
	if s, ok := listNames[o]; ok {
		return s
	}
	return fmt.Sprintf("ListOption(%d)", int(o))
}

// ParseListOption converts a name (time, priority, id) to a ListOption.
func ParseListOption(s string) (ListOption, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for o, n := range listNames {
		if n == name {
			return o, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown list order %q", ErrInvalidArgument, s)
}
