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
	"time"

	"github.com/google/uuid"
)

// ID identifies an Entry.  IDs are compared lexically.
type ID string

// Entry is a unit of work tracked by a Registry.  Its identity never
// changes after creation; two entries are the same entry if their IDs
// match.
type Entry struct {
	id       ID
	priority Priority
	created  time.Time
}

// NewEntry creates an entry with the given priority and a freshly
// allocated random ID.
func NewEntry(p Priority) (*Entry, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: entry priority %v", ErrInvalidArgument, p)
	}
	e := &Entry{
		id:       ID(uuid.New().String()),
		priority: p,
		created:  time.Now(),
	}
	return e, nil
}

func (e *Entry) ID() ID {
	return e.id
}

func (e *Entry) Priority() Priority {
	return e.priority
}

// Created returns the time the entry was constructed.
func (e *Entry) Created() time.Time {
	return e.created
}

// Equal reports whether both entries carry the same ID.
func (e *Entry) Equal(o *Entry) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.id == o.id
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s (%s)", e.id, e.priority)
}

// kill is invoked by the registry immediately before the entry is
// removed.  It has no effect on the entry's state at present.
func (e *Entry) kill() {
}
