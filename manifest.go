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

	"gopkg.in/yaml.v3"
)

// ManifestEntry describes one or more entries to create.  Policy may be
// omitted, in which case the registry's default (reject) is used.
type ManifestEntry struct {
	Priority Priority  `yaml:"priority"`
	Policy   AddPolicy `yaml:"policy,omitempty"`
	Count    int       `yaml:"count,omitempty"`
}

// Manifest is a list of entries used to seed a registry at startup.
type Manifest struct {
	Entries []ManifestEntry `yaml:"entries"`
}

// LoadManifest reads a YAML manifest.  Priorities and policies are given
// by name, e.g.:
//
//	entries:
//	  - priority: high
//	    count: 2
//	  - priority: low
//	    policy: fifo
func LoadManifest(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	dec := yaml.NewDecoder(r)
	if e := dec.Decode(m); e != nil && e != io.EOF {
		return nil, fmt.Errorf("%w: manifest: %v", ErrInvalidArgument, e)
	}
	for i := range m.Entries {
		me := &m.Entries[i]
		if !me.Priority.Valid() {
			return nil, fmt.Errorf("%w: manifest entry %d has no priority",
				ErrInvalidArgument, i)
		}
		if me.Policy == 0 {
			me.Policy = PolicyReject
		}
		if me.Count == 0 {
			me.Count = 1
		}
		if me.Count < 0 {
			return nil, fmt.Errorf("%w: manifest entry %d has count %d",
				ErrInvalidArgument, i, me.Count)
		}
	}
	return m, nil
}

// Apply creates the manifest's entries and adds them to r in order.  It
// stops at the first error, returning the entries that were admitted.
func (m *Manifest) Apply(r *Registry) ([]*Entry, error) {
	var added []*Entry
	for _, me := range m.Entries {
		for j := 0; j < me.Count; j++ {
			e, err := NewEntry(me.Priority)
			if err != nil {
				return added, err
			}
			ok, err := r.Admit(e, me.Policy)
			if err != nil {
				return added, err
			}
			if ok {
				added = append(added, e)
			}
		}
	}
	return added, nil
}
