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
	"log"
	"strings"
	"sync"
)

// fanout is an io.Writer that delivers each line written to it to every
// registered logger.  The loggers keep their own prefix and flags.
type fanout struct {
	loggers []*log.Logger
	mx      sync.Mutex
}

func (f *fanout) Write(b []byte) (int, error) {
	lines := strings.Split(strings.Trim(string(b), "\n"), "\n")
	f.mx.Lock()
	for _, line := range lines {
		for _, l := range f.loggers {
			l.Println(line)
		}
	}
	f.mx.Unlock()
	return len(b), nil
}

// add registers l.  Adding the same logger twice has no effect.
func (f *fanout) add(l *log.Logger) {
	if l == nil {
		return
	}
	f.mx.Lock()
	defer f.mx.Unlock()
	for _, x := range f.loggers {
		if x == l {
			return
		}
	}
	f.loggers = append(f.loggers, l)
}

func (f *fanout) del(l *log.Logger) {
	f.mx.Lock()
	defer f.mx.Unlock()
	for i, x := range f.loggers {
		if x == l {
			f.loggers = append(f.loggers[:i], f.loggers[i+1:]...)
			return
		}
	}
}
