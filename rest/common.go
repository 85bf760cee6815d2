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

// Package rest exposes a taskman Registry over HTTP, and provides a
// client for it.
package rest

import (
	"net/http"
	"time"

	"github.com/gdamore/taskman"
)

const (
	mimeJson = "application/json; charset=UTF-8"

	// PollEtagHeader and PollTimeHeader ask the server to hold a GET
	// until the resource no longer matches the etag, or the given
	// number of seconds has passed.
	PollEtagHeader = "X-Taskman-Poll-Etag"
	PollTimeHeader = "X-Taskman-Poll-Time"

	// MaxPollTime caps the seconds a single request may wait.
	MaxPollTime = 300
)

type RegistryInfo struct {
	Name       string    `json:"name"`
	Capacity   int       `json:"capacity"`
	Size       int       `json:"size"`
	Serial     int64     `json:"serial,string"`
	CreateTime time.Time `json:"created"`
	UpdateTime time.Time `json:"updated"`

	etag string
}

type EntryInfo struct {
	ID       string           `json:"id"`
	Priority taskman.Priority `json:"priority"`
	Rank     int              `json:"rank"`
	Created  time.Time        `json:"created"`
}

// AddRequest is the body of a POST to /entries.  If Policy is omitted,
// the server's default policy applies.
type AddRequest struct {
	Priority taskman.Priority  `json:"priority"`
	Policy   taskman.AddPolicy `json:"policy,omitempty"`
}

// AddResult reports the entry that was created, and whether the
// registry kept it.  A priority policy may discard an entry that does
// not outrank anything already present.
type AddResult struct {
	Entry    *EntryInfo `json:"entry"`
	Admitted bool       `json:"admitted"`
}

type LogRecord = taskman.LogRecord

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap maps the status code back onto the registry's errors, so that
// clients can use errors.Is just as local callers do.
func (e *Error) Unwrap() error {
	switch e.Code {
	case http.StatusBadRequest:
		return taskman.ErrInvalidArgument
	case http.StatusConflict:
		return taskman.ErrCapacityExceeded
	case http.StatusNotFound:
		return taskman.ErrNotFound
	}
	return nil
}

func entryInfo(e *taskman.Entry) *EntryInfo {
	return &EntryInfo{
		ID:       string(e.ID()),
		Priority: e.Priority(),
		Rank:     e.Priority().Rank(),
		Created:  e.Created(),
	}
}
