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

package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/gdamore/taskman"
)

// Handler wraps a Registry, adding http.Handler functionality.
type Handler struct {
	reg    *taskman.Registry
	r      *mux.Router
	policy taskman.AddPolicy
	user   string
	hash   []byte
}

var ok struct{}

func (h *Handler) internalError(w http.ResponseWriter, e error) {
	http.Error(w, e.Error(), http.StatusInternalServerError)
}

func (h *Handler) writeJson(w http.ResponseWriter, v interface{}) {
	if b, e := json.Marshal(v); e != nil {
		h.internalError(w, e)
	} else {
		w.Header().Set("Content-Type", mimeJson)
		w.Write(b)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, e *Error) {
	if b, err := json.Marshal(e); err != nil {
		h.internalError(w, err)
	} else {
		w.Header().Set("Content-Type", mimeJson)
		w.WriteHeader(e.Code)
		w.Write(b)
	}
}

// fail translates a registry error into an HTTP error document.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, taskman.ErrInvalidArgument):
		code = http.StatusBadRequest
	case errors.Is(err, taskman.ErrCapacityExceeded):
		code = http.StatusConflict
	case errors.Is(err, taskman.ErrNotFound):
		code = http.StatusNotFound
	}
	h.writeError(w, &Error{Code: code, Message: err.Error()})
}

func formatEtag(n int64) string {
	return `"` + strconv.FormatInt(n, 10) + `"`
}

func parseEtag(s string) (int64, bool) {
	n, e := strconv.ParseInt(strings.Trim(s, `"`), 10, 64)
	return n, e == nil
}

// pollTime returns how long the client is willing to wait, if it
// supplied a poll etag.
func pollTime(r *http.Request) (int64, time.Duration, bool) {
	old, valid := parseEtag(r.Header.Get(PollEtagHeader))
	if !valid {
		return 0, 0, false
	}
	secs, e := strconv.Atoi(r.Header.Get(PollTimeHeader))
	if e != nil || secs <= 0 {
		return 0, 0, false
	}
	if secs > MaxPollTime {
		secs = MaxPollTime
	}
	return old, time.Duration(secs) * time.Second, true
}

// notModified sets the Etag header, and reports (after writing the
// response) when the client already holds the current version.
func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	w.Header().Set("Etag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

// serial returns the registry serial, first waiting for it to move on
// if the request asks for a long poll.
func (h *Handler) serial(r *http.Request) int64 {
	if old, d, ok := pollTime(r); ok {
		return h.reg.WatchSerial(old, d)
	}
	return h.reg.Serial()
}

func (h *Handler) getInfo(w http.ResponseWriter, r *http.Request) {
	sn := h.serial(r)
	if notModified(w, r, formatEtag(sn)) {
		return
	}
	ri := h.reg.Info()
	h.writeJson(w, &RegistryInfo{
		Name:       ri.Name,
		Capacity:   ri.Capacity,
		Size:       ri.Size,
		Serial:     ri.Serial,
		CreateTime: ri.CreateTime,
		UpdateTime: ri.UpdateTime,
	})
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	opt := taskman.ListByTime
	if s := r.URL.Query().Get("order"); s != "" {
		var err error
		if opt, err = taskman.ParseListOption(s); err != nil {
			h.fail(w, err)
			return
		}
	}
	sn := h.serial(r)
	if notModified(w, r, formatEtag(sn)) {
		return
	}
	entries, err := h.reg.List(opt)
	if err != nil {
		h.fail(w, err)
		return
	}
	l := make([]*EntryInfo, 0, len(entries))
	for _, e := range entries {
		l = append(l, entryInfo(e))
	}
	h.writeJson(w, l)
}

func (h *Handler) addEntry(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, fmt.Errorf("%w: %v", taskman.ErrInvalidArgument, err))
		return
	}
	if req.Policy == 0 {
		req.Policy = h.policy
	}
	e, err := taskman.NewEntry(req.Priority)
	if err != nil {
		h.fail(w, err)
		return
	}
	admitted, err := h.reg.Admit(e, req.Policy)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJson(w, &AddResult{Entry: entryInfo(e), Admitted: admitted})
}

func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	id := taskman.ID(mux.Vars(r)["id"])
	if e, found := h.reg.Lookup(id); !found {
		h.writeError(w, &Error{http.StatusNotFound, "Entry not found"})
	} else {
		h.writeJson(w, entryInfo(e))
	}
}

func (h *Handler) killEntry(w http.ResponseWriter, r *http.Request) {
	id := taskman.ID(mux.Vars(r)["id"])
	if err := h.reg.KillByID(id); err != nil {
		h.fail(w, err)
	} else {
		h.writeJson(w, ok)
	}
}

// killEntries kills by priority if one is given, otherwise everything.
// A priority parameter that is present but empty is an error.
func (h *Handler) killEntries(w http.ResponseWriter, r *http.Request) {
	vals, present := r.URL.Query()["priority"]
	if !present {
		h.reg.KillAll()
		h.writeJson(w, ok)
		return
	}
	p, err := taskman.ParsePriority(vals[0])
	if err == nil {
		err = h.reg.KillByPriority(p)
	}
	if err != nil {
		h.fail(w, err)
	} else {
		h.writeJson(w, ok)
	}
}

func (h *Handler) getLog(w http.ResponseWriter, r *http.Request) {
	if old, d, ok := pollTime(r); ok {
		h.reg.WatchLog(old, d)
	}
	recs, id := h.reg.GetLog(0)
	if notModified(w, r, formatEtag(id)) {
		return
	}
	h.writeJson(w, recs)
}

// SetDefaultPolicy sets the policy used for POSTs that do not name one.
func (h *Handler) SetDefaultPolicy(p taskman.AddPolicy) error {
	if !p.Valid() {
		return fmt.Errorf("%w: default policy %v", taskman.ErrInvalidArgument, p)
	}
	h.policy = p
	return nil
}

// SetAuth requires HTTP basic authentication.  The hash is a bcrypt hash
// of the password.  An empty user disables authentication.
func (h *Handler) SetAuth(user string, hash []byte) {
	h.user = user
	h.hash = hash
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.user == "" {
		return true
	}
	user, pass, ok := r.BasicAuth()
	if !ok || user != h.user {
		return false
	}
	return bcrypt.CompareHashAndPassword(h.hash, []byte(pass)) == nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !h.authorized(req) {
		w.Header().Set("WWW-Authenticate", `Basic realm="taskman"`)
		h.writeError(w, &Error{http.StatusUnauthorized, "Unauthorized"})
		return
	}
	h.r.ServeHTTP(w, req)
}

func NewHandler(reg *taskman.Registry) *Handler {
	r := mux.NewRouter()
	h := &Handler{reg: reg, r: r, policy: taskman.PolicyReject}
	r.HandleFunc("/", h.getInfo).Methods("GET")
	r.HandleFunc("/entries", h.listEntries).Methods("GET")
	r.HandleFunc("/entries", h.addEntry).Methods("POST")
	r.HandleFunc("/entries", h.killEntries).Methods("DELETE")
	r.HandleFunc("/entries/{id}", h.getEntry).Methods("GET")
	r.HandleFunc("/entries/{id}", h.killEntry).Methods("DELETE")
	r.HandleFunc("/log", h.getLog).Methods("GET")
	return h
}
