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

package main

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/gdamore/taskman"
	"github.com/gdamore/taskman/rest"
)

func run(addr string, args ...string) (string, error) {
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"-a", addr}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	Convey("Given a server with room for two", t, func() {
		reg, err := taskman.NewRegistry("cli", 2)
		So(err, ShouldBeNil)
		reg.SetLogger(nil)
		srv := httptest.NewServer(rest.NewHandler(reg))
		Reset(srv.Close)

		Convey("info shows the capacity", func() {
			out, err := run(srv.URL, "info")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Name:      cli")
			So(out, ShouldContainSubstring, "0/2")
		})

		Convey("entries can be added, listed and killed", func() {
			out, err := run(srv.URL, "add", "low")
			So(err, ShouldBeNil)
			low := strings.TrimSpace(out)
			_, found := reg.Lookup(taskman.ID(low))
			So(found, ShouldBeTrue)

			out, err = run(srv.URL, "add", "HIGH")
			So(err, ShouldBeNil)
			high := strings.TrimSpace(out)

			out, err = run(srv.URL, "list", "--order", "priority")
			So(err, ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(out), "\n")
			So(len(lines), ShouldEqual, 2)
			So(lines[0], ShouldStartWith, high)
			So(lines[1], ShouldStartWith, low)

			_, err = run(srv.URL, "add", "medium")
			So(err, ShouldNotBeNil)

			out, err = run(srv.URL, "add", "low", "--policy", "priority")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "discarded")

			_, err = run(srv.URL, "add", "medium", "--policy", "fifo")
			So(err, ShouldBeNil)
			_, found = reg.Lookup(taskman.ID(low))
			So(found, ShouldBeFalse)

			_, err = run(srv.URL, "kill", high)
			So(err, ShouldBeNil)
			So(reg.Len(), ShouldEqual, 1)

			_, err = run(srv.URL, "kill", high)
			So(err, ShouldNotBeNil)

			_, err = run(srv.URL, "kill", "--priority", "medium")
			So(err, ShouldBeNil)
			So(reg.Len(), ShouldEqual, 0)

			out, err = run(srv.URL, "log")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Added entry")
		})

		Convey("kill all empties the registry", func() {
			_, err := run(srv.URL, "add", "low")
			So(err, ShouldBeNil)
			_, err = run(srv.URL, "kill", "--all")
			So(err, ShouldBeNil)
			So(reg.Len(), ShouldEqual, 0)
		})

		Convey("bad arguments are refused", func() {
			_, err := run(srv.URL, "kill")
			So(err, ShouldNotBeNil)
			_, err = run(srv.URL, "kill", "--all", "--priority", "low")
			So(err, ShouldNotBeNil)
			_, err = run(srv.URL, "add", "urgent")
			So(err, ShouldNotBeNil)
			_, err = run(srv.URL, "add", "low", "--policy", "lifo")
			So(err, ShouldNotBeNil)
			_, err = run(srv.URL, "list", "--order", "size")
			So(err, ShouldNotBeNil)
			_, err = run(srv.URL, "-u", "nopass", "info")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestNewRecords(t *testing.T) {
	Convey("Only records after the last one seen are new", t, func() {
		recs := []rest.LogRecord{{Id: 1}, {Id: 2}, {Id: 3}}
		So(newRecords(nil, recs), ShouldResemble, recs)
		So(newRecords(recs[:2], recs), ShouldResemble, recs[2:])
		So(newRecords(recs, recs), ShouldBeEmpty)
		So(newRecords([]rest.LogRecord{{Id: 9}}, recs), ShouldResemble, recs)
	})
}
