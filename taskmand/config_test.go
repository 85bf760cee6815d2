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
	"os"
	"path/filepath"
	"strconv"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/gdamore/taskman"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "taskmand.yaml")
	So(os.WriteFile(path, []byte(body), 0644), ShouldBeNil)
	return path
}

// setenv sets an environment variable for the rest of the current
// Convey case only.  t.Setenv would hold it until the whole test ends.
func setenv(key, value string) {
	old, had := os.LookupEnv(key)
	So(os.Setenv(key, value), ShouldBeNil)
	Reset(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	Convey("Loading the daemon configuration", t, func() {

		Convey("uses defaults without a file", func() {
			dir := t.TempDir()
			cwd, err := os.Getwd()
			So(err, ShouldBeNil)
			So(os.Chdir(dir), ShouldBeNil)
			Reset(func() { os.Chdir(cwd) })

			cfg, err := loadConfig(newViper(), "")
			So(err, ShouldBeNil)
			So(*cfg, ShouldResemble, Defaults())
			So(cfg.AddPolicy(), ShouldEqual, taskman.PolicyReject)
		})

		Convey("reads a named file", func() {
			path := writeConfig(t, "capacity: 4\npolicy: fifo\nauth:\n  user: admin\n  hash: xyz\n")
			cfg, err := loadConfig(newViper(), path)
			So(err, ShouldBeNil)
			So(cfg.Capacity, ShouldEqual, 4)
			So(cfg.AddPolicy(), ShouldEqual, taskman.PolicyFIFO)
			So(cfg.Auth.User, ShouldEqual, "admin")
			So(cfg.Addr, ShouldEqual, Defaults().Addr)
		})

		Convey("lets the environment override the file", func() {
			path := writeConfig(t, "capacity: 4\n")
			setenv("TASKMAN_CAPACITY", "9")
			setenv("TASKMAN_AUTH_USER", "env")
			setenv("TASKMAN_AUTH_HASH", "hash")
			cfg, err := loadConfig(newViper(), path)
			So(err, ShouldBeNil)
			So(cfg.Capacity, ShouldEqual, 9)
			So(cfg.Auth.User, ShouldEqual, "env")
		})

		Convey("requires a named file to exist", func() {
			_, err := loadConfig(newViper(), filepath.Join(t.TempDir(), "missing.yaml"))
			So(err, ShouldNotBeNil)
		})

		Convey("rejects a zero capacity", func() {
			path := writeConfig(t, "capacity: 0\n")
			_, err := loadConfig(newViper(), path)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "capacity must be at least 1")
		})

		Convey("rejects an unknown policy", func() {
			path := writeConfig(t, "policy: lifo\n")
			_, err := loadConfig(newViper(), path)
			So(err, ShouldNotBeNil)
		})

		Convey("rejects a user without a hash", func() {
			path := writeConfig(t, "auth:\n  user: admin\n")
			_, err := loadConfig(newViper(), path)
			So(err, ShouldNotBeNil)
		})

		Convey("does not see the environment of an earlier case", func() {
			_, found := os.LookupEnv("TASKMAN_CAPACITY")
			So(found, ShouldBeFalse)
			_, found = os.LookupEnv("TASKMAN_AUTH_HASH")
			So(found, ShouldBeFalse)
		})
	})
}

func TestFlagBinding(t *testing.T) {
	Convey("Command line flags feed the configuration", t, func() {
		f := rootCmd.Flags()
		So(f.Set("capacity", "5"), ShouldBeNil)
		So(f.Set("policy", "fifo"), ShouldBeNil)
		Reset(func() {
			d := Defaults()
			f.Set("capacity", strconv.Itoa(d.Capacity))
			f.Set("policy", d.Policy)
		})

		cfg, err := loadConfig(v, writeConfig(t, "capacity: 4\n"))
		So(err, ShouldBeNil)
		So(cfg.Capacity, ShouldEqual, 5)
		So(cfg.AddPolicy(), ShouldEqual, taskman.PolicyFIFO)
		So(cfg.Addr, ShouldEqual, Defaults().Addr)
	})
}

func TestSeed(t *testing.T) {
	Convey("Seeding a registry from a manifest", t, func() {
		reg, err := taskman.NewRegistry("seed", 3)
		So(err, ShouldBeNil)
		reg.SetLogger(nil)

		path := filepath.Join(t.TempDir(), "seed.yaml")
		So(os.WriteFile(path, []byte("entries:\n  - priority: high\n    count: 2\n"), 0644), ShouldBeNil)
		So(seed(reg, path), ShouldBeNil)
		So(reg.Len(), ShouldEqual, 2)

		So(seed(reg, filepath.Join(t.TempDir(), "missing.yaml")), ShouldNotBeNil)
	})
}
