//go:build !plan9 && !nacl
// +build !plan9,!nacl

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
	"log"

	"github.com/gdamore/taskman/rest"
	"github.com/gdamore/taskman/taskman/ui"
)

func doUI(client *rest.Client, url string, logger *log.Logger) error {
	app := ui.NewApp(client, url)
	app.SetLogger(logger)
	app.Run()
	return nil
}

/*
   Our screen has the following appearance:

                         http://127.0.0.1:8321                 Taskman v1.0
      3/16   Entries    1 High    1 Medium    1 Low   by time
   ____________________________________________________________________________
   0b6a1c7e-5d0f-4c57-9d0e-6a3f6d9c4f11 low         0:04:12
   4f1c2d3e-8a9b-4c5d-8e7f-0a1b2c3d4e5f high        0:02:40
   9e8d7c6b-5a4f-4e3d-9c2b-1a0f9e8d7c6b medium      0:00:05
   ____________________________________________________________________________
   [Q] Quit [H] Help [L] Log [O] Order [1-3] Add [X] Kill All [K] Kill
*/
