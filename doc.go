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

// Package taskman provides a bounded, in-memory registry of prioritized
// work entries, in the spirit of a task manager.
//
// A Registry is created with a fixed capacity.  Entries are added in
// order, and once the registry is full an AddPolicy decides what happens
// to a newcomer: it can be refused (PolicyReject), it can push out the
// oldest entry (PolicyFIFO), or it can push out the oldest of the lowest
// priority entries provided that it outranks that entry (PolicyPriority).
// In the last case an arrival that does not outrank anything is quietly
// dropped; this is not an error.
//
// Entries can be listed by arrival time, by priority, or by ID, and
// they can be killed individually, by priority, or all at once.
//
// Nothing here touches real operating system processes.  The rest
// package exposes a Registry over HTTP, and the taskmand and taskman
// commands provide a server and a client for it.
//
package taskman
