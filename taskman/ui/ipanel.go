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

package ui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell"
	"github.com/gdamore/tcell/views"

	"github.com/gdamore/taskman/rest"
	"github.com/gdamore/taskman/taskman/util"
)

// InfoPanel shows the details of a single entry.
type InfoPanel struct {
	text *views.TextArea
	info *rest.EntryInfo
	id   string

	Panel
}

func NewInfoPanel(app *App) *InfoPanel {
	p := &InfoPanel{}
	p.Panel.Init(app)

	p.text = views.NewTextArea()
	p.text.EnableCursor(false)
	p.text.SetStyle(StyleNormal)
	p.SetContent(p.text)
	p.SetKeys([]Key{keyMain, keyHelp})

	return p
}

func (p *InfoPanel) Draw() {
	p.update()
	p.Panel.Draw()
}

func (p *InfoPanel) HandleEvent(ev tcell.Event) bool {
	if ev, ok := ev.(*tcell.EventKey); ok {
		if p.handleNavigation(ev) {
			return true
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'L', 'l':
				p.app.ShowLog()
				return true
			case 'K', 'k':
				if p.info != nil {
					p.app.KillEntry(p.info.ID)
					return true
				}
			}
		}
	}
	return p.Panel.HandleEvent(ev)
}

func (p *InfoPanel) SetID(id string) {
	p.id = id
	p.info = nil
}

// update must be called with AppLock held.
func (p *InfoPanel) update() {

	e, err := p.app.GetItem(p.id)
	p.info = e

	keys := []Key{keyMain, keyHelp, keyLog}
	p.SetTitle("Details for " + p.id)

	if e == nil {
		// Once killed, the entry no longer appears in listings.
		p.SetStatus(fmt.Sprintf("No data: %v", err), LevelError)
		p.text.SetLines(nil)
		p.SetKeys(keys)
		return
	}

	level := LevelNormal
	if s, ok := priorityLevels[e.Priority]; ok {
		level = s
	}
	p.SetStatus(p.app.Notice(), level)

	p.text.SetLines([]string{
		fmt.Sprintf("%10s %s", "ID:", e.ID),
		fmt.Sprintf("%10s %s", "Priority:", e.Priority),
		fmt.Sprintf("%10s %d", "Rank:", e.Rank),
		fmt.Sprintf("%10s %s", "Created:", e.Created.Format(time.RFC3339Nano)),
		fmt.Sprintf("%10s %s", "Age:", util.Age(e, time.Now())),
	})

	keys = append(keys, Key{"K", "Kill"})
	p.SetKeys(keys)
}
