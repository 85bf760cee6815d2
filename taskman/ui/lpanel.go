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
)

// LogPanel follows the registry log.
type LogPanel struct {
	text *views.TextArea

	Panel
}

func NewLogPanel(app *App) *LogPanel {
	p := &LogPanel{}

	p.Panel.Init(app)

	// We don't change the keybar, so set it once
	p.SetKeys([]Key{keyMain, keyHelp})
	p.SetTitle("Registry Log")

	p.text = views.NewTextArea()
	p.text.EnableCursor(false)
	p.text.SetStyle(StyleNormal)
	p.SetContent(p.text)

	return p
}

func (p *LogPanel) Draw() {
	p.update()
	p.Panel.Draw()
}

func (p *LogPanel) HandleEvent(ev tcell.Event) bool {
	if ev, ok := ev.(*tcell.EventKey); ok && p.handleNavigation(ev) {
		return true
	}
	return p.Panel.HandleEvent(ev)
}

// update must be called with AppLock held.
func (p *LogPanel) update() {

	loginfo, err := p.app.GetLog()

	if loginfo == nil {
		if err != nil {
			p.SetStatus(fmt.Sprintf("No data: %v", err), LevelError)
		} else {
			p.SetStatus("Loading ...", LevelNormal)
		}
		p.text.SetLines([]string{""})
		return
	}
	if err != nil {
		p.SetStatus(fmt.Sprintf("Stale: %v", err), LevelWarn)
	} else {
		p.SetStatus(fmt.Sprintf("%d records", len(loginfo.Records)), LevelNormal)
	}

	lines := make([]string, 0, len(loginfo.Records))
	for _, r := range loginfo.Records {
		line := fmt.Sprintf("%s %s",
			r.Time.Format(time.StampMilli), r.Text)
		lines = append(lines, line)
	}
	p.text.SetLines(lines)
}
