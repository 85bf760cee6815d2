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
	"sync"

	"github.com/gdamore/tcell"
	"github.com/gdamore/tcell/views"
)

// Panel wraps views.Panel with a title bar on top, and a status bar and
// key bar along the bottom.  Every screen of the application embeds one.
type Panel struct {
	tb   *TitleBar
	sb   *StatusBar
	kb   *KeyBar
	once sync.Once
	app  *App

	views.Panel
}

var (
	keyMain = Key{"ESC", "Main"}
	keyHelp = Key{"H", "Help"}
	keyQuit = Key{"Q", "Quit"}
	keyLog  = Key{"L", "Log"}
)

func (p *Panel) SetTitle(title string) {
	p.tb.SetCenter(escape(title))
}

func (p *Panel) SetKeys(keys []Key) {
	p.kb.SetKeys(keys)
}

// SetStatus sets the status text and the color used to show it.
func (p *Panel) SetStatus(status string, l Level) {
	p.sb.SetText(status)
	p.sb.SetLevel(l)
}

// handleNavigation deals with the keys common to the secondary screens:
// ESC or Q returns to the main screen, H or F1 shows help.
func (p *Panel) handleNavigation(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEsc:
		p.app.ShowMain()
		return true
	case tcell.KeyF1:
		p.app.ShowHelp()
		return true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'Q', 'q':
			p.app.ShowMain()
			return true
		case 'H', 'h':
			p.app.ShowHelp()
			return true
		}
	}
	return false
}

func (p *Panel) Init(app *App) {
	p.once.Do(func() {
		p.app = app

		p.tb = NewTitleBar()
		p.tb.SetRight(app.GetAppName())
		p.tb.SetCenter(" ")

		p.kb = NewKeyBar()

		p.sb = NewStatusBar()

		p.Panel.SetTitle(p.tb)
		p.Panel.SetMenu(p.sb)
		p.Panel.SetStatus(p.kb)
	})
}

func (p *Panel) App() *App {
	return p.app
}
