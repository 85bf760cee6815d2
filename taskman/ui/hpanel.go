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
	"github.com/gdamore/tcell"
	"github.com/gdamore/tcell/views"
)

type HelpPanel struct {
	text *views.TextArea

	Panel
}

var helpText = []string{
	"Supported keys (not all keys available in all contexts)",
	"",
	"  <ESC>          : return to main screen",
	"  <CTRL-C>       : quit",
	"  <CTRL-L>       : refresh the screen",
	"  <H>            : show this help",
	"  <UP>, <DOWN>   : navigation",
	"  <O>            : cycle list order (time, priority, id)",
	"  <1>, <2>, <3>  : add a low, medium or high priority entry",
	"  <I>            : view details for selected entry",
	"  <K>            : kill selected entry",
	"  <P>            : kill all entries with the selected priority",
	"  <X>            : kill all entries",
	"  <L>            : view the registry log",
	"",
	"Entries added when the registry is full follow the server's",
	"default policy (reject, fifo or priority).",
	"",
	"This program is distributed under the Apache 2.0 License",
	"Copyright 2026 The Govisor Authors",
}

func (h *HelpPanel) HandleEvent(ev tcell.Event) bool {
	if ev, ok := ev.(*tcell.EventKey); ok && h.handleNavigation(ev) {
		return true
	}
	return h.Panel.HandleEvent(ev)
}

func NewHelpPanel(app *App) *HelpPanel {
	h := &HelpPanel{}
	h.Panel.Init(app)

	h.text = views.NewTextArea()
	h.text.EnableCursor(false)
	h.text.SetStyle(StyleNormal)
	h.text.SetLines(helpText)

	h.SetTitle("Help")
	h.SetStatus("", LevelNormal)
	h.SetKeys([]Key{keyMain})
	h.SetContent(h.text)

	return h
}
