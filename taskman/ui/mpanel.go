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
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gdamore/tcell"
	"github.com/gdamore/tcell/views"

	"github.com/gdamore/taskman"
	"github.com/gdamore/taskman/rest"
	"github.com/gdamore/taskman/taskman/util"
)

var (
	StyleNormal = tcell.StyleDefault.
			Foreground(tcell.ColorSilver).
			Background(tcell.ColorBlack)

	priorityStyles = map[taskman.Priority]tcell.Style{
		taskman.PriorityLow: StyleNormal,
		taskman.PriorityMedium: tcell.StyleDefault.
			Foreground(tcell.ColorGreen).
			Background(tcell.ColorBlack),
		taskman.PriorityHigh: tcell.StyleDefault.
			Foreground(tcell.ColorYellow).
			Background(tcell.ColorBlack).
			Bold(true),
	}

	priorityLevels = map[taskman.Priority]Level{
		taskman.PriorityLow:    LevelNormal,
		taskman.PriorityMedium: LevelGood,
		taskman.PriorityHigh:   LevelWarn,
	}
)

// MainPanel implements a Widget as a Panel, listing the entries of the
// registry in the selected order.
type MainPanel struct {
	content  *views.CellView
	selected *rest.EntryInfo
	width    int
	height   int
	curx     int
	cury     int
	lines    []string
	styles   []tcell.Style
	items    []*rest.EntryInfo

	Panel
}

// mainModel provides the model for a CellArea.
type mainModel struct {
	m *MainPanel
}

func NewMainPanel(app *App, server string) *MainPanel {
	m := &MainPanel{}

	m.Panel.Init(app)
	m.content = views.NewCellView()
	m.SetContent(m.content)

	m.content.SetModel(&mainModel{m})
	m.content.SetStyle(StyleNormal)

	m.SetTitle(server)
	m.SetKeys([]Key{keyQuit})

	return m
}

func (m *MainPanel) Draw() {
	m.update()
	m.Panel.Draw()
}

func (m *MainPanel) HandleEvent(ev tcell.Event) bool {
	app := m.App()
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEsc:
			m.unselect()
			return true
		case tcell.KeyF1:
			app.ShowHelp()
			return true
		case tcell.KeyEnter:
			if m.selected != nil {
				app.ShowInfo(m.selected.ID)
				return true
			}
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'Q', 'q':
				app.Quit()
				return true
			case 'H', 'h':
				app.ShowHelp()
				return true
			case 'L', 'l':
				app.ShowLog()
				return true
			case 'O', 'o':
				app.SetOrder(util.NextOrder(app.Order()))
				return true
			case '1':
				app.AddEntry(taskman.PriorityLow)
				return true
			case '2':
				app.AddEntry(taskman.PriorityMedium)
				return true
			case '3':
				app.AddEntry(taskman.PriorityHigh)
				return true
			case 'X', 'x':
				app.KillAll()
				return true
			case 'I', 'i':
				if m.selected != nil {
					app.ShowInfo(m.selected.ID)
					return true
				}
			case 'K', 'k':
				if m.selected != nil {
					app.KillEntry(m.selected.ID)
					return true
				}
			case 'P', 'p':
				if m.selected != nil {
					app.KillPriority(m.selected.Priority)
					return true
				}
			}
		}
	}
	return m.Panel.HandleEvent(ev)
}

// Model items
func (model *mainModel) GetCell(x, y int) (rune, tcell.Style, []rune, int) {
	var ch rune
	var style tcell.Style

	m := model.m

	if y < 0 || y >= len(m.lines) {
		return ch, StyleNormal, nil, 1
	}

	if x >= 0 && x < len(m.lines[y]) {
		ch = rune(m.lines[y][x])
	} else {
		ch = ' '
	}
	style = m.styles[y]
	if m.selected != nil && m.items[y].ID == m.selected.ID {
		style = style.Reverse(true)
	}
	return ch, style, nil, 1
}

func (model *mainModel) GetBounds() (int, int) {
	// This assumes that all content is displayable runes of width 1.
	m := model.m
	y := len(m.lines)
	x := 0
	for _, l := range m.lines {
		if x < len(l) {
			x = len(l)
		}
	}
	return x, y
}

func (model *mainModel) GetCursor() (int, int, bool, bool) {
	m := model.m
	return m.curx, m.cury, true, false
}

func (model *mainModel) MoveCursor(offx, offy int) {

	m := model.m
	m.curx += offx
	m.cury += offy
	m.updateCursor(true)
}

func (model *mainModel) SetCursor(x, y int) {
	m := model.m
	m.curx = x
	m.cury = y
	m.updateCursor(true)
}

func (m *MainPanel) unselect() {
	m.cury = 0
	m.curx = 0
	m.updateCursor(false)
}

func (m *MainPanel) updateCursor(selected bool) {
	if m.curx > m.width-1 {
		m.curx = m.width - 1
	}
	if m.cury > m.height-1 {
		m.cury = m.height - 1
	}
	if m.curx < 0 {
		m.curx = 0
	}
	if m.cury < 0 {
		m.cury = 0
	}
	if selected && m.height > 0 {
		if m.selected == nil {
			m.curx = 0
			m.cury = 0
		}
		m.selected = m.items[m.cury]
	} else {
		m.selected = nil
	}
}

// update is called to update content, e.g. in response to Draw() or
// as part of another update.  It is called with the AppLock held.
func (m *MainPanel) update() {

	reg, items, err := m.App().GetItems()
	m.items = items

	// preserve selected item, it may have moved or been killed
	if sel := m.selected; sel != nil {
		m.selected = nil
		for y, item := range m.items {
			if item.ID == sel.ID {
				m.selected = item
				m.cury = y
			}
		}
	}
	if err != nil {
		var re *rest.Error
		if errors.As(err, &re) && re.Code == http.StatusUnauthorized {
			m.App().ShowAuth()
			return
		}
		m.SetStatus(fmt.Sprintf("Cannot load entries: %v", err), LevelError)
		m.lines = []string{}
		m.styles = []tcell.Style{}
		m.items = nil
		m.height = 0
		return
	}

	lines := make([]string, 0, len(m.items))
	styles := make([]tcell.Style, 0, len(m.items))

	m.height = 0
	m.width = 0

	now := time.Now()
	for _, info := range items {
		line := util.FormatEntry(info, now)

		if len(line) > m.width {
			m.width = len(line)
		}
		m.height++

		lines = append(lines, line)
		styles = append(styles, priorityStyles[info.Priority])
	}

	m.lines = lines
	m.styles = styles

	if reg == nil {
		m.SetStatus("Loading ...", LevelNormal)
	} else {
		c := util.CountEntries(items)
		status := fmt.Sprintf("%4d/%-4d Entries %4d High %4d Medium %4d Low   by %s",
			len(items), reg.Capacity, c.High, c.Medium, c.Low, m.App().Order())
		if n := m.App().Notice(); n != "" {
			status += "   " + n
		}
		switch {
		case len(items) >= reg.Capacity:
			m.SetStatus(status, LevelWarn)
		case len(items) > 0:
			m.SetStatus(status, LevelGood)
		default:
			m.SetStatus(status, LevelNormal)
		}
	}

	keys := []Key{keyQuit, keyHelp, keyLog, {"O", "Order"}, {"1-3", "Add"}, {"X", "Kill All"}}
	if m.selected != nil {
		keys = append(keys, Key{"I", "Info"}, Key{"K", "Kill"}, Key{"P", "Kill " + m.selected.Priority.String()})
	}
	m.SetKeys(keys)
}
