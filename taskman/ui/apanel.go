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

const (
	fieldWidth = 16
	fieldMax   = 256
)

var (
	fieldFocus = tcell.StyleDefault.
			Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	fieldIdle = StyleNormal
)

// field is a single line text input.
type field struct {
	text   *views.Text
	value  []rune
	secret bool
}

func newField() *field {
	f := &field{text: views.NewText(), value: make([]rune, 0, fieldMax)}
	f.text.SetStyle(fieldIdle)
	return f
}

func (f *field) clear() {
	f.value = f.value[:0]
}

func (f *field) backspace() {
	if len(f.value) > 0 {
		f.value = f.value[:len(f.value)-1]
	}
}

func (f *field) insert(r rune) {
	if len(f.value) < fieldMax {
		f.value = append(f.value, r)
	}
}

// render draws the field, showing the tail of long values and a cursor
// when focused.  Secret values are masked.
func (f *field) render(focused bool) {
	shown := make([]rune, 0, fieldWidth+1)
	for _, r := range f.value {
		if f.secret {
			r = '*'
		}
		shown = append(shown, r)
	}
	if focused {
		shown = append(shown, '_')
		f.text.SetStyle(fieldFocus)
	} else {
		f.text.SetStyle(fieldIdle)
	}
	if len(shown) > fieldWidth {
		shown = shown[len(shown)-fieldWidth:]
		shown[0] = '<'
	}
	for len(shown) < fieldWidth {
		shown = append(shown, ' ')
	}
	f.text.SetText(string(shown))
}

// AuthPanel prompts for the credentials to use when the server answers
// with 401 Unauthorized.
type AuthPanel struct {
	hlayout    *views.BoxLayout
	left       *views.BoxLayout
	right      *views.BoxLayout
	user       *field
	pass       *field
	passactive bool

	Panel
}

func prompt(s string) *views.Text {
	t := views.NewText()
	t.SetText(s)
	t.SetStyle(StyleNormal)
	return t
}

func NewAuthPanel(app *App, server string) *AuthPanel {
	a := &AuthPanel{}
	a.Panel.Init(app)

	a.user = newField()
	a.pass = newField()
	a.pass.secret = true

	a.hlayout = views.NewBoxLayout(views.Horizontal)
	a.left = views.NewBoxLayout(views.Vertical)
	a.right = views.NewBoxLayout(views.Vertical)
	for _, l := range []*views.BoxLayout{a.hlayout, a.left, a.right} {
		l.SetStyle(StyleNormal)
	}

	a.left.AddWidget(views.NewSpacer(), 1.0)
	a.left.AddWidget(prompt("Username: "), 0.0)
	a.left.AddWidget(prompt("Password: "), 0.0)
	a.left.AddWidget(views.NewSpacer(), 1.0)

	a.right.AddWidget(views.NewSpacer(), 1.0)
	a.right.AddWidget(a.user.text, 0.0)
	a.right.AddWidget(a.pass.text, 0.0)
	a.right.AddWidget(views.NewSpacer(), 1.0)

	a.hlayout.AddWidget(views.NewSpacer(), 1.0)
	a.hlayout.AddWidget(a.left, 0.0)
	a.hlayout.AddWidget(a.right, 0.0)
	a.hlayout.AddWidget(views.NewSpacer(), 1.0)

	a.SetTitle(server)
	a.SetStatus("Authentication Required", LevelError)
	a.SetKeys([]Key{{"ESC", "Quit"}, {"TAB", "Next"}, {"ENTER", "Login"}})
	a.SetContent(a.hlayout)

	return a
}

func (a *AuthPanel) ResetFields() {
	a.passactive = false
	a.user.clear()
	a.pass.clear()
}

func (a *AuthPanel) active() *field {
	if a.passactive {
		return a.pass
	}
	return a.user
}

func (a *AuthPanel) Draw() {
	a.user.render(!a.passactive)
	a.pass.render(a.passactive)
	a.Panel.Draw()
}

func (a *AuthPanel) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEsc:
			a.App().Quit()
		case tcell.KeyTab, tcell.KeyEnter:
			if a.passactive {
				a.App().SetUserPassword(string(a.user.value),
					string(a.pass.value))
				a.App().ShowMain()
			} else {
				a.passactive = true
			}
		case tcell.KeyBacktab:
			a.passactive = false
		case tcell.KeyCtrlU, tcell.KeyCtrlW:
			a.active().clear()
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			a.active().backspace()
		case tcell.KeyRune:
			a.active().insert(ev.Rune())
		default:
			return false
		}
		return true
	}
	return a.Panel.HandleEvent(ev)
}
