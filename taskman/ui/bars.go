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
	"strings"
	"sync"

	"github.com/gdamore/tcell"
	"github.com/gdamore/tcell/views"
)

// Level selects the color of the status bar.
type Level int

const (
	LevelNormal Level = iota
	LevelGood
	LevelWarn
	LevelError
)

var (
	barNormal = tcell.StyleDefault.
			Foreground(tcell.ColorBlack).
			Background(tcell.ColorSilver)
	barAlternate = tcell.StyleDefault.
			Foreground(tcell.ColorBlue).
			Background(tcell.ColorSilver)

	statusStyles = map[Level]tcell.Style{
		LevelNormal: barNormal,
		LevelGood: tcell.StyleDefault.
			Foreground(tcell.ColorWhite).
			Background(tcell.ColorGreen).
			Bold(true),
		LevelWarn: tcell.StyleDefault.
			Foreground(tcell.ColorBlack).
			Background(tcell.ColorYellow),
		LevelError: tcell.StyleDefault.
			Foreground(tcell.ColorWhite).
			Background(tcell.ColorMaroon).
			Bold(true),
	}
)

// escape protects literal percent signs from the styled text markup.
func escape(s string) string {
	return strings.Replace(s, "%", "%%", -1)
}

type TitleBar struct {
	once sync.Once
	views.SimpleStyledTextBar
}

func (tb *TitleBar) Init() {
	tb.once.Do(func() {
		tb.SimpleStyledTextBar.Init()
		tb.SimpleStyledTextBar.SetStyle(barNormal)
		tb.RegisterLeftStyle('N', barNormal)
		tb.RegisterLeftStyle('A', barAlternate)
		tb.RegisterCenterStyle('N', barNormal)
		tb.RegisterCenterStyle('A', barAlternate)
		tb.RegisterRightStyle('N', barNormal)
		tb.RegisterRightStyle('A', barAlternate)
	})
}

func NewTitleBar() *TitleBar {
	tb := &TitleBar{}
	tb.Init()
	return tb
}

// Key is a binding advertised in the key bar, shown as "[Name] Label".
type Key struct {
	Name  string
	Label string
}

type KeyBar struct {
	once sync.Once
	views.SimpleStyledTextBar
}

func (k *KeyBar) Init() {
	k.once.Do(func() {
		k.SimpleStyledTextBar.Init()
		k.SimpleStyledTextBar.SetStyle(barNormal)
		k.RegisterLeftStyle('N', barNormal)
		k.RegisterLeftStyle('A', barAlternate.Bold(true))
	})
}

func (k *KeyBar) SetKeys(keys []Key) {
	words := make([]string, 0, len(keys))
	for _, key := range keys {
		words = append(words, "[%A"+escape(key.Name)+"%N] "+escape(key.Label))
	}
	k.SetLeft(strings.Join(words, " "))
}

func NewKeyBar() *KeyBar {
	kb := &KeyBar{}
	kb.Init()
	return kb
}

// StatusBar is like a titlebar, but it changes color based on the
// level of a screen, e.g. red background to indicate a fault condition.
type StatusBar struct {
	once   sync.Once
	status string
	views.SimpleStyledTextBar
}

func (sb *StatusBar) Init() {
	sb.once.Do(func() {
		sb.SimpleStyledTextBar.Init()
		sb.SetLevel(LevelNormal)
	})
}

func (sb *StatusBar) SetLevel(l Level) {
	style := statusStyles[l]
	sb.SimpleStyledTextBar.SetStyle(style)
	sb.SimpleStyledTextBar.RegisterLeftStyle('N', style)
	sb.SimpleStyledTextBar.SetLeft(escape(sb.status))
}

func (sb *StatusBar) SetText(status string) {
	sb.status = status
	sb.SetLeft(escape(status))
}

func NewStatusBar() *StatusBar {
	sb := &StatusBar{}
	sb.Init()
	return sb
}
