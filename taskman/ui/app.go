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

// Package ui implements a full screen view of a taskmand registry.
package ui

import (
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/net/context"

	"github.com/gdamore/tcell"
	"github.com/gdamore/tcell/views"

	"github.com/gdamore/taskman"
	"github.com/gdamore/taskman/rest"
)

type App struct {
	app       *views.Application
	view      views.View
	panel     views.Widget
	info      *InfoPanel
	help      *HelpPanel
	log       *LogPanel
	main      *MainPanel
	auth      *AuthPanel
	client    *rest.Client
	logger    *log.Logger
	err       error
	items     []*rest.EntryInfo
	reg       *rest.RegistryInfo
	notice    string
	logInfo   *rest.LogInfo
	logErr    error
	logCancel context.CancelFunc

	order taskman.ListOption
	mx    sync.Mutex // protects the fields the refresh goroutines update

	views.WidgetWatchers
}

func (a *App) show(w views.Widget) {
	if w != a.panel {
		a.panel.SetView(nil)
		a.panel = w
	}
	a.panel.SetView(a.view)
	a.panel.Resize()
	a.app.Refresh()
}

func (a *App) ShowHelp() {
	a.show(a.help)
}

func (a *App) ShowInfo(id string) {
	a.info.SetID(id)
	a.show(a.info)
}

func (a *App) ShowLog() {
	if a.logCancel != nil {
		a.logCancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	a.mx.Lock()
	a.logInfo = nil
	a.logErr = nil
	a.mx.Unlock()
	a.logCancel = cancel
	go a.refreshLog(ctx)

	a.show(a.log)
}

func (a *App) ShowMain() {
	if a.logCancel != nil {
		a.logCancel()
		a.logCancel = nil
	}
	a.show(a.main)
}

func (a *App) ShowAuth() {
	a.auth.ResetFields()
	a.show(a.auth)
}

func (a *App) SetUserPassword(user, pass string) {
	a.client.SetAuth(user, pass)
	a.mx.Lock()
	a.err = nil
	a.mx.Unlock()
	go a.reload()
}

// Order returns the ordering used for the entry list.
func (a *App) Order() taskman.ListOption {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.order
}

func (a *App) SetOrder(o taskman.ListOption) {
	a.mx.Lock()
	a.order = o
	a.mx.Unlock()
	go a.reload()
}

// Notice returns the outcome of the most recent action.
func (a *App) Notice() string {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.notice
}

func (a *App) noticef(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	a.mx.Lock()
	a.notice = msg
	a.mx.Unlock()
	a.Logf("%s", msg)
}

func (a *App) AddEntry(p taskman.Priority) {
	res, e := a.client.Add(p, 0)
	switch {
	case e != nil:
		a.noticef("Add %s failed: %v", p, e)
	case !res.Admitted:
		a.noticef("Discarded %s entry %s", p, res.Entry.ID)
	default:
		a.noticef("Added %s entry %s", p, res.Entry.ID)
	}
}

func (a *App) KillEntry(id string) {
	if e := a.client.Kill(id); e != nil {
		a.noticef("Kill %s failed: %v", id, e)
		return
	}
	a.noticef("Killed entry %s", id)
}

func (a *App) KillPriority(p taskman.Priority) {
	if e := a.client.KillPriority(p); e != nil {
		a.noticef("Kill %s failed: %v", p, e)
		return
	}
	a.noticef("Killed %s priority entries", p)
}

func (a *App) KillAll() {
	if e := a.client.KillAll(); e != nil {
		a.noticef("Kill all failed: %v", e)
		return
	}
	a.noticef("Killed all entries")
}

func (a *App) Quit() {
	/* This just posts the quit event. */
	a.app.Quit()
}

func (a *App) SetLogger(logger *log.Logger) {
	a.logger = logger
	if logger != nil {
		logger.Printf("Start logger")
	}
}

func (a *App) Logf(fmt string, v ...interface{}) {
	if a.logger != nil {
		a.logger.Printf(fmt, v...)
	}
}

func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		// Intercept a few control keys up front, for global handling.
		case tcell.KeyCtrlC:
			a.Quit()
			return true
		case tcell.KeyCtrlL:
			a.app.Refresh()
			return true
		}
	}

	if a.panel != nil {
		return a.panel.HandleEvent(ev)
	}
	return false
}

func (a *App) Draw() {
	if a.panel != nil {
		a.panel.Draw()
	}
}

func (a *App) Resize() {
	if a.panel != nil {
		a.panel.Resize()
	}
}

func (a *App) SetView(view views.View) {
	a.view = view
	if a.panel != nil {
		a.panel.SetView(view)
	}
}

func (a *App) Size() (int, int) {
	if a.panel != nil {
		return a.panel.Size()
	}
	return 0, 0
}

func (a *App) GetClient() *rest.Client {
	return a.client
}

func (a *App) GetAppName() string {
	return "Taskman v1.0"
}

func NewApp(client *rest.Client, url string) *App {

	app := &App{}
	app.app = &views.Application{}
	app.client = client
	app.order = taskman.ListByTime
	app.info = NewInfoPanel(app)
	app.help = NewHelpPanel(app)
	app.log = NewLogPanel(app)
	app.main = NewMainPanel(app, url)
	app.auth = NewAuthPanel(app, url)
	app.panel = app.main

	go app.refresh()
	return app
}

func (a *App) getItems() (*rest.RegistryInfo, []*rest.EntryInfo, error) {
	info, e := a.client.Info()
	if e != nil {
		return nil, nil, e
	}
	items, e := a.client.List(a.Order())
	if e != nil {
		return nil, nil, e
	}
	return info, items, nil
}

// reload fetches the registry once, outside of the watch loop.
func (a *App) reload() {
	info, items, e := a.getItems()
	a.mx.Lock()
	a.reg = info
	a.items = items
	a.err = e
	a.mx.Unlock()
	a.app.Update()
}

// refresh keeps the app items current
func (a *App) refresh() {
	client := a.client
	etag := ""
	for {
		a.reload()
		ctx, cancel := context.WithTimeout(context.Background(),
			time.Hour)
		var e error
		etag, e = client.Watch(ctx, etag)
		cancel()
		if e != nil {
			etag = ""
			time.Sleep(2 * time.Second)
		}
	}
}

func (a *App) refreshLog(ctx context.Context) {
	info, e := a.client.GetLog()

	for {
		a.mx.Lock()
		if ctx.Err() == nil {
			a.logInfo = info
			a.logErr = e
		}
		a.mx.Unlock()
		a.app.Update()
		select {
		case <-ctx.Done():
			return
		default:
		}
		if e != nil {
			time.Sleep(2 * time.Second)
			info, e = a.client.GetLog()
			continue
		}
		var next *rest.LogInfo
		if next, e = a.client.WatchLog(ctx, info); e == nil {
			info = next
		}
	}
}

// GetItems returns the registry summary and entries from the most
// recent refresh.
func (a *App) GetItems() (*rest.RegistryInfo, []*rest.EntryInfo, error) {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.reg, a.items, a.err
}

func (a *App) GetItem(id string) (*rest.EntryInfo, error) {
	a.mx.Lock()
	defer a.mx.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	for _, i := range a.items {
		if i.ID == id {
			return i, nil
		}
	}
	return nil, taskman.ErrNotFound
}

func (a *App) GetLog() (*rest.LogInfo, error) {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.logInfo, a.logErr
}

func (a *App) Run() {
	a.Logf("Starting up user interface")
	a.app.SetRootWidget(a)
	a.ShowMain()
	go func() {
		// Give us periodic updates
		for {
			a.app.Update()
			time.Sleep(time.Second)
		}
	}()
	a.Logf("Starting app loop")
	if e := a.app.Run(); e != nil {
		a.Logf("User interface failed: %v", e)
	}
}
