package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/modalkit/internal/config"
	"github.com/dshills/modalkit/internal/engine"
	"github.com/dshills/modalkit/internal/host"
)

const sampleText = `Modalkit demo document.

Move with the bound keys, search with /, then n and N to
step between matches. The bindings file reloads live.

foo bar foo bar foo
`

// defaultBindings is installed when no bindings file exists yet.
const defaultBindings = `{
	"help": "normal",
	"h": "cursorLeft",
	"j": "cursorDown",
	"k": "cursorUp",
	"l": "cursorRight",
	"0": "lineStart",
	"$": "lineEnd",
	"g": {"help": "g: goto", "g": "gotoTop", "e": "gotoEnd"},
	"1-9": {
		"id": 1,
		"help": "count",
		"0-9": 1,
		"h": {"command": "cursorLeft", "repeat": "tonumber(string.sub(keySequence, 1, #keySequence - 1))"},
		"j": {"command": "cursorDown", "repeat": "tonumber(string.sub(keySequence, 1, #keySequence - 1))"},
		"k": {"command": "cursorUp", "repeat": "tonumber(string.sub(keySequence, 1, #keySequence - 1))"},
		"l": {"command": "cursorRight", "repeat": "tonumber(string.sub(keySequence, 1, #keySequence - 1))"}
	},
	"/": "modalkit.search",
	"?": {"command": "modalkit.search", "args": {"backwards": true}},
	"n": "modalkit.nextMatch",
	"N": "modalkit.previousMatch"
}`

// statusNotifier keeps the most recent engine notice for the status
// line.
type statusNotifier struct {
	mu   sync.Mutex
	last string
}

func (n *statusNotifier) set(prefix, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.last = prefix + msg
}

func (n *statusNotifier) Info(msg string)  { n.set("", msg) }
func (n *statusNotifier) Warn(msg string)  { n.set("warning: ", msg) }
func (n *statusNotifier) Error(msg string) { n.set("error: ", msg) }

// Last returns the most recent notice.
func (n *statusNotifier) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

// eventReload carries fresh bindings bytes into the event loop.
type eventReload struct {
	tcell.EventTime
	path string
	data []byte
}

// app owns the terminal, the engine, and the live-reload plumbing.
type app struct {
	screen  tcell.Screen
	engine  *engine.Engine
	editor  *host.MemoryEditor
	notices *statusNotifier
	watcher *config.Watcher
	reloads *config.ReloadNotifier
}

func newApp(opts options) (*app, error) {
	settings, err := config.Load(opts.SettingsPath)
	if err != nil {
		return nil, err
	}

	bindingsPath := opts.BindingsPath
	if bindingsPath == "" {
		bindingsPath = settings.Bindings.Path
	}

	name := opts.File
	text := sampleText
	if name == "" {
		name = "demo.txt"
	} else {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		text = string(data)
	}

	editor := host.NewMemoryEditor(name, text)
	registerCursorCommands(editor)

	notices := &statusNotifier{}
	eng := engine.New(editor,
		engine.WithNotifier(notices),
		engine.WithContext(context.Background()),
		engine.WithSearchDefaults(settings.Search.Options()),
		engine.WithCaptureCommand(settings.Engine.CaptureCommands...),
		engine.WithExpressionTimeout(settings.Engine.ExpressionTimeout()),
	)

	a := &app{
		engine:  eng,
		editor:  editor,
		notices: notices,
		reloads: config.NewReloadNotifier(),
	}
	a.reloads.Subscribe(func(event config.ReloadEvent) {
		if event.Ok() {
			notices.Info("bindings reloaded: " + event.Path)
		}
	})

	if err := a.loadBindings(bindingsPath); err != nil {
		eng.Close()
		return nil, err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		eng.Close()
		return nil, err
	}
	if err := screen.Init(); err != nil {
		eng.Close()
		return nil, err
	}
	a.screen = screen

	if w, err := config.NewWatcher(bindingsPath, a.postReload,
		config.WithErrorFunc(func(err error) {
			notices.Error(err.Error())
		})); err == nil {
		a.watcher = w
	}

	return a, nil
}

// loadBindings compiles the bindings file, falling back to the built-in
// defaults when it does not exist.
func (a *app) loadBindings(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		data = []byte(defaultBindings)
	}
	// Compile reports validation errors itself; the engine keeps
	// running on the previous (or empty) keymap.
	a.engine.Compile(data)
	return nil
}

// postReload runs on the watcher goroutine and hands the bytes to the
// event loop.
func (a *app) postReload(path string, data []byte) {
	ev := &eventReload{path: path, data: data}
	ev.SetEventNow()
	_ = a.screen.PostEvent(ev)
}

// Run drives the event loop until quit.
func (a *app) Run() error {
	for {
		a.draw()

		switch ev := a.screen.PollEvent().(type) {
		case *tcell.EventResize:
			a.screen.Sync()

		case *eventReload:
			km, diags := a.engine.Compile(ev.data)
			a.reloads.Publish(config.ReloadEvent{
				Path:        ev.path,
				Keymap:      km,
				Diagnostics: diags,
			})

		case *tcell.EventKey:
			if done := a.handleKey(ev); done {
				return nil
			}

		case nil:
			return nil
		}
	}
}

// handleKey translates one terminal key into engine traffic, returning
// true on quit.
func (a *app) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlQ:
		return true

	case tcell.KeyEscape:
		if a.engine.Searching() {
			a.engine.CancelSearch()
		} else {
			a.engine.EndCapture()
			a.engine.Reset()
		}

	case tcell.KeyEnter:
		a.engine.HandleKey('\n')

	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if a.engine.Searching() {
			a.engine.DeleteSearchChar()
		} else {
			a.engine.Reset()
		}

	case tcell.KeyRune:
		a.engine.HandleKey(ev.Rune())
	}
	return false
}

// Shutdown releases the terminal and all background resources.
func (a *app) Shutdown() {
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	if a.screen != nil {
		a.screen.Fini()
	}
	a.engine.Close()
}

// draw renders the document, selection highlights, and the status line.
func (a *app) draw() {
	a.screen.Clear()
	width, height := a.screen.Size()
	if height < 2 {
		a.screen.Show()
		return
	}

	plain := tcell.StyleDefault
	highlight := tcell.StyleDefault.Reverse(true)

	sels := a.editor.Selections()
	text := a.editor.Text()

	offset := 0
	line := 0
	for line < height-1 {
		row := a.editor.Line(line)
		if line > 0 {
			offset++ // newline of the previous line
		}
		if offset > len(text) {
			break
		}
		for col, r := range row {
			if col >= width {
				break
			}
			style := plain
			if selected(sels, a.editor, offset+col) {
				style = highlight
			}
			a.screen.SetContent(col, line, r, nil, style)
		}
		offset += len(row)
		line++
	}

	a.drawStatus(width, height-1)

	if len(sels) > 0 {
		pos := sels[0].Active
		a.screen.ShowCursor(pos.Column, pos.Line)
	}
	a.screen.Show()
}

// drawStatus renders the bottom line: query or pending keys, keymap
// help, and the last notice.
func (a *app) drawStatus(width, row int) {
	var status string
	switch {
	case a.engine.Searching():
		status = "search: " + a.engine.SearchQuery()
	case a.engine.PendingKeys() != "":
		status = a.engine.PendingKeys()
	default:
		status = a.engine.Help()
	}
	if notice := a.notices.Last(); notice != "" {
		status += "  |  " + notice
	}

	style := tcell.StyleDefault.Bold(true)
	col := 0
	for _, r := range status {
		if col >= width {
			break
		}
		a.screen.SetContent(col, row, r, nil, style)
		col++
	}
}

// selected reports whether the byte offset falls inside any selection.
func selected(sels []host.Selection, ed *host.MemoryEditor, offset int) bool {
	for _, s := range sels {
		if s.IsEmpty() {
			continue
		}
		if offset >= ed.OffsetAt(s.Start()) && offset < ed.OffsetAt(s.End()) {
			return true
		}
	}
	return false
}

// registerCursorCommands installs the demo movement commands on the
// in-memory editor.
func registerCursorCommands(ed *host.MemoryEditor) {
	move := func(fn func(pos host.Position) host.Position) host.Command {
		return func(context.Context, any) error {
			sels := ed.Selections()
			for i := range sels {
				sels[i] = host.NewCursor(clamp(ed, fn(sels[i].Active)))
			}
			ed.SetSelections(sels)
			return nil
		}
	}

	ed.Register("cursorLeft", move(func(p host.Position) host.Position {
		return host.Position{Line: p.Line, Column: p.Column - 1}
	}))
	ed.Register("cursorRight", move(func(p host.Position) host.Position {
		return host.Position{Line: p.Line, Column: p.Column + 1}
	}))
	ed.Register("cursorUp", move(func(p host.Position) host.Position {
		return host.Position{Line: p.Line - 1, Column: p.Column}
	}))
	ed.Register("cursorDown", move(func(p host.Position) host.Position {
		return host.Position{Line: p.Line + 1, Column: p.Column}
	}))
	ed.Register("lineStart", move(func(p host.Position) host.Position {
		return host.Position{Line: p.Line}
	}))
	ed.Register("lineEnd", move(func(p host.Position) host.Position {
		return host.Position{Line: p.Line, Column: len(ed.Line(p.Line))}
	}))
	ed.Register("gotoTop", move(func(host.Position) host.Position {
		return host.Position{}
	}))
	ed.Register("gotoEnd", move(func(host.Position) host.Position {
		return ed.PositionAt(len(ed.Text()))
	}))
}

// clamp keeps a position inside the document.
func clamp(ed *host.MemoryEditor, pos host.Position) host.Position {
	return ed.PositionAt(ed.OffsetAt(pos))
}
