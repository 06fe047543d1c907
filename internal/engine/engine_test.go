package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/modalkit/internal/host"
)

// noteRecorder captures notifier traffic for assertions.
type noteRecorder struct {
	infos  []string
	warns  []string
	errors []string
}

func (n *noteRecorder) Info(msg string)  { n.infos = append(n.infos, msg) }
func (n *noteRecorder) Warn(msg string)  { n.warns = append(n.warns, msg) }
func (n *noteRecorder) Error(msg string) { n.errors = append(n.errors, msg) }

func newTestEngine(t *testing.T, bindings string, opts ...Option) (*Engine, *host.MemoryEditor, *noteRecorder) {
	t.Helper()
	ed := host.NewMemoryEditor("main.go", "")
	notes := &noteRecorder{}
	e := New(ed, append([]Option{WithNotifier(notes)}, opts...)...)
	t.Cleanup(e.Close)

	if _, diags := e.Compile([]byte(bindings)); diags.HasErrors() {
		t.Fatalf("Compile() diagnostics: %v", diags)
	}
	return e, ed, notes
}

func typeKeys(e *Engine, keys string) {
	for _, r := range keys {
		e.HandleKey(r)
	}
}

func wantCalls(t *testing.T, ed *host.MemoryEditor, want ...string) {
	t.Helper()
	names := ed.CallNames()
	if len(names) != len(want) {
		t.Fatalf("calls = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("call[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestHandleKeySimpleBinding(t *testing.T) {
	e, ed, _ := newTestEngine(t, `{"h": "cursorLeft"}`)

	if done := e.HandleKey('h'); !done {
		t.Error("HandleKey() = false for a complete binding")
	}
	wantCalls(t, ed, "cursorLeft")
	if e.LastCommand() != "cursorLeft" {
		t.Errorf("LastCommand() = %q", e.LastCommand())
	}
}

func TestHandleKeyUndefined(t *testing.T) {
	e, ed, notes := newTestEngine(t, `{"h": "cursorLeft"}`)

	if done := e.HandleKey('q'); !done {
		t.Error("HandleKey() = false for an undefined key")
	}
	wantCalls(t, ed)
	if len(notes.warns) != 1 || !strings.Contains(notes.warns[0], "q") {
		t.Errorf("warnings = %v, want undefined-binding notice naming the key", notes.warns)
	}
	if e.PendingKeys() != "" {
		t.Errorf("PendingKeys() = %q after reset", e.PendingKeys())
	}
}

func TestHandleKeyNestedKeymap(t *testing.T) {
	e, ed, _ := newTestEngine(t, `{"g": {"help": "goto", "g": "gotoTop", "e": "gotoEnd"}}`)

	if done := e.HandleKey('g'); done {
		t.Error("HandleKey() = true mid-sequence")
	}
	if e.PendingKeys() != "g" {
		t.Errorf("PendingKeys() = %q, want g", e.PendingKeys())
	}
	if e.Help() != "goto" {
		t.Errorf("Help() = %q, want goto", e.Help())
	}

	if done := e.HandleKey('e'); !done {
		t.Error("HandleKey() = false completing the sequence")
	}
	wantCalls(t, ed, "gotoEnd")
	if e.PendingKeys() != "" || e.Help() != "" {
		t.Error("sequence state not reset after completion")
	}
}

func TestHandleKeyUndefinedMidSequence(t *testing.T) {
	e, _, notes := newTestEngine(t, `{"g": {"g": "gotoTop"}}`)

	e.HandleKey('g')
	if done := e.HandleKey('z'); !done {
		t.Error("HandleKey() = false for an undefined continuation")
	}
	if len(notes.warns) != 1 || !strings.Contains(notes.warns[0], "gz") {
		t.Errorf("warnings = %v, want notice naming the full pending sequence", notes.warns)
	}

	// Sequence state was reset: g starts a fresh prefix.
	if done := e.HandleKey('g'); done {
		t.Error("prefix key did not restart a sequence after reset")
	}
}

func TestResetAbandonsSequence(t *testing.T) {
	e, _, _ := newTestEngine(t, `{"g": {"g": "gotoTop"}}`)

	e.HandleKey('g')
	e.Reset()
	if e.PendingKeys() != "" {
		t.Errorf("PendingKeys() = %q after Reset", e.PendingKeys())
	}
}

func TestSequenceAction(t *testing.T) {
	e, ed, _ := newTestEngine(t, `{"x": ["first", "second", "third"]}`)

	e.HandleKey('x')
	wantCalls(t, ed, "first", "second", "third")
}

func TestSequenceContinuesPastFailure(t *testing.T) {
	e, ed, notes := newTestEngine(t, `{"x": ["first", "second"]}`)
	ed.Register("first", func(context.Context, any) error {
		return errors.New("rejected")
	})

	e.HandleKey('x')
	wantCalls(t, ed, "first", "second")
	if len(notes.errors) != 1 {
		t.Errorf("errors = %v, want the first command's failure", notes.errors)
	}
}

func TestSequenceEndingInKeymapReArms(t *testing.T) {
	e, ed, _ := newTestEngine(t, `{
		"d": ["delete", {"help": "again", "d": "deleteLine"}]
	}`)

	if done := e.HandleKey('d'); !done {
		t.Error("HandleKey() = false, the action itself completed")
	}
	wantCalls(t, ed, "delete")
	if e.Help() != "again" {
		t.Errorf("Help() = %q, want re-armed keymap", e.Help())
	}

	e.HandleKey('d')
	wantCalls(t, ed, "delete", "deleteLine")
}

func TestRecursiveCountKeymap(t *testing.T) {
	// Digits accumulate through the self-referencing keymap; the
	// terminator runs one command with the whole sequence available to
	// its repeat expression.
	e, ed, _ := newTestEngine(t, `{
		"1-9": {
			"id": 1,
			"help": "count",
			"0-9": 1,
			"w": {"command": "word", "repeat": "tonumber(string.sub(keySequence, 1, #keySequence - 1))"}
		}
	}`)

	typeKeys(e, "12w")
	if got := len(ed.CallNames()); got != 12 {
		t.Errorf("command ran %d times, want 12", got)
	}
	if e.PendingKeys() != "" {
		t.Errorf("PendingKeys() = %q after completion", e.PendingKeys())
	}
}

func TestConditional(t *testing.T) {
	t.Run("false branch", func(t *testing.T) {
		e, ed, _ := newTestEngine(t, `{"c": {"condition": "selecting", "true": "cut", "false": "deleteChar"}}`)
		e.HandleKey('c')
		wantCalls(t, ed, "deleteChar")
	})

	t.Run("true branch", func(t *testing.T) {
		e, ed, _ := newTestEngine(t, `{
			"v": "`+CmdToggleSelecting+`",
			"c": {"condition": "selecting", "true": "cut", "false": "deleteChar"}
		}`)
		typeKeys(e, "vc")
		wantCalls(t, ed, "cut")
	})

	t.Run("no matching branch", func(t *testing.T) {
		e, ed, _ := newTestEngine(t, `{"c": {"condition": "'other'", "true": "cut"}}`)
		e.HandleKey('c')
		wantCalls(t, ed)
	})

	t.Run("expression error skips", func(t *testing.T) {
		e, ed, notes := newTestEngine(t, `{"c": {"condition": "nothing.here", "true": "cut"}}`)
		e.HandleKey('c')
		wantCalls(t, ed)
		if len(notes.errors) == 0 {
			t.Error("expression failure was not reported")
		}
	})
}

func TestParameterizedArgs(t *testing.T) {
	t.Run("literal args", func(t *testing.T) {
		e, ed, _ := newTestEngine(t, `{"m": {"command": "move", "args": {"to": "lineStart"}}}`)
		e.HandleKey('m')
		calls := ed.Calls()
		if len(calls) != 1 {
			t.Fatalf("calls = %v", calls)
		}
		args, ok := calls[0].Args.(map[string]any)
		if !ok || args["to"] != "lineStart" {
			t.Errorf("args = %#v", calls[0].Args)
		}
	})

	t.Run("computed args", func(t *testing.T) {
		e, ed, _ := newTestEngine(t, `{"m": {"command": "gotoLine", "args": "line + 1"}}`)
		ed.SetText("one\ntwo\nthree")
		ed.SetSelections([]host.Selection{host.NewCursor(host.Position{Line: 2, Column: 1})})
		e.HandleKey('m')

		calls := ed.Calls()
		if len(calls) != 1 {
			t.Fatalf("calls = %v", calls)
		}
		if calls[0].Args != int64(3) {
			t.Errorf("args = %#v, want 3", calls[0].Args)
		}
	})

	t.Run("args expression error skips command", func(t *testing.T) {
		e, ed, notes := newTestEngine(t, `{"m": {"command": "move", "args": "nothing.here"}}`)
		e.HandleKey('m')
		wantCalls(t, ed)
		if len(notes.errors) == 0 {
			t.Error("args failure was not reported")
		}
	})
}

func TestParameterizedRepeat(t *testing.T) {
	t.Run("literal count", func(t *testing.T) {
		e, ed, _ := newTestEngine(t, `{"d": {"command": "cursorDown", "repeat": 3}}`)
		e.HandleKey('d')
		if got := len(ed.CallNames()); got != 3 {
			t.Errorf("command ran %d times, want 3", got)
		}
	})

	t.Run("numeric expression string", func(t *testing.T) {
		e, ed, _ := newTestEngine(t, `{"d": {"command": "cursorDown", "repeat": "3"}}`)
		e.HandleKey('d')
		if got := len(ed.CallNames()); got != 3 {
			t.Errorf("command ran %d times, want 3", got)
		}
	})

	t.Run("numeric expression from keys", func(t *testing.T) {
		e, ed, _ := newTestEngine(t, `{
			"2": {"w": {"command": "word", "repeat": "tonumber(keys[1])"}}
		}`)
		typeKeys(e, "2w")
		if got := len(ed.CallNames()); got != 2 {
			t.Errorf("command ran %d times, want 2", got)
		}
	})

	t.Run("numeric result below one clamps", func(t *testing.T) {
		e, ed, _ := newTestEngine(t, `{"d": {"command": "cursorDown", "repeat": "0"}}`)
		e.HandleKey('d')
		if got := len(ed.CallNames()); got != 1 {
			t.Errorf("command ran %d times, want 1", got)
		}
	})

	t.Run("post-condition runs at least once", func(t *testing.T) {
		e, ed, _ := newTestEngine(t, `{"d": {"command": "cursorDown", "repeat": "false"}}`)
		e.HandleKey('d')
		if got := len(ed.CallNames()); got != 1 {
			t.Errorf("command ran %d times, want 1", got)
		}
	})

	t.Run("post-condition observes command effects", func(t *testing.T) {
		e, ed, _ := newTestEngine(t, `{"d": {"command": "down", "repeat": "line < 3"}}`)
		ed.SetText("a\nb\nc\nd\ne")
		ed.Register("down", func(context.Context, any) error {
			sels := ed.Selections()
			sels[0] = host.NewCursor(host.Position{Line: sels[0].Active.Line + 1})
			ed.SetSelections(sels)
			return nil
		})

		e.HandleKey('d')
		if got := len(ed.CallNames()); got != 3 {
			t.Errorf("command ran %d times, want 3", got)
		}
		if sels := ed.Selections(); sels[0].Active.Line != 3 {
			t.Errorf("cursor line = %d, want 3", sels[0].Active.Line)
		}
	})

	t.Run("repeat expression error stops", func(t *testing.T) {
		e, ed, notes := newTestEngine(t, `{"d": {"command": "cursorDown", "repeat": "nothing.here"}}`)
		e.HandleKey('d')
		wantCalls(t, ed)
		if len(notes.errors) == 0 {
			t.Error("repeat failure was not reported")
		}
	})
}

func TestCommandFailureReported(t *testing.T) {
	e, ed, notes := newTestEngine(t, `{"s": "save"}`)
	ed.Register("save", func(context.Context, any) error {
		return errors.New("read-only file system")
	})

	e.HandleKey('s')
	if len(notes.errors) != 1 || !strings.Contains(notes.errors[0], "read-only") {
		t.Errorf("errors = %v, want the host failure", notes.errors)
	}
	if e.PendingKeys() != "" {
		t.Error("failure left pending key state behind")
	}
}

func TestCompileErrorKeepsPreviousBindings(t *testing.T) {
	e, ed, notes := newTestEngine(t, `{"h": "cursorLeft"}`)

	km, diags := e.Compile([]byte(`{"z-a": "broken"}`))
	if !diags.HasErrors() {
		t.Fatal("Compile() accepted an invalid configuration")
	}
	if km != nil {
		t.Error("Compile() returned a keymap alongside errors")
	}
	if len(notes.errors) == 0 {
		t.Error("rejected reload was not reported")
	}

	// The previous keymap still drives keystrokes.
	e.HandleKey('h')
	wantCalls(t, ed, "cursorLeft")
}

func TestCompileReplacesBindings(t *testing.T) {
	e, ed, _ := newTestEngine(t, `{"h": "cursorLeft"}`)

	if km, diags := e.Compile([]byte(`{"h": "cursorRight"}`)); diags.HasErrors() || km == nil {
		t.Fatalf("Compile() = %v, %v", km, diags)
	}
	e.HandleKey('h')
	wantCalls(t, ed, "cursorRight")
}

func TestTypeKeysBuiltin(t *testing.T) {
	e, ed, _ := newTestEngine(t, `{
		"h": "cursorLeft",
		"H": {"command": "`+CmdTypeKeys+`", "args": {"keys": "hhh"}}
	}`)

	e.HandleKey('H')
	wantCalls(t, ed, "cursorLeft", "cursorLeft", "cursorLeft")
}

func TestCaptureCommand(t *testing.T) {
	e, ed, _ := newTestEngine(t, `{"r": "replaceChar"}`, WithCaptureCommand("replaceChar"))

	e.HandleKey('r')
	if done := e.HandleKey('x'); done {
		t.Error("HandleKey() = true while capture still active")
	}
	e.HandleKey('y')
	e.EndCapture()
	e.HandleKey('r')
	e.EndCapture()

	calls := ed.Calls()
	want := []struct {
		name string
		args any
	}{
		{"replaceChar", nil},
		{"replaceChar", "x"},
		{"replaceChar", "y"},
		{"replaceChar", nil},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %d entries", calls, len(want))
	}
	for i, w := range want {
		if calls[i].Name != w.name || calls[i].Args != w.args {
			t.Errorf("call[%d] = %+v, want %+v", i, calls[i], w)
		}
	}
}

func TestEndCaptureBuiltin(t *testing.T) {
	// A sequence can run a capture command and immediately release the
	// capture, so the next keystroke resolves through the keymap again.
	e, ed, _ := newTestEngine(t, `{
		"h": "cursorLeft",
		"r": ["replaceChar", "`+CmdEndCapture+`"]
	}`, WithCaptureCommand("replaceChar"))

	e.HandleKey('r')
	e.HandleKey('h')
	wantCalls(t, ed, "replaceChar", "cursorLeft")
}

func TestSearchThroughKeystrokes(t *testing.T) {
	e, ed, _ := newTestEngine(t, `{"/": "`+CmdSearch+`"}`)
	ed.SetText("abcfooxfooy")

	e.HandleKey('/')
	if !e.Searching() {
		t.Fatal("Searching() = false after the search binding ran")
	}

	// Captured keystrokes feed the query, newline accepts.
	typeKeys(e, "foo\n")
	if e.Searching() {
		t.Fatal("Searching() = true after accept")
	}
	if e.SearchQuery() != "foo" {
		t.Errorf("SearchQuery() = %q, want foo", e.SearchQuery())
	}

	got := ed.Selections()[0]
	want := host.Selection{Anchor: ed.PositionAt(3), Active: ed.PositionAt(6)}
	if !got.Equals(want) {
		t.Errorf("selection = %v, want %v", got, want)
	}

	e.NextMatch()
	got = ed.Selections()[0]
	want = host.Selection{Anchor: ed.PositionAt(7), Active: ed.PositionAt(10)}
	if !got.Equals(want) {
		t.Errorf("selection after NextMatch = %v, want %v", got, want)
	}
}

func TestSearchArguments(t *testing.T) {
	e, ed, _ := newTestEngine(t, `{
		"?": {"command": "`+CmdSearch+`", "args": {"backwards": true, "wrapAround": true}}
	}`)
	ed.SetText("abcfooxfooy")
	ed.SetSelections([]host.Selection{host.NewCursor(ed.PositionAt(11))})

	typeKeys(e, "?foo\n")
	got := ed.Selections()[0]
	want := host.Selection{Anchor: ed.PositionAt(10), Active: ed.PositionAt(7)}
	if !got.Equals(want) {
		t.Errorf("backward selection = %v, want %v", got, want)
	}
}

func TestSearchNonInteractiveArgument(t *testing.T) {
	// A string result types the whole query; the trailing newline
	// accepts it in the same action.
	e, ed, _ := newTestEngine(t, `{
		"n": {"command": "`+CmdSearch+`", "args": "'foo' .. string.char(10)"}
	}`)
	ed.SetText("abcfooxfooy")
	e.HandleKey('n')

	if e.Searching() {
		t.Error("Searching() = true, the typed newline should accept")
	}
	got := ed.Selections()[0]
	want := host.Selection{Anchor: ed.PositionAt(3), Active: ed.PositionAt(6)}
	if !got.Equals(want) {
		t.Errorf("selection = %v, want %v", got, want)
	}
}

func TestSearchCancelRestores(t *testing.T) {
	e, ed, _ := newTestEngine(t, `{"/": "`+CmdSearch+`"}`)
	ed.SetText("abcfooxfooy")
	start := ed.Selections()[0]

	typeKeys(e, "/foo")
	e.CancelSearch()

	if e.Searching() {
		t.Error("Searching() = true after cancel")
	}
	if got := ed.Selections()[0]; !got.Equals(start) {
		t.Errorf("selection = %v, want restored %v", got, start)
	}

	// The keymap is live again.
	e.HandleKey('/')
	if !e.Searching() {
		t.Error("search binding dead after cancel")
	}
}

func TestSearchAcceptHookReentersKeymap(t *testing.T) {
	e, ed, _ := newTestEngine(t, `{
		"h": "cursorLeft",
		"/": {"command": "`+CmdSearch+`", "args": {"acceptAfter": 3, "typeAfterAccept": "h"}}
	}`)
	ed.SetText("abcfooxfooy")

	typeKeys(e, "/foo")
	if e.Searching() {
		t.Fatal("acceptAfter did not end the session")
	}
	if names := ed.CallNames(); len(names) == 0 || names[len(names)-1] != "cursorLeft" {
		t.Errorf("calls = %v, want trailing cursorLeft from the hook", names)
	}
}

func TestSnapshotGlobals(t *testing.T) {
	e, ed, _ := newTestEngine(t, `{
		"i": {"command": "probe", "args": "file .. ':' .. line .. ':' .. col .. ':' .. char"}
	}`)
	ed.SetText("hello\nworld")
	ed.SetSelections([]host.Selection{host.NewCursor(host.Position{Line: 1, Column: 1})})

	e.HandleKey('i')
	calls := ed.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %v", calls)
	}
	if calls[0].Args != "main.go:1:1:o" {
		t.Errorf("args = %#v, want main.go:1:1:o", calls[0].Args)
	}
}

func TestSnapshotSelection(t *testing.T) {
	e, ed, _ := newTestEngine(t, `{
		"i": {"command": "probe", "args": "selection"}
	}`)
	ed.SetText("hello world")
	ed.SetSelections([]host.Selection{
		host.NewSelection(host.Position{Line: 0, Column: 6}, host.Position{Line: 0, Column: 11}),
	})

	e.HandleKey('i')
	calls := ed.Calls()
	if len(calls) != 1 || calls[0].Args != "world" {
		t.Errorf("calls = %v, want selection text world", calls)
	}
}
