package engine

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dshills/modalkit/internal/action"
	"github.com/dshills/modalkit/internal/expr"
	"github.com/dshills/modalkit/internal/host"
	"github.com/dshills/modalkit/internal/search"
)

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier routes user-visible notices to the given notifier.
func WithNotifier(n host.Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithContext sets the context passed to host command invocations.
func WithContext(ctx context.Context) Option {
	return func(e *Engine) {
		if ctx != nil {
			e.ctx = ctx
		}
	}
}

// WithCaptureCommand marks a host command as wanting raw keystrokes.
// After the command runs, subsequent keys are forwarded to it as string
// arguments instead of being resolved against the keymap, until the
// engine's capture is ended.
func WithCaptureCommand(names ...string) Option {
	return func(e *Engine) {
		for _, name := range names {
			e.captureCommands[name] = true
		}
	}
}

// WithSearchDefaults sets the session options used when a search is
// started without explicit arguments.
func WithSearchDefaults(opts search.Options) Option {
	return func(e *Engine) {
		e.searchDefaults = opts
	}
}

// WithExpressionTimeout bounds a single binding-expression evaluation.
// Zero keeps the evaluator's default.
func WithExpressionTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.exprTimeout = d
	}
}

// Engine is the keystroke state machine. All mutable state is owned
// here and mutated only at the transition points of HandleKey and the
// public search operations.
type Engine struct {
	mu sync.Mutex

	editor   host.Editor
	notifier host.Notifier
	eval     *expr.Evaluator
	search   *search.Search
	ctx      context.Context

	root    *action.Keymap
	active  *action.Keymap
	pending []rune

	lastCommand string
	selecting   bool

	captureCommands map[string]bool
	captureCmd      string

	searchDefaults search.Options
	exprTimeout    time.Duration
}

// New creates an engine bound to a host editor. The keymap starts empty
// until Compile installs one.
func New(editor host.Editor, opts ...Option) *Engine {
	e := &Engine{
		editor:          editor,
		notifier:        host.NopNotifier{},
		ctx:             context.Background(),
		root:            action.NewKeymap(),
		captureCommands: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.active = e.root
	if e.exprTimeout > 0 {
		e.eval = expr.New(expr.WithTimeout(e.exprTimeout))
	} else {
		e.eval = expr.New()
	}
	e.search = search.New(editor, e.notifier, e.typeKeys)
	return e
}

// Close releases the expression evaluator.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.eval.Close()
}

// Compile validates a raw JSON binding tree and installs it as the new
// root keymap, returning the installed keymap. On validation errors the
// previous keymap (or the empty root) stays in effect, the diagnostics
// are returned for display, and the keymap result is nil.
func (e *Engine) Compile(raw []byte) (*action.Keymap, *action.Diagnostics) {
	km, diags := action.Compile(raw)

	e.mu.Lock()
	defer e.mu.Unlock()

	if diags.HasErrors() {
		e.notifier.Error(fmt.Sprintf("keymap rejected: %d validation error(s), keeping previous bindings", diags.Len()))
		return nil, diags
	}
	e.root = km
	e.reset()
	return km, diags
}

// HandleKey consumes one keystroke. It returns true when the keystroke
// completed (or abandoned) a key sequence, i.e. the engine is back at
// the root keymap.
func (e *Engine) HandleKey(r rune) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handleKey(r)
}

// handleKey is the unlocked core, also used for re-entrant key feeding
// from search hooks and the typeKeys builtin.
func (e *Engine) handleKey(r rune) bool {
	if e.capturing() {
		e.forwardCaptured(r)
		return !e.capturing()
	}

	e.pending = append(e.pending, r)

	act, ok := e.active.Lookup(r)
	if !ok {
		e.notifier.Warn("undefined binding: " + string(e.pending))
		e.reset()
		return true
	}

	if km, isMap := act.(*action.Keymap); isMap {
		e.active = km
		return false
	}

	pending := make([]rune, len(e.pending))
	copy(pending, e.pending)
	// Reset before execution so an action can never leak a partially
	// walked keymap into the next independent keystroke.
	e.reset()
	e.run(act, pending)
	return true
}

// capturing reports whether keystrokes currently bypass the keymap.
func (e *Engine) capturing() bool {
	return e.search.Searching() || e.captureCmd != ""
}

// forwardCaptured routes a captured keystroke to its consumer.
func (e *Engine) forwardCaptured(r rune) {
	if e.search.Searching() {
		if r == '\n' || r == '\r' {
			e.search.Accept()
			return
		}
		e.search.Advance(r)
		return
	}
	e.runCommand(e.captureCmd, string(r))
}

// reset returns the sequence state to the root keymap.
func (e *Engine) reset() {
	e.active = e.root
	e.pending = nil
}

// Reset abandons any pending key sequence.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

// Help returns the advisory help string of the active keymap.
func (e *Engine) Help() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.Help
}

// PendingKeys returns the keys typed since the last completed action.
func (e *Engine) PendingKeys() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return string(e.pending)
}

// LastCommand returns the most recently executed command name.
func (e *Engine) LastCommand() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastCommand
}

// EndCapture stops forwarding keystrokes to a capture command.
func (e *Engine) EndCapture() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.captureCmd = ""
}

// StartSearch begins a search session with the given options merged
// over the engine's defaults.
func (e *Engine) StartSearch(opts search.Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastCommand = CmdSearch
	e.search.Start(opts)
}

// AdvanceSearch appends one character to the live query.
func (e *Engine) AdvanceSearch(r rune) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.search.Advance(r)
}

// AcceptSearch completes the live search session.
func (e *Engine) AcceptSearch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.search.Accept()
}

// CancelSearch abandons the live session and restores the anchors.
func (e *Engine) CancelSearch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.search.Cancel()
}

// DeleteSearchChar removes the last character of the live query.
func (e *Engine) DeleteSearchChar() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.search.DeleteChar()
}

// NextMatch moves every cursor to the next occurrence of the last query.
func (e *Engine) NextMatch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.search.NextMatch()
}

// PreviousMatch moves every cursor to the previous occurrence of the
// last query.
func (e *Engine) PreviousMatch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.search.PreviousMatch()
}

// Searching reports whether a search session is consuming keystrokes.
func (e *Engine) Searching() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.search.Searching()
}

// SearchQuery returns the current or last completed search query.
func (e *Engine) SearchQuery() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.search.Query()
}

// typeKeys feeds a hook key string back through the keystroke path.
// Always invoked with the engine lock held.
func (e *Engine) typeKeys(keys string) {
	for _, r := range keys {
		e.handleKey(r)
	}
}

// snapshot builds the expression context for the current editor state
// and the given pending key sequence.
func (e *Engine) snapshot(pending []rune) expr.Context {
	ctx := expr.Context{
		FileName:    e.editor.DocumentName(),
		LastCommand: e.lastCommand,
		Selecting:   e.selecting,
		KeySequence: string(pending),
	}

	keys := make([]string, len(pending))
	rkeys := make([]string, len(pending))
	rseq := make([]rune, len(pending))
	for i, r := range pending {
		keys[i] = string(r)
		rkeys[len(pending)-1-i] = string(r)
		rseq[len(pending)-1-i] = r
	}
	ctx.Keys = keys
	ctx.ReversedKeys = rkeys
	ctx.ReversedKeyS = string(rseq)

	sels := e.editor.Selections()
	if len(sels) == 0 {
		return ctx
	}
	primary := sels[0]
	ctx.Line = primary.Active.Line
	ctx.Column = primary.Active.Column

	text := e.editor.Text()
	off := e.editor.OffsetAt(primary.Active)
	if off >= 0 && off < len(text) {
		r, _ := utf8.DecodeRuneInString(text[off:])
		ctx.Char = string(r)
	}
	if !primary.IsEmpty() {
		start := e.editor.OffsetAt(primary.Start())
		end := e.editor.OffsetAt(primary.End())
		ctx.SelectedText = text[start:end]
		ctx.Selecting = true
	}
	return ctx
}
