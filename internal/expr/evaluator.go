package expr

import (
	"context"
	"strconv"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultTimeout bounds a single expression evaluation. Long-running
// Lua that never yields cannot be interrupted mid-opcode, so this is
// best-effort.
const DefaultTimeout = time.Second

// Context is the read-only snapshot an expression is evaluated against.
// Each field is exposed to the expression as a global of the same
// spelling noted in the struct tags below.
type Context struct {
	FileName     string   // file
	Line         int      // line
	Column       int      // col
	Char         string   // char: character under the cursor
	SelectedText string   // selection
	Selecting    bool     // selecting
	Keys         []string // keys: pending keys in typed order
	ReversedKeys []string // rkeys
	KeySequence  string   // keySequence: flattened pending keys
	ReversedKeyS string   // rkeySequence
	LastCommand  string   // lastCommand
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithTimeout sets the per-evaluation timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		e.timeout = d
	}
}

// Evaluator runs binding expressions in a single sandboxed Lua state.
type Evaluator struct {
	mu      sync.Mutex
	L       *lua.LState
	timeout time.Duration
	closed  bool
}

// New creates a sandboxed evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	removeLoaders(L)
	e.L = L
	return e
}

// openSafeLibraries opens only the Lua libraries expressions may use.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	// io, os, debug, and package stay closed: expressions have no
	// business touching the file system, processes, or module loading.
}

// removeLoaders strips the base-library functions that would let an
// expression execute code from outside the configuration.
func removeLoaders(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Eval evaluates one expression against the snapshot and returns the
// result as a Go value (bool, int64, float64, string, []any,
// map[string]any, or nil).
func (e *Evaluator) Eval(expr string, ctx Context) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEvaluatorClosed
	}

	e.bind(ctx)

	fn, err := e.L.LoadString("return " + expr)
	if err != nil {
		return nil, &EvalError{Expr: expr, Err: err}
	}

	if e.timeout > 0 {
		tctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		e.L.SetContext(tctx)
		defer e.L.RemoveContext()
	}

	e.L.Push(fn)
	if err := e.L.PCall(0, 1, nil); err != nil {
		return nil, &EvalError{Expr: expr, Err: err}
	}
	ret := e.L.Get(-1)
	e.L.Pop(1)
	return toGo(ret), nil
}

// bind installs the snapshot as globals. Every global is overwritten on
// each call, so no state leaks between evaluations.
func (e *Evaluator) bind(ctx Context) {
	L := e.L
	L.SetGlobal("file", lua.LString(ctx.FileName))
	L.SetGlobal("line", lua.LNumber(ctx.Line))
	L.SetGlobal("col", lua.LNumber(ctx.Column))
	L.SetGlobal("char", lua.LString(ctx.Char))
	L.SetGlobal("selection", lua.LString(ctx.SelectedText))
	L.SetGlobal("selecting", lua.LBool(ctx.Selecting))
	L.SetGlobal("keys", toLua(L, toAnySlice(ctx.Keys)))
	L.SetGlobal("rkeys", toLua(L, toAnySlice(ctx.ReversedKeys)))
	L.SetGlobal("keySequence", lua.LString(ctx.KeySequence))
	L.SetGlobal("rkeySequence", lua.LString(ctx.ReversedKeyS))
	L.SetGlobal("lastCommand", lua.LString(ctx.LastCommand))
}

// Close releases the Lua state.
func (e *Evaluator) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.L.Close()
}

// Stringify renders an evaluation result the way conditional branch
// lookup expects: booleans become "true"/"false", numbers use their
// shortest decimal form, strings pass through, nil becomes "nil".
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return val
	default:
		return ""
	}
}

// Truthy reports whether a result keeps a repeat loop running. nil,
// false, zero numbers, and empty strings are falsy; everything else is
// truthy.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case int64:
		return val != 0
	case float64:
		return val != 0
	case string:
		return val != ""
	default:
		return true
	}
}

// AsNumber extracts an integer repeat count from a result.
func AsNumber(v any) (int, bool) {
	switch val := v.(type) {
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	default:
		return 0, false
	}
}

// toAnySlice widens a string slice for the bridge.
func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
