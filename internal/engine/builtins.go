package engine

import (
	"github.com/dshills/modalkit/internal/search"
)

// Builtin command names. Bindings invoke these like any host command;
// the engine intercepts them before they reach the editor.
const (
	CmdSearch               = "modalkit.search"
	CmdCancelSearch         = "modalkit.cancelSearch"
	CmdDeleteCharFromSearch = "modalkit.deleteCharFromSearch"
	CmdNextMatch            = "modalkit.nextMatch"
	CmdPreviousMatch        = "modalkit.previousMatch"
	CmdTypeKeys             = "modalkit.typeKeys"
	CmdToggleSelecting      = "modalkit.toggleSelecting"
	CmdEndCapture           = "modalkit.endCapture"
)

// runBuiltin executes name if it is an engine builtin, reporting
// whether it handled the command.
func (e *Engine) runBuiltin(name string, args any) bool {
	switch name {
	case CmdSearch:
		e.builtinSearch(args)
	case CmdCancelSearch:
		e.search.Cancel()
	case CmdDeleteCharFromSearch:
		e.search.DeleteChar()
	case CmdNextMatch:
		e.search.NextMatch()
	case CmdPreviousMatch:
		e.search.PreviousMatch()
	case CmdTypeKeys:
		e.builtinTypeKeys(args)
	case CmdToggleSelecting:
		e.selecting = !e.selecting
	case CmdEndCapture:
		e.captureCmd = ""
	default:
		return false
	}
	return true
}

// builtinSearch starts an interactive search. A string argument is a
// complete non-interactive query typed into the fresh search; a map
// argument overrides the configured search defaults.
func (e *Engine) builtinSearch(args any) {
	switch v := args.(type) {
	case nil:
		e.search.Start(e.searchDefaults)
	case string:
		e.search.Start(e.searchDefaults)
		for _, r := range v {
			if r == '\n' || r == '\r' {
				e.search.Accept()
				return
			}
			e.search.Advance(r)
		}
	case map[string]any:
		e.search.Start(searchOptions(e.searchDefaults, v))
	default:
		e.notifier.Error("search: unsupported argument type")
	}
}

// builtinTypeKeys feeds keys back through the keystroke pipeline.
func (e *Engine) builtinTypeKeys(args any) {
	switch v := args.(type) {
	case string:
		e.typeKeys(v)
	case map[string]any:
		if keys, ok := v["keys"].(string); ok {
			e.typeKeys(keys)
			return
		}
		e.notifier.Error("typeKeys: missing keys argument")
	default:
		e.notifier.Error("typeKeys: unsupported argument type")
	}
}

// searchOptions applies map overrides on top of the configured
// defaults. Unknown keys are ignored.
func searchOptions(base search.Options, m map[string]any) search.Options {
	opts := base
	if v, ok := boolArg(m, "backwards"); ok {
		opts.Backwards = v
	}
	if v, ok := boolArg(m, "caseSensitive"); ok {
		opts.CaseSensitive = v
	}
	if v, ok := boolArg(m, "wrapAround"); ok {
		opts.WrapAround = v
	}
	if v, ok := intArg(m, "acceptAfter"); ok {
		opts.AcceptAfter = v
	}
	if v, ok := boolArg(m, "selectTillMatch"); ok {
		opts.SelectTillMatch = v
	}
	if v, ok := stringArg(m, "typeAfterAccept"); ok {
		opts.TypeAfterAccept = v
	}
	if v, ok := stringArg(m, "typeBeforeNextMatch"); ok {
		opts.TypeBeforeNextMatch = v
	}
	if v, ok := stringArg(m, "typeAfterNextMatch"); ok {
		opts.TypeAfterNextMatch = v
	}
	if v, ok := stringArg(m, "typeBeforePreviousMatch"); ok {
		opts.TypeBeforePreviousMatch = v
	}
	if v, ok := stringArg(m, "typeAfterPreviousMatch"); ok {
		opts.TypeAfterPreviousMatch = v
	}
	return opts
}

func boolArg(m map[string]any, key string) (bool, bool) {
	v, ok := m[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// intArg accepts the numeric encodings produced by JSON decoding and
// expression evaluation alike.
func intArg(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func stringArg(m map[string]any, key string) (string, bool) {
	v, ok := m[key].(string)
	if !ok {
		return "", false
	}
	return v, true
}
