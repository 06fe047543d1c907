// Package engine is the keystroke-resolution and action-execution core.
//
// An Engine owns the compiled keymap graph, the pending key sequence,
// and the incremental search sub-machine. HandleKey consumes one
// keystroke at a time: it either descends into a nested keymap (the
// sequence stays pending), executes the bound action and resets to the
// root, or reports an undefined binding. While a search session or a
// capture command is active, keystrokes bypass the keymap entirely and
// are forwarded as raw arguments.
//
// All work happens synchronously on the caller's goroutine; the host is
// expected to serialize keystroke delivery. One keystroke's action runs
// to completion, including every element of a nested sequence, before
// HandleKey returns.
package engine
