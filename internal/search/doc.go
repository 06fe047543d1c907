// Package search implements the incremental multi-cursor search
// sub-machine.
//
// A search session is started as an action, captures subsequent
// keystrokes into a growing query, and resolves matches independently
// for every cursor relative to the positions recorded when the session
// began. Accept and cancel return control to the keymap; next/previous
// match keep working on the last completed query after the session ends.
// Hook key strings configured on the session are fed back through the
// engine's keystroke path, so hooks can trigger any bound action.
package search
