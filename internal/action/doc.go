// Package action defines the binding grammar and its validator.
//
// A binding configuration is a recursive JSON tree: keymaps map key
// patterns to actions, and an action is a command name, a sequence, a
// conditional, a parameterized command, or a further keymap. Compile
// turns the raw tree into a fully resolved tagged-union graph in one
// pass, collecting diagnostics instead of failing fast. A keymap may
// carry a numeric id and be referenced by that id later in the document,
// which is how recursive keymaps (including self-references) are built
// without duplicating structure.
package action
