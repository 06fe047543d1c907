package host

import "context"

// Editor is the host editor the engine executes against.
//
// Implementations are expected to serialize calls; the engine performs
// no internal locking around Editor access beyond its own entry points.
type Editor interface {
	// ExecuteCommand invokes a named editor command. Args may be nil, a
	// string, or a JSON-compatible value (map, slice, number, bool).
	// A returned error is surfaced to the user and never crashes the
	// engine.
	ExecuteCommand(ctx context.Context, name string, args any) error

	// Selections returns the ordered list of cursor selections for the
	// active document. There is always at least one selection in a
	// well-formed host; an empty slice means no document is open.
	Selections() []Selection

	// SetSelections replaces all selections.
	SetSelections(sels []Selection)

	// RevealSelection scrolls the primary selection into view.
	RevealSelection()

	// Text returns the full document text.
	Text() string

	// OffsetAt converts a position to a byte offset into Text.
	OffsetAt(pos Position) int

	// PositionAt converts a byte offset into a position.
	PositionAt(offset int) Position

	// Line returns the text of the given zero-based line without its
	// trailing newline.
	Line(line int) string

	// DocumentName identifies the active document (path or title).
	DocumentName() string
}

// Notifier is the host-level channel for user-visible notices.
// Undefined bindings, expression failures, and command failures are
// reported here rather than returned up the keystroke path.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// NopNotifier discards all notices.
type NopNotifier struct{}

// Info implements Notifier.
func (NopNotifier) Info(string) {}

// Warn implements Notifier.
func (NopNotifier) Warn(string) {}

// Error implements Notifier.
func (NopNotifier) Error(string) {}
