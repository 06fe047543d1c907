package host

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Command is a host command implementation registered on a MemoryEditor.
type Command func(ctx context.Context, args any) error

// CommandCall records one command invocation for inspection in tests.
type CommandCall struct {
	Name string
	Args any
}

// MemoryEditor is an in-memory Editor backed by a plain string document.
// Unregistered commands are recorded and succeed, which keeps binding
// tables exercisable without a full host behind them.
type MemoryEditor struct {
	mu sync.Mutex

	name       string
	text       string
	lines      []string
	selections []Selection
	commands   map[string]Command
	calls      []CommandCall
}

// NewMemoryEditor creates an editor holding the given document with a
// single cursor at the start.
func NewMemoryEditor(name, text string) *MemoryEditor {
	return &MemoryEditor{
		name:       name,
		text:       text,
		lines:      strings.Split(text, "\n"),
		selections: []Selection{NewCursor(Position{})},
		commands:   make(map[string]Command),
	}
}

// Register installs a command implementation.
func (m *MemoryEditor) Register(name string, fn Command) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands[name] = fn
}

// Calls returns every command invocation seen so far.
func (m *MemoryEditor) Calls() []CommandCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallNames returns the names of every command invocation in order.
func (m *MemoryEditor) CallNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.calls))
	for i, c := range m.calls {
		names[i] = c.Name
	}
	return names
}

// ClearCalls resets the recorded invocation log.
func (m *MemoryEditor) ClearCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// SetText replaces the document text, clamping selections.
func (m *MemoryEditor) SetText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.lines = strings.Split(text, "\n")
}

// ExecuteCommand implements Editor.
func (m *MemoryEditor) ExecuteCommand(ctx context.Context, name string, args any) error {
	m.mu.Lock()
	m.calls = append(m.calls, CommandCall{Name: name, Args: args})
	fn := m.commands[name]
	m.mu.Unlock()

	if fn == nil {
		return nil
	}
	if err := fn(ctx, args); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Selections implements Editor.
func (m *MemoryEditor) Selections() []Selection {
	m.mu.Lock()
	defer m.mu.Unlock()
	sels := make([]Selection, len(m.selections))
	copy(sels, m.selections)
	return sels
}

// SetSelections implements Editor.
func (m *MemoryEditor) SetSelections(sels []Selection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selections = make([]Selection, len(sels))
	copy(m.selections, sels)
}

// RevealSelection implements Editor. It is a no-op for the in-memory host.
func (m *MemoryEditor) RevealSelection() {}

// Text implements Editor.
func (m *MemoryEditor) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// OffsetAt implements Editor.
func (m *MemoryEditor) OffsetAt(pos Position) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pos.Line < 0 {
		return 0
	}
	offset := 0
	for i := 0; i < pos.Line && i < len(m.lines); i++ {
		offset += len(m.lines[i]) + 1
	}
	if pos.Line >= len(m.lines) {
		return len(m.text)
	}
	col := pos.Column
	if col > len(m.lines[pos.Line]) {
		col = len(m.lines[pos.Line])
	}
	if col < 0 {
		col = 0
	}
	return offset + col
}

// PositionAt implements Editor.
func (m *MemoryEditor) PositionAt(offset int) Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	if offset <= 0 {
		return Position{}
	}
	if offset > len(m.text) {
		offset = len(m.text)
	}
	remaining := offset
	for i, line := range m.lines {
		if remaining <= len(line) {
			return Position{Line: i, Column: remaining}
		}
		remaining -= len(line) + 1
	}
	last := len(m.lines) - 1
	return Position{Line: last, Column: len(m.lines[last])}
}

// Line implements Editor.
func (m *MemoryEditor) Line(line int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if line < 0 || line >= len(m.lines) {
		return ""
	}
	return m.lines[line]
}

// DocumentName implements Editor.
func (m *MemoryEditor) DocumentName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

// Ensure MemoryEditor implements Editor.
var _ Editor = (*MemoryEditor)(nil)
