package host

import "fmt"

// Position is a zero-based line/column location in a document.
// Column counts bytes from the start of the line.
type Position struct {
	Line   int
	Column int
}

// Compare returns -1, 0, or 1 as p sorts before, equal to, or after o.
func (p Position) Compare(o Position) int {
	switch {
	case p.Line < o.Line:
		return -1
	case p.Line > o.Line:
		return 1
	case p.Column < o.Column:
		return -1
	case p.Column > o.Column:
		return 1
	default:
		return 0
	}
}

// Before returns true if p sorts strictly before o.
func (p Position) Before(o Position) bool {
	return p.Compare(o) < 0
}

// After returns true if p sorts strictly after o.
func (p Position) After(o Position) bool {
	return p.Compare(o) > 0
}

// Equals returns true if both positions are identical.
func (p Position) Equals(o Position) bool {
	return p == o
}

// String returns "line:column" for diagnostics.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Selection is an (anchor, active) position pair.
// Anchor is where the selection started; Active is the cursor end, where
// typing occurs. When Anchor == Active the selection is a bare cursor.
// Selection is an immutable value type.
type Selection struct {
	Anchor Position
	Active Position
}

// NewSelection creates a selection from anchor to active.
func NewSelection(anchor, active Position) Selection {
	return Selection{Anchor: anchor, Active: active}
}

// NewCursor creates a collapsed selection at the given position.
func NewCursor(pos Position) Selection {
	return Selection{Anchor: pos, Active: pos}
}

// IsEmpty returns true if the selection has no extent.
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Active
}

// IsForward returns true if the selection extends forward (active at or
// after anchor).
func (s Selection) IsForward() bool {
	return !s.Active.Before(s.Anchor)
}

// Start returns the lower bound of the selection.
func (s Selection) Start() Position {
	if s.IsForward() {
		return s.Anchor
	}
	return s.Active
}

// End returns the upper bound of the selection.
func (s Selection) End() Position {
	if s.IsForward() {
		return s.Active
	}
	return s.Anchor
}

// Collapse collapses the selection to a cursor at the active end.
func (s Selection) Collapse() Selection {
	return Selection{Anchor: s.Active, Active: s.Active}
}

// CollapseToAnchor collapses the selection to a cursor at the anchor.
func (s Selection) CollapseToAnchor() Selection {
	return Selection{Anchor: s.Anchor, Active: s.Anchor}
}

// Flip returns a selection with anchor and active swapped.
func (s Selection) Flip() Selection {
	return Selection{Anchor: s.Active, Active: s.Anchor}
}

// Extend returns a selection with the same anchor and a new active end.
func (s Selection) Extend(pos Position) Selection {
	return Selection{Anchor: s.Anchor, Active: pos}
}

// Equals returns true if both anchor and active match.
func (s Selection) Equals(other Selection) bool {
	return s.Anchor == other.Anchor && s.Active == other.Active
}

// String returns a string representation of the selection.
func (s Selection) String() string {
	if s.IsEmpty() {
		return fmt.Sprintf("Cursor(%s)", s.Active)
	}
	return fmt.Sprintf("Selection(%s..%s)", s.Anchor, s.Active)
}
