package search

import (
	"github.com/dshills/modalkit/internal/host"
)

// State identifies where a search session is in its lifecycle.
type State uint8

const (
	// StateIdle means no session is active.
	StateIdle State = iota

	// StateSearching means keystrokes are feeding the query.
	StateSearching

	// StateAccepted is the transitional state while accept hooks run.
	StateAccepted

	// StateCancelled is the transitional state while selections are
	// restored.
	StateCancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateAccepted:
		return "accepted"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Options configures one search session. Zero values give a forward,
// case-insensitive, non-wrapping search with no auto-accept.
type Options struct {
	// Backwards searches toward the start of the document.
	Backwards bool

	// CaseSensitive disables case folding.
	CaseSensitive bool

	// WrapAround retries from the opposite end of the document when no
	// occurrence remains in the search direction.
	WrapAround bool

	// AcceptAfter auto-accepts once the query reaches this many
	// characters. Zero means no auto-accept.
	AcceptAfter int

	// SelectTillMatch extends each selection from its recorded anchor
	// to the near edge of the match instead of covering the match.
	SelectTillMatch bool

	// Hook key strings, fed back through the engine when set.
	TypeAfterAccept         string
	TypeBeforeNextMatch     string
	TypeAfterNextMatch      string
	TypeBeforePreviousMatch string
	TypeAfterPreviousMatch  string
}

// TypeFunc feeds hook key strings back into the keystroke path.
type TypeFunc func(keys string)

// Search is the incremental search sub-machine. It is owned by the
// engine and must only be driven from the engine's single keystroke
// path: hook execution re-enters the engine, so internal locking would
// self-deadlock.
type Search struct {
	editor   host.Editor
	notifier host.Notifier
	typeKeys TypeFunc

	state State
	opts  Options
	query string

	// Selections recorded when the session began; match origins while
	// searching, restore targets on cancel.
	startSelections []host.Selection
}

// New creates a search sub-machine bound to an editor.
func New(editor host.Editor, notifier host.Notifier, typeKeys TypeFunc) *Search {
	if notifier == nil {
		notifier = host.NopNotifier{}
	}
	return &Search{
		editor:   editor,
		notifier: notifier,
		typeKeys: typeKeys,
		state:    StateIdle,
	}
}

// State returns the current lifecycle state.
func (s *Search) State() State {
	return s.state
}

// Searching returns true while a session is consuming keystrokes.
func (s *Search) Searching() bool {
	return s.state == StateSearching
}

// Query returns the current (or last completed) query.
func (s *Search) Query() string {
	return s.query
}

// Start begins a session: selections are snapshotted as anchors, the
// query is cleared, and the engine routes subsequent keystrokes here.
func (s *Search) Start(opts Options) {
	s.opts = opts
	s.query = ""
	s.startSelections = s.editor.Selections()
	s.state = StateSearching
}

// Advance extends the query by one character and recomputes every
// cursor's match from its recorded anchor.
func (s *Search) Advance(r rune) {
	if s.state != StateSearching {
		return
	}
	s.query += string(r)
	s.recompute(s.startSelections)

	if s.opts.AcceptAfter > 0 && len([]rune(s.query)) >= s.opts.AcceptAfter {
		s.Accept()
	}
}

// DeleteChar removes the last query character and recomputes from the
// recorded anchors, so backspacing retraces the original search instead
// of compounding drift. An emptied query restores the anchors exactly.
func (s *Search) DeleteChar() {
	if s.state != StateSearching {
		return
	}
	runes := []rune(s.query)
	if len(runes) == 0 {
		return
	}
	s.query = string(runes[:len(runes)-1])
	if s.query == "" {
		s.editor.SetSelections(s.startSelections)
		s.editor.RevealSelection()
		return
	}
	s.recompute(s.startSelections)
}

// Accept completes the session. The query survives for NextMatch and
// PreviousMatch. The after-accept hook runs once the session is no
// longer capturing, so it may re-enter the keymap.
func (s *Search) Accept() {
	if s.state != StateSearching {
		return
	}
	s.state = StateAccepted
	s.state = StateIdle
	s.runHook(s.opts.TypeAfterAccept)
}

// Cancel abandons the session and restores every cursor to its recorded
// anchor selection. The query is discarded.
func (s *Search) Cancel() {
	if s.state != StateSearching {
		return
	}
	s.state = StateCancelled
	s.editor.SetSelections(s.startSelections)
	s.editor.RevealSelection()
	s.query = ""
	s.state = StateIdle
}

// NextMatch moves every cursor to the following occurrence of the last
// query, measured from its current selection rather than the original
// anchor. Valid whenever a query exists, including after accept.
func (s *Search) NextMatch() {
	s.advanceMatch(s.opts.TypeBeforeNextMatch, s.opts.TypeAfterNextMatch)
}

// PreviousMatch is NextMatch with the direction inverted. The direction
// is restored even if a hook panics.
func (s *Search) PreviousMatch() {
	s.opts.Backwards = !s.opts.Backwards
	defer func() { s.opts.Backwards = !s.opts.Backwards }()
	s.advanceMatch(s.opts.TypeBeforePreviousMatch, s.opts.TypeAfterPreviousMatch)
}

// advanceMatch recomputes from the current selections with hooks around
// the move. The origin is the selection edge facing the search
// direction, so a cursor sitting on a match always progresses past it
// instead of re-finding it.
func (s *Search) advanceMatch(before, after string) {
	if s.query == "" {
		s.notifier.Warn("search: no previous search")
		return
	}
	s.runHook(before)

	sels := s.editor.Selections()
	origins := make([]host.Selection, len(sels))
	for i, sel := range sels {
		pos := sel.End()
		if s.opts.Backwards {
			pos = sel.Start()
		}
		origins[i] = host.NewCursor(pos)
	}
	s.recompute(origins)

	s.runHook(after)
}

// recompute resolves the query for every cursor independently, using
// origins[i].Active as cursor i's starting offset. Cursors with no
// occurrence keep their selection; results are not deduplicated, so
// converging cursors may collapse the visible selection count.
func (s *Search) recompute(origins []host.Selection) {
	text := s.editor.Text()
	m := newMatcher(text, s.query, s.opts.CaseSensitive, s.opts.WrapAround)

	sels := s.editor.Selections()
	anyFound := false
	anyWrapped := false

	for i := range sels {
		origin := sels[i]
		if i < len(origins) {
			origin = origins[i]
		}
		from := s.editor.OffsetAt(origin.Active)

		start, wrapped, ok := m.find(from, s.opts.Backwards)
		if !ok {
			continue
		}
		anyFound = true
		if wrapped {
			anyWrapped = true
		}
		sels[i] = s.matchSelection(i, origin, from, start, start+m.len())
	}

	s.editor.SetSelections(sels)
	s.editor.RevealSelection()

	switch {
	case !anyFound:
		s.notifier.Warn("not found: " + s.query)
	case anyWrapped:
		s.notifier.Info("search wrapped: " + s.query)
	}
}

// matchSelection builds cursor i's new selection for a match spanning
// [start, end). Polarity follows the match's position relative to the
// origin offset.
func (s *Search) matchSelection(i int, origin host.Selection, from, start, end int) host.Selection {
	if s.opts.SelectTillMatch {
		base := origin.Anchor
		if i < len(s.startSelections) {
			base = s.startSelections[i].Active
		}
		near := start
		if start < s.editor.OffsetAt(base) {
			near = end
		}
		return host.Selection{Anchor: base, Active: s.editor.PositionAt(near)}
	}

	if start >= from {
		return host.Selection{
			Anchor: s.editor.PositionAt(start),
			Active: s.editor.PositionAt(end),
		}
	}
	return host.Selection{
		Anchor: s.editor.PositionAt(end),
		Active: s.editor.PositionAt(start),
	}
}

// runHook feeds hook keys back through the engine.
func (s *Search) runHook(keys string) {
	if keys == "" || s.typeKeys == nil {
		return
	}
	s.typeKeys(keys)
}
