package host

import "testing"

func TestPositionCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Position
		want int
	}{
		{name: "equal", a: Position{1, 2}, b: Position{1, 2}, want: 0},
		{name: "earlier line", a: Position{0, 9}, b: Position{1, 0}, want: -1},
		{name: "later line", a: Position{2, 0}, b: Position{1, 9}, want: 1},
		{name: "same line earlier column", a: Position{1, 1}, b: Position{1, 2}, want: -1},
		{name: "same line later column", a: Position{1, 3}, b: Position{1, 2}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
			if got := tt.a.Before(tt.b); got != (tt.want < 0) {
				t.Errorf("Before() = %v", got)
			}
			if got := tt.a.After(tt.b); got != (tt.want > 0) {
				t.Errorf("After() = %v", got)
			}
		})
	}
}

func TestSelectionOrientation(t *testing.T) {
	fwd := NewSelection(Position{0, 1}, Position{0, 5})
	bwd := fwd.Flip()

	if !fwd.IsForward() || bwd.IsForward() {
		t.Error("IsForward() does not follow anchor/active order")
	}
	for _, s := range []Selection{fwd, bwd} {
		if !s.Start().Equals(Position{0, 1}) || !s.End().Equals(Position{0, 5}) {
			t.Errorf("Start/End of %v not orientation-independent", s)
		}
	}

	cursor := NewCursor(Position{2, 3})
	if !cursor.IsEmpty() {
		t.Error("NewCursor() selection is not empty")
	}
	if fwd.IsEmpty() {
		t.Error("non-empty selection reported empty")
	}
}

func TestSelectionCollapse(t *testing.T) {
	s := NewSelection(Position{0, 1}, Position{0, 5})

	if got := s.Collapse(); !got.IsEmpty() || !got.Active.Equals(Position{0, 5}) {
		t.Errorf("Collapse() = %v", got)
	}
	if got := s.CollapseToAnchor(); !got.IsEmpty() || !got.Active.Equals(Position{0, 1}) {
		t.Errorf("CollapseToAnchor() = %v", got)
	}
	if got := s.Extend(Position{1, 0}); !got.Anchor.Equals(Position{0, 1}) || !got.Active.Equals(Position{1, 0}) {
		t.Errorf("Extend() = %v", got)
	}
}
