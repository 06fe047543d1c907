package action

// Action is the unit of behavior bound to a key. It is a closed tagged
// union; downstream code switches on the concrete type rather than
// re-probing structural shape.
type Action interface {
	isAction()
}

// Literal invokes a named host command with no arguments.
type Literal struct {
	Command string
}

func (Literal) isAction() {}

// Sequence runs each element in order, awaiting each before the next.
// A sequence is itself an action.
type Sequence []Action

func (Sequence) isAction() {}

// Conditional evaluates Condition and executes the branch whose key
// equals the stringified result. A result with no matching branch is a
// no-op.
type Conditional struct {
	Condition string
	Branches  map[string]Action
}

func (*Conditional) isAction() {}

// Args is the argument specification of a parameterized command: either
// an expression evaluated at execution time or a literal JSON value.
type Args struct {
	// Expr, when non-empty, is evaluated against the invocation context.
	Expr string

	// Literal is used verbatim when Expr is empty. May be nil.
	Literal any
}

// IsZero returns true when no arguments were specified.
func (a Args) IsZero() bool {
	return a.Expr == "" && a.Literal == nil
}

// RepeatSpec controls how many times a parameterized command runs.
// A literal count runs the command that many times (minimum one). An
// expression that evaluates to a number does the same; any other result
// makes the expression a post-condition re-evaluated after each run.
type RepeatSpec struct {
	Count int
	Expr  string
}

// IsZero returns true when no repeat was specified.
func (r RepeatSpec) IsZero() bool {
	return r.Count == 0 && r.Expr == ""
}

// Parameterized invokes a host command with evaluated arguments,
// optionally multiple times.
type Parameterized struct {
	Command string
	Args    Args
	Repeat  RepeatSpec
}

func (*Parameterized) isAction() {}

// Keymap is an ordered mapping from single keys to actions. Expanded
// range patterns bind the same Action value to every key they denote,
// and id references resolve to the same *Keymap, so identity is shared
// across entries by construction.
type Keymap struct {
	// ID registers the keymap for back-reference when non-zero.
	ID int

	// Help is an advisory string shown while the keymap is active.
	Help string

	// Bindings maps individual keys to resolved actions.
	Bindings map[rune]Action
}

func (*Keymap) isAction() {}

// NewKeymap creates an empty keymap.
func NewKeymap() *Keymap {
	return &Keymap{Bindings: make(map[rune]Action)}
}

// Lookup returns the action bound to the given key.
func (k *Keymap) Lookup(r rune) (Action, bool) {
	a, ok := k.Bindings[r]
	return a, ok
}

// Len returns the number of bound keys.
func (k *Keymap) Len() int {
	return len(k.Bindings)
}
