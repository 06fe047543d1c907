package engine

import (
	"github.com/dshills/modalkit/internal/action"
	"github.com/dshills/modalkit/internal/expr"
)

// run interprets a resolved action. Errors at the command level are
// surfaced and execution continues with the remaining elements of an
// enclosing sequence; expression failures skip the offending branch or
// command. pending is the key sequence that triggered the action, kept
// for expression context.
func (e *Engine) run(act action.Action, pending []rune) {
	switch a := act.(type) {
	case action.Literal:
		e.runCommand(a.Command, nil)
	case action.Sequence:
		for _, sub := range a {
			e.run(sub, pending)
		}
	case *action.Conditional:
		e.runConditional(a, pending)
	case *action.Parameterized:
		e.runParameterized(a, pending)
	case *action.Keymap:
		// A keymap reached through a sequence re-arms the prefix for
		// the next keystroke.
		e.active = a
	}
}

// runConditional evaluates the condition and executes the branch keyed
// by the stringified result. A missing branch is a no-op.
func (e *Engine) runConditional(c *action.Conditional, pending []rune) {
	v, err := e.evalWith(c.Condition, pending)
	if err != nil {
		e.notifier.Error(err.Error())
		return
	}
	branch, ok := c.Branches[expr.Stringify(v)]
	if !ok {
		return
	}
	e.run(branch, pending)
}

// runParameterized resolves arguments once and invokes the command per
// the repeat rule: a numeric repeat runs the command that many times
// (minimum one); any other repeat result makes the expression a
// post-condition re-evaluated after each run, guaranteeing at least one
// execution.
func (e *Engine) runParameterized(p *action.Parameterized, pending []rune) {
	var args any
	if p.Args.Expr != "" {
		v, err := e.evalWith(p.Args.Expr, pending)
		if err != nil {
			e.notifier.Error(err.Error())
			return
		}
		args = v
	} else {
		args = p.Args.Literal
	}

	switch {
	case p.Repeat.IsZero():
		e.runCommand(p.Command, args)

	case p.Repeat.Expr == "":
		n := p.Repeat.Count
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			e.runCommand(p.Command, args)
		}

	default:
		v, err := e.evalWith(p.Repeat.Expr, pending)
		if err != nil {
			e.notifier.Error(err.Error())
			return
		}
		if n, ok := expr.AsNumber(v); ok {
			if n < 1 {
				n = 1
			}
			for i := 0; i < n; i++ {
				e.runCommand(p.Command, args)
			}
			return
		}
		for {
			e.runCommand(p.Command, args)
			v, err = e.evalWith(p.Repeat.Expr, pending)
			if err != nil {
				e.notifier.Error(err.Error())
				return
			}
			if !expr.Truthy(v) {
				return
			}
		}
	}
}

// evalWith evaluates an expression against the live editor state and
// the invocation's pending keys. Repeat post-conditions must observe
// the effects of the commands they guard, so the editor portion of the
// context is rebuilt for every evaluation.
func (e *Engine) evalWith(expression string, pending []rune) (any, error) {
	return e.eval.Eval(expression, e.snapshot(pending))
}

// runCommand invokes one host or builtin command, recording it as the
// last command and surfacing any failure without aborting the caller.
func (e *Engine) runCommand(name string, args any) {
	e.lastCommand = name
	if e.runBuiltin(name, args) {
		return
	}
	if err := e.editor.ExecuteCommand(e.ctx, name, args); err != nil {
		e.notifier.Error("command failed: " + err.Error())
		return
	}
	if e.captureCommands[name] {
		e.captureCmd = name
	}
}
