package expr

import (
	"errors"
	"fmt"
)

// ErrEvaluatorClosed is returned when evaluating on a closed Evaluator.
var ErrEvaluatorClosed = errors.New("expression evaluator is closed")

// EvalError wraps a failure to compile or run an expression.
type EvalError struct {
	Expr string
	Err  error
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluating %q: %v", e.Expr, e.Err)
}

// Unwrap returns the underlying error.
func (e *EvalError) Unwrap() error {
	return e.Err
}
