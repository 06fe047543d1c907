// Package expr evaluates binding expressions in a sandboxed Lua state.
//
// Conditions, computed arguments, and repeat specifications are small
// Lua expressions evaluated against a read-only snapshot of editor
// state. The state is created with SkipOpenLibs and only the base,
// table, string, and math libraries opened; load, loadstring, dofile,
// and loadfile are removed so configuration can never pull in code from
// outside the expression itself.
//
// gopher-lua's LState is not goroutine-safe. The Evaluator serializes
// access with a mutex; the engine is single-threaded per keystroke, so
// contention never occurs in practice.
package expr
