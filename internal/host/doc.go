// Package host defines the editor surface the engine drives.
//
// The engine never touches a text buffer or a screen directly. Everything
// it needs from the surrounding editor is expressed by the Editor
// interface: command invocation, the ordered multi-cursor selection list,
// and read access to the document text. Warnings and errors that must
// reach the user travel through a Notifier.
//
// MemoryEditor is a complete in-memory implementation used by the demo
// binary and throughout the test suites.
package host
