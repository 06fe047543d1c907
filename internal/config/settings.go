package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/dshills/modalkit/internal/search"
)

// Settings is the full session configuration.
type Settings struct {
	Bindings BindingsSettings `toml:"bindings"`
	Search   SearchSettings   `toml:"search"`
	Engine   EngineSettings   `toml:"engine"`
}

// BindingsSettings locates the JSON bindings file.
type BindingsSettings struct {
	// Path to the bindings file. Relative paths are resolved against
	// the settings file's directory by the caller.
	Path string `toml:"path"`
}

// SearchSettings holds the defaults applied when a search starts
// without explicit arguments.
type SearchSettings struct {
	Backwards               bool   `toml:"backwards"`
	CaseSensitive           bool   `toml:"case_sensitive"`
	WrapAround              bool   `toml:"wrap_around"`
	AcceptAfter             int    `toml:"accept_after"`
	SelectTillMatch         bool   `toml:"select_till_match"`
	TypeAfterAccept         string `toml:"type_after_accept"`
	TypeBeforeNextMatch     string `toml:"type_before_next_match"`
	TypeAfterNextMatch      string `toml:"type_after_next_match"`
	TypeBeforePreviousMatch string `toml:"type_before_previous_match"`
	TypeAfterPreviousMatch  string `toml:"type_after_previous_match"`
}

// Options converts the settings into engine search options.
func (s SearchSettings) Options() search.Options {
	return search.Options{
		Backwards:               s.Backwards,
		CaseSensitive:           s.CaseSensitive,
		WrapAround:              s.WrapAround,
		AcceptAfter:             s.AcceptAfter,
		SelectTillMatch:         s.SelectTillMatch,
		TypeAfterAccept:         s.TypeAfterAccept,
		TypeBeforeNextMatch:     s.TypeBeforeNextMatch,
		TypeAfterNextMatch:      s.TypeAfterNextMatch,
		TypeBeforePreviousMatch: s.TypeBeforePreviousMatch,
		TypeAfterPreviousMatch:  s.TypeAfterPreviousMatch,
	}
}

// EngineSettings tunes the keystroke engine itself.
type EngineSettings struct {
	// CaptureCommands lists host commands that receive raw keystrokes
	// after they run.
	CaptureCommands []string `toml:"capture_commands"`

	// ExpressionTimeoutMS bounds a single expression evaluation.
	// Zero keeps the evaluator's default.
	ExpressionTimeoutMS int `toml:"expression_timeout_ms"`
}

// ExpressionTimeout returns the configured timeout as a duration.
func (s EngineSettings) ExpressionTimeout() time.Duration {
	return time.Duration(s.ExpressionTimeoutMS) * time.Millisecond
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() *Settings {
	return &Settings{
		Bindings: BindingsSettings{Path: "bindings.json"},
		Search: SearchSettings{
			WrapAround: true,
		},
	}
}

// Load reads and parses a TOML settings file. Missing files are not an
// error; the defaults are returned.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML settings over the defaults, so omitted sections
// keep their default values.
func Parse(data []byte) (*Settings, error) {
	settings := DefaultSettings()
	if err := toml.Unmarshal(data, settings); err != nil {
		return nil, &ParseError{Err: err}
	}
	return settings, nil
}

// ParseError wraps a TOML decode failure.
type ParseError struct {
	Err error
}

// Error returns the decode failure, with position details when the
// decoder provides them.
func (e *ParseError) Error() string {
	var derr *toml.DecodeError
	if errors.As(e.Err, &derr) {
		row, col := derr.Position()
		return fmt.Sprintf("settings: line %d, column %d: %s", row, col, derr.Error())
	}
	return "settings: " + e.Err.Error()
}

// Unwrap returns the underlying decode error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
