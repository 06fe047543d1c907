package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	settings, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if settings.Bindings.Path != "bindings.json" {
		t.Errorf("Bindings.Path = %q, want bindings.json", settings.Bindings.Path)
	}
	if !settings.Search.WrapAround {
		t.Error("Search.WrapAround = false, want true by default")
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
[bindings]
path = "keys.json"

[search]
case_sensitive = true
wrap_around = false
accept_after = 3
type_after_accept = "i"

[engine]
capture_commands = ["type", "replaceChar"]
expression_timeout_ms = 250
`)

	settings, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if settings.Bindings.Path != "keys.json" {
		t.Errorf("Bindings.Path = %q, want keys.json", settings.Bindings.Path)
	}
	if !settings.Search.CaseSensitive {
		t.Error("Search.CaseSensitive = false, want true")
	}
	if settings.Search.WrapAround {
		t.Error("Search.WrapAround = true, want false")
	}
	if settings.Search.AcceptAfter != 3 {
		t.Errorf("Search.AcceptAfter = %d, want 3", settings.Search.AcceptAfter)
	}

	opts := settings.Search.Options()
	if !opts.CaseSensitive || opts.WrapAround || opts.AcceptAfter != 3 || opts.TypeAfterAccept != "i" {
		t.Errorf("Options() = %+v, settings not carried over", opts)
	}

	if got := len(settings.Engine.CaptureCommands); got != 2 {
		t.Fatalf("Engine.CaptureCommands length = %d, want 2", got)
	}
	if want := 250 * time.Millisecond; settings.Engine.ExpressionTimeout() != want {
		t.Errorf("ExpressionTimeout() = %v, want %v", settings.Engine.ExpressionTimeout(), want)
	}
}

func TestParsePartialKeepsDefaults(t *testing.T) {
	settings, err := Parse([]byte("[search]\ncase_sensitive = true\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !settings.Search.WrapAround {
		t.Error("Search.WrapAround lost its default on partial parse")
	}
	if settings.Bindings.Path != "bindings.json" {
		t.Errorf("Bindings.Path = %q, want default", settings.Bindings.Path)
	}
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("[search\nbroken"))
	if err == nil {
		t.Fatal("Parse() accepted invalid TOML")
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Parse() error type = %T, want *ParseError", err)
	}
	if perr.Error() == "" {
		t.Error("ParseError.Error() is empty")
	}
}

func TestLoadMissingFile(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error for missing file: %v", err)
	}
	if settings.Bindings.Path != "bindings.json" {
		t.Error("Load() of missing file did not return defaults")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("[search]\nbackwards = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !settings.Search.Backwards {
		t.Error("Search.Backwards = false, want true")
	}
}
