package action

import (
	"fmt"
	"strings"
)

// Diagnostic is a single configuration validation failure.
type Diagnostic struct {
	// Path is the dot-separated location of the invalid value.
	Path string

	// Message describes what is wrong.
	Message string
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.Path == "" {
		return d.Message
	}
	return fmt.Sprintf("%s: %s", d.Path, d.Message)
}

// Diagnostics collects validation failures from a compile pass.
// The count is the sole pass/fail signal: zero diagnostics means the
// compiled keymap is safe to install.
type Diagnostics struct {
	Items []*Diagnostic
}

// Add records a diagnostic at the given path.
func (ds *Diagnostics) Add(path, format string, args ...any) {
	ds.Items = append(ds.Items, &Diagnostic{
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	})
}

// HasErrors returns true if any diagnostics were recorded.
func (ds *Diagnostics) HasErrors() bool {
	return len(ds.Items) > 0
}

// Len returns the number of diagnostics.
func (ds *Diagnostics) Len() int {
	return len(ds.Items)
}

// Error implements the error interface.
func (ds *Diagnostics) Error() string {
	switch len(ds.Items) {
	case 0:
		return "no validation errors"
	case 1:
		return ds.Items[0].Error()
	}
	var msgs []string
	for _, d := range ds.Items {
		msgs = append(msgs, d.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(ds.Items), strings.Join(msgs, "\n  - "))
}

// AsError returns nil if there are no diagnostics, otherwise ds.
func (ds *Diagnostics) AsError() error {
	if !ds.HasErrors() {
		return nil
	}
	return ds
}
