package action

import (
	"fmt"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// Reserved keymap property names that are not key patterns.
const (
	propID      = "id"
	propHelp    = "help"
	propCommand = "command"
	propCond    = "condition"
	propArgs    = "args"
	propRepeat  = "repeat"
)

// Compile validates a raw JSON binding tree and produces the resolved
// root keymap. The returned keymap is complete only when the returned
// diagnostics are empty; callers must not install a keymap compiled with
// errors.
func Compile(raw []byte) (*Keymap, *Diagnostics) {
	diags := &Diagnostics{}

	if !gjson.ValidBytes(raw) {
		diags.Add("", "configuration is not valid JSON")
		return NewKeymap(), diags
	}

	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		diags.Add("", "top-level configuration must be a keymap object")
		return NewKeymap(), diags
	}

	c := &compiler{
		ids:   make(map[int]*Keymap),
		diags: diags,
	}
	return c.keymap(root, ""), diags
}

// compiler walks the raw tree depth-first, registering keymap ids as it
// enters them so backward (including self) references resolve while
// forward references fail.
type compiler struct {
	ids   map[int]*Keymap
	diags *Diagnostics
}

// keymap builds a keymap node, expanding key-range patterns.
func (c *compiler) keymap(res gjson.Result, path string) *Keymap {
	km := NewKeymap()

	// Register the id before walking children so the keymap can
	// reference itself.
	if id := res.Get(propID); id.Exists() {
		if id.Type == gjson.Number && isIntegral(id.Num) {
			km.ID = int(id.Int())
			c.ids[km.ID] = km
		} else {
			c.diags.Add(join(path, propID), "keymap id must be an integer, got %s", id.Raw)
		}
	}
	if help := res.Get(propHelp); help.Exists() {
		if help.Type == gjson.String {
			km.Help = help.Str
		} else {
			c.diags.Add(join(path, propHelp), "help must be a string, got %s", help.Raw)
		}
	}

	res.ForEach(func(key, value gjson.Result) bool {
		pattern := key.String()
		if pattern == propID || pattern == propHelp {
			return true
		}

		entry := join(path, pattern)
		keys, err := ExpandPattern(pattern)
		if err != nil {
			c.diags.Add(entry, "%v", err)
			return true
		}

		act, ok := c.classify(value, entry)
		if !ok {
			return true
		}
		// All keys from one pattern share the same action value.
		for _, r := range keys {
			km.Bindings[r] = act
		}
		return true
	})

	return km
}

// classify resolves one raw node into an action by structural shape.
func (c *compiler) classify(res gjson.Result, path string) (Action, bool) {
	switch {
	case res.Type == gjson.String:
		if res.Str == "" {
			c.diags.Add(path, "command name must not be empty")
			return nil, false
		}
		return Literal{Command: res.Str}, true

	case res.IsArray():
		return c.sequence(res, path)

	case res.IsObject():
		if res.Get(propCond).Exists() {
			return c.conditional(res, path)
		}
		if res.Get(propCommand).Exists() {
			return c.parameterized(res, path)
		}
		return c.keymap(res, path), true

	case res.Type == gjson.Number:
		if !isIntegral(res.Num) {
			c.diags.Add(path, "keymap reference must be an integer, got %s", res.Raw)
			return nil, false
		}
		id := int(res.Int())
		km, ok := c.ids[id]
		if !ok {
			c.diags.Add(path, "undefined keymap id %d (ids must be defined earlier in the document)", id)
			return nil, false
		}
		return km, true

	default:
		c.diags.Add(path, "cannot interpret %s as an action", res.Raw)
		return nil, false
	}
}

// sequence builds a Sequence, skipping elements that fail to classify.
func (c *compiler) sequence(res gjson.Result, path string) (Action, bool) {
	var seq Sequence
	i := 0
	res.ForEach(func(_, value gjson.Result) bool {
		if act, ok := c.classify(value, fmt.Sprintf("%s[%d]", path, i)); ok {
			seq = append(seq, act)
		}
		i++
		return true
	})
	if len(seq) == 0 {
		c.diags.Add(path, "sequence has no valid elements")
		return nil, false
	}
	return seq, true
}

// conditional builds a Conditional from an object carrying a condition.
func (c *compiler) conditional(res gjson.Result, path string) (Action, bool) {
	cond := res.Get(propCond)
	if cond.Type != gjson.String || cond.Str == "" {
		c.diags.Add(join(path, propCond), "condition must be a non-empty expression string")
		return nil, false
	}

	branches := make(map[string]Action)
	res.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if name == propCond {
			return true
		}
		if act, ok := c.classify(value, join(path, name)); ok {
			branches[name] = act
		}
		return true
	})

	return &Conditional{Condition: cond.Str, Branches: branches}, true
}

// parameterized builds a Parameterized from an object carrying a command.
func (c *compiler) parameterized(res gjson.Result, path string) (Action, bool) {
	cmd := res.Get(propCommand)
	if cmd.Type != gjson.String || cmd.Str == "" {
		c.diags.Add(join(path, propCommand), "command must be a non-empty string")
		return nil, false
	}

	p := &Parameterized{Command: cmd.Str}

	if args := res.Get(propArgs); args.Exists() {
		if args.Type == gjson.String {
			p.Args = Args{Expr: args.Str}
		} else {
			p.Args = Args{Literal: args.Value()}
		}
	}

	if rep := res.Get(propRepeat); rep.Exists() {
		switch {
		case rep.Type == gjson.Number && isIntegral(rep.Num):
			p.Repeat = RepeatSpec{Count: int(rep.Int())}
		case rep.Type == gjson.String && rep.Str != "":
			p.Repeat = RepeatSpec{Expr: rep.Str}
		default:
			c.diags.Add(join(path, propRepeat), "repeat must be an integer or an expression string, got %s", rep.Raw)
			return nil, false
		}
	}

	return p, true
}

// ExpandPattern expands a key pattern into the individual keys it
// denotes. A pattern is a single character, a range "a-z", or a
// comma-separated list of either. The range bounds must satisfy
// first <= last.
func ExpandPattern(pattern string) ([]rune, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty key pattern")
	}
	// A single character binds itself, so "," and "-" remain bindable.
	if utf8.RuneCountInString(pattern) == 1 {
		r, _ := utf8.DecodeRuneInString(pattern)
		return []rune{r}, nil
	}

	var keys []rune
	for _, part := range splitPattern(pattern) {
		runes := []rune(part)
		switch {
		case len(runes) == 1:
			keys = append(keys, runes[0])
		case len(runes) == 3 && runes[1] == '-':
			first, last := runes[0], runes[2]
			if first > last {
				return nil, fmt.Errorf("invalid key range %q: %q > %q", part, first, last)
			}
			for r := first; r <= last; r++ {
				keys = append(keys, r)
			}
		default:
			return nil, fmt.Errorf("key %q must be a single character or a range", part)
		}
	}
	return keys, nil
}

// splitPattern splits on commas; an empty trailing part covers patterns
// like "a," being rejected with a clear message by the caller.
func splitPattern(pattern string) []string {
	var parts []string
	start := 0
	for i, r := range pattern {
		if r == ',' {
			parts = append(parts, pattern[start:i])
			start = i + 1
		}
	}
	parts = append(parts, pattern[start:])
	return parts
}

// isIntegral reports whether a JSON number has no fractional part.
func isIntegral(f float64) bool {
	return f == float64(int64(f))
}

// join builds a dot-separated diagnostic path.
func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
