package command

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidChord is returned by ParseChord
var ErrInvalidChord = errors.New("invalid chord")

// Chord is a key plus modifiers
type Chord struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
	Key   string
}

var modifierNames = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"ctl":     "ctrl",
	"alt":     "alt",
	"option":  "alt",
	"opt":     "alt",
	"shift":   "shift",
	"meta":    "meta",
	"cmd":     "meta",
	"command": "meta",
	"super":   "meta",
	"win":     "meta",
}

var keyNames = map[string]string{
	"tab":       "Tab",
	"enter":     "Enter",
	"return":    "Enter",
	"esc":       "Esc",
	"escape":    "Esc",
	"space":     "Space",
	"backspace": "Backspace",
	"delete":    "Delete",
	"del":       "Delete",
	"insert":    "Insert",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
	"home":      "Home",
	"end":       "End",
	"pageup":    "PageUp",
	"pgup":      "PageUp",
	"pagedown":  "PageDown",
	"pgdn":      "PageDown",
	"plus":      "+",
	"minus":     "-",
}

// ParseChord parses "Ctrl+Shift+T". Modifier names and order are
// normalized, so "shift+ctrl+t" parses to the same chord.
func ParseChord(s string) (Chord, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Chord{}, fmt.Errorf("%w: empty", ErrInvalidChord)
	}

	var key string
	rest := s
	// "Ctrl++" binds the plus key
	if strings.HasSuffix(s, "++") {
		key, rest = "+", strings.TrimSuffix(s, "++")
	} else if s == "+" {
		key, rest = "+", ""
	} else {
		i := strings.LastIndexByte(s, '+')
		key, rest = s[i+1:], ""
		if i >= 0 {
			rest = s[:i]
		}
	}

	var c Chord
	if rest != "" {
		for _, part := range strings.Split(rest, "+") {
			mod, ok := modifierNames[strings.ToLower(strings.TrimSpace(part))]
			if !ok {
				return Chord{}, fmt.Errorf("%w: unknown modifier %q in %q", ErrInvalidChord, part, s)
			}
			switch mod {
			case "ctrl":
				c.Ctrl = true
			case "alt":
				c.Alt = true
			case "shift":
				c.Shift = true
			case "meta":
				c.Meta = true
			}
		}
	}

	normalized, err := normalizeKey(key)
	if err != nil {
		return Chord{}, fmt.Errorf("%w: %v in %q", ErrInvalidChord, err, s)
	}
	c.Key = normalized
	return c, nil
}

func normalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("missing key")
	}
	if name, ok := keyNames[strings.ToLower(key)]; ok {
		return name, nil
	}
	if utf8.RuneCountInString(key) == 1 {
		return strings.ToUpper(key), nil
	}

	lower := strings.ToLower(key)
	if lower[0] == 'f' {
		var n int
		if _, err := fmt.Sscanf(lower, "f%d", &n); err == nil && n >= 1 && n <= 24 && fmt.Sprintf("f%d", n) == lower {
			return fmt.Sprintf("F%d", n), nil
		}
	}
	return "", fmt.Errorf("unknown key %q", key)
}

// String renders the canonical form, modifiers in Ctrl, Alt, Shift, Meta order
func (c Chord) String() string {
	var b strings.Builder
	if c.Ctrl {
		b.WriteString("Ctrl+")
	}
	if c.Alt {
		b.WriteString("Alt+")
	}
	if c.Shift {
		b.WriteString("Shift+")
	}
	if c.Meta {
		b.WriteString("Meta+")
	}
	b.WriteString(c.Key)
	return b.String()
}
