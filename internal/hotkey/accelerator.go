package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

// Modifier is a platform-neutral modifier key.
type Modifier string

const (
	// ModPrimary is Command on macOS and Control elsewhere.
	ModPrimary Modifier = "primary"
	ModCommand Modifier = "command"
	ModControl Modifier = "control"
	ModAlt     Modifier = "alt"
	ModShift   Modifier = "shift"
	ModSuper   Modifier = "super"
)

// Accelerator is a parsed shortcut such as "CommandOrControl+Shift+J".
type Accelerator struct {
	Modifiers []Modifier
	// Key is the canonical terminal key name: "A".."Z", "0".."9", "F1".."F20",
	// "Space", "Tab", "Return", "Escape", "Delete", "Up", "Down", "Left", "Right".
	Key string
}

var ErrEmptyAccelerator = errors.New("accelerator is empty")

var modifierAliases = map[string]Modifier{
	"commandorcontrol": ModPrimary,
	"cmdorctrl":        ModPrimary,
	"command":          ModCommand,
	"cmd":              ModCommand,
	"control":          ModControl,
	"ctrl":             ModControl,
	"alt":              ModAlt,
	"option":           ModAlt,
	"shift":            ModShift,
	"super":            ModSuper,
	"meta":             ModSuper,
}

var namedKeys = map[string]string{
	"space":  "Space",
	"tab":    "Tab",
	"enter":  "Return",
	"return": "Return",
	"escape": "Escape",
	"esc":    "Escape",
	"delete": "Delete",
	"up":     "Up",
	"down":   "Down",
	"left":   "Left",
	"right":  "Right",
}

// Parse validates an Electron-style accelerator string.
func Parse(accelerator string) (Accelerator, error) {
	if strings.TrimSpace(accelerator) == "" {
		return Accelerator{}, ErrEmptyAccelerator
	}

	var parsed Accelerator
	seen := make(map[Modifier]bool)
	for _, raw := range strings.Split(accelerator, "+") {
		token := strings.TrimSpace(raw)
		if token == "" {
			return Accelerator{}, fmt.Errorf("invalid accelerator %q: empty token", accelerator)
		}

		if mod, ok := modifierAliases[strings.ToLower(token)]; ok {
			if parsed.Key != "" {
				return Accelerator{}, fmt.Errorf("invalid accelerator %q: modifier after key", accelerator)
			}
			if !seen[mod] {
				seen[mod] = true
				parsed.Modifiers = append(parsed.Modifiers, mod)
			}
			continue
		}

		if parsed.Key != "" {
			return Accelerator{}, fmt.Errorf("invalid accelerator %q: more than one key", accelerator)
		}
		key, ok := canonicalKey(token)
		if !ok {
			return Accelerator{}, fmt.Errorf("invalid accelerator %q: unsupported key %q", accelerator, token)
		}
		parsed.Key = key
	}

	if parsed.Key == "" {
		return Accelerator{}, fmt.Errorf("invalid accelerator %q: missing key", accelerator)
	}
	return parsed, nil
}

// Validate reports whether accelerator can be bound.
func Validate(accelerator string) error {
	_, err := Parse(accelerator)
	return err
}

func canonicalKey(token string) (string, bool) {
	if named, ok := namedKeys[strings.ToLower(token)]; ok {
		return named, true
	}

	upper := strings.ToUpper(token)
	if len(upper) == 1 {
		c := upper[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return upper, true
		}
		return "", false
	}

	if upper[0] == 'F' {
		var n int
		if _, err := fmt.Sscanf(upper[1:], "%d", &n); err == nil && n >= 1 && n <= 20 && fmt.Sprintf("F%d", n) == upper {
			return upper, true
		}
	}
	return "", false
}

var tokenLabels = map[string]string{
	"commandorcontrol": "⌘",
	"cmdorctrl":        "⌘",
	"command":          "⌘",
	"cmd":              "⌘",
	"control":          "⌃",
	"ctrl":             "⌃",
	"alt":              "⌥",
	"option":           "⌥",
	"shift":            "⇧",
	"up":               "↑",
	"down":             "↓",
	"left":             "←",
	"right":            "→",
	"delete":           "⌦",
	"enter":            "↩",
	"return":           "↩",
	"escape":           "⎋",
	"esc":              "⎋",
	"tab":              "⇥",
}

// Labels splits an accelerator into display glyphs, one per token. Tokens
// without a glyph are returned trimmed.
func Labels(accelerator string) []string {
	if strings.TrimSpace(accelerator) == "" {
		return []string{}
	}
	parts := strings.Split(accelerator, "+")
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.TrimSpace(part)
		if label, ok := tokenLabels[strings.ToLower(token)]; ok {
			labels = append(labels, label)
			continue
		}
		labels = append(labels, token)
	}
	return labels
}
