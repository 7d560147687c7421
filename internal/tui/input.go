package tui

import (
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 20000

// editKey applies a key message to inline text. Pasted text arrives as a
// single runes message and is appended whole, clamped to maxInputLen runes.
func editKey(text string, msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeyRunes:
		return appendClamped(text, string(msg.Runes))
	case tea.KeySpace:
		return appendClamped(text, " ")
	}
	return editRune(text, msg.String())
}

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	default:
		if utf8.RuneCountInString(key) == 1 {
			return appendClamped(text, key)
		}
		return text
	}
}

func appendClamped(text, s string) string {
	room := maxInputLen - utf8.RuneCountInString(text)
	if room <= 0 {
		return text
	}
	if r := []rune(s); len(r) > room {
		s = string(r[:room])
	}
	return text + s
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// renderInput renders a single-line input with a cursor when focused and a
// placeholder when empty.
func renderInput(value, placeholder string, focused bool) string {
	if value == "" && !focused {
		return inputPlaceholderStyle.Render(placeholder)
	}
	if focused {
		return normalStyle.Render(value) + accentStyle.Render("█")
	}
	return normalStyle.Render(value)
}
