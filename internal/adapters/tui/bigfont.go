package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// glyphMap maps the characters a countdown can contain to a 5-line block
// representation. Digits are 4 cells wide.
var glyphMap = map[rune][5]string{
	'0': {
		"████",
		"█  █",
		"█  █",
		"█  █",
		"████",
	},
	'1': {
		" █ ",
		"██ ",
		" █ ",
		" █ ",
		"███",
	},
	'2': {
		"████",
		"   █",
		"████",
		"█   ",
		"████",
	},
	'3': {
		"████",
		"   █",
		"████",
		"   █",
		"████",
	},
	'4': {
		"█  █",
		"█  █",
		"████",
		"   █",
		"   █",
	},
	'5': {
		"████",
		"█   ",
		"████",
		"   █",
		"████",
	},
	'6': {
		"████",
		"█   ",
		"████",
		"█  █",
		"████",
	},
	'7': {
		"████",
		"   █",
		"  █ ",
		" █  ",
		" █  ",
	},
	'8': {
		"████",
		"█  █",
		"████",
		"█  █",
		"████",
	},
	'9': {
		"████",
		"█  █",
		"████",
		"   █",
		"████",
	},
	'h': {
		"█   ",
		"█   ",
		"███ ",
		"█  █",
		"█  █",
	},
	'm': {
		"     ",
		"     ",
		"████ ",
		"█ █ █",
		"█ █ █",
	},
	's': {
		"    ",
		"    ",
		" ███",
		" ▀▄ ",
		"███ ",
	},
	'N': {
		"█  █",
		"██ █",
		"█ ██",
		"█  █",
		"█  █",
	},
	'o': {
		"    ",
		"    ",
		"████",
		"█  █",
		"████",
	},
	'w': {
		"     ",
		"     ",
		"█ █ █",
		"█ █ █",
		"█████",
	},
	' ': {
		" ",
		" ",
		" ",
		" ",
		" ",
	},
}

// renderBig renders a countdown such as "1h 5m" or "Now" in block
// letters. Narrow terminals and characters without a glyph fall back to a
// single bold line.
func renderBig(text string, color lipgloss.Color, width int) string {
	style := lipgloss.NewStyle().Bold(true).Foreground(color)
	if width < 40 {
		return style.Render(text)
	}

	lines := [5]string{}
	for _, ch := range text {
		glyph, ok := glyphMap[ch]
		if !ok {
			return style.Render(text)
		}
		for i := 0; i < 5; i++ {
			if lines[i] != "" {
				lines[i] += " "
			}
			lines[i] += glyph[i]
		}
	}

	styled := make([]string, 5)
	for i, line := range lines {
		styled[i] = style.Render(line)
	}

	return strings.Join(styled, "\n")
}
