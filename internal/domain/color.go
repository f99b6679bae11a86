package domain

import "strings"

// Color identifies a side. The zero value means "unset".
type Color string

const (
	NoColor Color = ""
	White   Color = "white"
	Black   Color = "black"
)

// ParseColor accepts white|w|black|b in any case.
func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, true
	case "black", "b":
		return Black, true
	default:
		return NoColor, false
	}
}

func (c Color) Valid() bool { return c == White || c == Black }

func (c Color) Opponent() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoColor
	}
}

// Title returns the capitalised name used in announcements.
func (c Color) Title() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return ""
	}
}

func (c Color) String() string { return string(c) }
