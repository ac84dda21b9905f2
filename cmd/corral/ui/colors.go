package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	envNoColor = "NO_COLOR"
	envCI      = "CI"
	envTerm    = "TERM"
)

// ConfigureColors pins the lipgloss color profile for the process. Styling
// is disabled when the caller asks for plain output, when NO_COLOR or CI is
// set, on dumb terminals, and when stderr is not a terminal.
func ConfigureColors(plain bool) {
	if colorCapable(plain) {
		lipgloss.SetColorProfile(termenv.ColorProfile())
		return
	}
	lipgloss.SetColorProfile(termenv.Ascii)
}

func colorCapable(plain bool) bool {
	if plain {
		return false
	}
	// NO_COLOR disables styling whenever set, per convention.
	if strings.TrimSpace(os.Getenv(envNoColor)) != "" {
		return false
	}
	if envTruthy(envCI) {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(envTerm)), "dumb") {
		return false
	}
	return stderrIsTerminal()
}

func stderrIsTerminal() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func envTruthy(key string) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
