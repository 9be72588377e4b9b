// Package color holds the terminal styles used by the console reporter.
package color

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Semantic colors with light/dark variants
var (
	ColorPrimary = lipgloss.AdaptiveColor{
		Light: "#5A56E0",
		Dark:  "#7571F9",
	}
	ColorSuccess = lipgloss.AdaptiveColor{
		Light: "#059669",
		Dark:  "#10B981",
	}
	ColorError = lipgloss.AdaptiveColor{
		Light: "#DC2626",
		Dark:  "#EF4444",
	}
	ColorWarning = lipgloss.AdaptiveColor{
		Light: "#D97706",
		Dark:  "#F59E0B",
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#6B7280",
		Dark:  "#9CA3AF",
	}
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	PassStyle    = lipgloss.NewStyle().Foreground(ColorSuccess)
	FailStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorError)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
)

// Initialize sets whether styles render for a dark terminal background.
func Initialize(isDarkMode bool) {
	lipgloss.SetHasDarkBackground(isDarkMode)
}

// Disable turns off ANSI styling for lipgloss and go-pretty output.
func Disable() {
	lipgloss.SetColorProfile(termenv.Ascii)
	text.DisableColors()
}

// Setup configures styling for output written to f. Colors are disabled when
// disabled is set or f does not support them.
func Setup(f *os.File, disabled bool) {
	if disabled || !Supported(f) {
		Disable()
		return
	}
	Initialize(termenv.NewOutput(f).HasDarkBackground())
}

// Supported reports whether f should receive colored output: it must be a
// terminal and NO_COLOR must be unset.
func Supported(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Pass renders s in the success color.
func Pass(s string) string { return PassStyle.Render(s) }

// Fail renders s in the failure color.
func Fail(s string) string { return FailStyle.Render(s) }

// Warn renders s in the warning color.
func Warn(s string) string { return WarningStyle.Render(s) }

// Muted renders s de-emphasized.
func Muted(s string) string { return MutedStyle.Render(s) }

// Title renders a section heading.
func Title(s string) string { return TitleStyle.Render(s) }
