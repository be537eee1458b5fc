package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	colorPrimary   = lipgloss.Color("39")  // Blue
	colorSuccess   = lipgloss.Color("82")  // Green
	colorWarning   = lipgloss.Color("214") // Orange
	colorError     = lipgloss.Color("196") // Red
	colorMuted     = lipgloss.Color("241") // Gray
	colorHighlight = lipgloss.Color("213") // Pink

	// Text styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)

	// Operation or repository name column
	NameStyle = lipgloss.NewStyle().
			Bold(true).
			Width(30)

	// Symbols
	SymbolSuccess = SuccessStyle.Render("✓")
	SymbolError   = ErrorStyle.Render("✗")
	SymbolPending = MutedStyle.Render("○")
	SymbolRunning = SpinnerStyle.Render("●")

	// Conflict banner
	BannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorWarning).
			Foreground(colorWarning).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginBottom(1)

	// Summary styles
	SummarySuccessStyle = lipgloss.NewStyle().
				Foreground(colorSuccess).
				Bold(true)

	SummaryErrorStyle = lipgloss.NewStyle().
				Foreground(colorError).
				Bold(true)
)

// StatusSymbol returns the appropriate symbol for a status.
func StatusSymbol(success bool, running bool, pending bool) string {
	if running {
		return SymbolRunning
	}
	if pending {
		return SymbolPending
	}
	if success {
		return SymbolSuccess
	}
	return SymbolError
}

// TitleColor returns the style for a git progress title.
func TitleColor(title string) lipgloss.Style {
	t := strings.ToLower(title)
	switch {
	case strings.HasPrefix(t, "receiving"), strings.HasPrefix(t, "downloading"):
		return HighlightStyle
	case strings.HasPrefix(t, "writing"), strings.HasPrefix(t, "uploading"):
		return WarningStyle
	case strings.HasPrefix(t, "checking out"), strings.HasPrefix(t, "updating files"):
		return SuccessStyle
	default:
		return MutedStyle
	}
}
