package components

import (
	"nathanbeddoewebdev/vultrcli/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Severity selects the status bar color.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityError
)

// StatusBar renders a one-line message between content and footer.
func StatusBar(width int, message string, sev Severity) string {
	if message == "" {
		return ""
	}

	style := styles.MutedText
	switch sev {
	case SeveritySuccess:
		style = styles.SuccessText
	case SeverityError:
		style = styles.ErrorText
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		Render(style.Render(message))
}
