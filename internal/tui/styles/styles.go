package styles

import (
	"nathanbeddoewebdev/vultrcli/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(White)

	Subtitle = lipgloss.NewStyle().
			Foreground(Gray)

	MutedText = lipgloss.NewStyle().
			Foreground(Muted)

	ErrorText = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	SuccessText = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	WarningText = lipgloss.NewStyle().
			Foreground(Yellow).
			Bold(true)
)

// StatusStyle colors an instance status.
func StatusStyle(status domain.InstanceStatus) lipgloss.Style {
	switch status {
	case domain.StatusActive:
		return lipgloss.NewStyle().Foreground(Green).Bold(true)
	case domain.StatusPending, domain.StatusRebooting:
		return lipgloss.NewStyle().Foreground(Yellow).Bold(true)
	case domain.StatusStopped:
		return lipgloss.NewStyle().Foreground(Red)
	default:
		return lipgloss.NewStyle().Foreground(Gray)
	}
}

// StatusIndicator returns a colored dot followed by the status.
func StatusIndicator(status domain.InstanceStatus) string {
	style := StatusStyle(status)
	return style.Render("●") + " " + style.Render(string(status))
}

// Footer key bindings.
var (
	KeyStyle = lipgloss.NewStyle().
			Foreground(Blue).
			Bold(true)

	KeyDescStyle = lipgloss.NewStyle().
			Foreground(Muted)

	KeySepStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// FormatKeyBinding formats a single key binding for the footer.
func FormatKeyBinding(key, desc string) string {
	return KeyStyle.Render(key) + " " + KeyDescStyle.Render(desc)
}

// Tables.
var (
	TableHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(Gray)

	TableCell = lipgloss.NewStyle().
			Foreground(White)

	TableSelectedRow = lipgloss.NewStyle().
				Foreground(White).
				Background(DarkBlue).
				Bold(true)
)

// Dialog frames the confirmation prompt.
var Dialog = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Yellow).
	Padding(1, 2)
