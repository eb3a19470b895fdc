// Package styles holds the palette and lipgloss styles shared by the
// vultrcli terminal UI.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	White   = lipgloss.Color("#E4E6EB")
	Gray    = lipgloss.Color("#8A8F98")
	Muted   = lipgloss.Color("#5C616B")
	DimGray = lipgloss.Color("#3E424A")

	// Accent, close to the Vultr brand blue.
	Blue     = lipgloss.Color("#3B8EFF")
	DarkBlue = lipgloss.Color("#142A4D")

	Green  = lipgloss.Color("#5FD787")
	Yellow = lipgloss.Color("#FFD787")
	Red    = lipgloss.Color("#FF8787")
)
