// Package components provides render-only helpers composed by the TUI
// models.
package components

import (
	"strings"

	"nathanbeddoewebdev/vultrcli/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Header renders "vultrcli > breadcrumb" on the left and info on the right,
// underlined across the full width.
func Header(width int, breadcrumb string, info string) string {
	if width < 10 {
		return ""
	}

	left := styles.Title.Foreground(styles.Blue).Render("vultrcli")
	if breadcrumb != "" {
		left += styles.MutedText.Render(" > ") + styles.Title.Render(breadcrumb)
	}
	right := ""
	if info != "" {
		right = styles.Subtitle.Render(info)
	}

	gap := max(width-4-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderBottom(true).
		BorderForeground(styles.DimGray).
		Render(left + strings.Repeat(" ", gap) + right)
}
