package components

import (
	"strings"

	"nathanbeddoewebdev/vultrcli/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// KeyBinding is one "key description" hint.
type KeyBinding struct {
	Key  string
	Desc string
}

// Footer renders key hints above a top rule.
func Footer(width int, bindings []KeyBinding) string {
	if width < 10 || len(bindings) == 0 {
		return ""
	}

	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = styles.FormatKeyBinding(b.Key, b.Desc)
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderTop(true).
		BorderForeground(styles.DimGray).
		Render(strings.Join(parts, styles.KeySepStyle.Render("  ")))
}
