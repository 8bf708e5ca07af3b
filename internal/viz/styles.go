package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Primary)
}

func labelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Muted).Width(12)
}

func valueStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Text)
}

func mutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Muted)
}

func errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Error)
}

func warnStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Warning)
}

func panelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(CurrentTheme.Muted).
		Padding(0, 1)
}

func chartStyle(color lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(color)
}

// Badge renders a solid status label.
func Badge(text string, color lipgloss.Color) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#000000")).
		Background(color).
		Padding(0, 1).
		Render(strings.ToUpper(text))
}

// Tabs renders one tab per label with the selected one highlighted.
func Tabs(labels []string, selected int) string {
	active := lipgloss.NewStyle().
		Bold(true).
		Foreground(CurrentTheme.Primary).
		Border(lipgloss.RoundedBorder(), true, true, false, true).
		BorderForeground(CurrentTheme.Primary).
		Padding(0, 1)
	inactive := active.
		Bold(false).
		Foreground(CurrentTheme.Muted).
		BorderForeground(CurrentTheme.Muted)

	parts := make([]string, len(labels))
	for i, l := range labels {
		if i == selected {
			parts[i] = active.Render(l)
		} else {
			parts[i] = inactive.Render(l)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, parts...)
}

// KeyHints renders "key:action" pairs on one line.
func KeyHints(pairs ...string) string {
	var b strings.Builder
	key := lipgloss.NewStyle().Foreground(CurrentTheme.Secondary)
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(key.Render(pairs[i]))
		b.WriteString(mutedStyle().Render(":" + pairs[i+1]))
	}
	return b.String()
}

// Separator draws a decorative rule.
func Separator(width int) string {
	if width < 8 {
		width = 8
	}
	mid := width / 2
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", width-mid-3)
	return mutedStyle().Render(left + " ◆ " + right)
}
