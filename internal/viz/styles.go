package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(42)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

func headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Scene)
}

func sceneStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Scene)
}

func heldStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Held)
}

func mutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Muted)
}

func statusStyle(running bool) lipgloss.Style {
	if running {
		return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Success)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Warning)
}

func errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Error)
}

// ProgressBar renders a bar filled to percent, clamped to [0, 1].
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Render(bar)
}

// Sparkline renders the last width values scaled between their min and max.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	rng := max - min
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - min) / rng * float64(len(chars)-1))
		b.WriteRune(chars[idx])
	}
	return b.String()
}
