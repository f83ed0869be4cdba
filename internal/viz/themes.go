package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the scene and its side panel.
type Theme struct {
	Name    string
	Scene   lipgloss.Color
	Held    lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:    "cyberpunk",
		Scene:   lipgloss.Color("#00ffff"),
		Held:    lipgloss.Color("#ff00ff"),
		Accent:  lipgloss.Color("#ffff00"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666666"),
		Success: lipgloss.Color("#00ff00"),
		Warning: lipgloss.Color("#ff8800"),
		Error:   lipgloss.Color("#ff0000"),
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Scene:   lipgloss.Color("#00ff00"),
		Held:    lipgloss.Color("#88ff88"),
		Accent:  lipgloss.Color("#00cc00"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Success: lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Error:   lipgloss.Color("#ff0000"),
	}

	ThemeOcean = Theme{
		Name:    "ocean",
		Scene:   lipgloss.Color("#00a8cc"),
		Held:    lipgloss.Color("#ffd700"),
		Accent:  lipgloss.Color("#0077be"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Success: lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffcc00"),
		Error:   lipgloss.Color("#ff4444"),
	}

	CurrentTheme = ThemeCyberpunk

	Themes = []Theme{
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeOcean,
	}
)

// GetTheme returns a theme by name, falling back to the default.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCyberpunk
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return
		}
	}
	CurrentTheme = Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
