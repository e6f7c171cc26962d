package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// Theme is the colour scheme of the live view.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Muted   lipgloss.Color
	Liquid  lipgloss.Color
	Ice     lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Series  asciigraph.AnsiColor
}

var (
	ThemeGlacier = Theme{
		Name:    "glacier",
		Primary: lipgloss.Color("#7fdbff"),
		Accent:  lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#5a6e80"),
		Liquid:  lipgloss.Color("#0074d9"),
		Ice:     lipgloss.Color("#e0f7ff"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff4136"),
		Series:  asciigraph.LightCyan,
	}

	ThemeCumulus = Theme{
		Name:    "cumulus",
		Primary: lipgloss.Color("#dddddd"),
		Accent:  lipgloss.Color("#ffd700"),
		Muted:   lipgloss.Color("#777777"),
		Liquid:  lipgloss.Color("#4a90d9"),
		Ice:     lipgloss.Color("#ffffff"),
		Warning: lipgloss.Color("#ffc048"),
		Error:   lipgloss.Color("#ff4757"),
		Series:  asciigraph.Gold,
	}

	ThemeMono = Theme{
		Name:    "mono",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#cccccc"),
		Muted:   lipgloss.Color("#888888"),
		Liquid:  lipgloss.Color("#bbbbbb"),
		Ice:     lipgloss.Color("#ffffff"),
		Warning: lipgloss.Color("#ffffff"),
		Error:   lipgloss.Color("#ffffff"),
		Series:  asciigraph.Default,
	}

	Themes = []Theme{ThemeGlacier, ThemeCumulus, ThemeMono}
)

// GetTheme returns the named theme, falling back to glacier.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeGlacier
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func themeIndex(name string) int {
	for i, t := range Themes {
		if t.Name == name {
			return i
		}
	}
	return 0
}
