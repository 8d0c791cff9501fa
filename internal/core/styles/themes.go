package styles

import (
	"maps"
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the semantic color set styles are built from.
type Palette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Background lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// DefaultTheme is used when widget.theme is empty.
const DefaultTheme = "tokyo-night"

// hex builds a palette from primary, secondary, foreground, muted,
// background, success, warning and error, in that order.
func hex(c ...string) Palette {
	return Palette{
		Primary:    lipgloss.Color(c[0]),
		Secondary:  lipgloss.Color(c[1]),
		Foreground: lipgloss.Color(c[2]),
		Muted:      lipgloss.Color(c[3]),
		Background: lipgloss.Color(c[4]),
		Success:    lipgloss.Color(c[5]),
		Warning:    lipgloss.Color(c[6]),
		Error:      lipgloss.Color(c[7]),
	}
}

var themes = map[string]Palette{
	"tokyo-night": hex("#7aa2f7", "#7dcfff", "#c0caf5", "#565f89", "#1a1b26", "#9ece6a", "#e0af68", "#f7768e"),
	"gruvbox":     hex("#83a598", "#8ec07c", "#ebdbb2", "#665c54", "#282828", "#b8bb26", "#fabd2f", "#fb4934"),
	"catppuccin":  hex("#89b4fa", "#94e2d5", "#cdd6f4", "#6c7086", "#1e1e2e", "#a6e3a1", "#f9e2af", "#f38ba8"),
	// for light terminal backgrounds
	"paper": hex("#2a6fdb", "#0f7b8a", "#1f2328", "#8c959f", "#ffffff", "#1a7f37", "#9a6700", "#cf222e"),
}

// ThemeNames lists the built-in themes, sorted.
func ThemeNames() []string {
	return slices.Sorted(maps.Keys(themes))
}

// GetPalette looks up a built-in theme.
func GetPalette(name string) (Palette, bool) {
	p, ok := themes[name]
	return p, ok
}
