// Package themes defines the color schemes of the terminal screens.
package themes

import "github.com/charmbracelet/lipgloss"

// PaletteSize is the number of chart colors a theme provides.
const PaletteSize = 5

// Theme defines the visual style for the TUI.
type Theme struct {
	Palette       [PaletteSize]lipgloss.Color
	Primary       lipgloss.Color
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Selected      lipgloss.Style
	Cursor        lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusPending lipgloss.Style
	Warning       lipgloss.Color
}

// colors is the small set every theme is derived from.
type colors struct {
	palette [PaletteSize]lipgloss.Color
	accent  lipgloss.Color
	text    lipgloss.Color
	subtle  lipgloss.Color
	muted   lipgloss.Color
	success lipgloss.Color
	warning lipgloss.Color
	failure lipgloss.Color
	info    lipgloss.Color
}

func newTheme(c colors) Theme {
	status := func(color lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(color).Bold(true)
	}

	return Theme{
		Palette:  c.palette,
		Primary:  c.accent,
		Title:    lipgloss.NewStyle().Bold(true).Foreground(c.text).MarginBottom(1),
		Subtitle: lipgloss.NewStyle().Foreground(c.subtle).MarginBottom(1),
		Normal:   lipgloss.NewStyle().Foreground(c.text),
		Bold:     lipgloss.NewStyle().Bold(true).Foreground(c.text),
		Selected: lipgloss.NewStyle().Background(c.accent).Foreground(c.text).Bold(true),
		Cursor:   lipgloss.NewStyle().Foreground(c.accent).Bold(true),

		StatusSuccess: status(c.success),
		StatusWarning: status(c.warning),
		StatusError:   status(c.failure),
		StatusInfo:    status(c.info),
		StatusPending: lipgloss.NewStyle().Foreground(c.muted).Italic(true),

		Warning: c.warning,
	}
}

// Default is the default theme.
var Default = newTheme(colors{
	palette: [PaletteSize]lipgloss.Color{"#8884d8", "#82ca9d", "#ffc658", "#ff8042", "#0088fe"},
	accent:  "#7c3aed",
	text:    "#fafafa",
	subtle:  "#a3a3a3",
	muted:   "#737373",
	success: "#10b981",
	warning: "#f59e0b",
	failure: "#ef4444",
	info:    "#3b82f6",
})

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = newTheme(colors{
	palette: [PaletteSize]lipgloss.Color{"#b4befe", "#a6e3a1", "#f9e2af", "#fab387", "#89b4fa"},
	accent:  "#cba6f7",
	text:    "#cdd6f4",
	subtle:  "#a6adc8",
	muted:   "#6c7086",
	success: "#a6e3a1",
	warning: "#f9e2af",
	failure: "#f38ba8",
	info:    "#89dceb",
})

// ChartColor returns the chart color for a 1-based palette index. Indexes
// outside the palette wrap around.
func (t Theme) ChartColor(index int) lipgloss.Color {
	if index < 1 {
		index = 1
	}
	return t.Palette[(index-1)%PaletteSize]
}

// GetTheme returns a theme by name, falling back to Default.
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
