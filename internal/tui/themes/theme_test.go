package themes

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestChartColor_Wraps(t *testing.T) {
	assert.Equal(t, lipgloss.Color("#8884d8"), Default.ChartColor(1))
	assert.Equal(t, lipgloss.Color("#0088fe"), Default.ChartColor(5))
	assert.Equal(t, Default.ChartColor(1), Default.ChartColor(6))
	assert.Equal(t, Default.ChartColor(1), Default.ChartColor(0))
}

func TestGetTheme(t *testing.T) {
	assert.Equal(t, CatppuccinMocha.Palette, GetTheme("catppuccin-mocha").Palette)
	assert.Equal(t, Default.Palette, GetTheme("unknown").Palette)
	assert.Equal(t, lipgloss.Color("#f59e0b"), Default.Warning)
}

func TestTheme_PrimaryIsAccent(t *testing.T) {
	assert.Equal(t, lipgloss.Color("#7c3aed"), Default.Primary)
	assert.Equal(t, lipgloss.Color("#cba6f7"), CatppuccinMocha.Primary)
}
