package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/appdock/appdock/internal/catalog"
)

func TestColorsDefined(t *testing.T) {
	for _, theme := range []string{"dark", "light"} {
		InitTheme(theme)
		for _, c := range []lipgloss.Color{ColorBg, ColorSurface, ColorBorder, ColorText, ColorAccent, ColorGreen, ColorYellow} {
			assert.NotEmpty(t, string(c), theme)
		}
	}
	InitTheme("dark")
}

func TestInitTheme(t *testing.T) {
	InitTheme("light")
	assert.Equal(t, ThemeLight, GetCurrentTheme())
	assert.Equal(t, lightColors.Accent, ColorAccent)

	InitTheme("bogus")
	assert.Equal(t, ThemeDark, GetCurrentTheme())
	assert.Equal(t, darkColors.Accent, ColorAccent)
}

func TestCategoryStyle(t *testing.T) {
	for _, c := range catalog.AllCategories() {
		got := CategoryStyle(c).GetForeground()
		assert.Equal(t, lipgloss.Color(catalog.Color(c)), got, string(c))
		assert.Contains(t, CategoryDot(c), "●")
	}
}

func TestResolveInitialTheme(t *testing.T) {
	assert.Equal(t, "light", resolveInitialTheme("light"))
	assert.Equal(t, "dark", resolveInitialTheme("dark"))
	assert.Equal(t, "dark", resolveInitialTheme(""))
	assert.Contains(t, []string{"dark", "light"}, resolveInitialTheme("system"))
}
