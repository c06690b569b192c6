package ui

import (
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/appdock/appdock/internal/catalog"
)

// Theme represents the current color scheme
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

var currentTheme Theme = ThemeDark

type palette struct {
	Bg, Surface, Border, Text, TextDim lipgloss.Color
	Accent, Green, Yellow, Red         lipgloss.Color
}

// Dark Theme - Tokyo Night
var darkColors = palette{
	Bg:      lipgloss.Color("#1a1b26"),
	Surface: lipgloss.Color("#24283b"),
	Border:  lipgloss.Color("#414868"),
	Text:    lipgloss.Color("#c0caf5"),
	TextDim: lipgloss.Color("#787fa0"),
	Accent:  lipgloss.Color("#7aa2f7"),
	Green:   lipgloss.Color("#9ece6a"),
	Yellow:  lipgloss.Color("#e0af68"),
	Red:     lipgloss.Color("#f7768e"),
}

// Light Theme - Tokyo Night Light variant
var lightColors = palette{
	Bg:      lipgloss.Color("#d5d6db"),
	Surface: lipgloss.Color("#e9e9ec"),
	Border:  lipgloss.Color("#9699a3"),
	Text:    lipgloss.Color("#343b58"),
	TextDim: lipgloss.Color("#6a6d7c"),
	Accent:  lipgloss.Color("#34548a"),
	Green:   lipgloss.Color("#485e30"),
	Yellow:  lipgloss.Color("#8f5e15"),
	Red:     lipgloss.Color("#8c4351"),
}

// Active color variables (set by InitTheme)
var (
	ColorBg      lipgloss.Color
	ColorSurface lipgloss.Color
	ColorBorder  lipgloss.Color
	ColorText    lipgloss.Color
	ColorTextDim lipgloss.Color
	ColorAccent  lipgloss.Color
	ColorGreen   lipgloss.Color
	ColorYellow  lipgloss.Color
	ColorRed     lipgloss.Color
)

// themeMu protects the color and style variables during live theme switches
var themeMu sync.RWMutex

// InitTheme sets the active palette. Anything but "light" selects dark.
func InitTheme(theme string) {
	themeMu.Lock()
	defer themeMu.Unlock()

	p := darkColors
	currentTheme = ThemeDark
	if theme == string(ThemeLight) {
		p = lightColors
		currentTheme = ThemeLight
	}
	ColorBg = p.Bg
	ColorSurface = p.Surface
	ColorBorder = p.Border
	ColorText = p.Text
	ColorTextDim = p.TextDim
	ColorAccent = p.Accent
	ColorGreen = p.Green
	ColorYellow = p.Yellow
	ColorRed = p.Red
	initStyles()
}

// GetCurrentTheme returns the active theme
func GetCurrentTheme() Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

func init() {
	InitTheme("dark")
}

var (
	TitleStyle       lipgloss.Style
	SearchBoxStyle   lipgloss.Style
	RowStyle         lipgloss.Style
	SelectedRowStyle lipgloss.Style
	HighlightStyle   lipgloss.Style
	DimStyle         lipgloss.Style
	NewBadgeStyle    lipgloss.Style
	UpdatedBadge     lipgloss.Style
	ErrorStyle       lipgloss.Style
	TabStyle         lipgloss.Style
	ActiveTabStyle   lipgloss.Style
)

func initStyles() {
	TitleStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	SearchBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent).
		Padding(0, 1)
	RowStyle = lipgloss.NewStyle().Foreground(ColorText)
	SelectedRowStyle = lipgloss.NewStyle().Foreground(ColorText).Background(ColorSurface).Bold(true)
	HighlightStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Underline(true)
	DimStyle = lipgloss.NewStyle().Foreground(ColorTextDim)
	NewBadgeStyle = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	UpdatedBadge = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed)
	TabStyle = lipgloss.NewStyle().Foreground(ColorTextDim).Padding(0, 1)
	ActiveTabStyle = lipgloss.NewStyle().Foreground(ColorBg).Background(ColorAccent).Padding(0, 1)
}

// CategoryStyle colors text with the category's color.
func CategoryStyle(c catalog.Category) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(catalog.Color(c)))
}

// CategoryDot is a colored bullet for c.
func CategoryDot(c catalog.Category) string {
	return CategoryStyle(c).Render("●")
}
