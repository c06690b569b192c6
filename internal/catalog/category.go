package catalog

import (
	"errors"
	"strings"

	"github.com/sahilm/fuzzy"
)

// ErrUnknownCategory is returned when user input names no known category.
var ErrUnknownCategory = errors.New("unknown category")

// Category is one of the fixed classification buckets. The value is the
// display string, which is also what gets persisted as an override.
type Category string

const (
	DeveloperTools   Category = "Developer Tools"
	Productivity     Category = "Productivity"
	CreativityDesign Category = "Creativity & Design"
	Internet         Category = "Internet"
	Communication    Category = "Communication"
	Entertainment    Category = "Entertainment"
	Utilities        Category = "Utilities"
	System           Category = "System"
	Games            Category = "Games"
	Education        Category = "Education"
	Finance          Category = "Finance"
	HealthFitness    Category = "Health & Fitness"
	Other            Category = "Other"
)

var allCategories = []Category{
	DeveloperTools,
	Productivity,
	CreativityDesign,
	Internet,
	Communication,
	Entertainment,
	Utilities,
	System,
	Games,
	Education,
	Finance,
	HealthFitness,
	Other,
}

// AllCategories returns every category in display order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory matches a persisted or typed category name exactly,
// ignoring case and surrounding whitespace.
func ParseCategory(s string) (Category, bool) {
	trimmed := strings.TrimSpace(s)
	for _, c := range allCategories {
		if strings.EqualFold(string(c), trimmed) {
			return c, true
		}
	}
	return "", false
}

// categorySource implements fuzzy.Source over the category names
type categorySource []Category

func (s categorySource) String(i int) string {
	return string(s[i])
}

func (s categorySource) Len() int {
	return len(s)
}

// ResolveCategory turns loose user input ("dev", "games", "health") into a
// category. Exact names win, then names containing the input, then the best
// fuzzy subsequence match.
func ResolveCategory(input string) (Category, error) {
	if c, ok := ParseCategory(input); ok {
		return c, nil
	}

	lowered := strings.ToLower(strings.TrimSpace(input))
	if lowered == "" {
		return "", ErrUnknownCategory
	}

	for _, c := range allCategories {
		if strings.Contains(strings.ToLower(string(c)), lowered) {
			return c, nil
		}
	}

	matches := fuzzy.FindFrom(lowered, categorySource(allCategories))
	if len(matches) == 0 {
		return "", ErrUnknownCategory
	}
	return allCategories[matches[0].Index], nil
}

var categorySymbols = map[Category]string{
	DeveloperTools:   "hammer.fill",
	Productivity:     "doc.text.fill",
	CreativityDesign: "paintbrush.fill",
	Internet:         "globe",
	Communication:    "message.fill",
	Entertainment:    "play.circle.fill",
	Utilities:        "wrench.and.screwdriver.fill",
	System:           "gearshape.fill",
	Games:            "gamecontroller.fill",
	Education:        "graduationcap.fill",
	Finance:          "dollarsign.circle.fill",
	HealthFitness:    "heart.fill",
	Other:            "square.grid.2x2.fill",
}

// Symbol returns the icon symbol name used for a category.
func Symbol(c Category) string {
	if s, ok := categorySymbols[c]; ok {
		return s
	}
	return categorySymbols[Other]
}

// categoryColors are hex colors roughly matching the system palette names
// (blue, orange, purple, ...) assigned to each category.
var categoryColors = map[Category]string{
	DeveloperTools:   "#0a84ff",
	Productivity:     "#ff9f0a",
	CreativityDesign: "#bf5af2",
	Internet:         "#64d2ff",
	Communication:    "#30d158",
	Entertainment:    "#ff453a",
	Utilities:        "#98989d",
	System:           "#8e8e93",
	Games:            "#ff375f",
	Education:        "#ffd60a",
	Finance:          "#66d4cf",
	HealthFitness:    "#ff453a",
	Other:            "#8e8e93",
}

// Color returns the hex color for a category.
func Color(c Category) string {
	if col, ok := categoryColors[c]; ok {
		return col
	}
	return categoryColors[Other]
}
