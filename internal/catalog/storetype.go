package catalog

import "strings"

// StoreTypePrefix is the namespace shared by every store category type.
const StoreTypePrefix = "public.app-category."

var storeTypes = map[string]Category{
	"public.app-category.developer-tools":    DeveloperTools,
	"public.app-category.productivity":       Productivity,
	"public.app-category.graphics-design":    CreativityDesign,
	"public.app-category.photography":        CreativityDesign,
	"public.app-category.video":              CreativityDesign,
	"public.app-category.music":              Entertainment,
	"public.app-category.entertainment":      Entertainment,
	"public.app-category.games":              Games,
	"public.app-category.action-games":       Games,
	"public.app-category.adventure-games":    Games,
	"public.app-category.arcade-games":       Games,
	"public.app-category.board-games":        Games,
	"public.app-category.card-games":         Games,
	"public.app-category.casino-games":       Games,
	"public.app-category.puzzle-games":       Games,
	"public.app-category.racing-games":       Games,
	"public.app-category.role-playing-games": Games,
	"public.app-category.simulation-games":   Games,
	"public.app-category.sports-games":       Games,
	"public.app-category.strategy-games":     Games,
	"public.app-category.trivia-games":       Games,
	"public.app-category.word-games":         Games,
	"public.app-category.education":          Education,
	"public.app-category.finance":            Finance,
	"public.app-category.business":           Productivity,
	"public.app-category.healthcare-fitness": HealthFitness,
	"public.app-category.medical":            HealthFitness,
	"public.app-category.lifestyle":          Other,
	"public.app-category.books":              Education,
	"public.app-category.reference":          Education,
	"public.app-category.navigation":         Utilities,
	"public.app-category.news":               Internet,
	"public.app-category.social-networking":  Communication,
	"public.app-category.travel":             Other,
	"public.app-category.utilities":          Utilities,
	"public.app-category.weather":            Utilities,
}

// CategoryFromStoreType maps a store category type string such as
// "public.app-category.developer-tools" to a category. Matching ignores case.
func CategoryFromStoreType(uti string) (Category, bool) {
	c, ok := storeTypes[strings.ToLower(strings.TrimSpace(uti))]
	return c, ok
}
