// Package classify assigns every discovered app exactly one category.
//
// Classification is a pure function of the record and the embedded tables.
// User overrides are applied later by the state tracker.
package classify

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/appdock/appdock/internal/catalog"
	"github.com/appdock/appdock/internal/logging"
)

var classifyLog = logging.ForComponent(logging.CompClassify)

// Layer identifies which rule produced a category.
type Layer int

const (
	LayerStore Layer = iota + 1
	LayerExactID
	LayerIDPrefix
	LayerVendor
	LayerKeyword
	LayerDefault
)

func (l Layer) String() string {
	switch l {
	case LayerStore:
		return "store"
	case LayerExactID:
		return "exact-id"
	case LayerIDPrefix:
		return "id-prefix"
	case LayerVendor:
		return "vendor"
	case LayerKeyword:
		return "keyword"
	case LayerDefault:
		return "default"
	default:
		return "unknown"
	}
}

// Classify returns the category for r. It never fails; unmatched records
// fall through to catalog.Other.
func Classify(r catalog.AppRecord) catalog.Category {
	c, _ := Explain(r)
	return c
}

// Explain is Classify plus the layer that decided it.
func Explain(r catalog.AppRecord) (catalog.Category, Layer) {
	if r.StoreCategory != "" {
		if c, ok := catalog.CategoryFromStoreType(r.StoreCategory); ok {
			return c, LayerStore
		}
	}

	if c, ok := exactIDs[r.ID]; ok {
		return c, LayerExactID
	}

	lowered := strings.ToLower(r.ID)
	for _, rule := range idPrefixes {
		if strings.HasPrefix(lowered, rule.prefix) {
			return rule.category, LayerIDPrefix
		}
	}

	if strings.HasPrefix(r.ID, vendorPrefix) {
		return catalog.System, LayerVendor
	}

	if c, ok := byKeyword(r.Name); ok {
		return c, LayerKeyword
	}

	return catalog.Other, LayerDefault
}

// All returns a copy of records with Category set on each.
func All(records []catalog.AppRecord) []catalog.AppRecord {
	out := make([]catalog.AppRecord, len(records))
	counts := make(map[Layer]int)
	for i, r := range records {
		c, layer := Explain(r)
		r.Category = c
		out[i] = r
		counts[layer]++
	}
	classifyLog.Debug("classified",
		slog.Int("apps", len(records)),
		slog.Int("store", counts[LayerStore]),
		slog.Int("exact_id", counts[LayerExactID]),
		slog.Int("id_prefix", counts[LayerIDPrefix]),
		slog.Int("vendor", counts[LayerVendor]),
		slog.Int("keyword", counts[LayerKeyword]),
		slog.Int("default", counts[LayerDefault]),
	)
	return out
}

func byKeyword(name string) (catalog.Category, bool) {
	words := make(map[string]struct{})
	for _, w := range Tokenize(name) {
		words[w] = struct{}{}
	}
	for _, rule := range nameKeywords {
		if _, ok := words[rule.keyword]; ok {
			return rule.category, true
		}
	}
	return "", false
}

// Tokenize lowercases name and splits it on every run of non-alphanumeric
// characters.
func Tokenize(name string) []string {
	return strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
