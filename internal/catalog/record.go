package catalog

import (
	"sort"
	"strings"
)

// AppRecord is one discovered application. ID (the bundle identifier) is the
// only identity key; everything else is derived from the bundle on each scan.
type AppRecord struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Path          string   `json:"path"`
	StoreCategory string   `json:"store_category,omitempty"`
	Version       string   `json:"version,omitempty"`
	Category      Category `json:"category"`
	IsSystemApp   bool     `json:"is_system_app"`

	// Session-only markers computed by the state tracker. Persisted state
	// lives in the preference store, not here.
	IsNew     bool `json:"is_new,omitempty"`
	IsUpdated bool `json:"is_updated,omitempty"`
}

// VendorPrefix returns the first two identifier components
// ("com.microsoft" for "com.microsoft.VSCode").
func (r AppRecord) VendorPrefix() string {
	parts := strings.Split(r.ID, ".")
	if len(parts) >= 2 {
		return parts[0] + "." + parts[1]
	}
	return r.ID
}

// SortByName orders records by case-insensitive name, breaking ties by
// identifier so output is stable across scans.
func SortByName(records []AppRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a := strings.ToLower(records[i].Name)
		b := strings.ToLower(records[j].Name)
		if a == b {
			return records[i].ID < records[j].ID
		}
		return a < b
	})
}

// GroupByCategory buckets records by category. Each bucket is name-sorted.
func GroupByCategory(records []AppRecord) map[Category][]AppRecord {
	groups := make(map[Category][]AppRecord)
	for _, r := range records {
		groups[r.Category] = append(groups[r.Category], r)
	}
	for c := range groups {
		SortByName(groups[c])
	}
	return groups
}

// NonEmptyCategories returns the categories present in groups, in display order.
func NonEmptyCategories(groups map[Category][]AppRecord) []Category {
	var out []Category
	for _, c := range allCategories {
		if len(groups[c]) > 0 {
			out = append(out, c)
		}
	}
	return out
}
