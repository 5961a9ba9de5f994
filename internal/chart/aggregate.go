package chart

import (
	"strings"

	"github.com/sadopc/timepie/internal/store"
)

// Palette is the fixed set of slice colours, assigned by first-seen order.
var Palette = []string{
	"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12",
	"#2ECC71", "#E74C3C", "#9B59B6", "#3498DB",
	"#1ABC9C", "#E67E22", "#F1C40F", "#7AA2F7",
}

// PaletteColor returns the palette entry for index i. Indexes past the end
// wrap around, so the 13th category shares the first category's colour.
func PaletteColor(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// AggregatedCategory is the total time spent on one lowercased category.
type AggregatedCategory struct {
	Name         string
	TotalSeconds int64
	Color        string
}

// Aggregate sums entry seconds per lowercased category, keeping the order in
// which categories first appear in entries.
func Aggregate(entries []store.TimeEntry) []AggregatedCategory {
	totals := make(map[string]int64, len(entries))
	var order []string

	for _, e := range entries {
		name := strings.ToLower(e.Category)
		if _, ok := totals[name]; !ok {
			order = append(order, name)
		}
		totals[name] += e.Seconds
	}

	cats := make([]AggregatedCategory, 0, len(order))
	for i, name := range order {
		cats = append(cats, AggregatedCategory{
			Name:         name,
			TotalSeconds: totals[name],
			Color:        PaletteColor(i),
		})
	}
	return cats
}

// Total returns the sum of TotalSeconds over cats.
func Total(cats []AggregatedCategory) int64 {
	var total int64
	for _, c := range cats {
		total += c.TotalSeconds
	}
	return total
}
