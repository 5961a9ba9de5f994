package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/timepie/internal/chart"
	"github.com/sadopc/timepie/internal/store"
)

// ToCSV writes entries to a CSV file at path.
func ToCSV(entries []store.TimeEntry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	return WriteCSV(f, entries)
}

// WriteCSV writes one header row and one row per entry.
func WriteCSV(out io.Writer, entries []store.TimeEntry) error {
	w := csv.NewWriter(out)

	if err := w.Write([]string{"ID", "Category", "Created", "Duration (s)", "Duration", "Color"}); err != nil {
		return err
	}

	for _, e := range entries {
		row := []string{
			fmt.Sprintf("%d", e.ID),
			e.Category,
			e.CreatedAt.Local().Format(time.RFC3339),
			fmt.Sprintf("%d", e.Seconds),
			chart.FormatTime(e.Seconds),
			e.Color,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WriteSummaryCSV writes one row per aggregated category, in aggregation
// order, with the share of the total as a one-decimal percentage.
func WriteSummaryCSV(out io.Writer, cats []chart.AggregatedCategory) error {
	w := csv.NewWriter(out)

	if err := w.Write([]string{"Category", "Duration (s)", "Duration", "Percent", "Color"}); err != nil {
		return err
	}

	pct := percentages(cats)
	for i, c := range cats {
		row := []string{
			c.Name,
			fmt.Sprintf("%d", c.TotalSeconds),
			chart.FormatTime(c.TotalSeconds),
			pct[i],
			c.Color,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// percentages returns the layout's percentage per category, or "0.0" for
// every category when there is nothing to lay out.
func percentages(cats []chart.AggregatedCategory) []string {
	out := make([]string, len(cats))
	slices := chart.Layout(cats)
	for i := range cats {
		if slices == nil {
			out[i] = "0.0"
			continue
		}
		out[i] = slices[i].Percentage
	}
	return out
}
