package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/timepie/internal/chart"
	"github.com/sadopc/timepie/internal/store"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Owner      string      `json:"owner,omitempty"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          int64  `json:"id"`
	Category    string `json:"category"`
	CreatedAt   string `json:"created_at"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
	Color       string `json:"color,omitempty"`
}

type jsonSummary struct {
	TotalSec   int64          `json:"total_seconds"`
	Total      string         `json:"total"`
	Categories []jsonCategory `json:"categories"`
}

type jsonCategory struct {
	Name        string `json:"name"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
	Percent     string `json:"percent"`
	Color       string `json:"color"`
}

// ToJSON writes entries as an indented JSON document at path.
func ToJSON(entries []store.TimeEntry, path string) error {
	data, err := marshalEntries("", entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// WriteJSON writes the same document as ToJSON to w, tagged with owner.
func WriteJSON(w io.Writer, owner string, entries []store.TimeEntry) error {
	data, err := marshalEntries(owner, entries)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteSummaryJSON writes aggregated categories with their percentages.
func WriteSummaryJSON(w io.Writer, cats []chart.AggregatedCategory) error {
	total := chart.Total(cats)
	summary := jsonSummary{
		TotalSec:   total,
		Total:      chart.FormatTime(total),
		Categories: make([]jsonCategory, 0, len(cats)),
	}
	pct := percentages(cats)
	for i, c := range cats {
		summary.Categories = append(summary.Categories, jsonCategory{
			Name:        c.Name,
			DurationSec: c.TotalSeconds,
			Duration:    chart.FormatTime(c.TotalSeconds),
			Percent:     pct[i],
			Color:       c.Color,
		})
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func marshalEntries(owner string, entries []store.TimeEntry) ([]byte, error) {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Owner:      owner,
		Count:      len(entries),
	}

	for _, e := range entries {
		export.Entries = append(export.Entries, jsonEntry{
			ID:          e.ID,
			Category:    e.Category,
			CreatedAt:   e.CreatedAt.Local().Format(time.RFC3339),
			DurationSec: e.Seconds,
			Duration:    chart.FormatTime(e.Seconds),
			Color:       e.Color,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return data, nil
}
