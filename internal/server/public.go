package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/sadopc/timepie/internal/chart"
	"github.com/sadopc/timepie/internal/shared"
	"github.com/sadopc/timepie/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/public.html"))

type publicHandler struct {
	store  *store.Store
	logger *log.Logger
	charts chartParams
}

type legendRow struct {
	Name       string
	Color      string
	Duration   string
	Percentage string
}

type pageData struct {
	Owner      string
	Size       int
	Empty      bool
	ChartURL   string
	HitURL     string
	Total      string
	Categories []legendRow
}

// resolve finds the public owner named in the path. Unknown owners and
// owners that do not share look the same to the caller.
func (h *publicHandler) resolve(r *http.Request) (*store.Owner, error) {
	o, err := h.store.GetOwnerByName(r.PathValue("owner"))
	if err != nil {
		return nil, err
	}
	public, err := h.store.IsPublic(o.ID)
	if err != nil {
		return nil, err
	}
	if !public {
		return nil, fmt.Errorf("%w: %s", shared.ErrPublicDisabled, o.Name)
	}
	return o, nil
}

func (h *publicHandler) categories(ownerID string) ([]chart.AggregatedCategory, error) {
	entries, err := h.store.ListEntries(ownerID, store.EntryFilter{})
	if err != nil {
		return nil, err
	}
	return chart.Aggregate(entries), nil
}

func (h *publicHandler) page(w http.ResponseWriter, r *http.Request) {
	o, err := h.resolve(r)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	cats, err := h.categories(o.ID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	size, err := chartSize(r, h.charts.defaultSize)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}

	base := "/public/" + url.PathEscape(o.Name)
	data := pageData{
		Owner:    o.Name,
		Size:     size,
		ChartURL: fmt.Sprintf("%s/chart.png?size=%d", base, size),
		HitURL:   fmt.Sprintf("%s/hit?size=%d", base, size),
		Total:    chart.FormatTime(chart.Total(cats)),
	}
	slices := chart.Layout(cats)
	data.Empty = slices == nil
	for i, s := range slices {
		data.Categories = append(data.Categories, legendRow{
			Name:       s.Name,
			Color:      cats[i].Color,
			Duration:   chart.FormatTime(s.Seconds),
			Percentage: s.Percentage,
		})
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		respondErr(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (h *publicHandler) chartPNG(w http.ResponseWriter, r *http.Request) {
	o, err := h.resolve(r)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	cats, err := h.categories(o.ID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	writePNG(w, r, h.logger, cats, h.charts, chart.ReadOnly)
}

func (h *publicHandler) hit(w http.ResponseWriter, r *http.Request) {
	o, err := h.resolve(r)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	cats, err := h.categories(o.ID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	writeHit(w, r, h.logger, cats, h.charts, chart.ReadOnly)
}

// chartSize reads ?size=, clamped to a sane range.
func chartSize(r *http.Request, def int) (int, error) {
	size, err := intParam(r, "size", def)
	if err != nil {
		return 0, err
	}
	return max(minChartSize, min(size, maxChartSize)), nil
}

func writePNG(w http.ResponseWriter, r *http.Request, logger *log.Logger, cats []chart.AggregatedCategory, p chartParams, v chart.Variant) {
	size, err := chartSize(r, p.defaultSize)
	if err != nil {
		respondErr(w, logger, err)
		return
	}
	var buf bytes.Buffer
	if _, err := chart.EncodePNG(&buf, cats, p.options(v, size)); err != nil {
		respondErr(w, logger, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	buf.WriteTo(w)
}

type hitResult struct {
	Name       string `json:"name"`
	Seconds    int64  `json:"seconds"`
	Duration   string `json:"duration"`
	Percentage string `json:"percentage"`
}

// writeHit answers which slice of a size x size chart lies under (x, y);
// 204 when none does.
func writeHit(w http.ResponseWriter, r *http.Request, logger *log.Logger, cats []chart.AggregatedCategory, p chartParams, v chart.Variant) {
	size, err := chartSize(r, p.defaultSize)
	if err != nil {
		respondErr(w, logger, err)
		return
	}
	x, err := floatParam(r, "x")
	if err != nil {
		respondErr(w, logger, err)
		return
	}
	y, err := floatParam(r, "y")
	if err != nil {
		respondErr(w, logger, err)
		return
	}

	s, ok := chart.HitTest(chart.Layout(cats), p.options(v, size).Geometry(), x, y)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, hitResult{
		Name:       s.Name,
		Seconds:    s.Seconds,
		Duration:   chart.FormatTime(s.Seconds),
		Percentage: s.Percentage,
	})
}
