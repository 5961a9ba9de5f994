package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/sadopc/timepie/internal/chart"
	"github.com/sadopc/timepie/internal/export"
	"github.com/sadopc/timepie/internal/shared"
	"github.com/sadopc/timepie/internal/store"
)

type apiHandler struct {
	store  *store.Store
	logger *log.Logger
	charts chartParams
	timers *Timers
}

// owner returns the authenticated owner. Routes are only registered behind
// BearerAuth, so a missing owner is a wiring bug.
func (h *apiHandler) owner(r *http.Request) *store.Owner {
	o, ok := OwnerFrom(r.Context())
	if !ok {
		panic("api route registered without BearerAuth")
	}
	return o
}

func (h *apiHandler) entries(ownerID string) ([]store.TimeEntry, error) {
	entries, err := h.store.ListEntries(ownerID, store.EntryFilter{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}
	return entries, nil
}

// listEntries writes the owner's entries newest first, as JSON or, with
// ?format=csv, as CSV.
func (h *apiHandler) listEntries(w http.ResponseWriter, r *http.Request) {
	o := h.owner(r)
	entries, err := h.entries(o.ID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		err = export.WriteJSON(w, o.Name, entries)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		err = export.WriteCSV(w, entries)
	default:
		respondErr(w, h.logger, validationErr("format", r.URL.Query().Get("format")))
		return
	}
	if err != nil {
		h.logger.Error("write entries", "owner", o.ID, "error", err)
	}
}

func (h *apiHandler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	o := h.owner(r)
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondErr(w, h.logger, validationErr("id", r.PathValue("id")))
		return
	}
	if err := h.store.DeleteEntry(id, o.ID); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			err = fmt.Errorf("%w: %v", shared.ErrStorage, err)
		}
		respondErr(w, h.logger, err)
		return
	}
	h.logger.Info("entry deleted", "owner", o.ID, "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) summary(w http.ResponseWriter, r *http.Request) {
	o := h.owner(r)
	entries, err := h.entries(o.ID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	cats := chart.Aggregate(entries)

	switch r.URL.Query().Get("format") {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		err = export.WriteSummaryJSON(w, cats)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		err = export.WriteSummaryCSV(w, cats)
	default:
		respondErr(w, h.logger, validationErr("format", r.URL.Query().Get("format")))
		return
	}
	if err != nil {
		h.logger.Error("write summary", "owner", o.ID, "error", err)
	}
}

func (h *apiHandler) chartPNG(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries(h.owner(r).ID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	writePNG(w, r, h.logger, chart.Aggregate(entries), h.charts, chart.Interactive)
}

func (h *apiHandler) hit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries(h.owner(r).ID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	writeHit(w, r, h.logger, chart.Aggregate(entries), h.charts, chart.Interactive)
}

func (h *apiHandler) timerState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.timers.Status(h.owner(r).ID))
}

type startRequest struct {
	Category string `json:"category"`
}

func (h *apiHandler) startTimer(w http.ResponseWriter, r *http.Request) {
	o := h.owner(r)

	var req startRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		respondErr(w, h.logger, fmt.Errorf("%w: request body: %v", shared.ErrValidation, err))
		return
	}

	st, err := h.timers.Start(o.ID, req.Category)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	h.logger.Info("timer started", "owner", o.ID, "category", st.Category)
	writeJSON(w, http.StatusCreated, st)
}

type entryResponse struct {
	ID        int64  `json:"id"`
	Category  string `json:"category"`
	Seconds   int64  `json:"seconds"`
	Duration  string `json:"duration"`
	Color     string `json:"color"`
	CreatedAt string `json:"created_at"`
}

func (h *apiHandler) stopTimer(w http.ResponseWriter, r *http.Request) {
	o := h.owner(r)
	entry, err := h.timers.Stop(r.Context(), o.ID)
	if err != nil {
		respondErr(w, h.logger, err)
		return
	}
	h.logger.Info("entry saved", "owner", o.ID, "category", entry.Category, "seconds", entry.Seconds)
	writeJSON(w, http.StatusOK, entryResponse{
		ID:        entry.ID,
		Category:  entry.Category,
		Seconds:   entry.Seconds,
		Duration:  chart.FormatTime(entry.Seconds),
		Color:     entry.Color,
		CreatedAt: entry.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}
