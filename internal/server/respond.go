package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/sadopc/timepie/internal/shared"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrPublicDisabled):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrTimerRunning), errors.Is(err, shared.ErrTimerIdle):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondErr writes err with its mapped status. Server errors are logged and
// their detail withheld from the client.
func respondErr(w http.ResponseWriter, logger *log.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		if logger != nil {
			logger.Error("request failed", "error", err)
		}
		msg = "internal error"
	case errors.Is(err, shared.ErrPublicDisabled), errors.Is(err, shared.ErrNotFound):
		msg = "not found"
	}
	writeError(w, status, msg)
}

// intParam reads an integer query parameter, returning def when absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validationErr(name, raw)
	}
	return v, nil
}

// floatParam reads a required, finite float query parameter.
func floatParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, validationErr(name, raw)
	}
	return v, nil
}

func validationErr(name, raw string) error {
	return fmt.Errorf("%w: invalid %s %q", shared.ErrValidation, name, raw)
}
