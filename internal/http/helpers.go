package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Raajp10/ai-expense-tracker/internal/core"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/segment"
	"github.com/Raajp10/ai-expense-tracker/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// respondFromErr maps domain errors to status codes.
func respondFromErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrParseDate), errors.Is(err, core.ErrInvalidKind):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, segment.ErrClusteringUnavailable):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func pathUserID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", r.PathValue("id"))
	}
	return id, nil
}

// queryMonth reads the month parameter, requiring YYYY-MM.
func queryMonth(r *http.Request) (string, error) {
	month := r.URL.Query().Get("month")
	if month == "" {
		return "", errors.New("month parameter is required")
	}
	if !core.ValidMonth(month) {
		return "", fmt.Errorf("invalid month %q, want YYYY-MM", month)
	}
	return month, nil
}

// queryFloat reads an optional float parameter, falling back when absent.
func queryFloat(r *http.Request, name string, fallback float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
