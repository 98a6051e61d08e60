package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Raajp10/ai-expense-tracker/internal/core"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/query"
	"github.com/Raajp10/ai-expense-tracker/internal/storage"
)

func userCachePrefix(userID int64) string {
	return fmt.Sprintf("user:%d:", userID)
}

func (s *Server) handleDailyAnomalies(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	month, err := queryMonth(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	threshold, err := queryFloat(r, "z_threshold", s.threshold)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var summary any
	if category := r.URL.Query().Get("category"); category != "" {
		summary, err = s.detector.DailyByCategory(r.Context(), userID, month, category, threshold)
	} else {
		summary, err = s.detector.Daily(r.Context(), userID, month, threshold)
	}
	if err != nil {
		respondFromErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTransactionAnomalies(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	month, err := queryMonth(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	threshold, err := queryFloat(r, "z_threshold", s.threshold)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.detector.Transactions(r.Context(), userID, month, threshold)
	if err != nil {
		respondFromErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAnomalyPlot(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	month, err := queryMonth(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sigma, err := queryFloat(r, "sigma", s.threshold)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := fmt.Sprintf("%splot:%s:%g", userCachePrefix(userID), month, sigma)
	if series, ok := s.plotCache.Get(key); ok {
		respondJSON(w, http.StatusOK, series)
		return
	}

	series, err := s.detector.Plot(r.Context(), userID, month, sigma)
	if err != nil {
		respondFromErr(w, err)
		return
	}
	s.plotCache.Set(key, series)
	respondJSON(w, http.StatusOK, series)
}

func (s *Server) handleExplainDate(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	date := r.URL.Query().Get("date")
	if _, err := core.ParseDay(date); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid date %q, want YYYY-MM-DD", date))
		return
	}

	explanation, err := s.detector.ExplainDate(r.Context(), userID, date, s.threshold)
	if err != nil {
		respondFromErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, explanation)
}

func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	month, err := queryMonth(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.segmenter.Single(r.Context(), userID, month)
	if err != nil {
		respondFromErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGlobalSegments(w http.ResponseWriter, r *http.Request) {
	month, err := queryMonth(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := s.segmenter.Global(r.Context(), month)
	if err != nil {
		respondFromErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	month, err := queryMonth(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Serve the stored row when the worker has built one; compute and
	// persist on miss.
	summary, err := s.store.GetMonthlySummary(r.Context(), userID, month)
	if errors.Is(err, storage.ErrNotFound) {
		summary, err = query.BuildMonthlySummary(r.Context(), s.store, userID, month)
	}
	if err != nil {
		respondFromErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

type queryRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req queryRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Question == "" {
		respondError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := s.router.Answer(r.Context(), userID, req.Question)
	if err != nil {
		respondFromErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, answer)
}
