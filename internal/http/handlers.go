package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Raajp10/ai-expense-tracker/internal/core"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}
	user, err := s.store.CreateUser(r.Context(), req.Name, req.Email)
	if err != nil {
		respondFromErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

type createCategoryRequest struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	category, err := s.store.CreateCategory(r.Context(), core.Category{
		UserID: req.UserID,
		Name:   req.Name,
		Kind:   core.CategoryKind(req.Kind),
	})
	if err != nil {
		respondFromErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "valid user_id parameter is required")
		return
	}
	categories, err := s.store.ListCategories(r.Context(), userID)
	if err != nil {
		respondFromErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

type createTransactionRequest struct {
	UserID      int64   `json:"user_id"`
	CategoryID  int64   `json:"category_id"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	tx, err := s.service.CreateTransaction(r.Context(), core.Transaction{
		UserID:      req.UserID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		respondFromErr(w, err)
		return
	}

	// Cached series for this user are stale now.
	s.plotCache.DeletePrefix(userCachePrefix(tx.UserID))
	respondJSON(w, http.StatusCreated, tx)
}

type createBudgetRequest struct {
	UserID     int64   `json:"user_id"`
	CategoryID int64   `json:"category_id"`
	Month      string  `json:"month"`
	Amount     float64 `json:"amount"`
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	budget, err := s.service.CreateBudget(r.Context(), core.Budget{
		UserID:     req.UserID,
		CategoryID: req.CategoryID,
		Month:      req.Month,
		Amount:     req.Amount,
	})
	if err != nil {
		respondFromErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, budget)
}
