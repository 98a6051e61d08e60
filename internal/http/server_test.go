package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Raajp10/ai-expense-tracker/internal/insight/anomaly"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/features"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/query"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/segment"
	"github.com/Raajp10/ai-expense-tracker/internal/log"
	"github.com/Raajp10/ai-expense-tracker/internal/services"
	"github.com/Raajp10/ai-expense-tracker/internal/storage"
)

func newTestServer(t *testing.T, clusterer segment.Clusterer) (*Server, *storage.SQLiteRepository) {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "insight.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := log.New(log.DefaultConfig())
	builder := features.NewBuilder(repo)
	detector := anomaly.NewDetector(repo)
	segmenter := segment.NewSegmenter(repo, builder, clusterer, 4)
	router := query.NewRouter(repo, builder, detector, nil, 2.0, logger)
	service := services.NewTransactionService(repo, nil, logger)

	srv := NewServer(":0", Deps{
		Store:      repo,
		Service:    service,
		Detector:   detector,
		Builder:    builder,
		Segmenter:  segmenter,
		Router:     router,
		ZThreshold: 2.0,
	}, logger)
	return srv, repo
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// seedUserMonth creates a user with a Food category and daily expenses,
// returning the user and category ids.
func seedUserMonth(t *testing.T, h http.Handler) (int64, int64) {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/users", map[string]string{"name": "Raaj", "email": "raaj@example.com"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: status %d body %s", rec.Code, rec.Body)
	}
	var user struct {
		ID int64 `json:"id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &user)

	rec = doJSON(t, h, http.MethodPost, "/categories", map[string]any{"user_id": user.ID, "name": "Food", "kind": "expense"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category: status %d body %s", rec.Code, rec.Body)
	}
	var category struct {
		ID int64 `json:"id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &category)

	for day, amount := range map[string]float64{"01": 10, "02": 12, "03": 11, "04": 9} {
		rec = doJSON(t, h, http.MethodPost, "/transactions", map[string]any{
			"user_id":     user.ID,
			"category_id": category.ID,
			"amount":      amount,
			"date":        "2025-03-" + day,
			"description": "Groceries",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create transaction: status %d body %s", rec.Code, rec.Body)
		}
	}
	return user.ID, category.ID
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("body = %s", rec.Body)
	}
}

func TestCreateTransactionRejectsBadDate(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()
	userID, categoryID := seedUserMonth(t, h)

	rec := doJSON(t, h, http.MethodPost, "/transactions", map[string]any{
		"user_id":     userID,
		"category_id": categoryID,
		"amount":      5.0,
		"date":        "03/04/2025",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDailyAnomaliesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()
	userID, _ := seedUserMonth(t, h)

	rec := doJSON(t, h, http.MethodGet, fmt.Sprintf("/users/%d/anomalies/daily?month=2025-03", userID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	var summary anomaly.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(summary.Points) != 4 {
		t.Fatalf("points = %d, want 4", len(summary.Points))
	}
	for _, p := range summary.Points {
		if p.Anomalous {
			t.Fatalf("uniform spending flagged anomalous: %+v", p)
		}
	}

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/users/%d/anomalies/daily", userID), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing month: status = %d, want 400", rec.Code)
	}
}

func TestPlotCacheInvalidatedOnWrite(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()
	userID, categoryID := seedUserMonth(t, h)

	path := fmt.Sprintf("/users/%d/anomalies/plot?month=2025-03", userID)
	first := doJSON(t, h, http.MethodGet, path, nil)
	if first.Code != http.StatusOK {
		t.Fatalf("plot: status %d", first.Code)
	}
	if cached := doJSON(t, h, http.MethodGet, path, nil); cached.Body.String() != first.Body.String() {
		t.Fatal("cached plot differs from first response")
	}

	rec := doJSON(t, h, http.MethodPost, "/transactions", map[string]any{
		"user_id":     userID,
		"category_id": categoryID,
		"amount":      500.0,
		"date":        "2025-03-20",
		"description": "Laptop",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction: status %d", rec.Code)
	}

	after := doJSON(t, h, http.MethodGet, path, nil)
	if after.Body.String() == first.Body.String() {
		t.Fatal("plot unchanged after new transaction, cache not invalidated")
	}
}

func TestSegmentEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()
	userID, _ := seedUserMonth(t, h)

	rec := doJSON(t, h, http.MethodGet, fmt.Sprintf("/users/%d/segment?month=2025-03", userID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	var result segment.Result
	json.Unmarshal(rec.Body.Bytes(), &result)
	// 42 total, all of it Food.
	if result.Label != "Food-heavy" {
		t.Fatalf("label = %q, want Food-heavy", result.Label)
	}
}

func TestGlobalSegmentsWithoutClusterer(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/segments/global?month=2025-03", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestGlobalSegmentsWithClusterer(t *testing.T) {
	srv, _ := newTestServer(t, segment.NewKMeans())
	h := srv.Handler()
	userID, _ := seedUserMonth(t, h)

	rec := doJSON(t, h, http.MethodGet, "/segments/global?month=2025-03", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	var results map[int64]segment.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Single user with data degrades to the rule-based segment.
	if _, ok := results[userID]; !ok {
		t.Fatalf("results = %v, want entry for user %d", results, userID)
	}
}

func TestSummaryEndpointComputesOnMiss(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()
	userID, _ := seedUserMonth(t, h)

	rec := doJSON(t, h, http.MethodGet, fmt.Sprintf("/users/%d/summary?month=2025-03", userID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	var summary struct {
		SummaryText string `json:"summary_text"`
	}
	json.Unmarshal(rec.Body.Bytes(), &summary)
	if !strings.Contains(summary.SummaryText, "Summary for 2025-03:") {
		t.Fatalf("summary_text = %q", summary.SummaryText)
	}
}

func TestQueryEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()
	userID, _ := seedUserMonth(t, h)

	rec := doJSON(t, h, http.MethodPost, fmt.Sprintf("/users/%d/query", userID), map[string]string{"question": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	var answer query.Answer
	json.Unmarshal(rec.Body.Bytes(), &answer)
	if answer.Debug != "greeting_only" {
		t.Fatalf("debug = %q", answer.Debug)
	}

	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/users/%d/query", userID), map[string]string{"question": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty question: status = %d, want 400", rec.Code)
	}
}
