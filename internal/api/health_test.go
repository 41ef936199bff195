package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avaldivia/unidesk/internal/store"
	"github.com/go-chi/chi/v5"
)

// failingRepo wraps the memory store with a broken Ping.
type failingRepo struct {
	*store.MemoryStore
}

func (failingRepo) Ping(ctx context.Context) error {
	return errors.New("database unreachable")
}

func TestHealthOK(t *testing.T) {
	r := chi.NewRouter()
	NewHealthHandler(store.NewMemory(), time.Second).RegisterHealth(r)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", body["status"])
	}
}

func TestHealthDegraded(t *testing.T) {
	r := chi.NewRouter()
	NewHealthHandler(failingRepo{store.NewMemory()}, time.Second).RegisterHealth(r)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if body["status"] != "degraded" {
		t.Errorf("Expected degraded status, got %v", body["status"])
	}
}
