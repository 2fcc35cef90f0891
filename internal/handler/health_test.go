package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"dexscreener-extractor/internal/domain"
	"dexscreener-extractor/internal/store"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type unreachableStore struct {
	*store.MemoryStore
}

func (unreachableStore) LoadSettings(ctx context.Context) (domain.StoredSettings, error) {
	return domain.StoredSettings{}, errors.New("dial tcp: connection refused")
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if body != "{\"pages\":0,\"status\":\"healthy\"}\n" && body != "{\"pages\":0,\"status\":\"healthy\"}" {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestHealthReportsUnreachableStore(t *testing.T) {
	env := newTestEnv(t)
	h := New(trace.NewNoopTracerProvider().Tracer("test"), unreachableStore{store.NewMemoryStore()}, env.hub, "", t.TempDir())
	r := gin.New()
	h.RegisterRoutes(r, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
}
