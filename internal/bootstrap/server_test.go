package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	app "github.com/yash-jain-1224/crm-dashboard/internal/application/upload"
	"github.com/yash-jain-1224/crm-dashboard/internal/infrastructure/taskstore"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	logger := zaptest.NewLogger(t)
	return NewHTTPServer(UploadDeps{
		Tasks:        taskstore.NewMemoryStore(),
		Runner:       app.NewBatchRunner(nil, app.BatchRunnerConfig{}, logger),
		Background:   app.NewBackground(context.Background(), 1, logger),
		MaxFileBytes: 50 << 20,
		CORSOrigins:  []string{"http://localhost:5173"},
	}, logger)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/contacts/bulk-upload", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestTemplateRouteIsRegistered(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leads/template", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=leads_template.xlsx" {
		t.Fatalf("unexpected disposition %q", got)
	}
}

func TestUnknownTaskIsNotFound(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/contacts/upload-progress/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestNewLoggerWritesRotatingFile(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "api.log")
	logger, err := NewLogger(LoggerConfig{Level: "debug", File: file})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Debug("hello", zap.String("k", "v"))
	_ = logger.Sync()

	if !logger.Core().Enabled(zap.DebugLevel) {
		t.Fatal("expected debug level to be enabled")
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	if _, err := NewLogger(LoggerConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
