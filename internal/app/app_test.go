package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptanalysis/internal/config"
	apierrors "ptanalysis/internal/errors"
	customMiddleware "ptanalysis/internal/middleware"
	"ptanalysis/internal/services"
	"ptanalysis/internal/shared/testutil"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *Application {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Data = testutil.WriteDataset(t)
	cfg.Telemetry.MetricExporter = "prometheus"
	cfg.Security.RateLimit.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	logger, _ := testutil.NewTestLogger(t)
	a, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		a.StopBackground(context.Background())
		_ = a.OTel.Shutdown(context.Background())
	})
	return a
}

func serve(a *Application, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func TestRoutes(t *testing.T) {
	a := newTestApp(t, nil)

	tests := []struct {
		path        string
		status      int
		contentType string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/pages/frequency", http.StatusOK, "text/html"},
		{"/pages/persona", http.StatusOK, "text/html"},
		{"/pages/competitors", http.StatusOK, "text/html"},
		{"/api/pages", http.StatusOK, "application/json"},
		{"/api/pages/frequency", http.StatusOK, "application/json"},
		{"/api/health", http.StatusOK, "application/json"},
		{"/api/health/live", http.StatusOK, "application/json"},
		{"/api/health/ready", http.StatusOK, "application/json"},
		{"/api/version", http.StatusOK, "application/json"},
		{"/downloads/pronunciation.csv", http.StatusOK, "text/csv"},
		{"/downloads/report.xlsx", http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"/static/dashboard.css", http.StatusOK, "text/css"},
		{"/metrics", http.StatusOK, "text/plain"},
		{"/pages/settings", http.StatusNotFound, "application/json"},
		{"/api/pages/settings", http.StatusNotFound, "application/json"},
		{"/images/unknown", http.StatusNotFound, "application/json"},
		{"/no/such/route", http.StatusNotFound, "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(a, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			assert.NotEmpty(t, rec.Header().Get(customMiddleware.RequestIDHeader))
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	a := newTestApp(t, nil)

	rec := serve(a, httptest.NewRequest(http.MethodPost, "/pages/frequency", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	a := newTestApp(t, nil)

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
}

func TestCORSAllowedOrigin(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Security.AllowedOrigins = []string{"http://reports.example.com"}
	})

	req := httptest.NewRequest(http.MethodGet, "/api/pages", nil)
	req.Header.Set("Origin", "http://reports.example.com")
	rec := serve(a, req)
	assert.Equal(t, "http://reports.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/pages", nil)
	req.Header.Set("Origin", "http://elsewhere.example.com")
	rec = serve(a, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAccessGate(t *testing.T) {
	hash, err := customMiddleware.HashPassword("s3cret")
	require.NoError(t, err)
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Security.Access.Users = map[string]string{"analyst": hash}
	})

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/pages/frequency", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic realm=")

	req := httptest.NewRequest(http.MethodGet, "/pages/frequency", nil)
	req.SetBasicAuth("analyst", "wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(a, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/pages/frequency", nil)
	req.SetBasicAuth("analyst", "s3cret")
	assert.Equal(t, http.StatusOK, serve(a, req).Code)

	// health checks stay open
	rec = serve(a, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingDataFile(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, os.Remove(a.Paths.File(config.SourceUsage)))

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/pages/frequency", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "数据加载失败")

	rec = serve(a, httptest.NewRequest(http.MethodGet, "/api/pages/frequency", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "DATA_UNAVAILABLE", body["error_code"])

	rec = serve(a, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// pages that do not read the usage export are unaffected
	rec = serve(a, httptest.NewRequest(http.MethodGet, "/pages/persona", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChartFontMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Data = testutil.WriteDataset(t)
	cfg.Charts.FontFile = filepath.Join(t.TempDir(), "simhei.ttf")

	logger, _ := testutil.NewTestLogger(t)
	_, err := New(cfg, logger)
	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypeConfig, appErr.Type)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLiveReloadScript(t *testing.T) {
	tests := []struct {
		name  string
		watch bool
	}{
		{"watching", true},
		{"static", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t, func(cfg *config.Config) { cfg.Data.Watch = tt.watch })
			assert.Equal(t, tt.watch, a.Watcher != nil)

			rec := serve(a, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.watch, strings.Contains(rec.Body.String(), "live.js"))
		})
	}
}

func TestBackgroundServices(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Data.Watch = true
		cfg.Data.WatchDebounce = 10 * time.Millisecond
	})
	ctx := context.Background()
	require.NoError(t, a.StartBackground(ctx))

	ready := a.Health.ReadinessCheck(ctx)
	assert.Equal(t, services.StatusReady, ready.Status)
	assert.Equal(t, services.StatusReady, ready.Services["watcher"].Status)
	assert.Equal(t, services.StatusReady, ready.Services["websocket"].Status)

	// warm the cache, then touch the export and wait for the watcher to drop it
	rec := serve(a, httptest.NewRequest(http.MethodGet, "/pages/frequency", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, a.Cache.Stats().Entries)

	require.NoError(t, os.WriteFile(a.Paths.File(config.SourceUsage), []byte(testutil.UsageCSV), 0o644))
	require.Eventually(t, func() bool { return a.Cache.Stats().Entries == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStartStop(t *testing.T) {
	a := newTestApp(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, a.Start(ctx, cancel))
	require.NoError(t, a.Stop(context.Background()))
}

func TestCreateServer(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Server.Port = 9090
		cfg.Server.ReadTimeout = 7 * time.Second
	})

	assert.Equal(t, "127.0.0.1:9090", a.Server.Addr)
	assert.Equal(t, 7*time.Second, a.Server.ReadTimeout)
	assert.Equal(t, a.Config.Server.MaxHeaderBytes, a.Server.MaxHeaderBytes)
	assert.NotNil(t, a.Server.Handler)
}
