package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptanalysis/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestInitializeOTelPrometheus(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
		SampleRatio:    1,
	}, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.MeterProvider)
	require.NotNil(t, providers.PrometheusHTTP)
	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)

	metrics, err := CreateDashboardMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordDatasetLoad(ctx, "usage", 9, 12*time.Millisecond, nil)
	metrics.RecordCacheLookup(ctx, "usage", false)
	metrics.RecordCacheLookup(ctx, "usage", true)
	metrics.RecordPageBuild(ctx, "frequency", time.Millisecond, errors.New("boom"))
	metrics.RecordDownload(ctx, "pronunciation")

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "dataset_loads_total")
	assert.Contains(t, body, "dataset_cache_hits_total")
	assert.Contains(t, body, `status="failure"`)
	assert.Contains(t, body, "go_goroutines")
}

func TestInitializeOTelRejectsUnknownExporter(t *testing.T) {
	_, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "zipkin"}, discardLogger())
	assert.Error(t, err)

	_, err = InitializeOTel(config.TelemetryConfig{MetricExporter: "statsd"}, discardLogger())
	assert.Error(t, err)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *DashboardMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordDatasetLoad(ctx, "usage", 1, time.Second, nil)
		m.RecordCacheLookup(ctx, "usage", true)
		m.RecordCacheInvalidation(ctx, "watch", 2)
		m.RecordPageBuild(ctx, "home", time.Second, nil)
		m.RecordDownload(ctx, "suggestion")
		m.RecordLiveClients(ctx, 1)
	})
}
