package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"ptanalysis/internal/cache"
	"ptanalysis/internal/config"
	"ptanalysis/internal/infrastructure"
	"ptanalysis/internal/watcher"
	"ptanalysis/internal/websocket"
)

// Health states.
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
	StatusDisabled = "disabled"
)

// CacheStats reports dataset cache usage.
type CacheStats interface {
	Stats() cache.Stats
}

// HubStats reports live-reload clients.
type HubStats interface {
	Stats() websocket.HubStats
}

// WatcherStats reports file watcher activity.
type WatcherStats interface {
	Stats() watcher.Stats
}

// HealthService answers the health, readiness and version endpoints.
type HealthService struct {
	version   string
	buildTime string
	paths     *config.Paths
	cache     CacheStats
	hub       HubStats
	watcher   WatcherStats
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]any           `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual component health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// HealthOption sets an optional dependency.
type HealthOption func(*HealthService)

// WithCache reports dataset cache usage in readiness.
func WithCache(c CacheStats) HealthOption {
	return func(hs *HealthService) { hs.cache = c }
}

// WithHub reports live-reload clients in readiness.
func WithHub(h HubStats) HealthOption {
	return func(hs *HealthService) { hs.hub = h }
}

// WithWatcher reports file watcher activity in readiness.
func WithWatcher(w WatcherStats) HealthOption {
	return func(hs *HealthService) { hs.watcher = w }
}

// WithBuildTime adds the build timestamp to the version response.
func WithBuildTime(t string) HealthOption {
	return func(hs *HealthService) { hs.buildTime = t }
}

// NewHealthService creates a health service. Only paths is required.
func NewHealthService(version string, paths *config.Paths, logger *slog.Logger, opts ...HealthOption) *HealthService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	hs := &HealthService{
		version:   version,
		paths:     paths,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
	for _, opt := range opts {
		opt(hs)
	}
	return hs
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "Health check",
		slog.String("uptime", time.Since(hs.startTime).String()))
	return HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]any{
			"uptime":     humanize.RelTime(hs.startTime, time.Now(), "", ""),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck is ready when every data file exists. Cache, live-reload
// and watcher details are informational.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"data":      hs.checkData(),
			"images":    hs.checkImages(),
			"cache":     hs.checkCache(),
			"websocket": hs.checkWebSocket(),
			"watcher":   hs.checkWatcher(),
		},
	}
	for _, s := range status.Services {
		if s.Status == StatusNotReady {
			status.Status = StatusNotReady
			break
		}
	}
	if status.Status != StatusReady {
		hs.logger.WarnContext(ctx, "Readiness check failed", slog.Any("services", status.Services))
	}
	return status
}

// Version returns version information
func (hs *HealthService) Version() map[string]any {
	result := map[string]any{
		"name":         config.AppName,
		"service":      config.ServiceID,
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

func (hs *HealthService) checkData() ServiceHealth {
	missing := hs.paths.Missing()
	if len(missing) > 0 {
		files := make([]string, len(missing))
		for i, src := range missing {
			files[i] = hs.paths.File(src)
		}
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("%d data file(s) missing", len(missing)),
			Details: files,
		}
	}

	var total int64
	for _, src := range config.AllSources {
		if info, err := os.Stat(hs.paths.File(src)); err == nil {
			total += info.Size()
		}
	}
	return ServiceHealth{
		Status:  StatusReady,
		Message: fmt.Sprintf("%d data files, %s", len(config.AllSources), humanize.Bytes(uint64(total))),
	}
}

func (hs *HealthService) checkImages() ServiceHealth {
	info, err := os.Stat(hs.paths.ImagesDir)
	if err != nil || !info.IsDir() {
		// pages render placeholders for missing images
		return ServiceHealth{Status: StatusDisabled, Message: "Image directory not found: " + hs.paths.ImagesDir}
	}
	return ServiceHealth{Status: StatusReady}
}

func (hs *HealthService) checkCache() ServiceHealth {
	if hs.cache == nil {
		return ServiceHealth{Status: StatusDisabled}
	}
	s := hs.cache.Stats()
	return ServiceHealth{
		Status: StatusReady,
		Message: fmt.Sprintf("%d entries, %s, %s hits / %s misses",
			s.Entries, humanize.Bytes(uint64(s.Bytes)), humanize.Comma(s.Hits), humanize.Comma(s.Misses)),
		Details: s,
	}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: StatusDisabled}
	}
	s := hs.hub.Stats()
	return ServiceHealth{
		Status:  StatusReady,
		Message: fmt.Sprintf("%d live clients", s.ActiveClients),
		Details: s,
	}
}

func (hs *HealthService) checkWatcher() ServiceHealth {
	if hs.watcher == nil {
		return ServiceHealth{Status: StatusDisabled}
	}
	s := hs.watcher.Stats()
	msg := fmt.Sprintf("%d directories watched", len(s.Watched))
	if !s.LastEventTime.IsZero() {
		msg += ", last change " + humanize.Time(s.LastEventTime)
	}
	return ServiceHealth{Status: StatusReady, Message: msg, Details: s}
}
