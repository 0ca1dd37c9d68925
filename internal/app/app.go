package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"ptanalysis/internal/cache"
	"ptanalysis/internal/charts"
	"ptanalysis/internal/config"
	"ptanalysis/internal/content"
	apierrors "ptanalysis/internal/errors"
	"ptanalysis/internal/infrastructure"
	customMiddleware "ptanalysis/internal/middleware"
	"ptanalysis/internal/services"
	handlers "ptanalysis/internal/transport/http"
	"ptanalysis/internal/watcher"
	"ptanalysis/internal/web"
	"ptanalysis/internal/websocket"
)

// BuildTime is set at link time with -ldflags "-X ptanalysis/internal/app.BuildTime=...".
var BuildTime = ""

// Application holds every long-lived component of the dashboard.
type Application struct {
	Config   *config.Config
	Paths    *config.Paths
	Router   *chi.Mux
	Server   *http.Server
	Hub      *websocket.Hub
	Cache    *cache.Cache
	Watcher  *watcher.Watcher
	Reports  *services.ReportService
	Health   *services.HealthService
	Renderer *web.Renderer
	OTel     *infrastructure.OTelProviders
	Metrics  *infrastructure.DashboardMetrics
	Logger   *slog.Logger

	errorHandler *apierrors.ErrorHandler
}

// New wires the application from an already loaded configuration. Nothing
// is started until Start.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	paths, err := config.ResolvePaths(cfg.Data)
	if err != nil {
		return nil, apierrors.NewConfigError("failed to resolve data paths", err)
	}
	paths.LogPathResolution(logger)
	if missing := paths.Missing(); len(missing) > 0 {
		// pages for the missing files render the data error until they appear
		logger.Warn("Data files missing", slog.Any("sources", missing))
	}

	if _, err := charts.SetupFont(cfg.Charts.FontFile, logger); err != nil {
		return nil, apierrors.NewConfigError("failed to load chart font", err)
	}

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.CreateDashboardMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard metrics: %w", err)
	}

	a := &Application{
		Config:       cfg,
		Paths:        paths,
		OTel:         providers,
		Metrics:      metrics,
		Logger:       logger,
		errorHandler: apierrors.NewErrorHandler(logger, false),
	}
	if err := a.initializeServices(); err != nil {
		if a.Cache != nil {
			a.Cache.Stop()
		}
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()
	return a, nil
}

func (a *Application) initializeServices() error {
	c, err := content.LoadEmbedded()
	if err != nil {
		return fmt.Errorf("failed to load page content: %w", err)
	}

	a.Cache = cache.New(a.Config.Data.CacheTTL, a.Metrics, a.Logger)
	a.Hub = websocket.NewHub(a.Metrics, a.Logger)
	a.Reports = services.NewReportService(a.Paths, c, a.Cache, a.Metrics, a.Logger)

	opts := []services.HealthOption{
		services.WithCache(a.Cache),
		services.WithHub(a.Hub),
		services.WithBuildTime(BuildTime),
	}
	if a.Config.Data.Watch {
		w, err := watcher.New(a.Paths, a.Cache, a.Hub, a.Config.Data.WatchDebounce, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to create data watcher: %w", err)
		}
		a.Watcher = w
		opts = append(opts, services.WithWatcher(w))
	}
	a.Health = services.NewHealthService(config.AppVersion, a.Paths, a.Logger, opts...)

	a.Renderer, err = web.New(c, config.AppVersion, a.Config.Data.Watch)
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Order: RequestID → RealIP → OTel → Logger → Recoverer → Security
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTel.Tracer, a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(a.errorHandler.Recoverer)
	r.Use(customMiddleware.DefaultSecureHeaders().Handler)
	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.corsConfig()))
	}
	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	// Health stays outside the access gate so load balancers need no credentials.
	health := handlers.NewHealthHandler(a.Health, a.Logger)
	r.Mount("/api/health", health.Routes())
	if a.OTel.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTel.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.BasicAuth(a.Logger, a.Config.Security.Access.Realm, a.Config.Security.Access.Users))

		// live reload holds the connection open; no timeout or compression
		r.Handle("/ws", handlers.NewWebSocketHandler(a.Hub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger))

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
			r.Use(customMiddleware.Compress(5))
			a.setupHTMLRoutes(r)
			a.setupAPIRoutes(r, health)
		})
	})

	a.Router = r
}

func (a *Application) setupHTMLRoutes(r chi.Router) {
	pages := handlers.NewPageHandler(a.Reports, a.Renderer, a.Logger, a.errorHandler)
	downloads := handlers.NewDownloadHandler(a.Reports, a.Logger, a.errorHandler)
	images := handlers.NewImageHandler(a.Reports, a.Logger, a.errorHandler)

	r.Get("/", pages.Home)
	r.Get("/pages/{slug}", pages.HTML)
	r.Mount("/downloads", downloads.Routes())
	r.Get("/images/{key}", images.ServeImage)
	r.Handle(web.StaticPrefix+"*", web.Static())
}

func (a *Application) setupAPIRoutes(r chi.Router, health *handlers.HealthHandler) {
	pages := handlers.NewPageHandler(a.Reports, a.Renderer, a.Logger, a.errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Mount("/pages", pages.APIRoutes())
		r.Get("/version", health.Version)
	})
}

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		// basic auth credentials travel with cross-origin requests
		AllowCredentials: a.Config.Security.Access.Enabled(),
		Logger:           a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// StartBackground starts the hub and, when enabled, the data watcher.
func (a *Application) StartBackground(ctx context.Context) error {
	a.Hub.Start()
	if a.Watcher != nil {
		if err := a.Watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start data watcher: %w", err)
		}
	}
	return nil
}

// Start starts the background services and the HTTP server. cancel is
// called when the server stops unexpectedly.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("addr", a.Server.Addr),
		slog.Bool("watch", a.Watcher != nil),
		slog.Bool("access_gate", a.Config.Security.Access.Enabled()))

	if err := a.StartBackground(ctx); err != nil {
		return err
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	status := a.Health.ReadinessCheck(ctx)
	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", "http://"+a.Server.Addr),
		slog.String("readiness", status.Status))
	return nil
}

// Stop shuts the server down gracefully and stops the background services.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	a.StopBackground(shutdownCtx)
	if err := a.OTel.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// StopBackground stops the watcher, the hub and the cache janitor.
func (a *Application) StopBackground(ctx context.Context) {
	if a.Watcher != nil {
		if err := a.Watcher.Stop(); err != nil {
			a.Logger.ErrorContext(ctx, "Error stopping data watcher", slog.String("error", err.Error()))
		}
	}
	a.Hub.Stop()
	a.Cache.Stop()
}

// Run runs the application until SIGINT or SIGTERM.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		a.Logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.Warn("Server stopped unexpectedly")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout+5*time.Second)
	defer stopCancel()
	return a.Stop(stopCtx)
}
