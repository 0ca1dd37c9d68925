package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"

	"ptanalysis/internal/config"
	"ptanalysis/internal/infrastructure"
	"ptanalysis/internal/middleware"
	"ptanalysis/internal/websocket"
)

// WebSocketHandler upgrades GET /ws and attaches the connection to the
// live-reload hub.
type WebSocketHandler struct {
	hub      *websocket.Hub
	upgrader gorilla.Upgrader
	opts     websocket.Options
	allowed  []string
	logger   *slog.Logger
}

// NewWebSocketHandler creates the live-reload endpoint. Cross-origin
// upgrades are accepted only from allowedOrigins.
func NewWebSocketHandler(hub *websocket.Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:     hub,
		opts:    websocket.Options{PingPeriod: cfg.PingPeriod, PongWait: cfg.PongWait},
		allowed: allowedOrigins,
		logger:  logger.With(slog.String("component", "websocket_handler")),
	}
	h.upgrader = gorilla.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "WebSocket upgrade rejected",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			http.Error(w, http.StatusText(status), status)
		},
	}
	return h
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range h.allowed {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	if reqID == "" {
		reqID = "ws-" + uuid.NewString()
	}
	ctx := infrastructure.WithTraceID(r.Context(), reqID)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(ctx, "WebSocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}

	opts := h.opts
	opts.TraceID = reqID
	client := websocket.Serve(h.hub, websocket.Wrap(conn), opts, h.logger)

	h.logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("user_agent", r.UserAgent()))
}
