package http

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "ptanalysis/internal/errors"
	"ptanalysis/internal/report"
	"ptanalysis/internal/services"
	"ptanalysis/internal/web"
)

// PageHandler serves the dashboard pages as HTML and as JSON page models.
type PageHandler struct {
	service      ReportService
	renderer     *web.Renderer
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// PageLink is one entry of GET /api/pages.
type PageLink struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Icon  string `json:"icon,omitempty"`
	URL   string `json:"url"`
	API   string `json:"api"`
}

// NewPageHandler creates a page handler.
func NewPageHandler(service ReportService, renderer *web.Renderer, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PageHandler {
	return &PageHandler{
		service:      service,
		renderer:     renderer,
		logger:       logger.With(slog.String("component", "page_handler")),
		errorHandler: errorHandler,
	}
}

// APIRoutes returns the JSON page routes, mounted under /api/pages.
func (h *PageHandler) APIRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.ListPages)
	r.Get("/{slug}", h.GetPage)
	return r
}

// Home handles GET /
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.serveHTML(w, r, report.SlugHome)
}

// HTML handles GET /pages/{slug}
func (h *PageHandler) HTML(w http.ResponseWriter, r *http.Request) {
	h.serveHTML(w, r, chi.URLParam(r, "slug"))
}

// serveHTML renders a page. A page whose data failed to load is still
// rendered, with the load error in place of its body, and a 500 status.
func (h *PageHandler) serveHTML(w http.ResponseWriter, r *http.Request, slug string) {
	ctx := r.Context()
	status := http.StatusOK

	page, err := h.service.Page(ctx, slug)
	if err != nil {
		var pageErr *services.PageError
		if !errors.As(err, &pageErr) || page == nil {
			h.errorHandler.HandleError(w, r, toAPIError(err, slug))
			return
		}
		status = http.StatusInternalServerError
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, page); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(ctx, "Page rendered",
		slog.String("page", slug),
		slog.Int("status", status),
		slog.Int("bytes", buf.Len()))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// ListPages handles GET /api/pages
func (h *PageHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	nav := h.service.Navigation()
	links := make([]PageLink, len(nav))
	for i, item := range nav {
		links[i] = PageLink{
			Slug:  item.Slug,
			Title: item.Title,
			Icon:  item.Icon,
			URL:   web.PageURL(item.Slug),
			API:   "/api/pages/" + item.Slug,
		}
	}
	render.JSON(w, r, links)
}

// GetPage handles GET /api/pages/{slug}
func (h *PageHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	page, err := h.service.Page(r.Context(), slug)
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err, slug))
		return
	}
	render.JSON(w, r, page)
}
