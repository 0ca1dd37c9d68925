package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "ptanalysis/internal/errors"
)

// ImageHandler serves registered example images by key. Request paths never
// reach the file system.
type ImageHandler struct {
	service      ReportService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewImageHandler creates an image handler.
func NewImageHandler(service ReportService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ImageHandler {
	return &ImageHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "image_handler")),
		errorHandler: errorHandler,
	}
}

// ServeImage handles GET /images/{key}
func (h *ImageHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	path, err := h.service.ImagePath(key)
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err, key))
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	http.ServeFile(w, r, path)
}
