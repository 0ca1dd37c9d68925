package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "ptanalysis/internal/errors"
	"ptanalysis/internal/middleware"
)

// WorkbookFileName is the attachment name of GET /downloads/report.xlsx.
const WorkbookFileName = "拍照翻译分析报告.xlsx"

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DownloadHandler serves the detail CSVs and the workbook.
type DownloadHandler struct {
	service      ReportService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDownloadHandler creates a download handler.
func NewDownloadHandler(service ReportService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DownloadHandler {
	return &DownloadHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "download_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the download routes, mounted under /downloads.
func (h *DownloadHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/report.xlsx", h.Workbook)
	r.Get("/{name}.csv", h.CSV)
	return r
}

// CSV handles GET /downloads/{name}.csv
func (h *DownloadHandler) CSV(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var buf bytes.Buffer
	d, err := h.service.WriteDownload(r.Context(), name, &buf)
	if err != nil {
		h.errorHandler.HandleError(w, r, exportError(err, "csv "+name, name))
		return
	}

	h.logger.InfoContext(r.Context(), "Serving download",
		slog.String("download", name),
		slog.String("file_name", d.FileName),
		slog.String("user", middleware.UserFromContext(r.Context())),
		slog.Int("bytes", buf.Len()))
	h.attach(w, contentTypeCSV, d.FileName, &buf)
}

// Workbook handles GET /downloads/report.xlsx
func (h *DownloadHandler) Workbook(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.WriteWorkbook(r.Context(), &buf); err != nil {
		h.errorHandler.HandleError(w, r, exportError(err, "xlsx workbook", "report.xlsx"))
		return
	}

	h.logger.InfoContext(r.Context(), "Serving workbook",
		slog.String("user", middleware.UserFromContext(r.Context())),
		slog.Int("bytes", buf.Len()))
	h.attach(w, contentTypeXLSX, WorkbookFileName, &buf)
}

// exportError wraps failures that are not data or request errors as export
// errors, so the problem names what was being written.
func exportError(err error, what, resource string) error {
	mapped := toAPIError(err, resource)
	var apiErr *apierrors.APIError
	if errors.As(mapped, &apiErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return mapped
	}
	return apierrors.NewExportError("failed to export "+what, err).WithContext("download", resource)
}

func (h *DownloadHandler) attach(w http.ResponseWriter, contentType, fileName string, body *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = body.WriteTo(w)
}
