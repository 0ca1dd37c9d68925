package http

import (
	"context"
	"io"

	"ptanalysis/internal/content"
	"ptanalysis/internal/report"
	"ptanalysis/internal/services"
)

// ReportService is what the page, download and image handlers need.
type ReportService interface {
	Page(ctx context.Context, slug string) (*report.Page, error)
	Navigation() []content.NavItem
	WriteDownload(ctx context.Context, name string, w io.Writer) (*services.Download, error)
	WriteWorkbook(ctx context.Context, w io.Writer) error
	ImagePath(key string) (string, error)
}
