// Package snapshot prints dashboard pages to PDF with a headless Chrome, for
// readers who do not open the dashboard itself.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/dustin/go-humanize"

	"ptanalysis/internal/config"
	"ptanalysis/internal/infrastructure"
)

// ReadySelector matches the page body once the server-side render arrived.
const ReadySelector = "main.content"

// ErrInvalidURL is returned for targets that are not absolute http(s) URLs.
var ErrInvalidURL = errors.New("snapshot target must be an absolute http(s) URL")

// Printer drives one headless browser per PDF.
type Printer struct {
	cfg    config.SnapshotConfig
	logger *slog.Logger
}

// New creates a printer. An empty ChromePath lets chromedp find the browser.
func New(cfg config.SnapshotConfig, logger *slog.Logger) *Printer {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Printer{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "snapshot")),
	}
}

// ValidateURL checks that target can be navigated to.
func ValidateURL(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s", ErrInvalidURL, target)
	}
	return nil
}

// FileName is the default output name for a page snapshot.
func FileName(slug string, at time.Time) string {
	return fmt.Sprintf("%s-%s.pdf", slug, at.Format("20060102"))
}

func (p *Printer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.DisableGPU,
	)
	if p.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(p.cfg.ChromePath))
	}
	return opts
}

// PDF loads target and returns it printed as PDF.
func (p *Printer) PDF(ctx context.Context, target string) ([]byte, error) {
	if err := ValidateURL(target); err != nil {
		return nil, err
	}
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, p.allocatorOptions()...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			p.logger.DebugContext(ctx, fmt.Sprintf(format, args...))
		}))
	defer cancelBrowser()

	start := time.Now()
	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(target),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(p.cfg.Landscape).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		p.logger.ErrorContext(ctx, "Snapshot failed",
			slog.String("url", target),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to print %s: %w", target, err)
	}

	p.logger.InfoContext(ctx, "Snapshot printed",
		slog.String("url", target),
		slog.String("size", humanize.Bytes(uint64(len(pdf)))),
		slog.Duration("duration", time.Since(start)))
	return pdf, nil
}

// WriteFile prints target into path.
func (p *Printer) WriteFile(ctx context.Context, target, path string) error {
	pdf, err := p.PDF(ctx, target)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
