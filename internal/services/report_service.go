package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"ptanalysis/internal/analytics"
	"ptanalysis/internal/cache"
	"ptanalysis/internal/config"
	"ptanalysis/internal/content"
	"ptanalysis/internal/dataset"
	"ptanalysis/internal/exporter"
	"ptanalysis/internal/infrastructure"
	"ptanalysis/internal/report"
)

// Download names served under /downloads.
const (
	DownloadPronunciation = "pronunciation"
	DownloadSuggestion    = "suggestion"
)

var downloadSources = map[string]config.Source{
	DownloadPronunciation: config.SourcePronunciation,
	DownloadSuggestion:    config.SourceSuggestion,
}

// DatasetCache memoizes parsed exports by path and source.
type DatasetCache interface {
	GetVariant(ctx context.Context, path, variant string, load cache.LoadFunc) (any, error)
}

// ReportService loads exports through the cache and turns them into pages,
// downloads and the workbook.
type ReportService struct {
	paths   *config.Paths
	cache   DatasetCache
	builder *report.Builder
	metrics *infrastructure.DashboardMetrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewReportService wires a report service. metrics may be nil.
func NewReportService(paths *config.Paths, c *content.Content, dc DatasetCache, metrics *infrastructure.DashboardMetrics, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	s := &ReportService{
		paths:   paths,
		cache:   dc,
		metrics: metrics,
		tracer:  otel.Tracer(infrastructure.MeterName),
		logger:  logger.With(slog.String("component", "report_service")),
	}
	s.builder = report.NewBuilder(c, s.ImageExists)
	return s
}

// Content returns the static prose behind the pages.
func (s *ReportService) Content() *content.Content {
	return s.builder.Content()
}

// Navigation lists the pages in sidebar order.
func (s *ReportService) Navigation() []content.NavItem {
	return s.builder.Content().Site.Pages
}

// Page builds the page for slug. When its data cannot be loaded the
// returned page carries the on-page error and err is a *PageError.
func (s *ReportService) Page(ctx context.Context, slug string) (page *report.Page, err error) {
	if !isSlug(slug) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPage, slug)
	}

	ctx, span := s.tracer.Start(ctx, "report.page", trace.WithAttributes(attribute.String("page", slug)))
	defer span.End()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while building page: %v", r)
		}
		if err != nil {
			infrastructure.RecordError(ctx, err)
			s.logger.ErrorContext(ctx, "Page build failed",
				slog.String("page", slug),
				slog.String("error", err.Error()))
			page = s.builder.ErrorPage(slug, err)
			err = &PageError{Slug: slug, Err: err}
		}
		s.metrics.RecordPageBuild(ctx, slug, time.Since(start), err)
	}()

	switch slug {
	case report.SlugFrequency:
		tiers, err := s.UsageTiers(ctx)
		if err != nil {
			return nil, err
		}
		return s.builder.Frequency(tiers)
	case report.SlugPersona:
		d, err := s.PersonaData(ctx)
		if err != nil {
			return nil, err
		}
		return s.builder.Persona(d)
	case report.SlugCompetitors:
		return s.builder.Competitors(), nil
	default:
		return s.builder.Home(), nil
	}
}

func isSlug(slug string) bool {
	for _, s := range report.Slugs {
		if s == slug {
			return true
		}
	}
	return false
}

func load[T any](ctx context.Context, s *ReportService, src config.Source, read func(string) (T, error), rows func(T) int) (T, error) {
	var zero T
	path := s.paths.File(src)
	// one file may back more than one source, each parsed differently
	v, err := s.cache.GetVariant(ctx, path, string(src), func() (any, error) {
		start := time.Now()
		out, err := read(path)
		n := 0
		if err == nil {
			n = rows(out)
		}
		s.metrics.RecordDatasetLoad(ctx, string(src), n, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "Dataset loaded",
			slog.String("source", string(src)),
			slog.String("path", path),
			slog.Int("rows", n),
			slog.Duration("duration", time.Since(start)))
		return out, nil
	})
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cached %s has unexpected type %T", src, v)
	}
	return out, nil
}

// UsageTiers returns the usage-frequency export.
func (s *ReportService) UsageTiers(ctx context.Context) ([]dataset.UsageTier, error) {
	return load(ctx, s, config.SourceUsage, dataset.LoadUsageTiers,
		func(t []dataset.UsageTier) int { return len(t) })
}

// ImageLabels returns the weekday or weekend label export.
func (s *ReportService) ImageLabels(ctx context.Context, period dataset.Period) ([]dataset.ImageLabel, error) {
	src := config.SourceWeekdayLabels
	if period == dataset.Weekend {
		src = config.SourceWeekendLabels
	}
	return load(ctx, s, src,
		func(path string) ([]dataset.ImageLabel, error) { return dataset.LoadImageLabels(path, period) },
		func(l []dataset.ImageLabel) int { return len(l) })
}

// Feedback returns the labelled feedback export.
func (s *ReportService) Feedback(ctx context.Context) ([]dataset.Feedback, error) {
	return load(ctx, s, config.SourceFeedback, dataset.LoadFeedback,
		func(f []dataset.Feedback) int { return len(f) })
}

// FeedbackDetails returns the pronunciation or suggestion detail export.
func (s *ReportService) FeedbackDetails(ctx context.Context, src config.Source) (*dataset.FeedbackDetails, error) {
	return load(ctx, s, src, dataset.LoadFeedbackDetails,
		func(d *dataset.FeedbackDetails) int { return len(d.Records) })
}

// PersonaData loads the five exports behind the persona page in parallel.
func (s *ReportService) PersonaData(ctx context.Context) (report.PersonaData, error) {
	var d report.PersonaData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Weekday, err = s.ImageLabels(gctx, dataset.Weekday)
		return err
	})
	g.Go(func() (err error) {
		d.Weekend, err = s.ImageLabels(gctx, dataset.Weekend)
		return err
	})
	g.Go(func() (err error) {
		d.Feedback, err = s.Feedback(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Pronunciation, err = s.FeedbackDetails(gctx, config.SourcePronunciation)
		return err
	})
	g.Go(func() (err error) {
		d.Suggestion, err = s.FeedbackDetails(gctx, config.SourceSuggestion)
		return err
	})
	if err := g.Wait(); err != nil {
		return report.PersonaData{}, err
	}
	return d, nil
}

// FrequencySummary loads and summarizes the usage export.
func (s *ReportService) FrequencySummary(ctx context.Context) (*analytics.FrequencySummary, error) {
	tiers, err := s.UsageTiers(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.SummarizeFrequency(tiers)
}

// FeedbackSummary loads and groups the feedback export.
func (s *ReportService) FeedbackSummary(ctx context.Context) (*analytics.FeedbackSummary, error) {
	fb, err := s.Feedback(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.SummarizeFeedback(fb), nil
}

// Download is a detail export ready to be re-serialized.
type Download struct {
	Name     string
	FileName string
	Table    *dataset.Table
}

// Download returns the pronunciation or suggestion detail export.
func (s *ReportService) Download(ctx context.Context, name string) (*Download, error) {
	src, ok := downloadSources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDownload, name)
	}
	d, err := s.FeedbackDetails(ctx, src)
	if err != nil {
		return nil, err
	}
	texts := s.Content().Persona.Feedback
	fileName := texts.Pronunciation.FileName
	if name == DownloadSuggestion {
		fileName = texts.Suggestion.FileName
	}
	s.metrics.RecordDownload(ctx, name)
	return &Download{Name: name, FileName: fileName, Table: d.Table}, nil
}

// WriteDownload streams a detail export as CSV with a BOM.
func (s *ReportService) WriteDownload(ctx context.Context, name string, w io.Writer) (*Download, error) {
	d, err := s.Download(ctx, name)
	if err != nil {
		return nil, err
	}
	return d, exporter.WriteTable(w, d.Table)
}

// WorkbookSheets collects every report table.
func (s *ReportService) WorkbookSheets(ctx context.Context) ([]exporter.Sheet, error) {
	freq, err := s.FrequencySummary(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.PersonaData(ctx)
	if err != nil {
		return nil, err
	}
	persona, err := analytics.SummarizePersona(d.Weekday, d.Weekend)
	if err != nil {
		return nil, err
	}
	fb := analytics.SummarizeFeedback(d.Feedback)

	sheets := []exporter.Sheet{
		frequencySheet(freq),
		feedbackSheet(fb),
		{Name: "发音朗读问题", Headers: d.Pronunciation.Table.Headers, Rows: d.Pronunciation.Table.Rows},
		{Name: "产品建议", Headers: d.Suggestion.Table.Headers, Rows: d.Suggestion.Table.Rows},
		shareSheet("年级分布", "年级", persona.Grades),
		shareSheet("内容类型", "内容类型", persona.Content),
		materialSheet(persona.Materials),
	}
	return sheets, nil
}

// SummarySheets returns the usage-tier table and the feedback distribution,
// the two tables mirrored to the shared spreadsheet.
func (s *ReportService) SummarySheets(ctx context.Context) ([]exporter.Sheet, error) {
	freq, err := s.FrequencySummary(ctx)
	if err != nil {
		return nil, err
	}
	fb, err := s.FeedbackSummary(ctx)
	if err != nil {
		return nil, err
	}
	return []exporter.Sheet{frequencySheet(freq), feedbackSheet(fb)}, nil
}

// WriteWorkbook renders every report table into one xlsx document.
func (s *ReportService) WriteWorkbook(ctx context.Context, w io.Writer) error {
	sheets, err := s.WorkbookSheets(ctx)
	if err != nil {
		return err
	}
	s.metrics.RecordDownload(ctx, "workbook")
	return exporter.WriteWorkbook(w, sheets)
}

func frequencySheet(freq *analytics.FrequencySummary) exporter.Sheet {
	// FrequencyRecords leads with the header row
	return exporter.Sheet{Name: "使用频次与留存", Headers: analytics.FrequencyColumns, Rows: analytics.FrequencyRecords(freq.Rows)[1:]}
}

func feedbackSheet(fb *analytics.FeedbackSummary) exporter.Sheet {
	sheet := exporter.Sheet{Name: "反馈分布", Headers: analytics.FeedbackColumns}
	for _, g := range fb.Groups {
		sheet.Rows = append(sheet.Rows, []string{g.Name, strconv.Itoa(g.Count), report.Pct(g.Percent, 2), g.Rating})
	}
	return sheet
}

func shareSheet(name, column string, shares []analytics.Share) exporter.Sheet {
	sheet := exporter.Sheet{Name: name, Headers: []string{column, "数量", "占比"}}
	for _, sh := range shares {
		sheet.Rows = append(sheet.Rows, []string{sh.Label, strconv.Itoa(sh.Count), report.Pct(sh.Percent, 2)})
	}
	return sheet
}

func materialSheet(materials []analytics.MaterialComparison) exporter.Sheet {
	sheet := exporter.Sheet{Name: "材料来源", Headers: []string{"材料来源", "工作日", "周末"}}
	for _, m := range materials {
		sheet.Rows = append(sheet.Rows, []string{m.Label, report.Pct(m.Weekday, 2), report.Pct(m.Weekend, 2)})
	}
	return sheet
}

// ImagePath resolves a registered image key to its file.
func (s *ReportService) ImagePath(key string) (string, error) {
	img, ok := s.Content().Image(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownImage, key)
	}
	path := s.paths.Image(img.File)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrImageNotFound, key)
	}
	return path, nil
}

// ImageExists reports whether a registered image's file is on disk.
func (s *ReportService) ImageExists(key string) bool {
	_, err := s.ImagePath(key)
	return err == nil
}
