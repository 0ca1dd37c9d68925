package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Source identifies one CSV export consumed by the dashboard.
type Source string

const (
	SourceUsage         Source = "usage"
	SourceWeekdayLabels Source = "weekday_labels"
	SourceWeekendLabels Source = "weekend_labels"
	SourceFeedback      Source = "feedback"
	SourcePronunciation Source = "pronunciation"
	SourceSuggestion    Source = "suggestion"
)

// AllSources lists every source in page order.
var AllSources = []Source{
	SourceUsage,
	SourceWeekdayLabels,
	SourceWeekendLabels,
	SourceFeedback,
	SourcePronunciation,
	SourceSuggestion,
}

// Paths is the single source of truth for every file the dashboard reads.
type Paths struct {
	DataDir   string
	ImagesDir string
	files     map[Source]string
}

// ResolvePaths makes every configured path absolute. Relative data and
// image directories are resolved against the working directory, relative
// file names against the data directory.
func ResolvePaths(cfg DataConfig) (*Paths, error) {
	dataDir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir %s: %w", cfg.Dir, err)
	}
	imagesDir, err := filepath.Abs(cfg.ImagesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve images dir %s: %w", cfg.ImagesDir, err)
	}

	p := &Paths{
		DataDir:   dataDir,
		ImagesDir: imagesDir,
		files:     make(map[Source]string, len(AllSources)),
	}
	names := map[Source]string{
		SourceUsage:         cfg.UsageFile,
		SourceWeekdayLabels: cfg.WeekdayLabelsFile,
		SourceWeekendLabels: cfg.WeekendLabelsFile,
		SourceFeedback:      cfg.FeedbackFile,
		SourcePronunciation: cfg.PronunciationFile,
		SourceSuggestion:    cfg.SuggestionFile,
	}
	for src, name := range names {
		if filepath.IsAbs(name) {
			p.files[src] = filepath.Clean(name)
			continue
		}
		p.files[src] = filepath.Join(dataDir, name)
	}
	return p, nil
}

// File returns the absolute path of a source, or "" when unknown.
func (p *Paths) File(src Source) string {
	return p.files[src]
}

// Image returns the absolute path of an image inside ImagesDir. The name may
// contain sub-directories; it is rooted before joining so it never escapes.
func (p *Paths) Image(name string) string {
	return filepath.Join(p.ImagesDir, filepath.Clean(string(filepath.Separator)+name))
}

// Watched returns the distinct directories holding data files and images.
func (p *Paths) Watched() []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	add(p.DataDir)
	for _, src := range AllSources {
		add(filepath.Dir(p.files[src]))
	}
	add(p.ImagesDir)
	return dirs
}

// SourceFor maps an absolute file path back to its source.
func (p *Paths) SourceFor(path string) (Source, bool) {
	clean := filepath.Clean(path)
	for _, src := range AllSources {
		if p.files[src] == clean {
			return src, true
		}
	}
	return "", false
}

// Missing returns the sources whose files do not exist.
func (p *Paths) Missing() []Source {
	var missing []Source
	for _, src := range AllSources {
		if _, err := os.Stat(p.files[src]); err != nil {
			missing = append(missing, src)
		}
	}
	return missing
}

// LogPathResolution writes the resolved layout at debug level.
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	attrs := []any{
		slog.String("data_dir", p.DataDir),
		slog.String("images_dir", p.ImagesDir),
	}
	for _, src := range AllSources {
		attrs = append(attrs, slog.String(string(src), p.files[src]))
	}
	logger.Debug("Resolved data paths", attrs...)
}
