package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"ptanalysis/internal/config"
	"ptanalysis/internal/infrastructure"
	"ptanalysis/internal/report"
	"ptanalysis/internal/websocket"
)

// SourceImages names image changes in data updates.
const SourceImages = "images"

const minTick = 10 * time.Millisecond

// ErrAlreadyStarted is returned by a second Start.
var ErrAlreadyStarted = errors.New("watcher already started")

// Invalidator drops cached copies of a file.
type Invalidator interface {
	Invalidate(ctx context.Context, path, reason string) bool
	InvalidateAll(ctx context.Context, reason string) int
}

// Notifier tells open pages to reload.
type Notifier interface {
	BroadcastDataUpdate(ctx context.Context, update websocket.DataUpdate)
}

// Stats counts what the watcher has seen.
type Stats struct {
	Events        int       `json:"events"`
	Flushes       int       `json:"flushes"`
	Invalidations int       `json:"invalidations"`
	Errors        int       `json:"errors"`
	Watched       []string  `json:"watched"`
	LastEventTime time.Time `json:"last_event_time,omitempty"`
	LastEventPath string    `json:"last_event_path,omitempty"`
	LastEventType string    `json:"last_event_type,omitempty"`
}

// Watcher turns file system events under the data and image directories
// into cache invalidations and live-reload broadcasts. Bursts of events on
// the same file are collapsed until the file has been quiet for the
// debounce interval.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	paths    *config.Paths
	cache    Invalidator
	notifier Notifier
	logger   *slog.Logger

	debounce time.Duration
	pending  map[string]time.Time
	stats    Stats

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// New creates a watcher. Nothing is watched until Start.
func New(paths *config.Paths, cache Invalidator, notifier Notifier, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if debounce <= 0 {
		debounce = config.DefaultWatchDebounce
	}
	return &Watcher{
		fsw:      fsw,
		paths:    paths,
		cache:    cache,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "data_watcher")),
		debounce: debounce,
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start watches every data directory plus the image sub-directories that
// exist. Missing directories are logged and skipped.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.directories() {
		if err := w.fsw.Add(dir); err != nil {
			w.logger.WarnContext(ctx, "Cannot watch directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
			continue
		}
		w.mu.Lock()
		w.stats.Watched = append(w.stats.Watched, dir)
		w.mu.Unlock()
		w.logger.InfoContext(ctx, "Watching directory", slog.String("dir", dir))
	}

	go w.run(ctx)
	return nil
}

func (w *Watcher) directories() []string {
	dirs := w.paths.Watched()
	entries, err := os.ReadDir(w.paths.ImagesDir)
	if err != nil {
		return dirs
	}
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(w.paths.ImagesDir, e.Name()))
		}
	}
	return dirs
}

// Stop ends the event loop and releases the OS watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.fsw.Close()
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	return w.fsw.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounce / 5
	if tick < minTick {
		tick = minTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.ErrorContext(ctx, "File watcher error", slog.String("error", err.Error()))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.overflow(ctx)
			}

		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "modify"
	case op.Has(fsnotify.Remove):
		return "delete"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return ""
	}
}

func (w *Watcher) relevant(path string) bool {
	if _, ok := w.paths.SourceFor(path); ok {
		return true
	}
	return w.isImage(path)
}

func (w *Watcher) isImage(path string) bool {
	rel, err := filepath.Rel(w.paths.ImagesDir, filepath.Clean(path))
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	kind := opName(event.Op)
	if kind == "" || !w.relevant(event.Name) {
		return
	}
	w.logger.DebugContext(ctx, "File event",
		slog.String("path", event.Name),
		slog.String("event", kind))

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.Events++
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.stats.LastEventType = kind
	w.pending[filepath.Clean(event.Name)] = time.Now()
}

// flush handles every pending path that has been quiet for the debounce
// interval: it drops cached copies and sends one data update.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	w.mu.Lock()
	var ready []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()
	if len(ready) == 0 {
		return
	}
	sort.Strings(ready)

	ctx = infrastructure.EnsureTraceID(ctx)
	sources := make(map[string]bool)
	pages := make(map[string]bool)
	invalidated := 0
	for _, path := range ready {
		if src, ok := w.paths.SourceFor(path); ok {
			sources[string(src)] = true
			for _, p := range PagesFor(src) {
				pages[p] = true
			}
			if w.cache != nil && w.cache.Invalidate(ctx, path, "file_changed") {
				invalidated++
			}
			continue
		}
		sources[SourceImages] = true
		pages[report.SlugPersona] = true
		pages[report.SlugCompetitors] = true
	}

	w.mu.Lock()
	w.stats.Flushes++
	w.stats.Invalidations += invalidated
	w.mu.Unlock()

	update := websocket.DataUpdate{
		Reason:  "file_changed",
		Sources: sortedKeys(sources),
		Pages:   sortedKeys(pages),
		Files:   ready,
	}
	w.logger.InfoContext(ctx, "Data files changed",
		slog.Any("sources", update.Sources),
		slog.Int("invalidated", invalidated))
	if w.notifier != nil {
		w.notifier.BroadcastDataUpdate(ctx, update)
	}
}

// overflow handles lost events: nothing is known about which files changed,
// so every cached file is dropped and every page reloads.
func (w *Watcher) overflow(ctx context.Context) {
	ctx = infrastructure.EnsureTraceID(ctx)
	invalidated := 0
	if w.cache != nil {
		invalidated = w.cache.InvalidateAll(ctx, "event_overflow")
	}

	w.mu.Lock()
	clear(w.pending)
	w.stats.Flushes++
	w.stats.Invalidations += invalidated
	w.mu.Unlock()

	w.logger.WarnContext(ctx, "File events lost, reloading everything",
		slog.Int("invalidated", invalidated))
	if w.notifier != nil {
		w.notifier.BroadcastDataUpdate(ctx, websocket.DataUpdate{
			Reason: "event_overflow",
			Pages:  append([]string(nil), report.Slugs...),
		})
	}
}

// Stats returns a copy of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.stats
	s.Watched = append([]string(nil), w.stats.Watched...)
	return s
}

// PagesFor lists the pages that render a source.
func PagesFor(src config.Source) []string {
	switch src {
	case config.SourceUsage:
		return []string{report.SlugFrequency}
	case config.SourceWeekdayLabels, config.SourceWeekendLabels,
		config.SourceFeedback, config.SourcePronunciation, config.SourceSuggestion:
		return []string{report.SlugPersona}
	default:
		return nil
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
