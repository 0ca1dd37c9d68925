package charts

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	chart "github.com/wcharczuk/go-chart/v2"
)

// fontCandidates are TrueType files with CJK glyphs, tried in order when no
// font file is configured. Collections (.ttc) and CFF fonts cannot be parsed.
var fontCandidates = []string{
	"/usr/share/fonts/truetype/droid/DroidSansFallbackFull.ttf",
	"/usr/share/fonts/truetype/droid/DroidSansFallback.ttf",
	"/usr/share/fonts/truetype/arphic-gkai00mp/gkai00mp.ttf",
	"/Library/Fonts/Arial Unicode.ttf",
	"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
	`C:\Windows\Fonts\simhei.ttf`,
	`C:\Windows\Fonts\simkai.ttf`,
	`C:\Windows\Fonts\simfang.ttf`,
}

var (
	fontMu   sync.RWMutex
	textFont *truetype.Font
)

// LoadFont parses the TrueType file at path.
func LoadFont(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}

// UseFont sets the font every chart measures and labels text with. Nil
// restores go-chart's built-in Roboto, which has no CJK glyphs.
func UseFont(f *truetype.Font) {
	fontMu.Lock()
	textFont = f
	fontMu.Unlock()
}

// SetupFont installs the configured font file, or the first readable
// candidate when path is empty. It returns the file in use, or "" when the
// charts fall back to Roboto.
func SetupFont(path string, logger *slog.Logger) (string, error) {
	if path != "" {
		f, err := LoadFont(path)
		if err != nil {
			return "", err
		}
		UseFont(f)
		logger.Info("Chart font loaded", slog.String("path", path))
		return path, nil
	}

	for _, candidate := range fontCandidates {
		f, err := LoadFont(candidate)
		if err != nil {
			continue
		}
		UseFont(f)
		logger.Info("Chart font loaded", slog.String("path", candidate))
		return candidate, nil
	}
	logger.Warn("No CJK font found, chart labels are measured with Roboto",
		slog.Int("candidates", len(fontCandidates)))
	return "", nil
}

func currentFont() *truetype.Font {
	fontMu.RLock()
	f := textFont
	fontMu.RUnlock()
	if f != nil {
		return f
	}
	f, err := chart.GetDefaultFont()
	if err != nil {
		return nil
	}
	return f
}
