package snapshot

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptanalysis/internal/config"
	"ptanalysis/internal/shared/testutil"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		target string
		ok     bool
	}{
		{"http://127.0.0.1:8501/pages/frequency", true},
		{"https://dashboard.example.com/", true},
		{"file:///etc/passwd", false},
		{"/pages/frequency", false},
		{"http://", false},
		{"://broken", false},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			err := ValidateURL(tt.target)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidURL)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	at := time.Date(2025, 10, 3, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "persona-20251003.pdf", FileName("persona", at))
}

func TestPDFRejectsInvalidURL(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	p := New(config.Default().Snapshot, logger)

	_, err := p.PDF(context.Background(), "ftp://example.com/report")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func findChrome(t *testing.T) string {
	t.Helper()
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("no Chrome or Chromium on PATH")
	return ""
}

func TestWriteFile(t *testing.T) {
	chrome := findChrome(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<!doctype html><html><body><main class="content"><h1>使用频次与留存</h1></main></body></html>`))
	}))
	defer srv.Close()

	cfg := config.Default().Snapshot
	cfg.ChromePath = chrome
	cfg.Timeout = 30 * time.Second
	logger, _ := testutil.NewTestLogger(t)

	out := filepath.Join(t.TempDir(), FileName("frequency", time.Now()))
	require.NoError(t, New(cfg, logger).WriteFile(context.Background(), srv.URL+"/pages/frequency", out))

	pdf, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}
