package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tex2html "github.com/alnah/go-tex2html"
	"github.com/alnah/go-tex2html/internal/config"
)

// ---------------------------------------------------------------------------
// Test Infrastructure
// ---------------------------------------------------------------------------

var fixedNow = func() time.Time { return time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC) }

// mockConverter records sources and returns a canned result or error.
type mockConverter struct {
	mu      sync.Mutex
	sources []string
	result  *tex2html.ConvertResult
	err     error
}

func (m *mockConverter) Convert(_ context.Context, source string) (*tex2html.ConvertResult, error) {
	m.mu.Lock()
	m.sources = append(m.sources, source)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &tex2html.ConvertResult{HTML: "<p>" + source + "</p>"}, nil
}

func (m *mockConverter) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

// testEnv returns an Environment writing to buffers.
func testEnv() (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Environment{Now: fixedNow, Stdout: &stdout, Stderr: &stderr}, &stdout, &stderr
}

// mockParams returns batch parameters backed by conv.
func mockParams(conv Converter, format string) *conversionParams {
	return &conversionParams{
		format:  format,
		workers: 2,
		logger:  slog.New(slog.DiscardHandler),
		newConverter: func(*slog.Logger) (Converter, error) {
			return conv, nil
		},
	}
}

// realParams returns batch parameters backed by a real converter.
func realParams(format string) *conversionParams {
	return &conversionParams{
		format:       format,
		workers:      2,
		logger:       slog.New(slog.DiscardHandler),
		newConverter: newConverterFactory(config.DefaultConfig(), fixedNow),
	}
}

// setupTestDir creates a temp directory with the given file structure.
// Files map paths to content. Returns the temp directory path.
func setupTestDir(t *testing.T, files map[string]string) string {
	t.Helper()
	tempDir := t.TempDir()

	for path, content := range files {
		fullPath := filepath.Join(tempDir, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
			t.Fatalf("failed to create dir for %s: %v", path, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}

	return tempDir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
