package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tsawler/pdfgraph/source"
)

func TestParse(t *testing.T) {
	t.Setenv("PDFGRAPH_TEST_PASSWORD", "s3cret")

	cfg, err := Parse([]byte(`
source: https://example.com/report.pdf
password: ${PDFGRAPH_TEST_PASSWORD}
pages: [2, 1]
normalize_ids: true
collect_garbage: true
revive_contents: true
compress_content: true
allow_local_access: true
http:
  timeout: 10s
  max_bytes: 1024
log:
  level: debug
  format: json
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Source != "https://example.com/report.pdf" {
		t.Errorf("Source = %q", cfg.Source)
	}
	if cfg.Password != "s3cret" {
		t.Errorf("Password = %q, want expanded value", cfg.Password)
	}
	if len(cfg.Pages) != 2 || cfg.Pages[0] != 2 || cfg.Pages[1] != 1 {
		t.Errorf("Pages = %v", cfg.Pages)
	}
	if !cfg.NormalizeIDs || !cfg.CollectGarbage || !cfg.ReviveContents || !cfg.CompressContent || !cfg.AllowLocalAccess {
		t.Errorf("flags not all set: %+v", cfg)
	}
	if cfg.HTTP.Timeout != 10*time.Second || cfg.HTTP.MaxBytes != 1024 {
		t.Errorf("HTTP = %+v", cfg.HTTP)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse([]byte("source: doc.pdf\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.HTTP.Timeout != source.DefaultTimeout || cfg.HTTP.MaxBytes != source.DefaultMaxBytes {
		t.Errorf("HTTP defaults = %+v", cfg.HTTP)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log defaults = %+v", cfg.Log)
	}
	if cfg.AllowLocalAccess {
		t.Errorf("local access should be off by default")
	}
}

func TestBareDollarKept(t *testing.T) {
	cfg, err := Parse([]byte("password: pa$$word\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Password != "pa$$word" {
		t.Errorf("Password = %q", cfg.Password)
	}
}

func TestExpandedValuesAreNotParsed(t *testing.T) {
	t.Setenv("PDFGRAPH_TEST_PASSWORD", "a#b: c\nd")
	t.Setenv("PDFGRAPH_TEST_LIMIT", "2048")
	t.Setenv("PDFGRAPH_TEST_NULL", "null")

	cfg, err := Parse([]byte(`
password: ${PDFGRAPH_TEST_PASSWORD}
source: ${PDFGRAPH_TEST_NULL}
http:
  max_bytes: ${PDFGRAPH_TEST_LIMIT}
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Password != "a#b: c\nd" {
		t.Errorf("Password = %q", cfg.Password)
	}
	if cfg.Source != "null" {
		t.Errorf("Source = %q", cfg.Source)
	}
	if cfg.HTTP.MaxBytes != 2048 {
		t.Errorf("MaxBytes = %d", cfg.HTTP.MaxBytes)
	}
}

func TestEmptyConfig(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{"zero page", "pages: [1, 0]", "invalid page number 0"},
		{"level", "log:\n  level: loud", "unknown log level"},
		{"format", "log:\n  format: xml", "unknown log format"},
		{"timeout", "http:\n  timeout: -1s", "http.timeout"},
		{"yaml", "pages: [", "failed to parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error = %v, want it to contain %q", err, tt.msg)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("source: a.pdf\npages: [3]\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Source != "a.pdf" || len(cfg.Pages) != 1 {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.New(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "pages", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"pages":2`) {
		t.Errorf("unexpected JSON log output: %s", out)
	}
}

func TestLoader(t *testing.T) {
	cfg := Default()
	cfg.AllowLocalAccess = true
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.HTTP.MaxBytes = 99

	l := cfg.Loader(nil)
	if !l.File.AllowLocal {
		t.Errorf("local access not passed on")
	}
	if l.HTTP.Timeout != 5*time.Second || l.HTTP.MaxBytes != 99 {
		t.Errorf("HTTP loader = %+v", l.HTTP)
	}
}
