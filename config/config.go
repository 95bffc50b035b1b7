package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/pdfgraph/source"
)

// Config describes one processing run
type Config struct {
	// Source is a path or an http(s) URL
	Source   string `yaml:"source"`
	Password string `yaml:"password"`

	// Pages keeps only these 1-based pages, in this order
	Pages []int `yaml:"pages"`

	NormalizeIDs     bool `yaml:"normalize_ids"`
	CollectGarbage   bool `yaml:"collect_garbage"`
	ReviveContents   bool `yaml:"revive_contents"`
	CompressContent  bool `yaml:"compress_content"`
	AllowLocalAccess bool `yaml:"allow_local_access"`

	HTTP HTTPConfig `yaml:"http"`
	Log  LogConfig  `yaml:"log"`
}

// HTTPConfig bounds remote fetches
type HTTPConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	MaxBytes int64         `yaml:"max_bytes"`
}

// LogConfig selects the log level and the handler format ("text" or "json")
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used for keys a file leaves out
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:  source.DefaultTimeout,
			MaxBytes: source.DefaultMaxBytes,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse reads YAML configuration. ${VAR} references in scalar values are
// replaced by the environment after the document is parsed, so the
// substituted text is never read as YAML; unset variables become empty.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	expandEnv(&root)
	if len(root.Content) > 0 {
		if err := root.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv rewrites scalar values in place. Only the ${VAR} form is
// touched, so a bare '$' in a password stays as written.
func expandEnv(node *yaml.Node) {
	if node.Kind == yaml.ScalarNode && strings.Contains(node.Value, "${") {
		node.Value = envRef.ReplaceAllStringFunc(node.Value, func(m string) string {
			return os.Getenv(m[2 : len(m)-1])
		})
		// Plain scalars are typed again from the substituted text, so
		// max_bytes: ${LIMIT} still decodes as a number
		if node.Style == 0 {
			node.Tag = ""
			if node.Value != "" && node.ShortTag() == "!!null" {
				node.Tag = "!!str"
			}
		}
		return
	}
	for _, child := range node.Content {
		expandEnv(child)
	}
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Validate checks values the YAML types cannot express
func (c *Config) Validate() error {
	for _, n := range c.Pages {
		if n < 1 {
			return fmt.Errorf("invalid page number %d: pages start at 1", n)
		}
	}
	if _, ok := levels[strings.ToLower(c.Log.Level)]; !ok {
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative")
	}
	if c.HTTP.MaxBytes < 0 {
		return fmt.Errorf("http.max_bytes must not be negative")
	}
	return nil
}

// Logger returns a logger writing to stderr
func (c *Config) Logger() *slog.Logger {
	return c.Log.New(os.Stderr)
}

// New returns a logger writing to w with the configured level and format
func (l LogConfig) New(w io.Writer) *slog.Logger {
	level, ok := levels[strings.ToLower(l.Level)]
	if !ok {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Loader builds the byte source for Source with the access and HTTP
// settings applied.
func (c *Config) Loader(logger *slog.Logger) *source.Auto {
	a := source.NewAuto(c.AllowLocalAccess, logger)
	if c.HTTP.Timeout > 0 {
		a.HTTP.Timeout = c.HTTP.Timeout
	}
	if c.HTTP.MaxBytes > 0 {
		a.HTTP.MaxBytes = c.HTTP.MaxBytes
	}
	return a
}
