package source

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/idna"

	"github.com/tsawler/pdfgraph/core"
)

const (
	// DefaultTimeout bounds one HTTP fetch
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBytes is the largest document the HTTP loader accepts
	DefaultMaxBytes = 64 << 20
)

var (
	// ErrLocalAccessDenied is returned when a file is requested while
	// local access is off.
	ErrLocalAccessDenied = errors.New("local file access is not allowed")

	// ErrTooLarge is returned when a response exceeds the size limit
	ErrTooLarge = errors.New("document exceeds size limit")

	// ErrUnsupportedScheme is returned for URLs other than http and https
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)

// Loader fetches the complete bytes of a document
type Loader interface {
	Load(ctx context.Context, location string) ([]byte, error)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// FileLoader reads documents from the local file system. Access is off
// unless AllowLocal is set, so a service taking locations from users
// cannot be made to read its own files.
type FileLoader struct {
	AllowLocal bool
	Logger     *slog.Logger
}

// Load reads a path or a file:// URL
func (l *FileLoader) Load(ctx context.Context, location string) ([]byte, error) {
	if !l.AllowLocal {
		return nil, &core.IOError{Location: location, Err: errors.WithStack(ErrLocalAccessDenied)}
	}
	if err := ctx.Err(); err != nil {
		return nil, &core.IOError{Location: location, Err: errors.WithStack(err)}
	}

	path := strings.TrimPrefix(location, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &core.IOError{Location: location, Err: errors.Wrap(err, "failed to read file")}
	}
	logger := l.Logger
	if logger == nil {
		logger = discardLogger()
	}
	logger.Debug("read document", "path", path, "bytes", len(data))
	return data, nil
}

// HTTPLoader fetches documents over HTTP(S). Host names are converted to
// their ASCII form before the request is made.
type HTTPLoader struct {
	Client   *http.Client
	Timeout  time.Duration
	MaxBytes int64
	Logger   *slog.Logger
}

// NewHTTPLoader creates a loader with the default timeout and size limit
func NewHTTPLoader() *HTTPLoader {
	return &HTTPLoader{
		Client:   http.DefaultClient,
		Timeout:  DefaultTimeout,
		MaxBytes: DefaultMaxBytes,
	}
}

// Load fetches location and returns the body
func (l *HTTPLoader) Load(ctx context.Context, location string) ([]byte, error) {
	target, err := normalizeURL(location)
	if err != nil {
		return nil, &core.IOError{Location: location, Err: err}
	}

	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &core.IOError{Location: location, Err: errors.Wrap(err, "failed to create request")}
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &core.IOError{Location: location, Err: errors.Wrap(err, "request failed")}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &core.IOError{Location: location, Err: errors.Errorf("unexpected status %d", resp.StatusCode)}
	}

	limit := l.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &core.IOError{Location: location, Err: errors.Wrap(err, "failed to read response")}
	}
	if int64(len(data)) > limit {
		return nil, &core.IOError{Location: location, Err: errors.Wrapf(ErrTooLarge, "more than %d bytes", limit)}
	}

	logger := l.Logger
	if logger == nil {
		logger = discardLogger()
	}
	logger.Debug("fetched document", "url", target, "status", resp.StatusCode, "bytes", len(data))
	return data, nil
}

// normalizeURL checks the scheme and converts the host to ASCII
func normalizeURL(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", errors.Wrap(err, "invalid URL")
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return "", errors.Wrapf(ErrUnsupportedScheme, "%q", u.Scheme)
	}
	host, err := asciiHost(u.Host)
	if err != nil {
		return "", err
	}
	u.Host = host
	return u.String(), nil
}

func asciiHost(hostport string) (string, error) {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = hostport, ""
	}
	if strings.HasPrefix(host, "[") || net.ParseIP(host) != nil {
		return hostport, nil
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", errors.Wrapf(err, "invalid host %q", host)
	}
	if port != "" {
		return net.JoinHostPort(ascii, port), nil
	}
	return ascii, nil
}

// Auto sends URLs to the HTTP loader and everything else to the file
// loader.
type Auto struct {
	File *FileLoader
	HTTP *HTTPLoader
}

// NewAuto creates an Auto loader. Local files are only readable when
// allowLocal is true.
func NewAuto(allowLocal bool, logger *slog.Logger) *Auto {
	h := NewHTTPLoader()
	h.Logger = logger
	return &Auto{
		File: &FileLoader{AllowLocal: allowLocal, Logger: logger},
		HTTP: h,
	}
}

// Load dispatches on the presence of "://" in location
func (a *Auto) Load(ctx context.Context, location string) ([]byte, error) {
	if strings.Contains(location, "://") && !strings.HasPrefix(location, "file://") {
		if a.HTTP == nil {
			return nil, &core.IOError{Location: location, Err: errors.New("no HTTP loader configured")}
		}
		return a.HTTP.Load(ctx, location)
	}
	if a.File == nil {
		return nil, &core.IOError{Location: location, Err: errors.WithStack(ErrLocalAccessDenied)}
	}
	return a.File.Load(ctx, location)
}
