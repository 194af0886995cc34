package widget

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SourceKind enumerates where a schema document can be read from.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Source identifies a schema document.
type Source struct {
	Kind     SourceKind
	Location string
}

// FileSource points at a file on disk.
func FileSource(path string) Source {
	return Source{Kind: SourceKindFile, Location: filepath.Clean(path)}
}

// FSSource points at a file inside the loader's fs.FS.
func FSSource(name string) Source {
	return Source{Kind: SourceKindFS, Location: name}
}

// URLSource points at an HTTP(S) endpoint.
func URLSource(raw string) (Source, error) {
	if _, err := url.ParseRequestURI(raw); err != nil {
		return Source{}, fmt.Errorf("widget: invalid url %q: %w", raw, err)
	}
	return Source{Kind: SourceKindURL, Location: raw}, nil
}

// ParseSource picks a URL source for http(s) locations and a file source
// otherwise.
func ParseSource(location string) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return Source{}, errors.New("widget: empty schema location")
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return URLSource(location)
	}
	return FileSource(location), nil
}

// LoadOption configures schema loading.
type LoadOption func(*loadConfig)

type loadConfig struct {
	fs      fs.FS
	client  *http.Client
	timeout time.Duration
}

// WithFileSystem sets the fs.FS used for FS sources.
func WithFileSystem(files fs.FS) LoadOption {
	return func(cfg *loadConfig) {
		cfg.fs = files
	}
}

// WithHTTPClient sets the client used for URL sources.
func WithHTTPClient(client *http.Client) LoadOption {
	return func(cfg *loadConfig) {
		cfg.client = client
	}
}

// WithRequestTimeout bounds URL fetches.
func WithRequestTimeout(timeout time.Duration) LoadOption {
	return func(cfg *loadConfig) {
		cfg.timeout = timeout
	}
}

// ReadSource returns the raw bytes for src.
func ReadSource(ctx context.Context, src Source, options ...LoadOption) ([]byte, error) {
	cfg := loadConfig{timeout: 10 * time.Second}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.Location == "" {
		return nil, errors.New("widget: source location is required")
	}

	switch src.Kind {
	case SourceKindFile:
		return os.ReadFile(src.Location)
	case SourceKindFS:
		if cfg.fs == nil {
			return nil, errors.New("widget: fs source without a file system")
		}
		return fs.ReadFile(cfg.fs, src.Location)
	case SourceKindURL:
		client := cfg.client
		if client == nil {
			client = http.DefaultClient
		}
		return readURL(ctx, client, src.Location, cfg.timeout)
	default:
		return nil, fmt.Errorf("widget: unsupported source kind %q", src.Kind)
	}
}

func readURL(ctx context.Context, client *http.Client, location string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("widget: unexpected status " + resp.Status)
	}
	return io.ReadAll(resp.Body)
}
