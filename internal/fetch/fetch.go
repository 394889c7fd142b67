// Package fetch retrieves shape descriptions from local files or network
// endpoints.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/splint/internal/document"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "splint (+https://github.com/gnolang/splint)"

// maxBodySize caps how much of a response is read.
const maxBodySize = 32 << 20

// Error represents a failure to retrieve a shape description.
type Error struct {
	Location string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.Location, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.Location, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Fetcher retrieves shape descriptions. It keeps no cache: every call
// performs a fresh read or request.
type Fetcher struct {
	client *http.Client
	opts   *Options
	logger *zap.Logger
}

// New creates a Fetcher. A nil logger or nil options fall back to defaults.
func New(logger *zap.Logger, opts *Options) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Fetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
		logger: logger,
	}
}

// IsRemote reports whether location names a network endpoint rather than
// a local path.
func IsRemote(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	}
	return false
}

// Fetch retrieves the shape description at location.
func (f *Fetcher) Fetch(ctx context.Context, location string) (any, error) {
	if IsRemote(location) {
		return f.Remote(ctx, location)
	}
	return f.Local(location)
}

// Remote retrieves a JSON shape description with a single GET request.
func (f *Fetcher) Remote(ctx context.Context, location string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, &Error{Location: location, Message: "invalid request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.opts.UserAgent)
	for k, v := range f.opts.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{Location: location, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	f.logger.Debug("fetched remote schema",
		zap.String("url", location),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &Error{Location: location, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &Error{Location: location, Message: "failed to read response", Cause: err}
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return nil, &Error{Location: location, Message: "malformed response", Cause: err}
	}
	return value, nil
}

// Local reads a shape description from a JSON or YAML file.
func (f *Fetcher) Local(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Location: path, Message: "failed to read schema", Cause: err}
	}

	var value any
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, &Error{Location: path, Message: "malformed schema", Cause: err}
	}
	if value == nil {
		return nil, &Error{Location: path, Message: "empty schema"}
	}

	f.logger.Debug("read local schema", zap.String("path", path))
	return document.Normalize(value), nil
}
