package liveness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/AIwolfie/waybackwolf/internal/cache"
	"github.com/AIwolfie/waybackwolf/internal/model"
	"github.com/AIwolfie/waybackwolf/internal/retry"
)

// Checker probes URLs for liveness.
//
// Design decision: We use a struct with the http.Client rather than
// passing the client on each call because:
//  1. Client configuration (timeouts, redirects) should be consistent
//  2. Connection pooling works better with a shared client
//  3. Easier to test with httptest servers
type Checker struct {
	// client is the HTTP client used for probes.
	client *http.Client

	// policy retries transient probe failures.
	policy *retry.Policy

	// store receives fetched bodies for later analysis. Nil disables
	// body caching.
	store *cache.Store

	// analysisExts holds the lowercased extensions whose bodies are
	// worth fetching. Empty disables body fetching.
	analysisExts map[string]struct{}

	// userAgent is the User-Agent header sent on every request.
	userAgent string

	// maxBodySize limits fetched body size to prevent memory exhaustion.
	maxBodySize int64

	logger *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Checker) {
		c.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum fetched body size.
func WithMaxBodySize(size int64) Option {
	return func(c *Checker) {
		c.maxBodySize = size
	}
}

// WithCache enables body caching for URLs whose extension is in the
// analysis set.
func WithCache(store *cache.Store, extensions []string) Option {
	return func(c *Checker) {
		c.store = store
		c.analysisExts = make(map[string]struct{}, len(extensions))
		for _, ext := range extensions {
			c.analysisExts[ext] = struct{}{}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// NewChecker creates a Checker.
//
// Design decision: We require an external http.Client rather than
// creating one internally because:
//  1. Timeout configuration is owned by the caller's config layer
//  2. Allows substituting a test client
//  3. Connection pooling can be shared with the archive resolver
func NewChecker(client *http.Client, policy *retry.Policy, opts ...Option) *Checker {
	c := &Checker{
		client:      client,
		policy:      policy,
		userAgent:   "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0",
		maxBodySize: 5 * 1024 * 1024, // 5MB
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Check probes one URL and returns its result. Exactly one result is
// produced per call regardless of outcome; probe failures are encoded
// in the result's Status rather than returned as errors.
func (c *Checker) Check(ctx context.Context, task model.Task) model.CheckResult {
	result := model.CheckResult{URL: task.URL}
	start := time.Now()

	var finalStatus int
	attempts, err := c.policy.Do(ctx, "liveness probe", func(ctx context.Context) error {
		status, probeErr := c.probe(ctx, task.URL)
		if probeErr != nil {
			return probeErr
		}
		finalStatus = status
		if status >= 400 {
			return &retry.StatusError{Code: status}
		}
		return nil
	})

	result.Latency = time.Since(start)
	result.RetriesUsed = attempts - 1
	if result.RetriesUsed < 0 {
		result.RetriesUsed = 0
	}

	switch {
	case err == nil:
		result.Status = model.StatusAccessible
		result.HTTPCode = finalStatus
	default:
		var statusErr *retry.StatusError
		if errors.As(err, &statusErr) {
			// The server answered; the URL is down, not unreachable.
			result.Status = model.StatusInaccessible
			result.HTTPCode = statusErr.Code
		} else {
			result.Status = model.StatusError
			result.Err = err.Error()
		}
	}

	if result.Status == model.StatusAccessible && c.wantsBody(task) {
		if err := c.fetchAndCache(ctx, task.URL); err != nil {
			// Caching is best effort; the check outcome stands.
			c.logger.Warn("failed to cache body", "url", task.URL, "error", err)
		}
	}

	return result
}

// probe issues a HEAD request and returns the final status code.
// Servers that refuse HEAD (405, 501) get a ranged GET instead.
func (c *Checker) probe(ctx context.Context, rawURL string) (int, error) {
	status, err := c.request(ctx, http.MethodHead, rawURL, false)
	if err != nil {
		return 0, err
	}
	if status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented {
		return c.request(ctx, http.MethodGet, rawURL, true)
	}
	return status, nil
}

// request performs one probe request and drains nothing: bodies are
// closed immediately since only the status matters.
func (c *Checker) request(ctx context.Context, method, rawURL string, ranged bool) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if ranged {
		// One byte is enough to learn the status without the body.
		req.Header.Set("Range", "bytes=0-0")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024)) //nolint:errcheck // drain for connection reuse

	return resp.StatusCode, nil
}

// wantsBody reports whether the task's body should be fetched for
// analysis.
func (c *Checker) wantsBody(task model.Task) bool {
	if c.store == nil || len(c.analysisExts) == 0 {
		return false
	}
	_, ok := c.analysisExts[task.Extension]
	return ok
}

// fetchAndCache downloads the body once and stores it. A prior cache
// hit short-circuits the download.
func (c *Checker) fetchAndCache(ctx context.Context, rawURL string) error {
	if _, ok := c.store.Get(ctx, rawURL); ok {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create fetch request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch body: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("body fetch answered %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	return c.store.Put(ctx, rawURL, body, resp.Header.Get("Content-Type"))
}
