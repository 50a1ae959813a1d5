package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/karust/gogetcrawl/common"
	"github.com/karust/gogetcrawl/wayback"

	"github.com/AIwolfie/waybackwolf/internal/cache"
	"github.com/AIwolfie/waybackwolf/internal/model"
	"github.com/AIwolfie/waybackwolf/internal/retry"
)

// cdxLimit bounds how many captures one lookup requests. Only the most
// recent successful capture matters, but asking for a few tolerates
// trailing captures with non-200 codes slipping past the filter.
const cdxLimit = 10

// replayURLFormat builds a Wayback replay URL from a capture timestamp
// and the original URL.
const replayURLFormat = "https://web.archive.org/web/%s/%s"

// Source answers CDX index queries and serves capture bodies. The live
// implementation is gogetcrawl's wayback client; tests substitute stubs.
type Source interface {
	GetPages(cfg common.RequestConfig) ([]*common.CdxResponse, error)
	GetFile(page *common.CdxResponse) ([]byte, error)
}

// Resolver looks up dead URLs in the Wayback Machine.
type Resolver struct {
	source Source
	policy *retry.Policy

	// store receives capture bodies for later analysis. Nil disables
	// body caching.
	store *cache.Store

	// analysisExts holds the lowercased extensions whose capture
	// bodies are worth downloading.
	analysisExts map[string]struct{}

	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSource replaces the live Wayback client.
func WithSource(source Source) Option {
	return func(r *Resolver) {
		r.source = source
	}
}

// WithCache enables capture-body caching for URLs whose extension is
// in the analysis set.
func WithCache(store *cache.Store, extensions []string) Option {
	return func(r *Resolver) {
		r.store = store
		r.analysisExts = make(map[string]struct{}, len(extensions))
		for _, ext := range extensions {
			r.analysisExts[ext] = struct{}{}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver backed by the live Wayback Machine
// unless a source override is given. The timeout and retry count apply
// to the CDX client's own HTTP layer.
func NewResolver(timeout time.Duration, retries int, policy *retry.Policy, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		policy: policy,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.source == nil {
		wb, err := wayback.New(int(timeout.Seconds()), retries)
		if err != nil {
			return nil, fmt.Errorf("failed to create wayback client: %w", err)
		}
		r.source = wb
	}

	return r, nil
}

// Resolve looks up the most recent successful capture of a dead URL.
// A miss is reported through Found, never as an error; errors mean the
// archive itself could not be queried.
func (r *Resolver) Resolve(ctx context.Context, task model.Task) (model.SnapshotResult, error) {
	result := model.SnapshotResult{URL: task.URL}

	cfg := common.RequestConfig{
		URL:     task.URL,
		Filters: []string{"statuscode:200"},
		Limit:   cdxLimit,
	}

	var pages []*common.CdxResponse
	_, err := r.policy.Do(ctx, "wayback lookup", func(context.Context) error {
		var opErr error
		pages, opErr = r.source.GetPages(cfg)
		return opErr
	})
	if err != nil {
		return result, fmt.Errorf("wayback lookup for %s failed: %w", task.URL, err)
	}

	capture := newestCapture(pages)
	if capture == nil {
		return result, nil
	}

	result.Found = true
	result.SnapshotTimestamp = capture.Timestamp
	result.SnapshotURL = fmt.Sprintf(replayURLFormat, capture.Timestamp, capture.Original)

	if r.wantsBody(task) {
		if err := r.fetchAndCache(ctx, task, capture); err != nil {
			// Caching is best effort; the snapshot stands.
			r.logger.Warn("failed to cache capture body", "url", task.URL, "error", err)
		}
	}

	return result, nil
}

// newestCapture picks the capture with the latest timestamp. CDX
// results arrive oldest first, but ordering is not contractual, so the
// maximum is taken explicitly. The 14-digit timestamp format compares
// correctly as a string.
func newestCapture(pages []*common.CdxResponse) *common.CdxResponse {
	var newest *common.CdxResponse
	for _, page := range pages {
		if page == nil {
			continue
		}
		if newest == nil || page.Timestamp > newest.Timestamp {
			newest = page
		}
	}
	return newest
}

// wantsBody reports whether the capture's body should be downloaded
// for analysis.
func (r *Resolver) wantsBody(task model.Task) bool {
	if r.store == nil || len(r.analysisExts) == 0 {
		return false
	}
	_, ok := r.analysisExts[task.Extension]
	return ok
}

// fetchAndCache downloads the capture body and stores it under the
// original URL. A prior cache hit short-circuits the download.
func (r *Resolver) fetchAndCache(ctx context.Context, task model.Task, capture *common.CdxResponse) error {
	if _, ok := r.store.Get(ctx, task.URL); ok {
		return nil
	}

	var body []byte
	_, err := r.policy.Do(ctx, "wayback fetch", func(context.Context) error {
		var opErr error
		body, opErr = r.source.GetFile(capture)
		return opErr
	})
	if err != nil {
		return fmt.Errorf("failed to download capture: %w", err)
	}

	return r.store.Put(ctx, task.URL, body, capture.MimeType)
}
