// Package web fetches monitored link pages over HTTP.
package web

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

var _ driven.PageFetcher = (*Fetcher)(nil)

const (
	defaultUserAgent = "lexis-core/1.0 (+link-monitor)"
	defaultTimeout   = 30 * time.Second
	defaultMaxBytes  = 10 << 20
)

// Config configures the fetcher
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// MaxBytes caps the body read; longer pages are truncated
	MaxBytes int64
	Client   *http.Client
}

// Fetcher implements driven.PageFetcher with net/http. Every failure is a
// *domain.ExternalError so the caller can decide whether to retry.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewFetcher creates a new Fetcher
func NewFetcher(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Fetcher{
		client:    cfg.Client,
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBytes,
	}
}

// Fetch GETs url and returns the body with its media type.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*driven.FetchedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewExternalError(domain.KindValidation, "fetch", "invalid request", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, domain.NewExternalError(domain.ClassifyTransportError(err), "fetch", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, domain.NewExternalError(domain.ClassifyHTTPFailure(resp.StatusCode, "", ""), "fetch",
			fmt.Sprintf("%s returned status %d", url, resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, domain.NewExternalError(domain.ClassifyTransportError(err), "fetch", "failed to read body", err)
	}

	return &driven.FetchedPage{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: mediaType(resp.Header.Get("Content-Type")),
		Body:        string(body),
	}, nil
}

// mediaType strips parameters; an absent or malformed header is treated as HTML
func mediaType(header string) string {
	if header == "" {
		return "text/html"
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(header, ";")[0]))
	}
	return mt
}
