package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driving"
	"github.com/custodia-labs/lexis-core/internal/normalisers"
)

// Verify interface compliance
var _ driving.LinkService = (*LinkManager)(nil)

// LinkManager materializes monitored web pages into LINK resources and
// keeps them fresh.
type LinkManager struct {
	links           driven.LinkStore
	resources       driven.ResourceStore
	fetcher         driven.PageFetcher
	normalisers     driven.NormaliserRegistry
	ingestor        *Ingestor
	taskQueue       driven.TaskQueue
	fetchAttempts   int
	fetchBackoff    time.Duration
	refreshInterval time.Duration
	logger          *slog.Logger
}

// LinkManagerConfig holds dependencies for the LinkManager.
type LinkManagerConfig struct {
	Links           driven.LinkStore
	Resources       driven.ResourceStore
	Fetcher         driven.PageFetcher
	Normalisers     driven.NormaliserRegistry
	Ingestor        *Ingestor
	TaskQueue       driven.TaskQueue // Optional: required only for EnqueueStaleLinks
	FetchAttempts   int              // Fetch attempts per refresh (default: 3)
	FetchBackoff    time.Duration    // Delay before the first retry, doubled each time (default: 2s)
	RefreshInterval time.Duration    // Age after which a link is stale (default: 24h)
	Logger          *slog.Logger
}

// NewLinkManager creates a new LinkManager.
func NewLinkManager(cfg LinkManagerConfig) *LinkManager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attempts := cfg.FetchAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := cfg.FetchBackoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	registry := cfg.Normalisers
	if registry == nil {
		registry = normalisers.DefaultRegistry()
	}
	return &LinkManager{
		links:           cfg.Links,
		resources:       cfg.Resources,
		fetcher:         cfg.Fetcher,
		normalisers:     registry,
		ingestor:        cfg.Ingestor,
		taskQueue:       cfg.TaskQueue,
		fetchAttempts:   attempts,
		fetchBackoff:    backoff,
		refreshInterval: interval,
		logger:          logger,
	}
}

// CreateLink registers a URL and materializes it immediately.
// The link is kept even when the first fetch fails; the next refresh retries it.
func (m *LinkManager) CreateLink(ctx context.Context, in driving.LinkInput) *domain.IngestOutcome {
	rawURL := strings.TrimSpace(in.URL)
	if err := validateLinkURL(rawURL); err != nil {
		return domain.Rejected(err.Error())
	}

	existing, err := m.links.GetByURL(ctx, rawURL)
	switch {
	case err == nil:
		outcome := domain.Rejected("link already registered")
		outcome.LinkID = existing.ID
		return outcome
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Rejected(fmt.Sprintf("failed to check link: %v", err))
	}

	link := domain.NewLink(rawURL, strings.TrimSpace(in.Title))
	if err := m.links.Save(ctx, link); err != nil {
		return domain.Rejected(fmt.Sprintf("failed to save link: %v", err))
	}
	m.logger.Info("link registered", "link_id", link.ID, "url", link.URL)

	return m.RefreshLink(ctx, link.ID)
}

// RefreshLink fetches a link, normalises the page and replaces the link's
// resources. New content is stored and fully embedded before the old
// resources are removed; a failed or partially embedded refresh leaves the
// previous version searchable. A first ingestion keeps partial results.
func (m *LinkManager) RefreshLink(ctx context.Context, linkID string) *domain.IngestOutcome {
	link, err := m.links.Get(ctx, linkID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Rejected("link not found")
		}
		return domain.Rejected(fmt.Sprintf("failed to get link: %v", err))
	}

	outcome := m.refresh(ctx, link)
	outcome.LinkID = link.ID

	lastError := ""
	if !outcome.Success {
		lastError = outcome.Message
	}
	link.MarkProcessed(lastError)
	if err := m.links.Save(ctx, link); err != nil {
		m.logger.Error("failed to record link refresh", "link_id", link.ID, "error", err)
	}
	return outcome
}

func (m *LinkManager) refresh(ctx context.Context, link *domain.Link) *domain.IngestOutcome {
	page, err := m.fetch(ctx, link)
	if err != nil {
		return domain.Rejected(fmt.Sprintf("failed to fetch %s: %v", link.URL, err))
	}

	text := page.Body
	if n := m.normalisers.Get(page.ContentType); n != nil {
		text = n.Normalise(page.Body, page.ContentType)
	} else {
		m.logger.Warn("no normaliser for content type, using raw body",
			"link_id", link.ID,
			"content_type", page.ContentType,
		)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Rejected("page has no extractable text")
	}

	title := link.Title
	if title == "" {
		title = normalisers.HTMLTitle(page.Body)
	}
	content := linkPreamble(title, link.URL) + text

	previous, err := m.resources.ListBySourceID(ctx, link.ID)
	if err != nil {
		return domain.Rejected(fmt.Sprintf("failed to list link resources: %v", err))
	}

	outcome := m.ingestor.ingest(ctx, content, domain.SourceTypeLink, link.ID)
	if !outcome.Success {
		return outcome
	}
	if outcome.Partial() && len(previous) > 0 {
		m.discard(ctx, link, outcome.ResourceID)
		return domain.Rejected(fmt.Sprintf("refresh embedded %d of %d chunks; previous version kept",
			outcome.EmbeddingsStored, outcome.ChunksTotal))
	}

	for _, r := range previous {
		if err := m.resources.Delete(ctx, r.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			m.logger.Error("failed to delete previous link resource",
				"link_id", link.ID,
				"resource_id", r.ID,
				"error", err,
			)
		}
	}
	if len(previous) > 0 {
		m.logger.Info("replaced link resources", "link_id", link.ID, "removed", len(previous))
	}
	return outcome
}

// discard removes a refreshed resource that did not fully embed
func (m *LinkManager) discard(ctx context.Context, link *domain.Link, resourceID string) {
	if err := m.resources.Delete(ctx, resourceID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		m.logger.Error("failed to discard partial link resource",
			"link_id", link.ID,
			"resource_id", resourceID,
			"error", err,
		)
		return
	}
	m.logger.Warn("discarded partial link refresh", "link_id", link.ID, "resource_id", resourceID)
}

// fetch retries retryable failures with exponential backoff
func (m *LinkManager) fetch(ctx context.Context, link *domain.Link) (*driven.FetchedPage, error) {
	backoff := m.fetchBackoff
	var lastErr error
	for attempt := 1; attempt <= m.fetchAttempts; attempt++ {
		page, err := m.fetcher.Fetch(ctx, link.URL)
		if err == nil {
			return page, nil
		}
		lastErr = err

		kind := domain.KindOf(err)
		m.logger.Warn("link fetch failed",
			"link_id", link.ID,
			"url", link.URL,
			"attempt", attempt,
			"kind", kind,
			"error", err,
		)
		if !kind.Retryable() || attempt == m.fetchAttempts {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	return nil, lastErr
}

// GetLink retrieves a link by ID
func (m *LinkManager) GetLink(ctx context.Context, id string) (*domain.Link, error) {
	return m.links.Get(ctx, id)
}

// ListLinks lists all links
func (m *LinkManager) ListLinks(ctx context.Context) ([]*domain.Link, error) {
	return m.links.List(ctx)
}

// DeleteLink deletes a link's resources and then the link itself
func (m *LinkManager) DeleteLink(ctx context.Context, id string) error {
	if _, err := m.links.Get(ctx, id); err != nil {
		return err
	}
	removed, err := m.resources.DeleteBySourceID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete link resources: %w", err)
	}
	if err := m.links.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	m.logger.Info("link deleted", "link_id", id, "resources_removed", removed)
	return nil
}

// EnqueueStaleLinks enqueues a refresh_link task for every link not
// processed within the refresh interval. Returns the number enqueued.
func (m *LinkManager) EnqueueStaleLinks(ctx context.Context) (int, error) {
	if m.taskQueue == nil {
		return 0, domain.ErrServiceUnavailable
	}

	links, err := m.links.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list links: %w", err)
	}

	now := time.Now()
	var tasks []*domain.Task
	for _, l := range links {
		if l.IsStale(m.refreshInterval, now) {
			tasks = append(tasks, domain.NewRefreshLinkTask(l.ID))
		}
	}
	if len(tasks) == 0 {
		return 0, nil
	}

	if err := m.taskQueue.EnqueueBatch(ctx, tasks); err != nil {
		return 0, fmt.Errorf("failed to enqueue link refreshes: %w", err)
	}
	m.logger.Info("enqueued stale link refreshes", "count", len(tasks), "links", len(links))
	return len(tasks), nil
}

// RefreshStaleLinks refreshes stale links inline, for deployments without
// a task queue. Returns the number of links refreshed successfully.
func (m *LinkManager) RefreshStaleLinks(ctx context.Context) (int, error) {
	links, err := m.links.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list links: %w", err)
	}

	now := time.Now()
	refreshed := 0
	for _, l := range links {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		if !l.IsStale(m.refreshInterval, now) {
			continue
		}
		if outcome := m.RefreshLink(ctx, l.ID); outcome.Success {
			refreshed++
		}
	}
	return refreshed, nil
}

func validateLinkURL(raw string) error {
	if raw == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("url must use http or https")
	}
	if u.Host == "" {
		return errors.New("url must be absolute")
	}
	return nil
}

// linkPreamble renders the page title and origin as a plain-text block
func linkPreamble(title, source string) string {
	var b strings.Builder
	if title = strings.TrimSpace(title); title != "" {
		b.WriteString("Título: " + title + "\n")
	}
	b.WriteString("Fonte: " + source + "\n\n")
	return b.String()
}
