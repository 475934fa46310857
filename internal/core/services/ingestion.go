package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driving"
	"github.com/custodia-labs/lexis-core/internal/postprocessors"
	"github.com/custodia-labs/lexis-core/internal/tokens"
)

// Verify interface compliance
var _ driving.IngestionService = (*Ingestor)(nil)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Ingestor coordinates ingestion: it builds the Resource, chunks it, embeds
// the chunks and writes one Embedding per stored chunk. Validation failures
// are rejected before any write; embedding failures leave a partial Resource.
type Ingestor struct {
	resources      driven.ResourceStore
	embeddings     driven.EmbeddingStore
	chunker        driven.Chunker
	embedder       *Embedder
	pdf            driven.PDFExtractor
	textWarnTokens int
	logger         *slog.Logger
}

// IngestorConfig holds dependencies for the Ingestor.
type IngestorConfig struct {
	Resources      driven.ResourceStore
	Embeddings     driven.EmbeddingStore
	Chunker        driven.Chunker
	Embedder       *Embedder
	PDF            driven.PDFExtractor // Optional, PDF ingestion is rejected without it
	TextWarnTokens int                 // Estimated tokens above which TEXT input is logged (default: 800)
	Logger         *slog.Logger
}

// NewIngestor creates a new Ingestor.
func NewIngestor(cfg IngestorConfig) *Ingestor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	warn := cfg.TextWarnTokens
	if warn <= 0 {
		warn = 800
	}
	return &Ingestor{
		resources:      cfg.Resources,
		embeddings:     cfg.Embeddings,
		chunker:        cfg.Chunker,
		embedder:       cfg.Embedder,
		pdf:            cfg.PDF,
		textWarnTokens: warn,
		logger:         logger,
	}
}

// IngestText stores manually curated content as a single TEXT chunk.
// The content is kept verbatim after the optional Lei/Contexto header.
func (i *Ingestor) IngestText(ctx context.Context, in driving.TextInput) *domain.IngestOutcome {
	if strings.TrimSpace(in.Content) == "" {
		return domain.Rejected("content is required")
	}

	content := metadataHeader(in.Lei, in.Contexto) + in.Content
	if estimate := tokens.Estimate(content); estimate > i.textWarnTokens {
		i.logger.Warn("text resource exceeds recommended size and will be stored as one chunk",
			"estimated_tokens", estimate,
			"limit", i.textWarnTokens,
		)
	}

	return i.ingest(ctx, content, domain.SourceTypeText, in.SourceID)
}

// IngestPDF extracts text from an uploaded PDF, prepends its metadata and
// chunks the result.
func (i *Ingestor) IngestPDF(ctx context.Context, in driving.PDFInput) *domain.IngestOutcome {
	if len(in.Data) == 0 {
		return domain.Rejected("PDF file is empty")
	}
	if !bytes.HasPrefix(in.Data, []byte("%PDF-")) {
		return domain.Rejected("file is not a PDF document")
	}
	if i.pdf == nil {
		return domain.Rejected("PDF extraction is not configured")
	}

	text, meta, err := i.pdf.Extract(ctx, in.Data)
	if err != nil {
		i.logger.Warn("pdf extraction failed", "filename", in.Filename, "kind", domain.KindOf(err), "error", err)
		return domain.Rejected(fmt.Sprintf("failed to extract PDF text: %v", err))
	}
	if strings.TrimSpace(text) == "" {
		return domain.Rejected("PDF contains no extractable text")
	}

	content := pdfPreamble(in.Filename, meta) + metadataHeader(in.Lei, in.Contexto) + strings.TrimSpace(text)
	return i.ingest(ctx, content, domain.SourceTypePDF, "")
}

// IngestCurated stores operator-split legislative chunks: one TEXT Resource
// holding the full excerpt and one Embedding per non-empty chunk.
func (i *Ingestor) IngestCurated(ctx context.Context, in driving.CuratedInput) *domain.IngestOutcome {
	chunks := make([]string, 0, len(in.Chunks))
	for _, c := range in.Chunks {
		if c = strings.TrimSpace(c); c != "" {
			chunks = append(chunks, c)
		}
	}
	if len(chunks) == 0 {
		return domain.Rejected("at least one non-empty chunk is required")
	}

	sourceID := in.SourceID
	if sourceID == "" {
		sourceID = "curated-" + domain.NewID()
	}

	content := metadataHeader(in.Lei, in.Contexto) + strings.Join(chunks, "\n\n")
	resource := domain.NewResource(content, domain.SourceTypeText, sourceID)
	if err := i.resources.Save(ctx, resource); err != nil {
		i.logger.Error("failed to save curated resource", "source_id", sourceID, "error", err)
		return domain.Rejected(fmt.Sprintf("failed to save resource: %v", err))
	}

	return i.storeChunks(ctx, resource, chunks)
}

// ingest chunks content by source type, saves the Resource and embeds the chunks.
func (i *Ingestor) ingest(ctx context.Context, content string, sourceType domain.SourceType, sourceID string) *domain.IngestOutcome {
	chunks := i.chunker.Chunk(content, sourceType)
	if len(chunks) == 0 {
		return domain.Rejected("content produced no chunks")
	}

	resource := domain.NewResource(content, sourceType, sourceID)
	if err := i.resources.Save(ctx, resource); err != nil {
		i.logger.Error("failed to save resource", "source_type", sourceType, "source_id", sourceID, "error", err)
		return domain.Rejected(fmt.Sprintf("failed to save resource: %v", err))
	}

	return i.storeChunks(ctx, resource, chunks)
}

// storeChunks embeds the unique chunks of a saved Resource, writing each
// embedded batch as it completes.
func (i *Ingestor) storeChunks(ctx context.Context, resource *domain.Resource, chunks []string) *domain.IngestOutcome {
	unique := postprocessors.Deduplicate(chunks)
	if skipped := len(chunks) - len(unique); skipped > 0 {
		i.logger.Debug("skipping duplicate chunks", "resource_id", resource.ID, "duplicates", skipped)
	}

	texts := make([]string, len(unique))
	for n, c := range unique {
		texts[n] = c.Content
	}

	report := i.embedder.EmbedBatches(ctx, texts, func(ctx context.Context, batch []IndexedVector) error {
		rows := make([]*domain.Embedding, len(batch))
		for n, iv := range batch {
			rows[n] = domain.NewEmbedding(resource.ID, unique[iv.Index].Position, iv.Text, iv.Vector)
		}
		return i.embeddings.SaveBatch(ctx, rows)
	})

	outcome := &domain.IngestOutcome{
		Success:          true,
		ResourceID:       resource.ID,
		ChunksTotal:      len(unique),
		EmbeddingsStored: report.Embedded,
	}
	if outcome.Partial() {
		outcome.Message = fmt.Sprintf("resource stored; %d of %d chunks embedded (%d failed batches)",
			report.Embedded, len(unique), report.FailedBatches)
		i.logger.Warn("partial ingestion",
			"resource_id", resource.ID,
			"source_type", resource.SourceType,
			"chunks", len(unique),
			"embedded", report.Embedded,
			"failed_batches", report.FailedBatches,
		)
	} else {
		outcome.Message = fmt.Sprintf("resource stored with %d chunks", len(unique))
		i.logger.Info("resource ingested",
			"resource_id", resource.ID,
			"source_type", resource.SourceType,
			"chunks", len(unique),
		)
	}
	return outcome
}

// GetResource retrieves a resource by ID
func (i *Ingestor) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	return i.resources.Get(ctx, id)
}

// ListResources lists resources, newest first
func (i *Ingestor) ListResources(ctx context.Context, sourceType domain.SourceType, limit, offset int) ([]*domain.Resource, error) {
	if sourceType != "" && !sourceType.IsValid() {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return i.resources.List(ctx, sourceType, limit, offset)
}

// ListEmbeddings lists the chunks stored for a resource
func (i *Ingestor) ListEmbeddings(ctx context.Context, resourceID string) ([]*domain.Embedding, error) {
	if _, err := i.resources.Get(ctx, resourceID); err != nil {
		return nil, err
	}
	return i.embeddings.ListByResource(ctx, resourceID)
}

// DeleteResource deletes a resource. Its embeddings go with it through the
// store cascade, and a store failure fails the delete.
func (i *Ingestor) DeleteResource(ctx context.Context, id string) error {
	if _, err := i.resources.Get(ctx, id); err != nil {
		return err
	}
	if err := i.resources.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	i.logger.Info("resource deleted", "resource_id", id)
	return nil
}

// metadataHeader renders the optional legislative metadata prepended to content
func metadataHeader(lei, contexto string) string {
	lei, contexto = strings.TrimSpace(lei), strings.TrimSpace(contexto)
	if lei == "" && contexto == "" {
		return ""
	}
	var b strings.Builder
	if lei != "" {
		b.WriteString("Lei: " + lei + "\n")
	}
	if contexto != "" {
		b.WriteString("Contexto: " + contexto + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// pdfPreamble renders the PDF's structural metadata as a plain-text block
func pdfPreamble(filename string, meta driven.PDFMetadata) string {
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = strings.TrimSpace(filename)
	}
	var b strings.Builder
	if title != "" {
		b.WriteString("Documento: " + title + "\n")
	}
	if author := strings.TrimSpace(meta.Author); author != "" {
		b.WriteString("Autor: " + author + "\n")
	}
	if meta.Pages > 0 {
		b.WriteString("Páginas: " + strconv.Itoa(meta.Pages) + "\n")
	}
	if b.Len() == 0 {
		return ""
	}
	b.WriteString("\n")
	return b.String()
}
