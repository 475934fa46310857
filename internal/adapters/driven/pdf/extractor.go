// Package pdf extracts text and document info from PDFs with the poppler
// command line tools (pdftotext, pdfinfo).
package pdf

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

var _ driven.PDFExtractor = (*Extractor)(nil)

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler-utils")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// Config configures the extractor. Empty tool paths are looked up on PATH.
type Config struct {
	PDFToTextPath string
	PDFInfoPath   string
	Runner        CommandRunner
	Logger        *slog.Logger
}

// Extractor implements driven.PDFExtractor.
type Extractor struct {
	pdftotext string
	pdfinfo   string
	runner    CommandRunner
	logger    *slog.Logger
}

// New creates an Extractor.
func New(cfg Config) *Extractor {
	if cfg.PDFToTextPath == "" {
		cfg.PDFToTextPath = "pdftotext"
	}
	if cfg.PDFInfoPath == "" {
		cfg.PDFInfoPath = "pdfinfo"
	}
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Extractor{
		pdftotext: cfg.PDFToTextPath,
		pdfinfo:   cfg.PDFInfoPath,
		runner:    cfg.Runner,
		logger:    cfg.Logger,
	}
}

// CheckAvailable reports whether pdftotext can be found.
func (e *Extractor) CheckAvailable() error {
	if _, err := exec.LookPath(e.pdftotext); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// Extract writes data to a temp file and runs pdftotext on it. Document
// info comes from pdfinfo; a pdfinfo failure only loses the metadata.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, driven.PDFMetadata, error) {
	var meta driven.PDFMetadata
	if len(data) == 0 {
		return "", meta, domain.NewExternalError(domain.KindValidation, "pdf.extract", "empty document", domain.ErrInvalidInput)
	}

	f, err := os.CreateTemp("", "lexis-*.pdf")
	if err != nil {
		return "", meta, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", meta, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", meta, fmt.Errorf("failed to close temp file: %w", err)
	}

	out, err := e.runner.Run(ctx, e.pdftotext, "-enc", "UTF-8", "-nopgbrk", path, "-")
	if err != nil {
		return "", meta, e.classify(ctx, err)
	}

	info, err := e.runner.Run(ctx, e.pdfinfo, "-enc", "UTF-8", path)
	if err != nil {
		e.logger.Warn("pdfinfo failed, continuing without metadata", "error", err)
	} else {
		meta = parseInfo(info)
	}

	return normaliseText(string(out)), meta, nil
}

func (e *Extractor) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return domain.NewExternalError(domain.KindUnavailable, "pdf.extract", ErrPDFToolNotFound.Error(), err)
	case ctx.Err() != nil:
		return domain.NewExternalError(domain.KindTimeout, "pdf.extract", "extraction cancelled", ctx.Err())
	default:
		// pdftotext exits non-zero for damaged or encrypted files
		return domain.NewExternalError(domain.KindValidation, "pdf.extract", "unreadable PDF", err)
	}
}

// parseInfo reads the "Key:   value" lines pdfinfo prints.
func parseInfo(out []byte) driven.PDFMetadata {
	var meta driven.PDFMetadata
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Title":
			meta.Title = value
		case "Author":
			meta.Author = value
		case "Pages":
			meta.Pages, _ = strconv.Atoi(value)
		}
	}
	return meta
}

// normaliseText trims trailing spaces per line and collapses runs of
// blank lines to one, keeping paragraph breaks.
func normaliseText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\f", "\n\n")

	var b strings.Builder
	blank := 0
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blank++
			continue
		}
		if b.Len() > 0 {
			if blank > 0 {
				b.WriteString("\n\n")
			} else {
				b.WriteString("\n")
			}
		}
		blank = 0
		b.WriteString(line)
	}
	return b.String()
}
