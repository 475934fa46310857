// Package postprocessors turns normalised resource content into the chunks
// that are embedded and stored.
package postprocessors

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Chunker = (*Chunker)(nil)

// ChunkConfig configures the chunker behavior.
type ChunkConfig struct {
	// MaxChunkSize is the maximum characters (runes) per chunk
	MaxChunkSize int
}

// DefaultChunkConfig returns the production defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{MaxChunkSize: 1000}
}

const paragraphSeparator = "\n\n"

var (
	blankLine     = regexp.MustCompile(`\n[ \t\f\v\x{00A0}]*\n`)
	articleMarker = regexp.MustCompile(`\b(?:Art\.|Artigo)\s*\d+`)
)

// Chunker splits content into bounded-size units along paragraph,
// article, sentence and word boundaries.
type Chunker struct {
	config ChunkConfig
}

// NewChunker creates a new chunker with the given config.
func NewChunker(config ChunkConfig) *Chunker {
	if config.MaxChunkSize <= 0 {
		config = DefaultChunkConfig()
	}
	return &Chunker{config: config}
}

// MaxChunkSize returns the configured chunk bound.
func (c *Chunker) MaxChunkSize() int {
	return c.config.MaxChunkSize
}

// Chunk splits text according to the source type's policy.
// TEXT content was sized by its curator and is returned as-is. Other
// content is packed paragraph by paragraph; only a single word longer
// than the maximum can produce an oversized chunk. Non-empty input always
// yields at least one chunk, whitespace-only input being returned as-is.
func (c *Chunker) Chunk(text string, sourceType domain.SourceType) []string {
	if sourceType == domain.SourceTypeText {
		return []string{text}
	}

	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	p := newPacker(c.config.MaxChunkSize, paragraphSeparator)
	for _, para := range paragraphs {
		if runeLen(para) > c.config.MaxChunkSize {
			p.flush()
			p.emit(c.splitParagraph(para)...)
			continue
		}
		p.add(para)
	}
	return p.finish()
}

// splitParagraph packs an oversized paragraph sentence by sentence,
// falling back to words for sentences that are still too long.
func (c *Chunker) splitParagraph(para string) []string {
	p := newPacker(c.config.MaxChunkSize, " ")
	for _, sentence := range splitSentences(para) {
		if runeLen(sentence) > c.config.MaxChunkSize {
			p.flush()
			p.emit(c.splitSentence(sentence)...)
			continue
		}
		p.add(sentence)
	}
	return p.finish()
}

func (c *Chunker) splitSentence(sentence string) []string {
	p := newPacker(c.config.MaxChunkSize, " ")
	for _, word := range strings.Fields(sentence) {
		if runeLen(word) > c.config.MaxChunkSize {
			p.flush()
			p.emit(word)
			continue
		}
		p.add(word)
	}
	return p.finish()
}

// splitParagraphs normalises line endings and whitespace and returns the
// paragraphs of text. Blank lines separate paragraphs, and an article
// marker opening a line or following a sentence starts a new one.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var paragraphs []string
	for _, block := range blankLine.Split(text, -1) {
		for _, piece := range splitAtArticles(block) {
			if para := collapseWhitespace(piece); para != "" {
				paragraphs = append(paragraphs, para)
			}
		}
	}
	return paragraphs
}

func splitAtArticles(block string) []string {
	var pieces []string
	start := 0
	for _, loc := range articleMarker.FindAllStringIndex(block, -1) {
		if loc[0] == start || !opensArticle(block[:loc[0]]) {
			continue
		}
		pieces = append(pieces, block[start:loc[0]])
		start = loc[0]
	}
	return append(pieces, block[start:])
}

// opensArticle reports whether a marker preceded by before starts a new
// article rather than citing one mid-sentence.
func opensArticle(before string) bool {
	trimmed := strings.TrimRight(before, " \t")
	if trimmed == "" {
		return true
	}
	return strings.IndexByte("\n.;:!?", trimmed[len(trimmed)-1]) >= 0
}

// splitSentences splits at '.', '!' or '?' followed by whitespace.
// The input has already been collapsed to single spaces.
func splitSentences(para string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(para)-1; i++ {
		switch para[i] {
		case '.', '!', '?':
			if para[i+1] == ' ' {
				sentences = append(sentences, para[start:i+1])
				start = i + 2
			}
		}
	}
	if start < len(para) {
		sentences = append(sentences, para[start:])
	}
	return sentences
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// packer greedily joins parts into chunks of at most max runes.
type packer struct {
	max    int
	sep    string
	sepLen int
	buf    strings.Builder
	bufLen int
	chunks []string
}

func newPacker(max int, sep string) *packer {
	return &packer{max: max, sep: sep, sepLen: runeLen(sep)}
}

func (p *packer) add(part string) {
	n := runeLen(part)
	if p.bufLen > 0 && p.bufLen+p.sepLen+n > p.max {
		p.flush()
	}
	if p.bufLen > 0 {
		p.buf.WriteString(p.sep)
		p.bufLen += p.sepLen
	}
	p.buf.WriteString(part)
	p.bufLen += n
}

func (p *packer) emit(chunks ...string) {
	p.chunks = append(p.chunks, chunks...)
}

func (p *packer) flush() {
	if p.bufLen == 0 {
		return
	}
	p.chunks = append(p.chunks, p.buf.String())
	p.buf.Reset()
	p.bufLen = 0
}

func (p *packer) finish() []string {
	p.flush()
	return p.chunks
}
