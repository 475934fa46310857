package postprocessors

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
)

func assertBounded(t *testing.T, chunks []string, max int) {
	t.Helper()
	for i, c := range chunks {
		if c == "" {
			t.Errorf("chunk %d is empty", i)
		}
		if n := utf8.RuneCountInString(c); n > max && len(strings.Fields(c)) != 1 {
			t.Errorf("chunk %d has %d runes, max %d", i, n, max)
		}
	}
}

func TestNewChunker_DefaultsInvalidSize(t *testing.T) {
	c := NewChunker(ChunkConfig{MaxChunkSize: 0})
	if c.MaxChunkSize() != 1000 {
		t.Errorf("expected default max 1000, got %d", c.MaxChunkSize())
	}
}

func TestChunk_TextIdentity(t *testing.T) {
	c := NewChunker(ChunkConfig{MaxChunkSize: 10})
	inputs := []string{
		"",
		"Art. 7 - O empregado tem direito a férias.",
		"  spaced\n\n\ncontent  ",
		strings.Repeat("longo ", 500),
	}
	for _, in := range inputs {
		got := c.Chunk(in, domain.SourceTypeText)
		if len(got) != 1 || got[0] != in {
			t.Errorf("TEXT chunking changed %q into %q", in, got)
		}
	}
}

func TestChunk_SmallContentSingleChunk(t *testing.T) {
	c := NewChunker(DefaultChunkConfig())
	got := c.Chunk("  O empregado   tem direito\na férias.  ", domain.SourceTypeLink)
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0] != "O empregado tem direito a férias." {
		t.Errorf("unexpected chunk %q", got[0])
	}
}

func TestChunk_EmptyNonText(t *testing.T) {
	c := NewChunker(DefaultChunkConfig())
	if got := c.Chunk("", domain.SourceTypePDF); len(got) != 0 {
		t.Errorf("expected no chunks for empty input, got %q", got)
	}
}

func TestChunk_WhitespaceOnlyKeepsInput(t *testing.T) {
	c := NewChunker(DefaultChunkConfig())
	for _, in := range []string{"   ", "\n\n\t"} {
		for _, st := range []domain.SourceType{domain.SourceTypeLink, domain.SourceTypePDF} {
			got := c.Chunk(in, st)
			if len(got) != 1 || got[0] != in {
				t.Errorf("%s: expected [%q], got %q", st, in, got)
			}
		}
	}
}

func TestChunk_PacksParagraphs(t *testing.T) {
	c := NewChunker(ChunkConfig{MaxChunkSize: 60})
	text := "Primeiro parágrafo curto.\n\nSegundo parágrafo curto.\n\n" +
		"Terceiro parágrafo que já não cabe junto."

	got := c.Chunk(text, domain.SourceTypePDF)

	want := []string{
		"Primeiro parágrafo curto.\n\nSegundo parágrafo curto.",
		"Terceiro parágrafo que já não cabe junto.",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestChunk_SplitsOnArticleMarkers(t *testing.T) {
	c := NewChunker(ChunkConfig{MaxChunkSize: 50})
	text := "Art. 129. Todo empregado terá direito a férias. Art. 130. Após cada período de doze meses."

	got := c.Chunk(text, domain.SourceTypePDF)

	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(got), got)
	}
	if !strings.HasPrefix(got[0], "Art. 129.") || !strings.HasPrefix(got[1], "Art. 130.") {
		t.Errorf("expected chunks to start at article markers, got %q", got)
	}
}

func TestSplitParagraphs_CitationIsNotABoundary(t *testing.T) {
	got := splitParagraphs("Nos termos do Art. 7 da Constituição, o empregado tem direito a férias.")
	if len(got) != 1 {
		t.Errorf("expected a citation to stay inside its paragraph, got %q", got)
	}

	got = splitParagraphs("Caput do artigo.\nArt. 2 Novo artigo.")
	if len(got) != 2 {
		t.Errorf("expected a line-leading marker to open a paragraph, got %q", got)
	}
}

func TestChunk_LongProseSplitsBySentence(t *testing.T) {
	c := NewChunker(DefaultChunkConfig())
	sentence := "O empregador deverá comunicar a concessão das férias ao empregado com antecedência mínima de trinta dias. "
	text := strings.Repeat(sentence, 40) // > 3000 chars, no blank lines

	if utf8.RuneCountInString(text) <= 3000 {
		t.Fatalf("fixture too short: %d", utf8.RuneCountInString(text))
	}

	got := c.Chunk(text, domain.SourceTypeLink)

	if len(got) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(got))
	}
	assertBounded(t, got, 1000)
	for i, chunk := range got {
		if !strings.HasSuffix(chunk, ".") {
			t.Errorf("chunk %d does not end at a sentence boundary: %q", i, chunk[len(chunk)-20:])
		}
	}
}

func TestChunk_LongSentenceSplitsByWord(t *testing.T) {
	c := NewChunker(ChunkConfig{MaxChunkSize: 30})
	text := strings.Repeat("palavra ", 20)

	got := c.Chunk(text, domain.SourceTypeLink)

	if len(got) < 2 {
		t.Fatalf("expected word splitting, got %q", got)
	}
	assertBounded(t, got, 30)
	if strings.Join(got, " ") != strings.TrimSpace(text) {
		t.Errorf("word chunks do not reconstruct the sentence")
	}
}

func TestChunk_OversizedWordStandsAlone(t *testing.T) {
	c := NewChunker(ChunkConfig{MaxChunkSize: 10})
	long := strings.Repeat("x", 25)

	got := c.Chunk("curta "+long+" fim", domain.SourceTypePDF)

	want := []string{"curta", long, "fim"}
	if len(got) != len(want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestChunk_Totality(t *testing.T) {
	inputs := []string{
		"a",
		"Art. 1",
		"Frase um. Frase dois! Frase três? Fim",
		strings.Repeat("Parágrafo com algum texto.\n\n", 100),
		strings.Repeat("ç", 2500),
		"linha\r\nquebrada\rno meio",
		"   ",
		"\n\n\t",
	}
	for _, size := range []int{5, 50, 1000} {
		c := NewChunker(ChunkConfig{MaxChunkSize: size})
		for _, in := range inputs {
			for _, st := range []domain.SourceType{domain.SourceTypeLink, domain.SourceTypePDF} {
				got := c.Chunk(in, st)
				if len(got) == 0 {
					t.Errorf("size %d: no chunks for %q", size, in)
				}
				assertBounded(t, got, size)
			}
		}
	}
}

func TestChunk_ReconstructsWords(t *testing.T) {
	c := NewChunker(ChunkConfig{MaxChunkSize: 80})
	text := "Art. 1. Primeiro.\n\nArt. 2. Segundo artigo com mais texto. Outra frase aqui!\n\n" +
		strings.Repeat("prosa corrida sem pausa ", 12)

	got := c.Chunk(text, domain.SourceTypePDF)

	if strings.Join(strings.Fields(strings.Join(got, " ")), " ") != strings.Join(strings.Fields(text), " ") {
		t.Errorf("chunks do not reconstruct the normalised text: %q", got)
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("Um. Dois! Três? Quatro 1.5 cinco")
	want := []string{"Um.", "Dois!", "Três?", "Quatro 1.5 cinco"}
	if len(got) != len(want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestDeduplicate(t *testing.T) {
	got := Deduplicate([]string{"a", "b", "a", "c", "b"})

	if len(got) != 3 {
		t.Fatalf("expected 3 unique chunks, got %d", len(got))
	}
	wantPos := []int{0, 1, 3}
	for i, c := range got {
		if c.Position != wantPos[i] {
			t.Errorf("chunk %d: expected position %d, got %d", i, wantPos[i], c.Position)
		}
		if c.Hash != domain.HashContent(c.Content) {
			t.Errorf("chunk %d: hash mismatch", i)
		}
	}
}
