package quality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"legal prose with obligation", "Art. 7 - O empregado tem direito a férias.", 10},
		{"neutral complete sentence", "O período aquisitivo começa na data da admissão do trabalhador.", 10},
		{"ui language penalized once", "Clique no menu e selecione a opção desejada com o cursor.", 7},
		{"bare article reference", "Art. 5º", 8},
		{"bare paragraph reference", "Parágrafo único.", 8},
		{"isolated number", "1.234", 8},
		{"trailing ellipsis", "O empregador deverá conceder as férias nos doze meses seguintes...", 9},
		{"short without punctuation", "Veja também", 8},
		{"markup leak", "{{header}} [nav] <div> | home | sobre | contato | portal trabalhista completo.", 8},
		{"whitespace runs", "Texto extraído de tabela          com colunas           desalinhadas.", 8},
		{"all penalties", "click menu {a}{b}{c}", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.text), "matched rules: %v", defaultScorer.Matched(tt.text))
		})
	}
}

func TestScore_Bounds(t *testing.T) {
	inputs := []string{
		"",
		" ",
		"...",
		strings.Repeat("{}[]<>|", 50),
		strings.Repeat("lei decreto considera-se prazo deve ", 20),
		"clique menu cursor selecione ... 42",
	}
	for _, in := range inputs {
		s := Score(in)
		assert.GreaterOrEqual(t, s, 0, "input %q", in)
		assert.LessOrEqual(t, s, 10, "input %q", in)
	}
}

func TestScore_BonusAppliedOnce(t *testing.T) {
	rules := []Rule{
		{Name: "a", Category: CategoryInformative, Weight: 1, Matches: Pattern(`lei`)},
		{Name: "b", Category: CategoryInformative, Weight: 1, Matches: Pattern(`prazo`)},
		{Name: "penalty", Category: CategoryUILanguage, Weight: -5, Matches: Pattern(`menu`)},
	}
	s := NewScorer(rules, 0.7, 0.3)

	assert.Equal(t, 6, s.Score("menu lei prazo"))
	assert.Equal(t, []string{"a", "penalty"}, s.Matched("menu lei prazo"))
}

func TestScore_CustomRulesClamp(t *testing.T) {
	rules := []Rule{
		{Name: "x", Category: CategoryMarkup, Weight: -20, Matches: Pattern(`x`)},
	}
	assert.Equal(t, 0, NewScorer(rules, 0.7, 0.3).Score("x"))
}

func TestFilterLowQuality(t *testing.T) {
	candidates := []domain.Candidate{
		{Content: "Clique aqui no menu", Similarity: 0.95, ResourceID: "ui"},
		{Content: "O empregado tem direito a férias anuais remuneradas.", Similarity: 0.60, ResourceID: "r1"},
		{Content: "O período de férias será fixado pelo empregador.", Similarity: 0.62, ResourceID: "r2"},
		{Content: "42", Similarity: 0.99, ResourceID: "num"},
	}

	got := FilterLowQuality(candidates, 5)

	require.Len(t, got, 4)
	// A bare number is only an incomplete-extraction penalty, so its high
	// similarity still ranks it first.
	assert.Equal(t, "num", got[0].ResourceID)
	assert.Equal(t, 8, got[0].QualityScore)

	// The short UI fragment loses 3 + 2 and falls to exactly 5.
	assert.Equal(t, "ui", got[1].ResourceID)
	assert.Equal(t, 5, got[1].QualityScore)
	assert.InDelta(t, 0.7*0.95+0.3*0.5, got[1].CompositeScore, 1e-9)

	assert.Equal(t, "r2", got[2].ResourceID)
	assert.Equal(t, "r1", got[3].ResourceID)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].CompositeScore, got[i].CompositeScore)
	}
}

func TestFilterLowQuality_DropsBelowMin(t *testing.T) {
	candidates := []domain.Candidate{
		{Content: "clique no menu com o cursor...", Similarity: 0.9},
	}
	assert.Empty(t, FilterLowQuality(candidates, 6))
	assert.Len(t, FilterLowQuality(candidates, 5), 1)
}

func TestFilterLowQuality_StableOnTies(t *testing.T) {
	text := "O empregado tem direito a férias anuais remuneradas."
	candidates := []domain.Candidate{
		{Content: text, Similarity: 0.5, ResourceID: "first"},
		{Content: text, Similarity: 0.5, ResourceID: "second"},
		{Content: text, Similarity: 0.5, ResourceID: "third"},
	}

	got := FilterLowQuality(candidates, 5)

	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].ResourceID)
	assert.Equal(t, "second", got[1].ResourceID)
	assert.Equal(t, "third", got[2].ResourceID)
}

func TestComposite(t *testing.T) {
	s := NewScorer(nil, 0.7, 0.3)
	assert.InDelta(t, 0.7*0.8+0.3, s.Composite(0.8, 10), 1e-9)
	assert.InDelta(t, 0.7*0.8, s.Composite(0.8, 0), 1e-9)

	fallback := NewScorer(nil, 0, 0)
	assert.InDelta(t, s.Composite(0.4, 6), fallback.Composite(0.4, 6), 1e-9)
}
