package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", "   \n\t ", 0},
		{"one word", "férias", 2},
		{"ten words", "um dois tres quatro cinco seis sete oito nove dez", 13},
		{"three words", "a b c", 4},
		{"extra whitespace ignored", "  a   b \n\n c  ", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Estimate(tt.text))
		})
	}
}

func TestEstimate_Stable(t *testing.T) {
	text := "Art. 7 - O empregado tem direito a férias."
	first := Estimate(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Estimate(text))
	}
}

func TestEstimate_Monotonic(t *testing.T) {
	base := "o empregado tem direito"
	prev := Estimate(base)
	text := base
	for _, w := range strings.Fields("a férias anuais remuneradas sem prejuízo da remuneração") {
		text += " " + w
		next := Estimate(text)
		assert.GreaterOrEqual(t, next, prev, "estimate decreased after adding %q", w)
		prev = next
	}
}

func TestTruncateToLimit_RoundTrip(t *testing.T) {
	text := strings.Repeat("palavra ", 500)
	for n := 0; n <= 700; n++ {
		got := TruncateToLimit(text, n)
		if Estimate(got) > n {
			t.Fatalf("Estimate(TruncateToLimit(text, %d)) = %d", n, Estimate(got))
		}
	}
}

func TestTruncateToLimit_WithinLimitUnchanged(t *testing.T) {
	text := "  O empregado\n tem direito a férias.  "
	assert.Equal(t, text, TruncateToLimit(text, Estimate(text)))
	assert.Equal(t, text, TruncateToLimit(text, 100))
}

func TestTruncateToLimit_Truncates(t *testing.T) {
	text := "um dois tres quatro cinco seis sete oito nove dez"
	// floor(5 / 1.3) = 3 words
	assert.Equal(t, "um dois tres", TruncateToLimit(text, 5))
	assert.Equal(t, "", TruncateToLimit(text, 0))
	assert.Equal(t, "", TruncateToLimit(text, -4))
}

func TestMaxWords(t *testing.T) {
	assert.Equal(t, 0, MaxWords(0))
	assert.Equal(t, 0, MaxWords(1))
	assert.Equal(t, 1, MaxWords(2))
	assert.Equal(t, 10, MaxWords(13))
	assert.Equal(t, 1923, MaxWords(2500))
}
