package normalisers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexis-core/internal/core/ports/driven"
)

type mockNormaliser struct {
	name     string
	types    []string
	priority int
}

func (m *mockNormaliser) Normalise(content string, mimeType string) string {
	return content + "-" + m.name
}

func (m *mockNormaliser) SupportedTypes() []string { return m.types }
func (m *mockNormaliser) Priority() int            { return m.priority }

func TestRegistry_PrioritySelection(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockNormaliser{name: "low", types: []string{"text/html"}, priority: 10})
	r.Register(&mockNormaliser{name: "high", types: []string{"text/html"}, priority: 90})
	r.Register(&mockNormaliser{name: "mid", types: []string{"text/*"}, priority: 50})

	n := r.Get("text/html; charset=utf-8")
	require.NotNil(t, n)
	assert.Equal(t, "x-high", n.Normalise("x", "text/html"))

	n = r.Get("text/csv")
	require.NotNil(t, n)
	assert.Equal(t, "x-mid", n.Normalise("x", "text/csv"))

	assert.Nil(t, r.Get("application/json"))
}

func TestRegistry_List(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"*/*", "application/xhtml+xml", "text/html", "text/plain"}, r.List())
}

func TestDefaultRegistry_Selection(t *testing.T) {
	r := DefaultRegistry()

	_, ok := r.Get("TEXT/HTML; charset=ISO-8859-1").(*HTMLNormaliser)
	assert.True(t, ok, "expected HTML normaliser for text/html")

	_, ok = r.Get("application/octet-stream").(*PlaintextNormaliser)
	assert.True(t, ok, "expected plaintext fallback")
}

func TestPlaintextNormaliser(t *testing.T) {
	n := &PlaintextNormaliser{}
	got := n.Normalise("  linha um  \r\nlinha dois\r\r\nfim  ", "text/plain")
	assert.Equal(t, "linha um\nlinha dois\n\nfim", got)
}

func TestHTMLNormaliser(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head><title>Férias - Portal</title><style>p { color: red; }</style></head>
<body>
  <nav><a href="/">Início</a> | <a href="/menu">Menu</a></nav>
  <header>Portal Trabalhista</header>
  <main>
    <h1>Férias</h1>
    <p>Art. 129 - Todo empregado terá direito anualmente ao gozo de um período de férias,
       sem prejuízo da remuneração.</p>
    <p>O período &amp; a <b>remuneração</b> são garantidos.</p>
    <table><tr><td>Dias</td><td>30</td></tr></table>
    <script>console.log("tracking")</script>
  </main>
  <footer>Copyright</footer>
</body>
</html>`

	got := (&HTMLNormaliser{}).Normalise(page, "text/html")

	want := "Férias\n\n" +
		"Art. 129 - Todo empregado terá direito anualmente ao gozo de um período de férias, sem prejuízo da remuneração.\n\n" +
		"O período & a remuneração são garantidos.\n\n" +
		"Dias 30"
	assert.Equal(t, want, got)
}

func TestHTMLTitle(t *testing.T) {
	assert.Equal(t, "Férias - Portal", HTMLTitle("<html><head><title> Férias -\n Portal </title></head></html>"))
	assert.Equal(t, "Cabeçalho", HTMLTitle("<body><h1>Cabeçalho</h1><p>texto</p></body>"))
	assert.Equal(t, "", HTMLTitle("<p>sem título</p>"))
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*PlaintextNormaliser)(nil)
	var _ driven.Normaliser = (*HTMLNormaliser)(nil)
	var _ driven.NormaliserRegistry = (*Registry)(nil)
}
