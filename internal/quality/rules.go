package quality

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Category groups rules whose weights never stack: within a category only
// the first matching rule counts.
type Category string

const (
	CategoryUILanguage  Category = "ui_language"
	CategoryIncomplete  Category = "incomplete"
	CategoryMarkup      Category = "markup"
	CategoryInformative Category = "informative"
)

// Rule is one entry of a scoring table
type Rule struct {
	Name     string
	Category Category
	Weight   int
	Matches  func(text string) bool
}

// Pattern builds a matcher from a regular expression
func Pattern(expr string) func(string) bool {
	re := regexp.MustCompile(expr)
	return re.MatchString
}

const (
	shortTextRunes      = 40
	maxMarkupChars      = 5
	terminalPunctuation = ".!?;:"
)

// DefaultRules returns the scoring table tuned for Brazilian labor-law
// content scraped from the web, with English equivalents.
func DefaultRules() []Rule {
	return []Rule{
		// Scraped page chrome carries no legal substance.
		{Name: "click_instruction", Category: CategoryUILanguage, Weight: -3,
			Matches: Pattern(`(?i)\b(clique|clicar|click)\b`)},
		{Name: "menu_navigation", Category: CategoryUILanguage, Weight: -3,
			Matches: Pattern(`(?i)\b(menu|submenu|navbar|sidebar|toolbar|breadcrumb)\b`)},
		{Name: "pointer_language", Category: CategoryUILanguage, Weight: -3,
			Matches: Pattern(`(?i)\b(cursor|mouse|scroll|arraste)\b`)},
		{Name: "form_controls", Category: CategoryUILanguage, Weight: -3,
			Matches: Pattern(`(?i)\b(selecione|select|checkbox|dropdown)\b`)},
		{Name: "page_chrome", Category: CategoryUILanguage, Weight: -3,
			Matches: Pattern(`(?i)(voltar ao topo|back to top|compartilhar no|share on|aceitar cookies|accept cookies)`)},

		// Extraction cut the text short.
		{Name: "short_unterminated", Category: CategoryIncomplete, Weight: -2,
			Matches: isShortUnterminated},
		{Name: "trailing_ellipsis", Category: CategoryIncomplete, Weight: -2,
			Matches: Pattern(`(\.\.\.|…)\s*$`)},
		{Name: "bare_reference", Category: CategoryIncomplete, Weight: -2,
			Matches: Pattern(`(?i)^\s*(art(igo)?\.?\s*\d+[º°o]?|§\s*\d+[º°o]?|par[áa]grafo\s+([úu]nico|\d+[º°o]?)|inciso\s+[ivxlcdm]+|al[íi]nea\s+[a-z])\s*[-–.:,;]?\s*$`)},
		{Name: "isolated_number", Category: CategoryIncomplete, Weight: -2,
			Matches: Pattern(`^\s*[\d.,/%-]+\s*$`)},

		// Leaked markup rather than prose.
		{Name: "markup_characters", Category: CategoryMarkup, Weight: -2,
			Matches: hasExcessMarkup},
		{Name: "whitespace_runs", Category: CategoryMarkup, Weight: -2,
			Matches: Pattern(`[ \t\x{00A0}]{5,}|\n{4,}`)},

		{Name: "legal_instrument", Category: CategoryInformative, Weight: 1,
			Matches: Pattern(`(?i)\b(leis?|decretos?|portarias?|regulamentos?|clt|s[uú]mulas?|laws?|decrees?|regulations?|statutes?)\b|\b(resolu[cç][aã]o|constitui[cç][aã]o|medida provis[oó]ria)`)},
		{Name: "definition", Category: CategoryInformative, Weight: 1,
			Matches: Pattern(`(?i)\b(considera-se|entende-se|define-se|compreende-se|para (os )?(fins|efeitos) d|is defined as|means that)`)},
		{Name: "procedural", Category: CategoryInformative, Weight: 1,
			Matches: Pattern(`(?i)\b(prazos?|requerimento|procedimento|mediante|comunica[cç][aã]o pr[eé]via|must be filed|within \d+ days)`)},
		{Name: "obligation", Category: CategoryInformative, Weight: 1,
			Matches: Pattern(`(?i)\b(deve|devem|shall|must)\b|\b(dever[aá]|obrigat[oó]ri[oa]s?|tem direito|t[eê]m direito|direito a|fica assegurad[oa]|is entitled)|[eé] vedad[oa]`)},
	}
}

func isShortUnterminated(text string) bool {
	t := strings.TrimSpace(text)
	if utf8.RuneCountInString(t) >= shortTextRunes {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(t)
	return !strings.ContainsRune(terminalPunctuation, last)
}

func hasExcessMarkup(text string) bool {
	n := 0
	for _, r := range text {
		switch r {
		case '{', '}', '[', ']', '<', '>', '|':
			n++
			if n > maxMarkupChars {
				return true
			}
		}
	}
	return false
}
